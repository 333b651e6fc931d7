package message

import (
	"go.uber.org/fx"

	"github.com/canteenhq/canteend/internal/message/repository"
)

var Module = fx.Module("message",
	fx.Provide(repository.New),
)
