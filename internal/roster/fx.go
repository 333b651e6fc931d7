package roster

import (
	"go.uber.org/fx"

	"github.com/canteenhq/canteend/internal/roster/repository"
)

var Module = fx.Module("roster",
	fx.Provide(repository.New),
)
