package attendance

import (
	"go.uber.org/fx"

	"github.com/canteenhq/canteend/internal/attendance/repository"
)

var Module = fx.Module("attendance",
	fx.Provide(
		repository.New,
		NewWriter,
		NewResolver,
	),
)
