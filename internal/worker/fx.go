package worker

import (
	"context"

	"go.uber.org/fx"
)

var Module = fx.Module("worker",
	fx.Provide(DefaultConfig),
	fx.Provide(NewWorker),
	fx.Provide(NewListener),
	fx.Invoke(run),
)

func run(lc fx.Lifecycle, worker *Worker, listener *Listener) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go worker.RunForever(ctx)
			go listener.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}
