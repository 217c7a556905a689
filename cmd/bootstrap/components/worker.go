package components

import (
	"context"

	"homesit/internal/infra/notify"
	"homesit/internal/infra/outbox"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		fx.Annotate(
			notify.NewTableNotifier,
			fx.As(new(notify.Notifier)),
		),
		fx.Annotate(
			notify.NewLogMailer,
			fx.As(new(notify.Mailer)),
		),
		outbox.NewDispatcher,
	),
	fx.Invoke(startDispatcher),
)

func startDispatcher(lc fx.Lifecycle, dispatcher *outbox.Dispatcher) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			dispatcher.Start(context.Background())
			return nil
		},
		OnStop: func(_ context.Context) error {
			dispatcher.Stop()
			return nil
		},
	})
}
