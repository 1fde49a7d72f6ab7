package dispatch

import (
	"context"
	"log/slog"

	"go.uber.org/fx"
)

// Module wires the in-memory hub as the Broadcaster implementation.
var Module = fx.Options(
	fx.Provide(
		NewHub,
		func(h *Hub) Broadcaster { return h },
	),
	fx.Invoke(registerLifecycle),
)

func registerLifecycle(lc fx.Lifecycle, hub *Hub, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			hub.Close()
			logger.Info("dispatch hub closed")
			return nil
		},
	})
}
