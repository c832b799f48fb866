package notification

import (
	"context"
	"time"

	"github.com/brightstack/coursekart/internal/notification/domain"
	"github.com/brightstack/coursekart/internal/notification/service"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const dispatchInterval = 15 * time.Second

var Module = fx.Module("notification.service",
	fx.Provide(service.New),
	fx.Invoke(runDispatcher),
)

// runDispatcher drains the receipt outbox in the background for the
// lifetime of the process.
func runDispatcher(lc fx.Lifecycle, svc domain.Service, log *zap.Logger) {
	log = log.Named("notification.dispatcher")
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				defer close(done)
				ticker := time.NewTicker(dispatchInterval)
				defer ticker.Stop()
				for {
					select {
					case <-ctx.Done():
						return
					case <-ticker.C:
						if _, err := svc.DispatchPending(ctx); err != nil && ctx.Err() == nil {
							log.Warn("outbox dispatch failed", zap.Error(err))
						}
					}
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-stopCtx.Done():
			}
			return nil
		},
	})
}
