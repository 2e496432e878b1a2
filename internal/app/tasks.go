package app

import (
	"context"
	"time"

	"github.com/Freeeeeet/disk_entulho/internal/service"
	"go.uber.org/zap"
)

// SweepTask периодически отклоняет просроченные бронирования
func SweepTask(svc *service.ExpirationService, interval time.Duration) Task {
	return Task{
		Name:     "booking_expiration",
		Interval: interval,
		Run: func(ctx context.Context) error {
			_, err := svc.Sweep(ctx)
			return err
		},
	}
}

// ReconcileTask периодически сверяет оплаты со шлюзом
func ReconcileTask(svc *service.ReconciliationService, interval time.Duration, logger *zap.Logger) Task {
	return Task{
		Name:     "payment_reconciliation",
		Interval: interval,
		Run: func(ctx context.Context) error {
			report, err := svc.Reconcile(ctx)
			if err != nil {
				return err
			}
			if report.Checked > 0 {
				logger.Info("Payment reconciliation completed",
					zap.Int("checked", report.Checked),
					zap.Int("approved", report.Approved),
					zap.Int("rejected", report.Rejected),
					zap.Int("waiting", report.Waiting),
					zap.Int("unknown", report.Unknown),
					zap.Int("gateway_errors", report.GatewayErrors),
					zap.Int("skipped", report.Skipped),
					zap.Int("notified", report.Notified),
				)
			}
			return nil
		},
	}
}

// DispatchTask периодически доставляет уведомления
func DispatchTask(d *service.Dispatcher, interval time.Duration, logger *zap.Logger) Task {
	return Task{
		Name:     "notification_dispatch",
		Interval: interval,
		Run: func(ctx context.Context) error {
			delivered, err := d.Dispatch(ctx)
			if delivered > 0 {
				logger.Info("Notifications delivered", zap.Int("count", delivered))
			}
			return err
		},
	}
}
