package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/disk_entulho/internal/clock"
	"github.com/Freeeeeet/disk_entulho/internal/repository"
	"go.uber.org/zap"
)

// DefaultGracePeriod сколько бронирование может провисеть в created без оплаты
const DefaultGracePeriod = 5 * time.Minute

// ExpirationService отклоняет бронирования, которые так и не получили оплату
type ExpirationService struct {
	store  repository.Store
	clock  clock.Clock
	grace  time.Duration
	logger *zap.Logger
}

func NewExpirationService(store repository.Store, clk clock.Clock, grace time.Duration, logger *zap.Logger) *ExpirationService {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &ExpirationService{
		store:  store,
		clock:  clk,
		grace:  grace,
		logger: logger,
	}
}

// Sweep отклоняет и мягко удаляет просроченные бронирования одним коммитом.
// Уведомления клиенту здесь не создаются.
func (s *ExpirationService) Sweep(ctx context.Context) (int, error) {
	now := s.clock.Now()
	cutoff := now.Add(-s.grace)

	var expired []int64
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		bookings, err := tx.Bookings().ListExpiredForUpdate(ctx, cutoff)
		if err != nil {
			return err
		}

		for _, booking := range bookings {
			booking.Expire(now)
			if err := tx.Bookings().Save(ctx, booking); err != nil {
				return err
			}
			expired = append(expired, booking.ID)
		}

		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("expire bookings: %w", err)
	}

	if len(expired) > 0 {
		s.logger.Info("Expired bookings rejected",
			zap.Int("count", len(expired)),
			zap.Int64s("booking_ids", expired),
			zap.Time("cutoff", cutoff),
		)
	}

	return len(expired), nil
}
