package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/disk_entulho/internal/clock"
	"github.com/Freeeeeet/disk_entulho/internal/repository"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// MessageSender отправка сообщений в Telegram (*bot.Bot)
type MessageSender interface {
	SendMessage(ctx context.Context, params *bot.SendMessageParams) (*models.Message, error)
}

// Dispatcher доставляет записанные уведомления клиентам.
// Записи не создаёт и не удаляет, только отмечает доставку.
type Dispatcher struct {
	store     repository.Store
	sender    MessageSender
	clock     clock.Clock
	batchSize int
	logger    *zap.Logger
}

func NewDispatcher(store repository.Store, sender MessageSender, clk clock.Clock, batchSize int, logger *zap.Logger) *Dispatcher {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Dispatcher{
		store:     store,
		sender:    sender,
		clock:     clk,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Dispatch отправляет пачку недоставленных уведомлений, возвращает число доставленных.
// Ошибка отправки одного уведомления не мешает остальным; оно будет повторено в следующем цикле.
func (d *Dispatcher) Dispatch(ctx context.Context) (int, error) {
	records, err := d.store.Notifications().ListUnsent(ctx, d.batchSize)
	if err != nil {
		return 0, fmt.Errorf("list unsent notifications: %w", err)
	}

	delivered := 0
	for _, record := range records {
		customer, err := d.store.Customers().GetByID(ctx, record.CustomerID)
		if err != nil {
			return delivered, fmt.Errorf("get customer: %w", err)
		}

		// без канала доставки отправлять некуда: закрываем запись, иначе она будет висеть в очереди
		if customer == nil || customer.TelegramChatID == nil {
			d.logger.Warn("Customer has no delivery channel, notification dropped",
				zap.Int64("notification_id", record.ID),
				zap.Int64("customer_id", record.CustomerID),
			)
			if err := d.store.Notifications().MarkSent(ctx, record.ID, d.clock.Now()); err != nil {
				return delivered, err
			}
			continue
		}

		_, err = d.sender.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: *customer.TelegramChatID,
			Text:   record.Message,
		})
		if err != nil {
			d.logger.Error("Failed to deliver notification",
				zap.Int64("notification_id", record.ID),
				zap.Int64("booking_id", record.BookingID),
				zap.Error(err),
			)
			continue
		}

		if err := d.store.Notifications().MarkSent(ctx, record.ID, d.clock.Now()); err != nil {
			return delivered, err
		}
		delivered++
	}

	return delivered, nil
}
