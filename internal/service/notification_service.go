package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/disk_entulho/internal/clock"
	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/Freeeeeet/disk_entulho/internal/repository"
	"go.uber.org/zap"
)

// NotificationService журнал уведомлений с дедупликацией по (бронирование, статус)
type NotificationService struct {
	store  repository.Store
	clock  clock.Clock
	logger *zap.Logger
}

func NewNotificationService(store repository.Store, clk clock.Clock, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		store:  store,
		clock:  clk,
		logger: logger,
	}
}

// StatusMessage текст уведомления клиенту о новом статусе бронирования
func StatusMessage(bookingID int64, status model.BookingStatus) string {
	switch status {
	case model.BookingStatusConfirmed:
		return fmt.Sprintf("✅ Pagamento aprovado! Sua reserva #%d foi confirmada.", bookingID)
	case model.BookingStatusRejected:
		return fmt.Sprintf("❌ Pagamento cancelado. Sua reserva #%d foi rejeitada.", bookingID)
	case model.BookingStatusProcessing:
		return fmt.Sprintf("⏳ Pagamento aguardando confirmação. Sua reserva #%d está em processamento.", bookingID)
	default:
		return fmt.Sprintf("Sua reserva #%d mudou de status: %s.", bookingID, status)
	}
}

// RecordIfNew записывает уведомление в отдельной транзакции.
// Возвращает true, если запись создана, и false, если клиента уже уведомляли об этом статусе.
func (s *NotificationService) RecordIfNew(ctx context.Context, bookingID, customerID int64, message string, status model.BookingStatus) (bool, error) {
	var created bool
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		var err error
		created, err = s.RecordIfNewTx(ctx, tx, bookingID, customerID, message, status)
		return err
	})
	return created, err
}

// RecordIfNewTx то же самое, но в транзакции вызывающего
func (s *NotificationService) RecordIfNewTx(ctx context.Context, tx repository.Repos, bookingID, customerID int64, message string, status model.BookingStatus) (bool, error) {
	record := &model.NotificationRecord{
		BookingID:  bookingID,
		CustomerID: customerID,
		Message:    message,
		Status:     status,
		CreatedAt:  s.clock.Now(),
	}

	created, err := tx.Notifications().InsertIfAbsent(ctx, record)
	if err != nil {
		return false, fmt.Errorf("record notification: %w", err)
	}

	if !created {
		s.logger.Debug("Notification already recorded",
			zap.Int64("booking_id", bookingID),
			zap.String("status", string(status)),
		)
		return false, nil
	}

	s.logger.Info("Notification recorded",
		zap.Int64("notification_id", record.ID),
		zap.Int64("booking_id", bookingID),
		zap.Int64("customer_id", customerID),
		zap.String("status", string(status)),
	)

	return true, nil
}

// History возвращает уведомления по бронированию
func (s *NotificationService) History(ctx context.Context, bookingID int64) ([]*model.NotificationRecord, error) {
	records, err := s.store.Notifications().ListByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get notification history: %w", err)
	}
	return records, nil
}
