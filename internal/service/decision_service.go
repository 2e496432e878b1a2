package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/Freeeeeet/disk_entulho/internal/repository"
	"go.uber.org/zap"
)

// DecisionResult состояние после решения администратора
type DecisionResult struct {
	Booking  *model.Booking
	Payment  *model.Payment
	Notified bool
}

// PendingBooking бронирование с оплатой наличными, ожидающее решения
type PendingBooking struct {
	Booking  *model.Booking
	Customer *model.Customer
	Dumpster *model.Dumpster
	Total    int64
}

// DecisionService ручное подтверждение/отклонение оплаты наличными
type DecisionService struct {
	store         repository.Store
	notifications *NotificationService
	logger        *zap.Logger
}

func NewDecisionService(store repository.Store, notifications *NotificationService, logger *zap.Logger) *DecisionService {
	return &DecisionService{
		store:         store,
		notifications: notifications,
		logger:        logger,
	}
}

// Decide подтверждает (approve=true) или отклоняет бронирование вместе с оплатой наличными.
// Бронирование и оплата меняются в одной транзакции; повторное решение запрещено.
func (s *DecisionService) Decide(ctx context.Context, bookingID int64, approve bool) (*DecisionResult, error) {
	var result DecisionResult

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		booking, err := tx.Bookings().GetByID(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil || booking.IsDeleted() {
			return ErrBookingNotFound
		}
		if booking.PaymentID == nil {
			return ErrPaymentNotFound
		}

		// порядок блокировок как у сверки: сначала оплата, потом бронирование
		payment, err := tx.Payments().GetByIDForUpdate(ctx, *booking.PaymentID)
		if err != nil {
			return err
		}
		if payment == nil || payment.IsDeleted() {
			return ErrPaymentNotFound
		}
		if payment.Type != model.PaymentTypeCash {
			return ErrNotCashPayment
		}

		booking, err = tx.Bookings().GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if booking == nil || booking.IsDeleted() {
			return ErrBookingNotFound
		}

		if booking.Status.IsDecided() || payment.Status.IsTerminal() {
			return ErrAlreadyDecided
		}

		bookingStatus := model.BookingStatusRejected
		paymentStatus := model.PaymentStatusRejected
		if approve {
			bookingStatus = model.BookingStatusConfirmed
			paymentStatus = model.PaymentStatusApproved
		}

		payment.Status = paymentStatus
		if err := tx.Payments().Save(ctx, payment); err != nil {
			return err
		}

		booking.Status = bookingStatus
		if err := tx.Bookings().Save(ctx, booking); err != nil {
			return err
		}

		notified, err := s.notifications.RecordIfNewTx(
			ctx, tx,
			booking.ID,
			booking.CustomerID,
			StatusMessage(booking.ID, bookingStatus),
			bookingStatus,
		)
		if err != nil {
			return err
		}

		result = DecisionResult{Booking: booking, Payment: payment, Notified: notified}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("decide booking %d: %w", bookingID, err)
	}

	s.logger.Info("Booking decided",
		zap.Int64("booking_id", bookingID),
		zap.Int64("payment_id", result.Payment.ID),
		zap.Bool("approved", approve),
	)

	return &result, nil
}

// ListPending возвращает бронирования с наличной оплатой, ждущие решения
func (s *DecisionService) ListPending(ctx context.Context) ([]*PendingBooking, error) {
	bookings, err := s.store.Bookings().ListAwaitingDecision(ctx, model.PaymentTypeCash)
	if err != nil {
		return nil, fmt.Errorf("list pending bookings: %w", err)
	}

	pending := make([]*PendingBooking, 0, len(bookings))
	for _, booking := range bookings {
		item := &PendingBooking{Booking: booking}

		item.Customer, err = s.store.Customers().GetByID(ctx, booking.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("get customer: %w", err)
		}

		item.Dumpster, err = s.store.Dumpsters().GetByID(ctx, booking.DumpsterID)
		if err != nil {
			return nil, fmt.Errorf("get dumpster: %w", err)
		}

		item.Total = model.BookingTotal(booking, item.Dumpster)
		pending = append(pending, item)
	}

	return pending, nil
}
