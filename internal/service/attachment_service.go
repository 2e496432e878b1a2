package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/disk_entulho/internal/gateway"
	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/Freeeeeet/disk_entulho/internal/repository"
	"go.uber.org/zap"
)

// ChargeCreator создаёт Pix-заказ в платёжном шлюзе
type ChargeCreator interface {
	CreatePixCharge(ctx context.Context, amount int64, referenceID string) (*gateway.Charge, error)
}

// AttachmentService привязывает оплату к бронированию (ровно одну, один раз)
type AttachmentService struct {
	store   repository.Store
	charges ChargeCreator
	logger  *zap.Logger
}

func NewAttachmentService(store repository.Store, charges ChargeCreator, logger *zap.Logger) *AttachmentService {
	return &AttachmentService{
		store:   store,
		charges: charges,
		logger:  logger,
	}
}

// AttachPayment создаёт оплату для бронирования и переводит его в processing.
// Для Pix сначала создаётся заказ в шлюзе; наличные ждут решения администратора.
func (s *AttachmentService) AttachPayment(ctx context.Context, bookingID int64, paymentType model.PaymentType) (*model.Payment, error) {
	if paymentType != model.PaymentTypeCash && paymentType != model.PaymentTypePix {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPaymentType, paymentType)
	}

	booking, err := s.store.Bookings().GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("get booking: %w", err)
	}
	if err := checkPayable(booking); err != nil {
		return nil, err
	}

	dumpster, err := s.store.Dumpsters().GetByID(ctx, booking.DumpsterID)
	if err != nil {
		return nil, fmt.Errorf("get dumpster: %w", err)
	}
	if dumpster == nil {
		return nil, ErrDumpsterNotFound
	}

	payment := &model.Payment{
		Amount: model.BookingTotal(booking, dumpster),
		Type:   paymentType,
		Status: model.InitialPaymentStatus(paymentType),
	}

	if paymentType == model.PaymentTypePix {
		if s.charges == nil {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedPaymentType, paymentType)
		}
		charge, err := s.charges.CreatePixCharge(ctx, payment.Amount, fmt.Sprintf("booking-%d", booking.ID))
		if err != nil {
			return nil, fmt.Errorf("create pix charge: %w", err)
		}
		payment.GatewayOrderID = &charge.OrderID
		if charge.QRCode != "" {
			payment.GatewayQRCode = &charge.QRCode
		}
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		locked, err := tx.Bookings().GetByIDForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if err := checkPayable(locked); err != nil {
			return err
		}

		if err := tx.Payments().Create(ctx, payment); err != nil {
			return err
		}

		return tx.Bookings().AttachPayment(ctx, locked, payment.ID)
	})
	if err != nil {
		if payment.GatewayOrderID != nil {
			s.logger.Warn("Gateway order created but payment not attached",
				zap.Int64("booking_id", bookingID),
				zap.String("order_id", *payment.GatewayOrderID),
				zap.Error(err),
			)
		}
		return nil, fmt.Errorf("attach payment to booking %d: %w", bookingID, err)
	}

	s.logger.Info("Payment attached",
		zap.Int64("booking_id", bookingID),
		zap.Int64("payment_id", payment.ID),
		zap.String("type", string(paymentType)),
		zap.Int64("amount", payment.Amount),
	)

	return payment, nil
}

func checkPayable(booking *model.Booking) error {
	if booking == nil || booking.IsDeleted() {
		return ErrBookingNotFound
	}
	if booking.PaymentID != nil {
		return repository.ErrPaymentAlreadyAttached
	}
	if booking.Status != model.BookingStatusCreated {
		return ErrBookingNotPayable
	}
	return nil
}

// IsAlreadyAttached проверяет ошибку повторной привязки оплаты
func IsAlreadyAttached(err error) bool {
	return errors.Is(err, repository.ErrPaymentAlreadyAttached)
}
