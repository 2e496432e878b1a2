package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/disk_entulho/internal/gateway"
	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/Freeeeeet/disk_entulho/internal/repository"
	"go.uber.org/zap"
)

// StatusChecker запрашивает статус заказа в платёжном шлюзе
type StatusChecker interface {
	GetStatus(ctx context.Context, orderID string) (gateway.Status, error)
}

// ReconcileReport итоги одного цикла сверки
type ReconcileReport struct {
	Checked       int
	Approved      int
	Rejected      int
	Waiting       int
	Unknown       int
	GatewayErrors int
	Skipped       int
	Notified      int
}

// Transition изменения, которые статус шлюза вызывает локально.
// BookingStatus пустой - статус бронирования не меняется.
type Transition struct {
	PaymentStatus model.PaymentStatus
	BookingStatus model.BookingStatus
	NotifyStatus  model.BookingStatus
}

// TransitionFor сопоставляет статус шлюза с локальным переходом.
// ok=false для нераспознанного статуса: ничего не меняем.
func TransitionFor(status gateway.Status) (Transition, bool) {
	switch status {
	case gateway.StatusPaid:
		return Transition{
			PaymentStatus: model.PaymentStatusApproved,
			BookingStatus: model.BookingStatusConfirmed,
			NotifyStatus:  model.BookingStatusConfirmed,
		}, true
	case gateway.StatusCancelled:
		return Transition{
			PaymentStatus: model.PaymentStatusRejected,
			BookingStatus: model.BookingStatusRejected,
			NotifyStatus:  model.BookingStatusRejected,
		}, true
	case gateway.StatusWaiting:
		return Transition{
			PaymentStatus: model.PaymentStatusProcessing,
			NotifyStatus:  model.BookingStatusProcessing,
		}, true
	default:
		return Transition{}, false
	}
}

type plannedTransition struct {
	paymentID      int64
	paymentVersion int64
	gatewayStatus  gateway.Status
	transition     Transition
}

// ReconciliationService синхронизирует электронные оплаты со шлюзом
type ReconciliationService struct {
	store         repository.Store
	gateway       StatusChecker
	notifications *NotificationService
	types         []model.PaymentType
	queryTimeout  time.Duration
	logger        *zap.Logger
}

func NewReconciliationService(
	store repository.Store,
	gw StatusChecker,
	notifications *NotificationService,
	types []model.PaymentType,
	queryTimeout time.Duration,
	logger *zap.Logger,
) *ReconciliationService {
	if len(types) == 0 {
		types = []model.PaymentType{model.PaymentTypePix}
	}
	if queryTimeout <= 0 {
		queryTimeout = 15 * time.Second
	}
	return &ReconciliationService{
		store:         store,
		gateway:       gw,
		notifications: notifications,
		types:         types,
		queryTimeout:  queryTimeout,
		logger:        logger,
	}
}

// Reconcile выполняет один цикл сверки.
// Шлюз опрашивается вне транзакции, все изменения цикла применяются одним коммитом.
func (s *ReconciliationService) Reconcile(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport

	payments, err := s.store.Payments().ListPendingReconciliation(ctx, s.types)
	if err != nil {
		return report, fmt.Errorf("list pending payments: %w", err)
	}

	plans := make([]plannedTransition, 0, len(payments))
	for _, payment := range payments {
		report.Checked++

		status, err := s.queryStatus(ctx, payment)
		if err != nil {
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			report.GatewayErrors++
			s.logger.Warn("Failed to query payment status",
				zap.Int64("payment_id", payment.ID),
				zap.Error(err),
			)
			continue
		}

		transition, ok := TransitionFor(status)
		if !ok {
			report.Unknown++
			s.logger.Warn("Unrecognized gateway status, payment left unchanged",
				zap.Int64("payment_id", payment.ID),
				zap.String("gateway_status", string(status)),
			)
			continue
		}

		plans = append(plans, plannedTransition{
			paymentID:      payment.ID,
			paymentVersion: payment.Version,
			gatewayStatus:  status,
			transition:     transition,
		})
	}

	if len(plans) == 0 {
		return report, nil
	}

	// счётчики применённых переходов имеют смысл только после коммита
	applied := report
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Repos) error {
		applied = report
		for _, plan := range plans {
			if err := s.apply(ctx, tx, plan, &applied); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return report, fmt.Errorf("apply payment transitions: %w", err)
	}

	return applied, nil
}

func (s *ReconciliationService) queryStatus(ctx context.Context, payment *model.Payment) (gateway.Status, error) {
	if payment.GatewayOrderID == nil {
		return gateway.StatusUnknown, gateway.ErrEmptyOrderID
	}

	queryCtx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	return s.gateway.GetStatus(queryCtx, *payment.GatewayOrderID)
}

// apply применяет один переход под блокировкой оплаты и бронирования.
// Устаревшие и несогласованные записи пропускаются, ошибки хранилища прерывают весь цикл.
func (s *ReconciliationService) apply(ctx context.Context, tx repository.Repos, plan plannedTransition, report *ReconcileReport) error {
	logger := s.logger.With(
		zap.Int64("payment_id", plan.paymentID),
		zap.String("gateway_status", string(plan.gatewayStatus)),
	)

	payment, err := tx.Payments().GetByIDForUpdate(ctx, plan.paymentID)
	if err != nil {
		return err
	}

	if payment == nil || payment.IsDeleted() || payment.Version != plan.paymentVersion {
		report.Skipped++
		logger.Info("Payment changed since status query, skipping")
		return nil
	}

	if !payment.CanTransitionTo(plan.transition.PaymentStatus) {
		report.Skipped++
		logger.Info("Payment transition not allowed, skipping",
			zap.String("payment_status", string(payment.Status)))
		return nil
	}

	booking, err := tx.Bookings().GetActiveByPaymentIDForUpdate(ctx, payment.ID)
	if err != nil {
		return err
	}

	if booking == nil {
		report.Skipped++
		logger.Warn("No active booking linked to payment, skipping")
		return nil
	}

	logger = logger.With(zap.Int64("booking_id", booking.ID))

	if plan.transition.BookingStatus != "" && booking.Status.IsDecided() {
		report.Skipped++
		logger.Info("Booking already decided, skipping",
			zap.String("booking_status", string(booking.Status)))
		return nil
	}

	if payment.Status != plan.transition.PaymentStatus {
		payment.Status = plan.transition.PaymentStatus
		if err := tx.Payments().Save(ctx, payment); err != nil {
			return err
		}
	}

	if plan.transition.BookingStatus != "" && booking.Status != plan.transition.BookingStatus {
		booking.Status = plan.transition.BookingStatus
		if err := tx.Bookings().Save(ctx, booking); err != nil {
			return err
		}
	}

	created, err := s.notifications.RecordIfNewTx(
		ctx, tx,
		booking.ID,
		booking.CustomerID,
		StatusMessage(booking.ID, plan.transition.NotifyStatus),
		plan.transition.NotifyStatus,
	)
	if err != nil {
		return err
	}
	if created {
		report.Notified++
	}

	switch plan.gatewayStatus {
	case gateway.StatusPaid:
		report.Approved++
	case gateway.StatusCancelled:
		report.Rejected++
	case gateway.StatusWaiting:
		report.Waiting++
	}

	logger.Info("Payment reconciled",
		zap.String("payment_status", string(payment.Status)),
		zap.String("booking_status", string(booking.Status)),
		zap.Bool("notified", created),
	)

	return nil
}
