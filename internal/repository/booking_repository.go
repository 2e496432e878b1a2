package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/Freeeeeet/disk_entulho/internal/repository/base"
)

const bookingColumns = `
	b.id, b.customer_id, b.dumpster_id, b.payment_id, b.address, b.latitude, b.longitude,
	b.start_date, b.end_date, b.status, b.created_at, b.deleted_at, b.version`

type BookingRepository struct {
	*base.Repository
}

func NewBookingRepository(db base.DBTX) *BookingRepository {
	return &BookingRepository{Repository: base.NewRepository(db)}
}

func scanBooking(row base.Scanner) (*model.Booking, error) {
	var booking model.Booking
	err := row.Scan(
		&booking.ID,
		&booking.CustomerID,
		&booking.DumpsterID,
		&booking.PaymentID,
		&booking.Address,
		&booking.Latitude,
		&booking.Longitude,
		&booking.StartDate,
		&booking.EndDate,
		&booking.Status,
		&booking.CreatedAt,
		&booking.DeletedAt,
		&booking.Version,
	)
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *BookingRepository) getOne(ctx context.Context, op, query string, args ...any) (*model.Booking, error) {
	booking, err := scanBooking(r.QueryRow(ctx, query, args...))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return booking, nil
}

// GetByID получает бронирование по ID
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT` + bookingColumns + `
		FROM bookings b
		WHERE b.id = $1
	`
	return r.getOne(ctx, "get booking by id", query, id)
}

// GetByIDForUpdate получает бронирование и блокирует строку
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Booking, error) {
	query := `SELECT` + bookingColumns + `
		FROM bookings b
		WHERE b.id = $1
		FOR UPDATE
	`
	return r.getOne(ctx, "lock booking", query, id)
}

// GetActiveByPaymentIDForUpdate получает неудалённое бронирование по оплате
func (r *BookingRepository) GetActiveByPaymentIDForUpdate(ctx context.Context, paymentID int64) (*model.Booking, error) {
	query := `SELECT` + bookingColumns + `
		FROM bookings b
		WHERE b.payment_id = $1 AND b.deleted_at IS NULL
		LIMIT 1
		FOR UPDATE
	`
	return r.getOne(ctx, "lock booking by payment", query, paymentID)
}

// ListExpiredForUpdate выбирает просроченные бронирования, пропуская занятые строки
func (r *BookingRepository) ListExpiredForUpdate(ctx context.Context, cutoff time.Time) ([]*model.Booking, error) {
	query := `SELECT` + bookingColumns + `
		FROM bookings b
		WHERE b.status = $1 AND b.deleted_at IS NULL AND b.created_at <= $2
		ORDER BY b.created_at ASC
		FOR UPDATE SKIP LOCKED
	`

	rows, err := r.Query(ctx, query, model.BookingStatusCreated, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list expired bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		booking, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, rows.Err()
}

// ListAwaitingDecision получает бронирования, по которым администратор ещё не решил
func (r *BookingRepository) ListAwaitingDecision(ctx context.Context, paymentType model.PaymentType) ([]*model.Booking, error) {
	query := `SELECT` + bookingColumns + `,
			p.id, p.amount, p.type, p.status, p.gateway_order_id, p.gateway_qr_code,
			p.created_at, p.deleted_at, p.version
		FROM bookings b
		JOIN payments p ON p.id = b.payment_id
		WHERE b.deleted_at IS NULL
		  AND p.deleted_at IS NULL
		  AND p.type = $1
		  AND p.status = $2
		  AND b.status IN ($3, $4)
		ORDER BY b.created_at ASC
	`

	rows, err := r.Query(ctx, query,
		paymentType,
		model.PaymentStatusProcessing,
		model.BookingStatusCreated,
		model.BookingStatusProcessing,
	)
	if err != nil {
		return nil, fmt.Errorf("list bookings awaiting decision: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		var booking model.Booking
		var payment model.Payment
		err := rows.Scan(
			&booking.ID,
			&booking.CustomerID,
			&booking.DumpsterID,
			&booking.PaymentID,
			&booking.Address,
			&booking.Latitude,
			&booking.Longitude,
			&booking.StartDate,
			&booking.EndDate,
			&booking.Status,
			&booking.CreatedAt,
			&booking.DeletedAt,
			&booking.Version,
			&payment.ID,
			&payment.Amount,
			&payment.Type,
			&payment.Status,
			&payment.GatewayOrderID,
			&payment.GatewayQRCode,
			&payment.CreatedAt,
			&payment.DeletedAt,
			&payment.Version,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		booking.Payment = &payment
		bookings = append(bookings, &booking)
	}

	return bookings, rows.Err()
}

// Save обновляет статус и удаление бронирования. payment_id здесь не меняется никогда.
func (r *BookingRepository) Save(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings
		SET status = $1, deleted_at = $2, version = version + 1
		WHERE id = $3 AND version = $4
	`

	affected, err := r.ExecAffected(ctx, query, booking.Status, booking.DeletedAt, booking.ID, booking.Version)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("update booking %d: %w", booking.ID, ErrConflict)
	}

	booking.Version++
	return nil
}

// AttachPayment привязывает оплату и переводит бронирование в processing
func (r *BookingRepository) AttachPayment(ctx context.Context, booking *model.Booking, paymentID int64) error {
	query := `
		UPDATE bookings
		SET payment_id = $1, status = $2, version = version + 1
		WHERE id = $3 AND version = $4 AND payment_id IS NULL
	`

	affected, err := r.ExecAffected(ctx, query, paymentID, model.BookingStatusProcessing, booking.ID, booking.Version)
	if err != nil {
		// payment_id уникален: эта оплата уже привязана к другому бронированию
		if base.IsUniqueViolation(err) {
			return fmt.Errorf("attach payment %d: %w", paymentID, ErrPaymentAlreadyAttached)
		}
		return fmt.Errorf("attach payment: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("attach payment to booking %d: %w", booking.ID, ErrPaymentAlreadyAttached)
	}

	booking.PaymentID = &paymentID
	booking.Status = model.BookingStatusProcessing
	booking.Version++
	return nil
}
