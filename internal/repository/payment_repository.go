package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/Freeeeeet/disk_entulho/internal/repository/base"
)

const paymentColumns = `
	id, amount, type, status, gateway_order_id, gateway_qr_code, created_at, deleted_at, version`

type PaymentRepository struct {
	*base.Repository
}

func NewPaymentRepository(db base.DBTX) *PaymentRepository {
	return &PaymentRepository{Repository: base.NewRepository(db)}
}

func scanPayment(row base.Scanner) (*model.Payment, error) {
	var payment model.Payment
	err := row.Scan(
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
		return nil, err
	}
	return &payment, nil
}

// Create создаёт оплату
func (r *PaymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := `
		INSERT INTO payments (amount, type, status, gateway_order_id, gateway_qr_code)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, version
	`

	err := r.QueryRow(
		ctx, query,
		payment.Amount,
		payment.Type,
		payment.Status,
		payment.GatewayOrderID,
		payment.GatewayQRCode,
	).Scan(&payment.ID, &payment.CreatedAt, &payment.Version)

	if err != nil {
		return fmt.Errorf("create payment: %w", err)
	}

	return nil
}

// GetByID получает оплату по ID
func (r *PaymentRepository) GetByID(ctx context.Context, id int64) (*model.Payment, error) {
	query := `SELECT` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPayment(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment by id: %w", err)
	}

	return payment, nil
}

// GetByIDForUpdate получает оплату и блокирует строку
func (r *PaymentRepository) GetByIDForUpdate(ctx context.Context, id int64) (*model.Payment, error) {
	query := `SELECT` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`

	payment, err := scanPayment(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lock payment: %w", err)
	}

	return payment, nil
}

// ListPendingReconciliation получает оплаты, статус которых надо сверить со шлюзом
func (r *PaymentRepository) ListPendingReconciliation(ctx context.Context, types []model.PaymentType) ([]*model.Payment, error) {
	query := `SELECT` + paymentColumns + `
		FROM payments
		WHERE status IN ($1, $2)
		  AND type = ANY($3)
		  AND deleted_at IS NULL
		  AND gateway_order_id IS NOT NULL
		ORDER BY created_at ASC
	`

	typeNames := make([]string, 0, len(types))
	for _, t := range types {
		typeNames = append(typeNames, string(t))
	}

	rows, err := r.Query(ctx, query, model.PaymentStatusCreated, model.PaymentStatusProcessing, typeNames)
	if err != nil {
		return nil, fmt.Errorf("list pending payments: %w", err)
	}
	defer rows.Close()

	var payments []*model.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

// Save обновляет статус и данные шлюза с проверкой версии
func (r *PaymentRepository) Save(ctx context.Context, payment *model.Payment) error {
	query := `
		UPDATE payments
		SET status = $1, gateway_order_id = $2, gateway_qr_code = $3, version = version + 1
		WHERE id = $4 AND version = $5
	`

	affected, err := r.ExecAffected(ctx, query,
		payment.Status,
		payment.GatewayOrderID,
		payment.GatewayQRCode,
		payment.ID,
		payment.Version,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("update payment %d: %w", payment.ID, ErrConflict)
	}

	payment.Version++
	return nil
}
