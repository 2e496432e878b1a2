package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/Freeeeeet/disk_entulho/internal/repository/base"
)

type CustomerRepository struct {
	*base.Repository
}

func NewCustomerRepository(db base.DBTX) *CustomerRepository {
	return &CustomerRepository{Repository: base.NewRepository(db)}
}

// GetByID получает клиента по ID
func (r *CustomerRepository) GetByID(ctx context.Context, id int64) (*model.Customer, error) {
	query := `
		SELECT id, name, email, phone, telegram_chat_id, created_at
		FROM customers
		WHERE id = $1
	`

	var customer model.Customer
	err := r.QueryRow(ctx, query, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Phone,
		&customer.TelegramChatID,
		&customer.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get customer by id: %w", err)
	}

	return &customer, nil
}
