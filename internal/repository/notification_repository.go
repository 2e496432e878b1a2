package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/Freeeeeet/disk_entulho/internal/repository/base"
)

type NotificationRepository struct {
	*base.Repository
}

func NewNotificationRepository(db base.DBTX) *NotificationRepository {
	return &NotificationRepository{Repository: base.NewRepository(db)}
}

// InsertIfAbsent вставляет запись журнала.
// Уникальный индекс (booking_id, status) гарантирует, что из конкурентных вставок пройдёт одна.
func (r *NotificationRepository) InsertIfAbsent(ctx context.Context, record *model.NotificationRecord) (bool, error) {
	query := `
		INSERT INTO notification_records (booking_id, customer_id, message, status, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (booking_id, status) DO NOTHING
		RETURNING id
	`

	err := r.QueryRow(
		ctx, query,
		record.BookingID,
		record.CustomerID,
		record.Message,
		record.Status,
		record.CreatedAt,
	).Scan(&record.ID)

	if err != nil {
		if base.IsNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert notification: %w", err)
	}

	return true, nil
}

func (r *NotificationRepository) list(ctx context.Context, op, query string, args ...any) ([]*model.NotificationRecord, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var records []*model.NotificationRecord
	for rows.Next() {
		var rec model.NotificationRecord
		err := rows.Scan(
			&rec.ID,
			&rec.BookingID,
			&rec.CustomerID,
			&rec.Message,
			&rec.Status,
			&rec.Sent,
			&rec.CreatedAt,
			&rec.SentAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		records = append(records, &rec)
	}

	return records, rows.Err()
}

// ListByBookingID получает все уведомления по бронированию
func (r *NotificationRepository) ListByBookingID(ctx context.Context, bookingID int64) ([]*model.NotificationRecord, error) {
	query := `
		SELECT id, booking_id, customer_id, message, status, sent, created_at, sent_at
		FROM notification_records
		WHERE booking_id = $1
		ORDER BY created_at ASC, id ASC
	`
	return r.list(ctx, "list notifications by booking", query, bookingID)
}

// ListUnsent получает ещё не доставленные уведомления
func (r *NotificationRepository) ListUnsent(ctx context.Context, limit int) ([]*model.NotificationRecord, error) {
	query := `
		SELECT id, booking_id, customer_id, message, status, sent, created_at, sent_at
		FROM notification_records
		WHERE sent = FALSE
		ORDER BY created_at ASC, id ASC
		LIMIT $1
	`
	return r.list(ctx, "list unsent notifications", query, limit)
}

// MarkSent отмечает уведомление доставленным
func (r *NotificationRepository) MarkSent(ctx context.Context, id int64, sentAt time.Time) error {
	query := `
		UPDATE notification_records
		SET sent = TRUE, sent_at = $1
		WHERE id = $2
	`

	affected, err := r.ExecAffected(ctx, query, sentAt, id)
	if err != nil {
		return fmt.Errorf("mark notification sent: %w", err)
	}

	if affected == 0 {
		return fmt.Errorf("notification not found")
	}

	return nil
}
