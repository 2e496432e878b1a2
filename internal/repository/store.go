package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/Freeeeeet/disk_entulho/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrConflict - запись изменилась после чтения (не совпала версия)
	ErrConflict = errors.New("concurrent modification")
	// ErrPaymentAlreadyAttached - у бронирования уже есть оплата
	ErrPaymentAlreadyAttached = errors.New("payment already attached")
)

type BookingStore interface {
	GetByID(ctx context.Context, id int64) (*model.Booking, error)
	// GetByIDForUpdate блокирует строку до конца транзакции
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Booking, error)
	// GetActiveByPaymentIDForUpdate ищет неудалённое бронирование, к которому привязана оплата
	GetActiveByPaymentIDForUpdate(ctx context.Context, paymentID int64) (*model.Booking, error)
	// ListExpiredForUpdate возвращает активные created-бронирования старше cutoff
	ListExpiredForUpdate(ctx context.Context, cutoff time.Time) ([]*model.Booking, error)
	// ListAwaitingDecision возвращает бронирования с оплатой указанного типа в статусе processing
	ListAwaitingDecision(ctx context.Context, paymentType model.PaymentType) ([]*model.Booking, error)
	// Save сохраняет статус и удаление с проверкой версии
	Save(ctx context.Context, booking *model.Booking) error
	// AttachPayment привязывает оплату, если её ещё нет
	AttachPayment(ctx context.Context, booking *model.Booking, paymentID int64) error
}

type PaymentStore interface {
	Create(ctx context.Context, payment *model.Payment) error
	GetByID(ctx context.Context, id int64) (*model.Payment, error)
	GetByIDForUpdate(ctx context.Context, id int64) (*model.Payment, error)
	// ListPendingReconciliation возвращает created/processing оплаты с заказом в шлюзе
	ListPendingReconciliation(ctx context.Context, types []model.PaymentType) ([]*model.Payment, error)
	Save(ctx context.Context, payment *model.Payment) error
}

type NotificationStore interface {
	// InsertIfAbsent вставляет запись, если пары (booking_id, status) ещё нет
	InsertIfAbsent(ctx context.Context, record *model.NotificationRecord) (bool, error)
	ListByBookingID(ctx context.Context, bookingID int64) ([]*model.NotificationRecord, error)
	ListUnsent(ctx context.Context, limit int) ([]*model.NotificationRecord, error)
	MarkSent(ctx context.Context, id int64, sentAt time.Time) error
}

type CustomerStore interface {
	GetByID(ctx context.Context, id int64) (*model.Customer, error)
}

type DumpsterStore interface {
	GetByID(ctx context.Context, id int64) (*model.Dumpster, error)
}

// Repos набор репозиториев, работающих в одной области (пул или транзакция)
type Repos interface {
	Bookings() BookingStore
	Payments() PaymentStore
	Notifications() NotificationStore
	Customers() CustomerStore
	Dumpsters() DumpsterStore
}

// Store хранилище с поддержкой транзакций
type Store interface {
	Repos
	// WithinTx выполняет fn в транзакции: всё или ничего
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repos) error) error
}

type pgRepos struct {
	db base.DBTX
}

func (r pgRepos) Bookings() BookingStore           { return NewBookingRepository(r.db) }
func (r pgRepos) Payments() PaymentStore           { return NewPaymentRepository(r.db) }
func (r pgRepos) Notifications() NotificationStore { return NewNotificationRepository(r.db) }
func (r pgRepos) Customers() CustomerStore         { return NewCustomerRepository(r.db) }
func (r pgRepos) Dumpsters() DumpsterStore         { return NewDumpsterRepository(r.db) }

// PgStore хранилище поверх PostgreSQL
type PgStore struct {
	pgRepos
	pool *pgxpool.Pool
}

// NewPgStore создаёт хранилище на пуле соединений
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pgRepos: pgRepos{db: pool}, pool: pool}
}

// WithinTx начинает транзакцию, откатывает её при ошибке и коммитит при успехе
func (s *PgStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx Repos) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, pgRepos{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	return nil
}
