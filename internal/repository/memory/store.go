// Package memory - хранилище в памяти с той же транзакционной семантикой, что и PostgreSQL.
// Транзакции сериализуются мьютексом и откатываются восстановлением снимка.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/Freeeeeet/disk_entulho/internal/repository"
)

type state struct {
	bookings      map[int64]model.Booking
	payments      map[int64]model.Payment
	notifications map[int64]model.NotificationRecord
	customers     map[int64]model.Customer
	dumpsters     map[int64]model.Dumpster
	nextID        int64
}

func newState() *state {
	return &state{
		bookings:      make(map[int64]model.Booking),
		payments:      make(map[int64]model.Payment),
		notifications: make(map[int64]model.NotificationRecord),
		customers:     make(map[int64]model.Customer),
		dumpsters:     make(map[int64]model.Dumpster),
	}
}

func (s *state) clone() *state {
	c := &state{
		bookings:      make(map[int64]model.Booking, len(s.bookings)),
		payments:      make(map[int64]model.Payment, len(s.payments)),
		notifications: make(map[int64]model.NotificationRecord, len(s.notifications)),
		customers:     make(map[int64]model.Customer, len(s.customers)),
		dumpsters:     make(map[int64]model.Dumpster, len(s.dumpsters)),
		nextID:        s.nextID,
	}
	for k, v := range s.bookings {
		c.bookings[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.notifications {
		c.notifications[k] = v
	}
	for k, v := range s.customers {
		c.customers[k] = v
	}
	for k, v := range s.dumpsters {
		c.dumpsters[k] = v
	}
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// assign оставляет явно заданный ID и сдвигает счётчик, чтобы не было коллизий
func (s *state) assign(id int64) int64 {
	if id == 0 {
		return s.id()
	}
	if id > s.nextID {
		s.nextID = id
	}
	return id
}

// Store хранилище в памяти
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

// NewStore создаёт пустое хранилище
func NewStore() *Store {
	return &Store{st: newState(), now: func() time.Time { return time.Now().UTC() }}
}

// repos работает либо под блокировкой транзакции (inTx), либо берёт мьютекс на каждый вызов
type repos struct {
	s    *Store
	inTx bool
}

func (r repos) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (s *Store) Bookings() repository.BookingStore           { return bookings{repos{s: s}} }
func (s *Store) Payments() repository.PaymentStore           { return payments{repos{s: s}} }
func (s *Store) Notifications() repository.NotificationStore { return notifications{repos{s: s}} }
func (s *Store) Customers() repository.CustomerStore         { return customers{repos{s: s}} }
func (s *Store) Dumpsters() repository.DumpsterStore         { return dumpsters{repos{s: s}} }

type txRepos struct {
	r repos
}

func (t txRepos) Bookings() repository.BookingStore           { return bookings{t.r} }
func (t txRepos) Payments() repository.PaymentStore           { return payments{t.r} }
func (t txRepos) Notifications() repository.NotificationStore { return notifications{t.r} }
func (t txRepos) Customers() repository.CustomerStore         { return customers{t.r} }
func (t txRepos) Dumpsters() repository.DumpsterStore         { return dumpsters{t.r} }

// WithinTx выполняет fn эксклюзивно; при ошибке состояние возвращается к снимку
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	if err := fn(ctx, txRepos{r: repos{s: s, inTx: true}}); err != nil {
		s.st = snapshot
		return err
	}

	return nil
}

// AddCustomer добавляет клиента (для тестов и локального запуска)
func (s *Store) AddCustomer(c model.Customer) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = s.st.assign(c.ID)
	s.st.customers[c.ID] = c
	return c.ID
}

// AddDumpster добавляет контейнер
func (s *Store) AddDumpster(d model.Dumpster) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	d.ID = s.st.assign(d.ID)
	s.st.dumpsters[d.ID] = d
	return d.ID
}

// AddBooking добавляет бронирование как есть
func (s *Store) AddBooking(b model.Booking) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.st.assign(b.ID)
	if b.Status == "" {
		b.Status = model.BookingStatusCreated
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = s.now()
	}
	b.Payment, b.Customer, b.Dumpster = nil, nil, nil
	s.st.bookings[b.ID] = b
	return b.ID
}

// AddPayment добавляет оплату как есть
func (s *Store) AddPayment(p model.Payment) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.ID = s.st.assign(p.ID)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.now()
	}
	s.st.payments[p.ID] = p
	return p.ID
}

// NotificationRecords возвращает снимок журнала уведомлений, упорядоченный по ID
func (s *Store) NotificationRecords() []model.NotificationRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.NotificationRecord, 0, len(s.st.notifications))
	for _, n := range s.st.notifications {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func sortBookings(list []*model.Booking) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].ID < list[j].ID
		}
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})
}
