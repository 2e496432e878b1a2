package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/Freeeeeet/disk_entulho/internal/repository"
)

type bookings struct{ repos }

func (r bookings) GetByID(_ context.Context, id int64) (*model.Booking, error) {
	defer r.lock()()
	b, ok := r.s.st.bookings[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

// Блокировка строки не нужна: транзакция и так эксклюзивна
func (r bookings) GetByIDForUpdate(ctx context.Context, id int64) (*model.Booking, error) {
	return r.GetByID(ctx, id)
}

func (r bookings) GetActiveByPaymentIDForUpdate(_ context.Context, paymentID int64) (*model.Booking, error) {
	defer r.lock()()
	for _, b := range r.s.st.bookings {
		if b.PaymentID != nil && *b.PaymentID == paymentID && b.DeletedAt == nil {
			return &b, nil
		}
	}
	return nil, nil
}

func (r bookings) ListExpiredForUpdate(_ context.Context, cutoff time.Time) ([]*model.Booking, error) {
	defer r.lock()()
	var out []*model.Booking
	for _, b := range r.s.st.bookings {
		if b.Status == model.BookingStatusCreated && b.DeletedAt == nil && !b.CreatedAt.After(cutoff) {
			out = append(out, &b)
		}
	}
	sortBookings(out)
	return out, nil
}

func (r bookings) ListAwaitingDecision(_ context.Context, paymentType model.PaymentType) ([]*model.Booking, error) {
	defer r.lock()()
	var out []*model.Booking
	for _, b := range r.s.st.bookings {
		if b.DeletedAt != nil || b.PaymentID == nil {
			continue
		}
		if b.Status != model.BookingStatusCreated && b.Status != model.BookingStatusProcessing {
			continue
		}
		p, ok := r.s.st.payments[*b.PaymentID]
		if !ok || p.DeletedAt != nil || p.Type != paymentType || p.Status != model.PaymentStatusProcessing {
			continue
		}
		b.Payment = &p
		out = append(out, &b)
	}
	sortBookings(out)
	return out, nil
}

func (r bookings) Save(_ context.Context, booking *model.Booking) error {
	defer r.lock()()
	current, ok := r.s.st.bookings[booking.ID]
	if !ok || current.Version != booking.Version {
		return fmt.Errorf("update booking %d: %w", booking.ID, repository.ErrConflict)
	}
	current.Status = booking.Status
	current.DeletedAt = booking.DeletedAt
	current.Version++
	r.s.st.bookings[booking.ID] = current
	booking.Version = current.Version
	return nil
}

func (r bookings) AttachPayment(_ context.Context, booking *model.Booking, paymentID int64) error {
	defer r.lock()()
	current, ok := r.s.st.bookings[booking.ID]
	if !ok || current.Version != booking.Version || current.PaymentID != nil {
		return fmt.Errorf("attach payment to booking %d: %w", booking.ID, repository.ErrPaymentAlreadyAttached)
	}
	for _, other := range r.s.st.bookings {
		if other.PaymentID != nil && *other.PaymentID == paymentID {
			return fmt.Errorf("attach payment %d: %w", paymentID, repository.ErrPaymentAlreadyAttached)
		}
	}
	id := paymentID
	current.PaymentID = &id
	current.Status = model.BookingStatusProcessing
	current.Version++
	r.s.st.bookings[booking.ID] = current

	booking.PaymentID = &id
	booking.Status = current.Status
	booking.Version = current.Version
	return nil
}

type payments struct{ repos }

func (r payments) Create(_ context.Context, payment *model.Payment) error {
	defer r.lock()()
	payment.ID = r.s.st.id()
	payment.CreatedAt = r.s.now()
	payment.Version = 0
	r.s.st.payments[payment.ID] = *payment
	return nil
}

func (r payments) GetByID(_ context.Context, id int64) (*model.Payment, error) {
	defer r.lock()()
	p, ok := r.s.st.payments[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r payments) GetByIDForUpdate(ctx context.Context, id int64) (*model.Payment, error) {
	return r.GetByID(ctx, id)
}

func (r payments) ListPendingReconciliation(_ context.Context, types []model.PaymentType) ([]*model.Payment, error) {
	defer r.lock()()
	allowed := make(map[model.PaymentType]bool, len(types))
	for _, t := range types {
		allowed[t] = true
	}

	var out []*model.Payment
	for _, p := range r.s.st.payments {
		if p.Status != model.PaymentStatusCreated && p.Status != model.PaymentStatusProcessing {
			continue
		}
		if !allowed[p.Type] || p.DeletedAt != nil || p.GatewayOrderID == nil {
			continue
		}
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r payments) Save(_ context.Context, payment *model.Payment) error {
	defer r.lock()()
	current, ok := r.s.st.payments[payment.ID]
	if !ok || current.Version != payment.Version {
		return fmt.Errorf("update payment %d: %w", payment.ID, repository.ErrConflict)
	}
	current.Status = payment.Status
	current.GatewayOrderID = payment.GatewayOrderID
	current.GatewayQRCode = payment.GatewayQRCode
	current.Version++
	r.s.st.payments[payment.ID] = current
	payment.Version = current.Version
	return nil
}

type notifications struct{ repos }

func (r notifications) InsertIfAbsent(_ context.Context, record *model.NotificationRecord) (bool, error) {
	defer r.lock()()
	for _, n := range r.s.st.notifications {
		if n.BookingID == record.BookingID && n.Status == record.Status {
			return false, nil
		}
	}
	record.ID = r.s.st.id()
	r.s.st.notifications[record.ID] = *record
	return true, nil
}

func (r notifications) ListByBookingID(_ context.Context, bookingID int64) ([]*model.NotificationRecord, error) {
	defer r.lock()()
	var out []*model.NotificationRecord
	for _, n := range r.s.st.notifications {
		if n.BookingID == bookingID {
			out = append(out, &n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r notifications) ListUnsent(_ context.Context, limit int) ([]*model.NotificationRecord, error) {
	defer r.lock()()
	var out []*model.NotificationRecord
	for _, n := range r.s.st.notifications {
		if !n.Sent {
			out = append(out, &n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r notifications) MarkSent(_ context.Context, id int64, sentAt time.Time) error {
	defer r.lock()()
	n, ok := r.s.st.notifications[id]
	if !ok {
		return fmt.Errorf("notification not found")
	}
	n.Sent = true
	n.SentAt = &sentAt
	r.s.st.notifications[id] = n
	return nil
}

type customers struct{ repos }

func (r customers) GetByID(_ context.Context, id int64) (*model.Customer, error) {
	defer r.lock()()
	c, ok := r.s.st.customers[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

type dumpsters struct{ repos }

func (r dumpsters) GetByID(_ context.Context, id int64) (*model.Dumpster, error) {
	defer r.lock()()
	d, ok := r.s.st.dumpsters[id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}
