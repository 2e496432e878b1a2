package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/disk_entulho/internal/clock"
	"github.com/Freeeeeet/disk_entulho/internal/gateway"
	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/Freeeeeet/disk_entulho/internal/repository/memory"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

var testStart = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type env struct {
	store  *memory.Store
	clock  *clock.Fake
	logger *zap.Logger
	notify *NotificationService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewFake(testStart)
	logger := zaptest.NewLogger(t)
	return &env{
		store:  store,
		clock:  clk,
		logger: logger,
		notify: NewNotificationService(store, clk, logger),
	}
}

func (e *env) booking(t *testing.T, id int64) *model.Booking {
	t.Helper()
	b, err := e.store.Bookings().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, b)
	return b
}

func (e *env) payment(t *testing.T, id int64) *model.Payment {
	t.Helper()
	p, err := e.store.Payments().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

// seedLinked создаёт клиента, контейнер, оплату и связанное с ней бронирование
func (e *env) seedLinked(bookingID, paymentID int64, pt model.PaymentType, ps model.PaymentStatus, orderID string) {
	customerID := e.store.AddCustomer(model.Customer{Name: "Maria Silva", Phone: "+55 11 91234-5678"})
	dumpsterID := e.store.AddDumpster(model.Dumpster{Code: "CB-01", Size: model.DumpsterSizeMedium, DailyPrice: 6500})

	p := model.Payment{ID: paymentID, Amount: 13000, Type: pt, Status: ps}
	if orderID != "" {
		p.GatewayOrderID = &orderID
	}
	e.store.AddPayment(p)

	pid := paymentID
	e.store.AddBooking(model.Booking{
		ID:         bookingID,
		CustomerID: customerID,
		DumpsterID: dumpsterID,
		PaymentID:  &pid,
		Address:    "Rua das Flores, 100",
		StartDate:  testStart,
		EndDate:    testStart.Add(24 * time.Hour),
		Status:     model.BookingStatusProcessing,
		CreatedAt:  testStart,
	})
}

type statusReply struct {
	status gateway.Status
	err    error
}

// fakeGateway отвечает заранее заданными статусами по orderID
type fakeGateway struct {
	mu      sync.Mutex
	replies map[string]statusReply
	calls   []string
	onQuery func(orderID string)

	charge    *gateway.Charge
	chargeErr error
	charged   []int64
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{replies: make(map[string]statusReply)}
}

func (g *fakeGateway) reply(orderID string, status gateway.Status, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replies[orderID] = statusReply{status: status, err: err}
}

func (g *fakeGateway) GetStatus(_ context.Context, orderID string) (gateway.Status, error) {
	g.mu.Lock()
	r, ok := g.replies[orderID]
	g.calls = append(g.calls, orderID)
	hook := g.onQuery
	g.mu.Unlock()

	if hook != nil {
		hook(orderID)
	}
	if !ok {
		return gateway.StatusUnknown, nil
	}
	return r.status, r.err
}

func (g *fakeGateway) CreatePixCharge(_ context.Context, amount int64, _ string) (*gateway.Charge, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charged = append(g.charged, amount)
	if g.chargeErr != nil {
		return nil, g.chargeErr
	}
	return g.charge, nil
}

type sentMessage struct {
	chatID any
	text   string
}

// fakeSender запоминает сообщения; failFor - чаты, в которые отправка падает
type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]error
}

func (s *fakeSender) SendMessage(_ context.Context, params *bot.SendMessageParams) (*models.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := params.ChatID.(int64); ok {
		if err, fail := s.failFor[id]; fail {
			return nil, err
		}
	}
	s.sent = append(s.sent, sentMessage{chatID: params.ChatID, text: params.Text})
	return &models.Message{ID: len(s.sent)}, nil
}
