package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Freeeeeet/disk_entulho/internal/gateway"
	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReconciler(e *env, gw *fakeGateway) *ReconciliationService {
	return NewReconciliationService(e.store, gw, e.notify, nil, 0, e.logger)
}

func TestTransitionFor(t *testing.T) {
	tr, ok := TransitionFor(gateway.StatusPaid)
	require.True(t, ok)
	assert.Equal(t, model.PaymentStatusApproved, tr.PaymentStatus)
	assert.Equal(t, model.BookingStatusConfirmed, tr.BookingStatus)

	tr, ok = TransitionFor(gateway.StatusCancelled)
	require.True(t, ok)
	assert.Equal(t, model.PaymentStatusRejected, tr.PaymentStatus)
	assert.Equal(t, model.BookingStatusRejected, tr.BookingStatus)

	tr, ok = TransitionFor(gateway.StatusWaiting)
	require.True(t, ok)
	assert.Equal(t, model.PaymentStatusProcessing, tr.PaymentStatus)
	assert.Empty(t, tr.BookingStatus)

	_, ok = TransitionFor(gateway.StatusUnknown)
	assert.False(t, ok)
}

func TestReconciliationService_Reconcile_Paid(t *testing.T) {
	e := newEnv(t)
	e.seedLinked(42, 7, model.PaymentTypePix, model.PaymentStatusProcessing, "ord-1")

	gw := newFakeGateway()
	gw.reply("ord-1", gateway.StatusPaid, nil)
	svc := newReconciler(e, gw)

	report, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Equal(t, 1, report.Approved)
	assert.Equal(t, 1, report.Notified)

	assert.Equal(t, model.PaymentStatusApproved, e.payment(t, 7).Status)
	assert.Equal(t, model.BookingStatusConfirmed, e.booking(t, 42).Status)

	records := e.store.NotificationRecords()
	require.Len(t, records, 1)
	assert.Equal(t, int64(42), records[0].BookingID)
	assert.Equal(t, model.BookingStatusConfirmed, records[0].Status)

	// оплата в терминальном статусе больше не сверяется
	report, err = svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Checked)
	assert.Len(t, e.store.NotificationRecords(), 1)
}

func TestReconciliationService_Reconcile_Cancelled(t *testing.T) {
	e := newEnv(t)
	e.seedLinked(42, 7, model.PaymentTypePix, model.PaymentStatusProcessing, "ord-1")

	gw := newFakeGateway()
	gw.reply("ord-1", gateway.StatusCancelled, nil)

	report, err := newReconciler(e, gw).Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Rejected)

	assert.Equal(t, model.PaymentStatusRejected, e.payment(t, 7).Status)
	assert.Equal(t, model.BookingStatusRejected, e.booking(t, 42).Status)

	records := e.store.NotificationRecords()
	require.Len(t, records, 1)
	assert.Equal(t, model.BookingStatusRejected, records[0].Status)
}

func TestReconciliationService_Reconcile_WaitingNotifiesOnce(t *testing.T) {
	e := newEnv(t)
	e.seedLinked(42, 7, model.PaymentTypePix, model.PaymentStatusCreated, "ord-1")

	gw := newFakeGateway()
	gw.reply("ord-1", gateway.StatusWaiting, nil)
	svc := newReconciler(e, gw)

	report, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Waiting)
	assert.Equal(t, 1, report.Notified)
	assert.Equal(t, model.PaymentStatusProcessing, e.payment(t, 7).Status)
	assert.Equal(t, model.BookingStatusProcessing, e.booking(t, 42).Status)

	report, err = svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Waiting)
	assert.Zero(t, report.Notified)
	assert.Len(t, e.store.NotificationRecords(), 1)
}

func TestReconciliationService_Reconcile_UnknownAndErrorsLeaveStateUntouched(t *testing.T) {
	e := newEnv(t)
	e.seedLinked(41, 6, model.PaymentTypePix, model.PaymentStatusProcessing, "ord-unknown")
	e.seedLinked(42, 7, model.PaymentTypePix, model.PaymentStatusProcessing, "ord-down")
	e.seedLinked(43, 8, model.PaymentTypePix, model.PaymentStatusProcessing, "ord-paid")

	gw := newFakeGateway()
	gw.reply("ord-unknown", gateway.StatusUnknown, nil)
	gw.reply("ord-down", gateway.StatusUnknown, errors.New("connection refused"))
	gw.reply("ord-paid", gateway.StatusPaid, nil)

	report, err := newReconciler(e, gw).Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.Checked)
	assert.Equal(t, 1, report.Unknown)
	assert.Equal(t, 1, report.GatewayErrors)
	assert.Equal(t, 1, report.Approved)

	assert.Equal(t, model.PaymentStatusProcessing, e.payment(t, 6).Status)
	assert.Equal(t, model.PaymentStatusProcessing, e.payment(t, 7).Status)
	assert.Equal(t, model.PaymentStatusApproved, e.payment(t, 8).Status)
	assert.Equal(t, model.BookingStatusConfirmed, e.booking(t, 43).Status)
}

func TestReconciliationService_Reconcile_SkipsDecidedBooking(t *testing.T) {
	e := newEnv(t)
	e.seedLinked(42, 7, model.PaymentTypePix, model.PaymentStatusProcessing, "ord-1")

	b := e.booking(t, 42)
	b.Status = model.BookingStatusConfirmed
	require.NoError(t, e.store.Bookings().Save(context.Background(), b))

	gw := newFakeGateway()
	gw.reply("ord-1", gateway.StatusCancelled, nil)

	report, err := newReconciler(e, gw).Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Rejected)

	assert.Equal(t, model.PaymentStatusProcessing, e.payment(t, 7).Status)
	assert.Equal(t, model.BookingStatusConfirmed, e.booking(t, 42).Status)
	assert.Empty(t, e.store.NotificationRecords())
}

func TestReconciliationService_Reconcile_SkipsPaymentChangedDuringQuery(t *testing.T) {
	e := newEnv(t)
	e.seedLinked(42, 7, model.PaymentTypePix, model.PaymentStatusProcessing, "ord-1")

	gw := newFakeGateway()
	gw.reply("ord-1", gateway.StatusPaid, nil)
	gw.onQuery = func(string) {
		// администратор отклонил оплату, пока шёл запрос к шлюзу
		p := e.payment(t, 7)
		p.Status = model.PaymentStatusRejected
		require.NoError(t, e.store.Payments().Save(context.Background(), p))
	}

	report, err := newReconciler(e, gw).Reconcile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Skipped)
	assert.Zero(t, report.Approved)

	assert.Equal(t, model.PaymentStatusRejected, e.payment(t, 7).Status)
	assert.Equal(t, model.BookingStatusProcessing, e.booking(t, 42).Status)
}

func TestReconciliationService_Reconcile_InterleavedWithDecide(t *testing.T) {
	e := newEnv(t)
	e.seedLinked(42, 7, model.PaymentTypePix, model.PaymentStatusProcessing, "ord-1")
	e.seedLinked(43, 8, model.PaymentTypeCash, model.PaymentStatusProcessing, "")
	decisions := NewDecisionService(e.store, e.notify, e.logger)

	gw := newFakeGateway()
	gw.reply("ord-1", gateway.StatusPaid, nil)
	var pixErr, cashErr error
	gw.onQuery = func(string) {
		// администратор жмёт кнопки, пока сверка ждёт ответ шлюза
		_, pixErr = decisions.Decide(context.Background(), 42, false)
		_, cashErr = decisions.Decide(context.Background(), 43, false)
	}

	report, err := newReconciler(e, gw).Reconcile(context.Background())
	require.NoError(t, err)
	assert.ErrorIs(t, pixErr, ErrNotCashPayment)
	assert.NoError(t, cashErr)
	assert.Equal(t, 1, report.Approved)
	assert.Zero(t, report.Skipped)

	assert.Equal(t, model.PaymentStatusApproved, e.payment(t, 7).Status)
	assert.Equal(t, model.BookingStatusConfirmed, e.booking(t, 42).Status)
	assert.Equal(t, model.PaymentStatusRejected, e.payment(t, 8).Status)
	assert.Equal(t, model.BookingStatusRejected, e.booking(t, 43).Status)

	history, err := e.notify.History(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.BookingStatusConfirmed, history[0].Status)

	history, err = e.notify.History(context.Background(), 43)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.BookingStatusRejected, history[0].Status)
}

func TestReconciliationService_Reconcile_IgnoresCashPayments(t *testing.T) {
	e := newEnv(t)
	e.seedLinked(42, 7, model.PaymentTypeCash, model.PaymentStatusProcessing, "")

	gw := newFakeGateway()
	report, err := newReconciler(e, gw).Reconcile(context.Background())
	require.NoError(t, err)
	assert.Zero(t, report.Checked)
	assert.Empty(t, gw.calls)
}

func TestReconciliationService_Reconcile_CancelledContext(t *testing.T) {
	e := newEnv(t)
	e.seedLinked(42, 7, model.PaymentTypePix, model.PaymentStatusProcessing, "ord-1")

	ctx, cancel := context.WithCancel(context.Background())
	gw := newFakeGateway()
	gw.reply("ord-1", gateway.StatusUnknown, context.Canceled)
	gw.onQuery = func(string) { cancel() }

	_, err := newReconciler(e, gw).Reconcile(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, model.PaymentStatusProcessing, e.payment(t, 7).Status)
}
