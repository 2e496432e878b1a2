package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestClient(t *testing.T, url string) *Client {
	return NewClient(Config{
		BaseURL:    url,
		Token:      "secret",
		Timeout:    time.Second,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
	}, zaptest.NewLogger(t))
}

func TestParseStatus(t *testing.T) {
	assert.Equal(t, StatusPaid, ParseStatus("PAID"))
	assert.Equal(t, StatusPaid, ParseStatus(" paid "))
	assert.Equal(t, StatusCancelled, ParseStatus("CANCELED"))
	assert.Equal(t, StatusCancelled, ParseStatus("cancelled"))
	assert.Equal(t, StatusWaiting, ParseStatus("WAITING"))
	assert.Equal(t, StatusUnknown, ParseStatus("AUTHORIZED"))
	assert.Equal(t, StatusUnknown, ParseStatus(""))
}

func TestClient_GetStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/orders/ord-1", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"ord-1","status":"PAID"}`))
	}))
	defer srv.Close()

	status, err := newTestClient(t, srv.URL).GetStatus(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, status)
}

func TestClient_GetStatus_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"id":"ord-1","status":"WAITING"}`))
	}))
	defer srv.Close()

	status, err := newTestClient(t, srv.URL).GetStatus(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, StatusWaiting, status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GetStatus_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	status, err := newTestClient(t, srv.URL).GetStatus(context.Background(), "ord-1")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, StatusUnknown, status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GetStatus_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv.URL).GetStatus(context.Background(), "ord-1")
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_GetStatus_EmptyOrderID(t *testing.T) {
	_, err := newTestClient(t, "http://127.0.0.1:1").GetStatus(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyOrderID)
}

func TestClient_CreatePixCharge(t *testing.T) {
	var keys []string
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/orders", r.URL.Path)
		keys = append(keys, r.Header.Get("x-idempotency-key"))

		var body createOrderRequest
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&body)) && assert.Len(t, body.QRCodes, 1) {
			assert.Equal(t, "booking-42", body.ReferenceID)
			assert.Equal(t, int64(13000), body.QRCodes[0].Amount.Value)
		}

		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"id":"ORDE_123","qr_codes":[{"id":"QRCO_1","text":"00020101pix"}]}`))
	}))
	defer srv.Close()

	charge, err := newTestClient(t, srv.URL).CreatePixCharge(context.Background(), 13000, "booking-42")
	require.NoError(t, err)
	assert.Equal(t, "ORDE_123", charge.OrderID)
	assert.Equal(t, "00020101pix", charge.QRCode)

	require.Len(t, keys, 2)
	assert.NotEmpty(t, keys[0])
	assert.Equal(t, keys[0], keys[1], "retries reuse the idempotency key")
}

func TestClient_GetStatus_OversizedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"ord-1","status":"PAID","padding":"`))
		w.Write([]byte(strings.Repeat("x", 2*maxResponseSize)))
		w.Write([]byte(`"}`))
	}))
	defer srv.Close()

	status, err := newTestClient(t, srv.URL).GetStatus(context.Background(), "ord-1")
	assert.Error(t, err)
	assert.Equal(t, StatusUnknown, status)
}
