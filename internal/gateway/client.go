package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Status статус заказа на стороне платёжного шлюза
type Status string

const (
	StatusPaid      Status = "PAID"
	StatusCancelled Status = "CANCELLED"
	StatusWaiting   Status = "WAITING"
	StatusUnknown   Status = "UNKNOWN"
)

// ParseStatus приводит ответ шлюза к закрытому набору статусов.
// Всё, что не распознано, становится StatusUnknown.
func ParseStatus(s string) Status {
	switch st := Status(strings.ToUpper(strings.TrimSpace(s))); st {
	case StatusPaid, StatusCancelled, StatusWaiting:
		return st
	case "CANCELED":
		return StatusCancelled
	}
	return StatusUnknown
}

// maxResponseSize ограничивает тело ответа шлюза
const maxResponseSize = 1 << 20

var (
	ErrUnexpectedStatus = errors.New("gateway: unexpected response status")
	ErrEmptyOrderID     = errors.New("gateway: empty order id")
)

// Config параметры подключения к шлюзу
type Config struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	MaxRetries uint64
	RetryDelay time.Duration
}

// Charge созданный Pix-заказ
type Charge struct {
	OrderID string
	QRCode  string
}

// Client HTTP клиент платёжного шлюза. Безопасен для конкурентного использования.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	maxRetries uint64
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewClient создаёт клиента шлюза
func NewClient(cfg Config, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	delay := cfg.RetryDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: cfg.MaxRetries,
		retryDelay: delay,
		logger:     logger,
	}
}

type createOrderRequest struct {
	ReferenceID string          `json:"reference_id"`
	QRCodes     []qrCodeRequest `json:"qr_codes"`
}

type qrCodeRequest struct {
	Amount amount `json:"amount"`
}

type amount struct {
	Value int64 `json:"value"`
}

type orderResponse struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	QRCodes []struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"qr_codes"`
}

// CreatePixCharge создаёт Pix-заказ на сумму amount (в сентаво)
func (c *Client) CreatePixCharge(ctx context.Context, amountCents int64, referenceID string) (*Charge, error) {
	body := createOrderRequest{
		ReferenceID: referenceID,
		QRCodes:     []qrCodeRequest{{Amount: amount{Value: amountCents}}},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode order: %w", err)
	}

	// один ключ на все повторы, чтобы шлюз не создал заказ дважды
	idempotencyKey := uuid.NewString()

	var order orderResponse
	err = c.do(ctx, http.MethodPost, "/orders", payload, idempotencyKey, &order)
	if err != nil {
		return nil, fmt.Errorf("create pix charge: %w", err)
	}

	if order.ID == "" {
		return nil, fmt.Errorf("create pix charge: %w", ErrEmptyOrderID)
	}

	charge := &Charge{OrderID: order.ID}
	if len(order.QRCodes) > 0 {
		charge.QRCode = order.QRCodes[0].Text
	}

	return charge, nil
}

// GetStatus запрашивает текущий статус заказа
func (c *Client) GetStatus(ctx context.Context, orderID string) (Status, error) {
	if orderID == "" {
		return StatusUnknown, ErrEmptyOrderID
	}

	var order orderResponse
	err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(orderID), nil, "", &order)
	if err != nil {
		return StatusUnknown, fmt.Errorf("get order %s status: %w", orderID, err)
	}

	return ParseStatus(order.Status), nil
}

// do выполняет запрос с повторами на сетевых ошибках и 5xx
func (c *Client) do(ctx context.Context, method, path string, payload []byte, idempotencyKey string, out any) error {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.retryDelay))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return fmt.Errorf("build request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}
		if idempotencyKey != "" {
			req.Header.Set("x-idempotency-key", idempotencyKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			c.logger.Warn("Gateway request failed",
				zap.String("method", method),
				zap.String("path", path),
				zap.Error(err))
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		body := io.LimitReader(resp.Body, maxResponseSize)

		if resp.StatusCode >= 500 {
			if _, err := io.Copy(io.Discard, body); err != nil {
				c.logger.Debug("Failed to drain gateway response", zap.Error(err))
			}
			return retry.RetryableError(fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode))
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
		}

		if err := json.NewDecoder(body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}

		return nil
	})
}
