package api

import (
	"time"

	"github.com/Freeeeeet/disk_entulho/internal/model"
	"github.com/Freeeeeet/disk_entulho/internal/service"
	"github.com/gofiber/fiber/v2"
)

type decisionRequest struct {
	Approve *bool `json:"approve"`
}

type attachPaymentRequest struct {
	Type string `json:"type"`
}

type paymentResponse struct {
	ID             int64   `json:"id"`
	Amount         int64   `json:"amount"`
	Type           string  `json:"type"`
	Status         string  `json:"status"`
	GatewayOrderID *string `json:"gateway_order_id,omitempty"`
	GatewayQRCode  *string `json:"gateway_qr_code,omitempty"`
}

type bookingResponse struct {
	ID         int64            `json:"id"`
	CustomerID int64            `json:"customer_id"`
	Status     string           `json:"status"`
	Address    string           `json:"address"`
	StartDate  time.Time        `json:"start_date"`
	EndDate    time.Time        `json:"end_date"`
	Payment    *paymentResponse `json:"payment,omitempty"`
}

type pendingResponse struct {
	Booking      bookingResponse `json:"booking"`
	CustomerName string          `json:"customer_name,omitempty"`
	DumpsterSize string          `json:"dumpster_size,omitempty"`
	Total        int64           `json:"total"`
}

type decisionResponse struct {
	Booking  bookingResponse `json:"booking"`
	Notified bool            `json:"notified"`
}

type notificationResponse struct {
	ID        int64      `json:"id"`
	Status    string     `json:"status"`
	Message   string     `json:"message"`
	Sent      bool       `json:"sent"`
	CreatedAt time.Time  `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
}

func toPayment(p *model.Payment) *paymentResponse {
	if p == nil {
		return nil
	}
	return &paymentResponse{
		ID:             p.ID,
		Amount:         p.Amount,
		Type:           string(p.Type),
		Status:         string(p.Status),
		GatewayOrderID: p.GatewayOrderID,
		GatewayQRCode:  p.GatewayQRCode,
	}
}

func toBooking(b *model.Booking, p *model.Payment) bookingResponse {
	return bookingResponse{
		ID:         b.ID,
		CustomerID: b.CustomerID,
		Status:     string(b.Status),
		Address:    b.Address,
		StartDate:  b.StartDate,
		EndDate:    b.EndDate,
		Payment:    toPayment(p),
	}
}

// Handlers HTTP обработчики админского API
type Handlers struct {
	decisions     *service.DecisionService
	attachments   *service.AttachmentService
	notifications *service.NotificationService
}

func NewHandlers(
	decisions *service.DecisionService,
	attachments *service.AttachmentService,
	notifications *service.NotificationService,
) *Handlers {
	return &Handlers{
		decisions:     decisions,
		attachments:   attachments,
		notifications: notifications,
	}
}

func bookingID(c *fiber.Ctx) (int64, error) {
	id, err := c.ParamsInt("id")
	if err != nil || id <= 0 {
		return 0, fiber.NewError(fiber.StatusBadRequest, "invalid booking id")
	}
	return int64(id), nil
}

// Decide POST /api/admin/bookings/:id/decision
func (h *Handlers) Decide(c *fiber.Ctx) error {
	id, err := bookingID(c)
	if err != nil {
		return err
	}

	var req decisionRequest
	if err := c.BodyParser(&req); err != nil || req.Approve == nil {
		return fiber.NewError(fiber.StatusBadRequest, `body must be {"approve": true|false}`)
	}

	result, err := h.decisions.Decide(c.UserContext(), id, *req.Approve)
	if err != nil {
		return err
	}

	return c.JSON(decisionResponse{
		Booking:  toBooking(result.Booking, result.Payment),
		Notified: result.Notified,
	})
}

// ListPending GET /api/admin/bookings/pending
func (h *Handlers) ListPending(c *fiber.Ctx) error {
	pending, err := h.decisions.ListPending(c.UserContext())
	if err != nil {
		return err
	}

	out := make([]pendingResponse, 0, len(pending))
	for _, item := range pending {
		resp := pendingResponse{
			Booking: toBooking(item.Booking, item.Booking.Payment),
			Total:   item.Total,
		}
		if item.Customer != nil {
			resp.CustomerName = item.Customer.Name
		}
		if item.Dumpster != nil {
			resp.DumpsterSize = string(item.Dumpster.Size)
		}
		out = append(out, resp)
	}

	return c.JSON(out)
}

// Notifications GET /api/admin/bookings/:id/notifications
func (h *Handlers) Notifications(c *fiber.Ctx) error {
	id, err := bookingID(c)
	if err != nil {
		return err
	}

	records, err := h.notifications.History(c.UserContext(), id)
	if err != nil {
		return err
	}

	out := make([]notificationResponse, 0, len(records))
	for _, r := range records {
		out = append(out, notificationResponse{
			ID:        r.ID,
			Status:    string(r.Status),
			Message:   r.Message,
			Sent:      r.Sent,
			CreatedAt: r.CreatedAt,
			SentAt:    r.SentAt,
		})
	}

	return c.JSON(out)
}

// AttachPayment POST /api/bookings/:id/payment
func (h *Handlers) AttachPayment(c *fiber.Ctx) error {
	id, err := bookingID(c)
	if err != nil {
		return err
	}

	var req attachPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	paymentType, err := model.ParsePaymentType(req.Type)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	payment, err := h.attachments.AttachPayment(c.UserContext(), id, paymentType)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(toPayment(payment))
}
