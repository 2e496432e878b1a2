package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Freeeeeet/disk_entulho/internal/controller/formatting"
	"github.com/Freeeeeet/disk_entulho/internal/controller/keyboard"
	"github.com/Freeeeeet/disk_entulho/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// HandleHelp обрабатывает /start и /help
func (c *BotController) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	text := "🚛 Disk Entulho · painel do administrador\n\n" +
		"/pending - Reservas pagas em dinheiro aguardando decisão\n" +
		"/help - Mostrar esta ajuda"

	if !c.isAdmin(update.Message.From.ID) {
		text = "❌ Este bot é restrito aos administradores."
	}

	c.sendText(ctx, b, update.Message.Chat.ID, text, nil)
}

// HandlePending показывает бронирования с оплатой наличными, ожидающие решения
func (c *BotController) HandlePending(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil || update.Message.From == nil {
		return
	}

	chatID := update.Message.Chat.ID
	if !c.isAdmin(update.Message.From.ID) {
		c.sendText(ctx, b, chatID, "❌ Este bot é restrito aos administradores.", nil)
		return
	}

	pending, err := c.decisions.ListPending(ctx)
	if err != nil {
		c.logger.Error("Failed to list pending bookings", zap.Error(err))
		c.sendText(ctx, b, chatID, "❌ Erro ao carregar reservas. Tente novamente.", nil)
		return
	}

	if len(pending) == 0 {
		c.sendText(ctx, b, chatID, "✅ Nenhuma reserva aguardando decisão.", nil)
		return
	}

	for _, item := range pending {
		c.sendText(ctx, b, chatID, formatPending(item), decisionKeyboard(item.Booking.ID))
	}
}

func formatPending(item *service.PendingBooking) string {
	booking := item.Booking
	status := formatting.GetBookingStatusDisplay(booking.Status)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s Reserva #%d · %s\n", status.Emoji, booking.ID, status.Text)
	if item.Customer != nil {
		fmt.Fprintf(&sb, "👤 %s", item.Customer.Name)
		if item.Customer.Phone != "" {
			fmt.Fprintf(&sb, " (%s)", item.Customer.Phone)
		}
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "📍 %s\n", booking.Address)
	fmt.Fprintf(&sb, "📅 %s\n", formatting.FormatDateRange(booking.StartDate, booking.EndDate))
	if item.Dumpster != nil {
		fmt.Fprintf(&sb, "🗑 Caçamba %s (%s)\n", item.Dumpster.Code, item.Dumpster.Size)
	}
	fmt.Fprintf(&sb, "💵 Total: %s", formatting.FormatPrice(item.Total))

	return sb.String()
}

func decisionKeyboard(bookingID int64) *models.InlineKeyboardMarkup {
	return keyboard.NewBuilder().
		Row(
			keyboard.Button("✅ Aprovar", fmt.Sprintf("%s%d", ApproveBooking, bookingID)),
			keyboard.Button("❌ Rejeitar", fmt.Sprintf("%s%d", RejectBooking, bookingID)),
		).
		Build()
}

// HandleApprove одобряет оплату наличными
func (c *BotController) HandleApprove(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.handleDecision(ctx, b, update, true)
}

// HandleReject отклоняет оплату наличными
func (c *BotController) HandleReject(ctx context.Context, b *bot.Bot, update *models.Update) {
	c.handleDecision(ctx, b, update, false)
}

func (c *BotController) handleDecision(ctx context.Context, b *bot.Bot, update *models.Update, approve bool) {
	if update.CallbackQuery == nil {
		return
	}
	callback := update.CallbackQuery

	if !c.isAdmin(callback.From.ID) {
		AnswerCallbackAlert(ctx, b, callback.ID, "❌ Acesso negado")
		return
	}

	bookingID, err := ParseIDFromCallback(callback.Data)
	if err != nil {
		AnswerCallbackAlert(ctx, b, callback.ID, "❌ Formato inválido")
		return
	}

	_, err = c.decisions.Decide(ctx, bookingID, approve)
	if err != nil {
		c.logger.Error("Failed to decide booking",
			zap.Int64("booking_id", bookingID),
			zap.Int64("admin_id", callback.From.ID),
			zap.Bool("approve", approve),
			zap.Error(err),
		)
		AnswerCallbackAlert(ctx, b, callback.ID, decisionErrorText(err))
		return
	}

	c.logger.Info("Booking decided via bot",
		zap.Int64("booking_id", bookingID),
		zap.Int64("admin_id", callback.From.ID),
		zap.Bool("approve", approve),
	)

	result := fmt.Sprintf("✅ Reserva #%d aprovada", bookingID)
	if !approve {
		result = fmt.Sprintf("❌ Reserva #%d rejeitada", bookingID)
	}

	AnswerCallbackAlert(ctx, b, callback.ID, result)

	// Обновляем сообщение, убирая кнопки
	msg := GetMessageFromCallback(callback)
	if msg != nil {
		_, err := b.EditMessageText(ctx, &bot.EditMessageTextParams{
			ChatID:    msg.Chat.ID,
			MessageID: msg.ID,
			Text:      msg.Text + "\n\n" + result,
		})
		if err != nil {
			c.logger.Warn("Failed to edit decision message",
				zap.Int64("chat_id", msg.Chat.ID),
				zap.Error(err),
			)
		}
	}
}

func decisionErrorText(err error) string {
	switch {
	case errors.Is(err, service.ErrNotFound):
		return "❌ Reserva ou pagamento não encontrado"
	case errors.Is(err, service.ErrAlreadyDecided):
		return "⚠️ Esta reserva já foi decidida"
	case errors.Is(err, service.ErrNotCashPayment):
		return "⚠️ Pagamento eletrônico: o status vem do gateway"
	default:
		return "❌ Não foi possível registrar a decisão"
	}
}
