package controller

import (
	"context"

	"github.com/Freeeeeet/disk_entulho/internal/service"
	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

// Callback data
const (
	ApproveBooking = "approve_booking:" // approve_booking:booking_id
	RejectBooking  = "reject_booking:"  // reject_booking:booking_id
)

// BotController админский Telegram бот: список ожидающих решений и кнопки подтверждения
type BotController struct {
	bot       *bot.Bot
	decisions *service.DecisionService
	admins    map[int64]bool
	logger    *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	decisions *service.DecisionService,
	adminIDs []int64,
	logger *zap.Logger,
) *BotController {
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}

	return &BotController{
		bot:       botInstance,
		decisions: decisions,
		admins:    admins,
		logger:    logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/pending", bot.MatchTypeExact, c.HandlePending)

	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, ApproveBooking, bot.MatchTypePrefix, c.HandleApprove)
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, RejectBooking, bot.MatchTypePrefix, c.HandleReject)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "pending", Description: "💵 Reservas em dinheiro aguardando decisão"},
		{Command: "help", Description: "❓ Ajuda"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("Bot commands menu set")
	return nil
}

// Start запускает бота (блокируется до отмены контекста)
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}
