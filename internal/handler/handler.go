package handler

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"cra-manager/internal/service"
	"cra-manager/pkg/telegram"
)

// sender - часть BotAPI, которой пользуется обработчик
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type Handler struct {
	bot       sender
	profiles  *service.ProfileService
	cra       *service.CRAService
	absences  *service.AbsenceService
	reminders *service.ReminderService
	logger    *logrus.Logger
	now       func() time.Time
}

func NewHandler(
	client *telegram.Client,
	profiles *service.ProfileService,
	cra *service.CRAService,
	absences *service.AbsenceService,
	reminders *service.ReminderService,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		bot:       client.Bot,
		profiles:  profiles,
		cra:       cra,
		absences:  absences,
		reminders: reminders,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// HandleUpdates обрабатывает обновления до закрытия канала или отмены ctx
func (h *Handler) HandleUpdates(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			h.handleUpdate(ctx, update)
		}
	}
}

func (h *Handler) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	// Обработка callback query (для inline кнопок)
	if update.CallbackQuery != nil {
		h.handleCallbackQuery(ctx, update.CallbackQuery)
		return
	}

	if update.Message == nil {
		return
	}

	h.handleMessage(ctx, update.Message)
}

// handleCallbackQuery обрабатывает inline кнопки
func (h *Handler) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	data := callback.Data

	// Удаляем клавиатуру
	editMsg := tgbotapi.NewEditMessageReplyMarkup(chatID, callback.Message.MessageID, tgbotapi.NewInlineKeyboardMarkup())
	h.request(editMsg)

	switch {
	case strings.HasPrefix(data, callbackConfirmDay):
		h.confirmHolidayDay(ctx, chatID, strings.TrimPrefix(data, callbackConfirmDay))
	case data == callbackCancelDay:
		h.reply(chatID, "❌ Saisie annulée.")
	}

	// Отвечаем на callback (убираем "часики" у кнопки)
	h.request(tgbotapi.NewCallback(callback.ID, ""))
}

func (h *Handler) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	if message.From != nil {
		h.logger.WithFields(logrus.Fields{
			"chat_id":  message.Chat.ID,
			"username": message.From.UserName,
		}).Debug(message.Text)
	}

	if !message.IsCommand() {
		h.reply(message.Chat.ID, "Utilisez /help pour la liste des commandes.")
		return
	}

	h.handleCommand(ctx, message)
}

func (h *Handler) reply(chatID int64, text string) {
	h.send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) send(msg tgbotapi.Chattable) {
	if _, err := h.bot.Send(msg); err != nil {
		h.logger.WithError(err).Warn("Failed to send telegram message")
	}
}

func (h *Handler) request(c tgbotapi.Chattable) {
	if _, err := h.bot.Request(c); err != nil {
		h.logger.WithError(err).Debug("Telegram request failed")
	}
}
