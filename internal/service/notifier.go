package service

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"cra-manager/internal/models"
	"cra-manager/pkg/telegram"
)

// ErrNoChannel - у профиля нет канала доставки
var ErrNoChannel = errors.New("profile has no notification channel")

// Notifier доставляет сообщение пользователю
type Notifier interface {
	Notify(ctx context.Context, profile *models.Profile, message string) error
}

// TelegramNotifier отправляет сообщения в привязанный чат Telegram
type TelegramNotifier struct {
	client *telegram.Client
	logger *logrus.Logger
}

func NewTelegramNotifier(client *telegram.Client, logger *logrus.Logger) *TelegramNotifier {
	return &TelegramNotifier{client: client, logger: logger}
}

func (n *TelegramNotifier) Notify(_ context.Context, profile *models.Profile, message string) error {
	if profile.TelegramChatID == 0 {
		return ErrNoChannel
	}
	if err := n.client.SendText(profile.TelegramChatID, message); err != nil {
		n.logger.WithError(err).WithField("profile_id", profile.ID).Warn("Failed to send telegram message")
		return err
	}
	return nil
}

// LogNotifier только пишет сообщение в лог, если бот не настроен
type LogNotifier struct {
	logger *logrus.Logger
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(_ context.Context, profile *models.Profile, message string) error {
	n.logger.WithFields(logrus.Fields{
		"profile_id": profile.ID,
		"email":      profile.Email,
	}).Info(message)
	return nil
}
