package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"cra-manager/internal/models"
	"cra-manager/internal/repository"
)

// DefaultActionLogLimit - сколько записей журнала показывается администратору
const DefaultActionLogLimit = 400

type ActionLogService struct {
	repo   repository.ActionLogRepository
	logger *logrus.Logger
}

func NewActionLogService(repo repository.ActionLogRepository, logger *logrus.Logger) *ActionLogService {
	return &ActionLogService{repo: repo, logger: logger}
}

// Record пишет запись журнала. Ошибка записи только логируется:
// изменение уже сохранено и не откатывается из-за журнала.
func (s *ActionLogService) Record(ctx context.Context, actor models.Actor, action string, details map[string]any) {
	entry := &models.ActionLog{
		ActorID:   actor.ID,
		ActorRole: actor.Role,
		Action:    action,
		Details:   details,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"actor_id": actor.ID,
			"action":   action,
		}).Error("Failed to write action log")
	}
}

// ListRecent возвращает последние записи журнала, только для администратора
func (s *ActionLogService) ListRecent(ctx context.Context, actor models.Actor, limit int) ([]models.ActionLog, error) {
	if !actor.Role.IsAdmin() {
		return nil, models.Forbiddenf("only an admin can read the action log")
	}
	if limit <= 0 || limit > DefaultActionLogLimit {
		limit = DefaultActionLogLimit
	}
	return s.repo.ListRecent(ctx, limit)
}
