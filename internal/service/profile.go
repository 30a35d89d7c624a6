package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"cra-manager/internal/models"
	"cra-manager/internal/repository"
)

type ProfileService struct {
	repo   *repository.ProfileRepository
	logger *logrus.Logger
}

func NewProfileService(repo *repository.ProfileRepository, logger *logrus.Logger) *ProfileService {
	return &ProfileService{repo: repo, logger: logger}
}

func (s *ProfileService) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByChatID возвращает профиль, привязанный к чату, или NotFound
func (s *ProfileService) GetByChatID(ctx context.Context, chatID int64) (*models.Profile, error) {
	profile, err := s.repo.GetByChatID(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("get profile by chat: %w", err)
	}
	if profile == nil {
		return nil, models.NotFoundf("no profile linked to chat %d", chatID)
	}
	return profile, nil
}

// Roster - справочник сотрудников для сводной таблицы, только для менеджеров
func (s *ProfileService) Roster(ctx context.Context, actor models.Actor) ([]models.Profile, error) {
	if !actor.Role.IsManagerial() {
		return nil, models.Forbiddenf("only managers can list profiles")
	}
	return s.repo.GetAll(ctx)
}

func (s *ProfileService) Clients(ctx context.Context) ([]models.Client, error) {
	return s.repo.GetClients(ctx)
}

// LinkTelegram привязывает чат Telegram к профилю пользователя
func (s *ProfileService) LinkTelegram(ctx context.Context, actor models.Actor, chatID int64) (*models.Profile, error) {
	if chatID == 0 {
		return nil, models.Validationf("chat id is required")
	}
	profile, err := s.repo.GetByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	if linked, err := s.repo.GetByChatID(ctx, chatID); err != nil {
		return nil, err
	} else if linked != nil && linked.ID != profile.ID {
		return nil, models.Validationf("chat %d is already linked to another profile", chatID)
	}

	profile.TelegramChatID = chatID
	if err := s.repo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("link telegram: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"profile_id": profile.ID,
		"chat_id":    chatID,
	}).Info("Telegram chat linked")
	return profile, nil
}

// InitializeAdmin создает администратора из конфига или повышает существующий профиль
func (s *ProfileService) InitializeAdmin(ctx context.Context, email, name string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil // Админ не задан в конфиге
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	if existing != nil {
		if existing.Role == models.RoleAdmin {
			return nil
		}
		existing.Role = models.RoleAdmin
		return s.repo.Update(ctx, existing)
	}

	admin := &models.Profile{
		Name:  name,
		Email: email,
		Role:  models.RoleAdmin,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		return err
	}

	s.logger.WithField("email", email).Info("Admin profile created")
	return nil
}

// FormatProfile форматирует профиль для вывода в боте
func FormatProfile(p *models.Profile, clientName string) string {
	var lines []string

	lines = append(lines, "👤 Profil")
	lines = append(lines, "")
	lines = append(lines, fmt.Sprintf("Nom : %s", p.Name))
	lines = append(lines, fmt.Sprintf("Email : %s", p.Email))
	lines = append(lines, fmt.Sprintf("Rôle : %s", p.Role))
	if clientName != "" {
		lines = append(lines, fmt.Sprintf("Client : %s", clientName))
	}

	return strings.Join(lines, "\n")
}
