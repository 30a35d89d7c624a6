package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cra-manager/internal/models"
)

type ProfileRepository struct {
	db *gorm.DB
}

func NewProfileRepository(db *gorm.DB) (*ProfileRepository, error) {
	// Автомиграция - создает таблицы если их нет
	if err := db.AutoMigrate(&models.Profile{}, &models.Client{}); err != nil {
		return nil, err
	}
	return &ProfileRepository{db: db}, nil
}

func (r *ProfileRepository) Create(ctx context.Context, profile *models.Profile) error {
	var existing models.Profile
	result := r.db.WithContext(ctx).Where("email = ?", profile.Email).First(&existing)
	if result.Error == nil {
		return models.Validationf("profile %s already exists", profile.Email)
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}

	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NotFoundf("profile %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile %s: %w", id, err)
	}
	return &profile, nil
}

// GetByEmail возвращает nil, nil если профиля нет
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByChatID находит профиль, привязанный к чату Telegram; nil, nil если привязки нет
func (r *ProfileRepository) GetByChatID(ctx context.Context, chatID int64) (*models.Profile, error) {
	if chatID == 0 {
		return nil, nil
	}
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("telegram_chat_id = ?", chatID).First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *ProfileRepository) Update(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}

func (r *ProfileRepository) GetAll(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.WithContext(ctx).Order("name").Find(&profiles).Error
	return profiles, err
}

// GetByIDs возвращает профили по списку ID, отсутствующие пропускаются
func (r *ProfileRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Profile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var profiles []models.Profile
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error
	return profiles, err
}

func (r *ProfileRepository) GetManagers(ctx context.Context) ([]models.Profile, error) {
	var profiles []models.Profile
	err := r.db.WithContext(ctx).
		Where("role IN ?", []models.Role{models.RoleManager, models.RoleAdmin}).
		Find(&profiles).Error
	return profiles, err
}

func (r *ProfileRepository) CreateClient(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(client).Error
}

func (r *ProfileRepository) GetClients(ctx context.Context) ([]models.Client, error) {
	var clients []models.Client
	err := r.db.WithContext(ctx).Order("name").Find(&clients).Error
	return clients, err
}
