package repository

import (
	"context"

	"gorm.io/gorm"

	"cra-manager/internal/models"
)

type ActionLogRepository interface {
	Create(ctx context.Context, entry *models.ActionLog) error
	ListRecent(ctx context.Context, limit int) ([]models.ActionLog, error)
}

type GormActionLogRepository struct {
	db *gorm.DB
}

func NewGormActionLogRepository(db *gorm.DB) (ActionLogRepository, error) {
	if err := db.AutoMigrate(&models.ActionLog{}); err != nil {
		return nil, err
	}
	return &GormActionLogRepository{db: db}, nil
}

func (r *GormActionLogRepository) Create(ctx context.Context, entry *models.ActionLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *GormActionLogRepository) ListRecent(ctx context.Context, limit int) ([]models.ActionLog, error) {
	var entries []models.ActionLog
	err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
