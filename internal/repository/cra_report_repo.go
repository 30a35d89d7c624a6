package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cra-manager/internal/models"
)

type CRAReportRepository interface {
	Save(ctx context.Context, report *models.CRAReport) error
	GetByID(ctx context.Context, id string) (*models.CRAReport, error)
	GetByPeriod(ctx context.Context, consultantID string, month time.Time) (*models.CRAReport, error)
	ListByConsultant(ctx context.Context, consultantID string) ([]models.CRAReport, error)
	ListInRange(ctx context.Context, from, to time.Time) ([]models.CRAReport, error)
	ListAll(ctx context.Context) ([]models.CRAReport, error)
	Delete(ctx context.Context, id string) error
}

type GormCRAReportRepository struct {
	db *gorm.DB
}

func NewGormCRAReportRepository(db *gorm.DB) (CRAReportRepository, error) {
	if err := db.AutoMigrate(&models.CRAReport{}); err != nil {
		return nil, err
	}
	return &GormCRAReportRepository{db: db}, nil
}

// Save создает отчет без ID или перезаписывает существующий целиком
func (r *GormCRAReportRepository) Save(ctx context.Context, report *models.CRAReport) error {
	report.SyncPeriod()
	if report.Days == nil {
		report.Days = models.DayMap{}
	}
	if report.ID == "" {
		report.ID = uuid.NewString()
		return r.db.WithContext(ctx).Create(report).Error
	}
	return r.db.WithContext(ctx).Save(report).Error
}

func (r *GormCRAReportRepository) GetByID(ctx context.Context, id string) (*models.CRAReport, error) {
	var report models.CRAReport
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NotFoundf("report %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", id, err)
	}
	return &report, nil
}

// GetByPeriod ищет отчет консультанта за месяц; возвращает nil, nil если отчета нет
func (r *GormCRAReportRepository) GetByPeriod(ctx context.Context, consultantID string, month time.Time) (*models.CRAReport, error) {
	var report models.CRAReport
	err := r.db.WithContext(ctx).
		Where("consultant_id = ? AND period_year = ? AND period_month = ?", consultantID, month.Year(), int(month.Month())).
		Order("updated_at DESC").
		First(&report).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report for %s %s: %w", consultantID, models.MonthKey(month), err)
	}
	return &report, nil
}

func (r *GormCRAReportRepository) ListByConsultant(ctx context.Context, consultantID string) ([]models.CRAReport, error) {
	var reports []models.CRAReport
	err := r.db.WithContext(ctx).
		Where("consultant_id = ?", consultantID).
		Order("period_year DESC, period_month DESC").
		Find(&reports).Error
	return reports, err
}

// ListInRange возвращает отчеты месяцев, которых касается диапазон [from, to]
func (r *GormCRAReportRepository) ListInRange(ctx context.Context, from, to time.Time) ([]models.CRAReport, error) {
	lo := from.Year()*12 + int(from.Month()) - 1
	hi := to.Year()*12 + int(to.Month()) - 1

	var reports []models.CRAReport
	err := r.db.WithContext(ctx).
		Where("period_year * 12 + period_month - 1 BETWEEN ? AND ?", lo, hi).
		Order("period_year DESC, period_month DESC").
		Find(&reports).Error
	return reports, err
}

func (r *GormCRAReportRepository) ListAll(ctx context.Context) ([]models.CRAReport, error) {
	var reports []models.CRAReport
	err := r.db.WithContext(ctx).
		Order("period_year DESC, period_month DESC").
		Find(&reports).Error
	return reports, err
}

func (r *GormCRAReportRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.CRAReport{})
	if result.Error != nil {
		return fmt.Errorf("delete report %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NotFoundf("report %s not found", id)
	}
	return nil
}
