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

// AbsenceFilter - условия выборки заявок; пустые поля не фильтруют
type AbsenceFilter struct {
	ConsultantID string
	Status       models.AbsenceStatus
}

type AbsenceRequestRepository interface {
	Create(ctx context.Context, req *models.AbsenceRequest) error
	Update(ctx context.Context, req *models.AbsenceRequest) error
	GetByID(ctx context.Context, id string) (*models.AbsenceRequest, error)
	List(ctx context.Context, filter AbsenceFilter) ([]models.AbsenceRequest, error)
	ListApproved(ctx context.Context, consultantID string) ([]models.AbsenceRequest, error)
	ListApprovedInRange(ctx context.Context, consultantID string, from, to time.Time) ([]models.AbsenceRequest, error)
	CheckPeriodConflict(ctx context.Context, consultantID string, startDate, endDate time.Time, excludeID string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type GormAbsenceRequestRepository struct {
	db *gorm.DB
}

func NewGormAbsenceRequestRepository(db *gorm.DB) (AbsenceRequestRepository, error) {
	if err := db.AutoMigrate(&models.AbsenceRequest{}); err != nil {
		return nil, err
	}
	return &GormAbsenceRequestRepository{db: db}, nil
}

// Create сохраняет заявку. Одобренная заявка проверяется на пересечение
// в той же транзакции, что и вставка.
func (r *GormAbsenceRequestRepository) Create(ctx context.Context, req *models.AbsenceRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkApproved(tx, req); err != nil {
			return err
		}
		return tx.Create(req).Error
	})
}

// Update сохраняет изменения заявки с той же проверкой, что и Create
func (r *GormAbsenceRequestRepository) Update(ctx context.Context, req *models.AbsenceRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkApproved(tx, req); err != nil {
			return err
		}
		return tx.Save(req).Error
	})
}

// checkApproved не дает сохранить одобренную заявку поверх другой одобренной.
// В postgres заявки консультанта сериализуются advisory-блокировкой до конца транзакции.
func checkApproved(tx *gorm.DB, req *models.AbsenceRequest) error {
	if req.Status != models.AbsenceApproved {
		return nil
	}
	if tx.Dialector.Name() == "postgres" {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", req.ConsultantID).Error; err != nil {
			return fmt.Errorf("lock absences of %s: %w", req.ConsultantID, err)
		}
	}

	conflict, err := periodConflict(tx, req.ConsultantID, req.StartDate, req.EndDate, req.ID)
	if err != nil {
		return fmt.Errorf("check absence conflict: %w", err)
	}
	if conflict {
		return models.OverlappingAbsencef("period %s..%s overlaps an approved absence",
			models.DateKey(req.StartDate), models.DateKey(req.EndDate))
	}
	return nil
}

func (r *GormAbsenceRequestRepository) GetByID(ctx context.Context, id string) (*models.AbsenceRequest, error) {
	var req models.AbsenceRequest
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, models.NotFoundf("absence request %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get absence request %s: %w", id, err)
	}
	return &req, nil
}

func (r *GormAbsenceRequestRepository) List(ctx context.Context, filter AbsenceFilter) ([]models.AbsenceRequest, error) {
	q := r.db.WithContext(ctx).Model(&models.AbsenceRequest{})
	if filter.ConsultantID != "" {
		q = q.Where("consultant_id = ?", filter.ConsultantID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var reqs []models.AbsenceRequest
	err := q.Order("start_date DESC").Find(&reqs).Error
	return reqs, err
}

func (r *GormAbsenceRequestRepository) ListApproved(ctx context.Context, consultantID string) ([]models.AbsenceRequest, error) {
	return r.List(ctx, AbsenceFilter{ConsultantID: consultantID, Status: models.AbsenceApproved})
}

// ListApprovedInRange возвращает одобренные заявки, пересекающие [from, to]
func (r *GormAbsenceRequestRepository) ListApprovedInRange(ctx context.Context, consultantID string, from, to time.Time) ([]models.AbsenceRequest, error) {
	var reqs []models.AbsenceRequest
	err := r.db.WithContext(ctx).
		Where("consultant_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			consultantID, models.AbsenceApproved, models.Day(to), models.Day(from)).
		Order("start_date").
		Find(&reqs).Error
	return reqs, err
}

// CheckPeriodConflict проверяет пересечение с одобренными заявками консультанта.
// excludeID исключает саму заявку при повторной проверке перед одобрением.
func (r *GormAbsenceRequestRepository) CheckPeriodConflict(ctx context.Context, consultantID string, startDate, endDate time.Time, excludeID string) (bool, error) {
	return periodConflict(r.db.WithContext(ctx), consultantID, startDate, endDate, excludeID)
}

func periodConflict(db *gorm.DB, consultantID string, startDate, endDate time.Time, excludeID string) (bool, error) {
	q := db.Model(&models.AbsenceRequest{}).
		Where("consultant_id = ? AND status = ? AND start_date <= ? AND end_date >= ?",
			consultantID, models.AbsenceApproved, models.Day(endDate), models.Day(startDate))
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var count int64
	err := q.Count(&count).Error
	return count > 0, err
}

func (r *GormAbsenceRequestRepository) Delete(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.AbsenceRequest{})
	if result.Error != nil {
		return fmt.Errorf("delete absence request %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NotFoundf("absence request %s not found", id)
	}
	return nil
}
