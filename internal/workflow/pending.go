package workflow

import (
	"context"
	"fmt"

	"cra-manager/internal/models"
)

// ReportStore - хранилище отчетов, в котором фиксируется изменение
type ReportStore interface {
	Save(ctx context.Context, report *models.CRAReport) error
}

// PendingUpdate - предложенное, но еще не сохраненное изменение отчета.
// Before - снимок до изменения (nil, если отчет создается), After - новое состояние.
type PendingUpdate struct {
	Before *models.CRAReport
	After  *models.CRAReport
}

// Propose фиксирует пару снимков; обе копии независимы от исходных отчетов
func Propose(before, after *models.CRAReport) PendingUpdate {
	return PendingUpdate{
		Before: before.Clone(),
		After:  after.Clone(),
	}
}

// IsCreate - изменение создает новый отчет
func (p PendingUpdate) IsCreate() bool {
	return p.Before == nil
}

// Rollback возвращает состояние до Propose
func (p PendingUpdate) Rollback() *models.CRAReport {
	return p.Before.Clone()
}

// Commit сохраняет After в хранилище. При ошибке вызывающий восстанавливает Rollback().
func Commit(ctx context.Context, store ReportStore, p PendingUpdate) (*models.CRAReport, error) {
	if p.After == nil {
		return nil, models.Validationf("nothing to commit")
	}
	saved := p.After.Clone()
	if err := store.Save(ctx, saved); err != nil {
		return nil, fmt.Errorf("commit report: %w", err)
	}
	return saved, nil
}
