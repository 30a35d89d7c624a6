package report

import (
	"time"

	"cra-manager/internal/models"
)

// NeedsReminder - статусы, по которым консультанта нужно поторопить
func NeedsReminder(status models.CRAStatus) bool {
	switch status {
	case models.StatusDraft, models.StatusNotCreated, models.StatusNeedsRevision:
		return true
	}
	return false
}

// ReportsNeedingReminder отбирает строки со статусом draft, not_created или needs_revision
func ReportsNeedingReminder(rows []Row) []Row {
	var result []Row
	for _, r := range rows {
		if NeedsReminder(r.Status) {
			result = append(result, r)
		}
	}
	return result
}

type ReminderMode string

const (
	ReminderAll    ReminderMode = "all"
	ReminderSubset ReminderMode = "subset"
)

// ReminderTarget - адресат напоминания
type ReminderTarget struct {
	ConsultantID   string           `json:"consultant_id"`
	ConsultantName string           `json:"consultant_name"`
	Month          time.Time        `json:"month"`
	Status         models.CRAStatus `json:"status"`
}

// SelectForReminder возвращает адресатов: все строки, требующие напоминания (all),
// или их пересечение с переданными ключами строк (subset).
func SelectForReminder(rows []Row, mode ReminderMode, keys []string) ([]ReminderTarget, error) {
	candidates := ReportsNeedingReminder(rows)

	var wanted map[string]struct{}
	switch mode {
	case ReminderAll:
	case ReminderSubset:
		wanted = make(map[string]struct{}, len(keys))
		for _, k := range keys {
			wanted[k] = struct{}{}
		}
	default:
		return nil, models.Validationf("unknown reminder mode %q", mode)
	}

	targets := make([]ReminderTarget, 0, len(candidates))
	for _, r := range candidates {
		if wanted != nil {
			if _, ok := wanted[r.Key()]; !ok {
				continue
			}
		}
		targets = append(targets, ReminderTarget{
			ConsultantID:   r.ConsultantID,
			ConsultantName: r.ConsultantName,
			Month:          r.Month,
			Status:         r.Status,
		})
	}
	return targets, nil
}
