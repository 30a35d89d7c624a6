package models

import (
	"strings"
	"time"
)

type AbsenceStatus string

const (
	AbsencePending  AbsenceStatus = "pending"
	AbsenceApproved AbsenceStatus = "approved"
	AbsenceRejected AbsenceStatus = "rejected"
)

var absenceLabels = map[AbsenceStatus]string{
	AbsencePending:  "Demandé",
	AbsenceApproved: "Approuvé",
	AbsenceRejected: "Refusé",
}

func (s AbsenceStatus) Label() string {
	if l, ok := absenceLabels[s]; ok {
		return l
	}
	return string(s)
}

func NormalizeAbsenceStatus(s string) (AbsenceStatus, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for status, label := range absenceLabels {
		if key == string(status) || strings.EqualFold(strings.TrimSpace(s), label) {
			return status, nil
		}
	}
	return "", Validationf("unknown absence status %q", s)
}

// Типы отсутствия, которые предлагает интерфейс; допускается произвольный текст
const (
	AbsenceTypeVacation = "Vacances"
	AbsenceTypeSick     = "Maladie"
	AbsenceTypePersonal = "Personnel"
)

type AbsenceRequest struct {
	ID             string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ConsultantID   string        `gorm:"type:varchar(36);not null;index" json:"consultant_id"`
	StartDate      time.Time     `gorm:"type:date;not null" json:"start_date"`
	EndDate        time.Time     `gorm:"type:date;not null" json:"end_date"`
	Type           string        `gorm:"type:varchar(64);not null" json:"type"`
	Reason         string        `gorm:"type:text" json:"reason"`
	Status         AbsenceStatus `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	ManagerComment string        `gorm:"type:text" json:"manager_comment"`
	DecidedBy      string        `gorm:"type:varchar(36)" json:"decided_by,omitempty"`
	DecidedAt      *time.Time    `json:"decided_at,omitempty"`
	CreatedAt      time.Time     `json:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at"`
}

func (AbsenceRequest) TableName() string {
	return "absence_requests"
}

// Overlaps проверяет пересечение включительных диапазонов дат
func (a *AbsenceRequest) Overlaps(start, end time.Time) bool {
	return !(Day(end).Before(Day(a.StartDate)) || Day(start).After(Day(a.EndDate)))
}

// Days - количество календарных дней в периоде
func (a *AbsenceRequest) Days() int {
	return int(Day(a.EndDate).Sub(Day(a.StartDate)).Hours()/24) + 1
}

func (a *AbsenceRequest) IsTerminal() bool {
	return a.Status == AbsenceApproved || a.Status == AbsenceRejected
}
