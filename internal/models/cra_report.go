package models

import (
	"fmt"
	"maps"
	"strings"
	"time"
)

// DateLayout - формат ключей дней и дат в API
const DateLayout = "2006-01-02"

// MonthLayout - формат месяца в путях API
const MonthLayout = "2006-01"

type CRAStatus string

const (
	StatusDraft              CRAStatus = "draft"
	StatusSubmitted          CRAStatus = "submitted"
	StatusNeedsRevision      CRAStatus = "needs_revision"
	StatusValidated          CRAStatus = "validated"
	StatusSignatureRequested CRAStatus = "signature_requested"
	StatusSigned             CRAStatus = "signed"

	// StatusNotCreated существует только у виртуальных строк сводной таблицы
	StatusNotCreated CRAStatus = "not_created"
)

var statusLabels = map[CRAStatus]string{
	StatusDraft:              "Brouillon",
	StatusSubmitted:          "Soumis",
	StatusNeedsRevision:      "À réviser",
	StatusValidated:          "Validé",
	StatusSignatureRequested: "Signature demandée",
	StatusSigned:             "Signé",
	StatusNotCreated:         "Non créé",
}

// Label возвращает французское название статуса
func (s CRAStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// NormalizeStatus принимает значения API в любом регистре и французские подписи
func NormalizeStatus(s string) (CRAStatus, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.NewReplacer("-", "_", " ", "_").Replace(key)
	for status, label := range statusLabels {
		if key == string(status) || strings.EqualFold(strings.TrimSpace(s), label) {
			return status, nil
		}
	}
	return "", Validationf("unknown status %q", s)
}

type DayStatus string

const (
	DayWorkedFull DayStatus = "worked_1"
	DayWorkedHalf DayStatus = "worked_0_5"
	DayOff        DayStatus = "off"
)

func ParseDayStatus(s string) (DayStatus, error) {
	switch DayStatus(strings.ToLower(strings.TrimSpace(s))) {
	case DayWorkedFull:
		return DayWorkedFull, nil
	case DayWorkedHalf:
		return DayWorkedHalf, nil
	case DayOff:
		return DayOff, nil
	}
	return "", Validationf("unknown day status %q", s)
}

// Weight - вклад дня в итог месяца
func (d DayStatus) Weight() float64 {
	switch d {
	case DayWorkedFull:
		return 1
	case DayWorkedHalf:
		return 0.5
	}
	return 0
}

func (d DayStatus) IsWorked() bool {
	return d == DayWorkedFull || d == DayWorkedHalf
}

type DayEntry struct {
	Status DayStatus `json:"status"`
}

// DayMap - отметки по дням, ключ YYYY-MM-DD
type DayMap map[string]DayEntry

// TotalDays считает отработанные дни: 1 за полный день, 0.5 за половину
func (d DayMap) TotalDays() float64 {
	total := 0.0
	for _, e := range d {
		total += e.Status.Weight()
	}
	return total
}

// Count возвращает количество отметок заданного статуса
func (d DayMap) Count(status DayStatus) int {
	n := 0
	for _, e := range d {
		if e.Status == status {
			n++
		}
	}
	return n
}

func (d DayMap) Clone() DayMap {
	if d == nil {
		return DayMap{}
	}
	return maps.Clone(d)
}

type CRAReport struct {
	ID                  string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ConsultantID        string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_cra_period" json:"consultant_id"`
	Month               time.Time `gorm:"type:date;not null" json:"month"`
	PeriodYear          int       `gorm:"not null;uniqueIndex:idx_cra_period" json:"-"`
	PeriodMonth         int       `gorm:"not null;uniqueIndex:idx_cra_period" json:"-"`
	Status              CRAStatus `gorm:"type:varchar(32);not null;default:'draft';index" json:"status"`
	Days                DayMap    `gorm:"serializer:json;type:text" json:"days"`
	Comment             string    `gorm:"type:text" json:"comment"`
	RevisionReason      string    `gorm:"type:text" json:"revision_reason"`
	SignatureText       string    `gorm:"type:text" json:"signature_text,omitempty"`
	SignatureImage      string    `gorm:"type:text" json:"signature_image,omitempty"`
	HideHeader          bool      `gorm:"not null;default:false" json:"hide_header"`
	HideClientSignature bool      `gorm:"not null;default:false" json:"hide_client_signature"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

func (CRAReport) TableName() string {
	return "cra_reports"
}

// Clone возвращает независимую копию отчета
func (r *CRAReport) Clone() *CRAReport {
	if r == nil {
		return nil
	}
	c := *r
	c.Days = r.Days.Clone()
	return &c
}

func (r *CRAReport) TotalDays() float64 {
	return r.Days.TotalDays()
}

// SyncPeriod заполняет индексные колонки года и месяца из Month
func (r *CRAReport) SyncPeriod() {
	r.Month = MonthStart(r.Month)
	r.PeriodYear = r.Month.Year()
	r.PeriodMonth = int(r.Month.Month())
}

// SameMonth сравнивает только год и месяц
func SameMonth(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month()
}

// MonthStart нормализует дату к первому дню месяца (UTC)
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Day отбрасывает время и часовой пояс
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, Validationf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseMonth принимает YYYY-MM или полную дату внутри месяца
func ParseMonth(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(MonthLayout, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return MonthStart(t), nil
	}
	return time.Time{}, Validationf("invalid month %q, expected YYYY-MM", s)
}

// MonthKey - ключ месяца YYYY-MM
func MonthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}
