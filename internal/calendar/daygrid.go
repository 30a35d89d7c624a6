package calendar

import (
	"time"

	"cra-manager/internal/models"
	"cra-manager/pkg/holidays"
)

// DayCell - ячейка календарной сетки месяца
type DayCell struct {
	Date           time.Time         `json:"-"`
	Key            string            `json:"date"`
	InCurrentMonth bool              `json:"in_current_month"`
	IsWeekend      bool              `json:"is_weekend"`
	IsHoliday      bool              `json:"is_holiday"`
	HolidayName    string            `json:"holiday_name,omitempty"`
	RecordedStatus *models.DayStatus `json:"recorded_status"`
}

// BuildMonthGrid строит сетку из полных недель (понедельник - воскресенье) для месяца,
// содержащего month. Дни соседних месяцев включаются с InCurrentMonth=false.
// report может быть nil, если отчета еще нет.
func BuildMonthGrid(month time.Time, report *models.CRAReport) []DayCell {
	first := models.MonthStart(month)
	last := first.AddDate(0, 1, -1)

	start := first.AddDate(0, 0, -mondayOffset(first))
	end := last.AddDate(0, 0, 6-mondayOffset(last))

	// сетка может захватывать соседний год
	hs := holidays.ForYears(start.Year(), end.Year())

	var days models.DayMap
	if report != nil {
		days = report.Days
	}

	cells := make([]DayCell, 0, 42)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := models.DateKey(d)
		cell := DayCell{
			Date:           d,
			Key:            key,
			InCurrentMonth: models.SameMonth(d, first),
			IsWeekend:      IsWeekend(d),
		}
		if h, ok := hs.Get(d); ok {
			cell.IsHoliday = true
			cell.HolidayName = h.Name
		}
		if entry, ok := days[key]; ok {
			status := entry.Status
			cell.RecordedStatus = &status
		}
		cells = append(cells, cell)
	}

	return cells
}

// mondayOffset - количество дней от понедельника той же недели
func mondayOffset(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

func IsWeekend(d time.Time) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// WorkingDays возвращает будние непраздничные дни месяца
func WorkingDays(month time.Time) []time.Time {
	first := models.MonthStart(month)
	hs := holidays.ForYears(first.Year())

	var result []time.Time
	for d := first; models.SameMonth(d, first); d = d.AddDate(0, 0, 1) {
		if IsWeekend(d) {
			continue
		}
		if _, ok := hs.Get(d); ok {
			continue
		}
		result = append(result, d)
	}
	return result
}

// RequiresConfirmation сообщает, что объявление рабочего дня на праздник
// нужно подтвердить: день праздничный, внутри месяца и еще не отмечен.
// Сетка ничего не блокирует, только сигнализирует.
func RequiresConfirmation(month time.Time, report *models.CRAReport, date time.Time, proposed *models.DayStatus) bool {
	if proposed == nil || !proposed.IsWorked() {
		return false
	}
	if !models.SameMonth(date, month) || !holidays.IsHoliday(date) {
		return false
	}
	if report != nil {
		if _, exists := report.Days[models.DateKey(date)]; exists {
			return false
		}
	}
	return true
}

// Summary - сводка по сетке для заголовка страницы CRA
type Summary struct {
	TotalDays   float64 `json:"total_days"`
	WorkingDays int     `json:"working_days"`
	HalfDays    int     `json:"half_days"`
	OffDays     int     `json:"off_days"`
}

func Summarize(month time.Time, report *models.CRAReport) Summary {
	s := Summary{WorkingDays: len(WorkingDays(month))}
	if report != nil {
		s.TotalDays = report.Days.TotalDays()
		s.HalfDays = report.Days.Count(models.DayWorkedHalf)
		s.OffDays = report.Days.Count(models.DayOff)
	}
	return s
}
