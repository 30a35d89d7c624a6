package handler

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"cra-manager/internal/models"
	"cra-manager/internal/report"
	"cra-manager/internal/service"
	"cra-manager/internal/workflow"
)

const botDateLayout = "02.01.2006"

// parseDate принимает ДД.ММ.ГГГГ, ДД-ММ-ГГГГ или ISO-дату
func parseDate(dateStr string) (time.Time, error) {
	formats := []string{
		botDateLayout,
		"02-01-2006",
		models.DateLayout,
	}

	for _, format := range formats {
		if t, err := time.Parse(format, strings.TrimSpace(dateStr)); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("date invalide %q, utilisez JJ.MM.AAAA", dateStr)
}

// parseMonthArg принимает ММ.ГГГГ или ГГГГ-ММ; пустая строка - текущий месяц
func parseMonthArg(arg string, now time.Time) (time.Time, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return models.MonthStart(now), nil
	}
	for _, format := range []string{"01.2006", "01-2006", models.MonthLayout} {
		if t, err := time.Parse(format, arg); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("mois invalide %q, utilisez MM.AAAA", arg)
}

// parseDayStatusArg переводит аргумент команды в отметку; nil означает снятие отметки
func parseDayStatusArg(arg string) (*models.DayStatus, error) {
	var status models.DayStatus
	switch strings.ToLower(strings.TrimSpace(arg)) {
	case "1", "full":
		status = models.DayWorkedFull
	case "0.5", "0,5", "half":
		status = models.DayWorkedHalf
	case "off", "0":
		status = models.DayOff
	case "clear":
		return nil, nil
	default:
		return nil, fmt.Errorf("statut de jour invalide %q", arg)
	}
	return &status, nil
}

func parseDayArgs(args string) (time.Time, *models.DayStatus, error) {
	parts := strings.Fields(args)
	if len(parts) != 2 {
		return time.Time{}, nil, fmt.Errorf("deux arguments attendus")
	}
	date, err := parseDate(parts[0])
	if err != nil {
		return time.Time{}, nil, err
	}
	status, err := parseDayStatusArg(parts[1])
	if err != nil {
		return time.Time{}, nil, err
	}
	return date, status, nil
}

// splitMonthPrefix отделяет необязательный месяц в начале аргументов
func splitMonthPrefix(args string) (string, string) {
	parts := strings.Fields(args)
	if len(parts) == 0 {
		return "", ""
	}
	if _, err := parseMonthArg(parts[0], time.Time{}); err == nil {
		return parts[0], strings.Join(parts[1:], " ")
	}
	return "", strings.Join(parts, " ")
}

func parseAbsenceArgs(args string) (workflow.AbsenceDraft, error) {
	parts := strings.Fields(args)
	if len(parts) < 3 {
		return workflow.AbsenceDraft{}, fmt.Errorf("dates de début, de fin et type attendus")
	}

	start, err := parseDate(parts[0])
	if err != nil {
		return workflow.AbsenceDraft{}, err
	}
	end, err := parseDate(parts[1])
	if err != nil {
		return workflow.AbsenceDraft{}, err
	}

	return workflow.AbsenceDraft{
		StartDate: start,
		EndDate:   end,
		Type:      parts[2],
		Reason:    strings.Join(parts[3:], " "),
	}, nil
}

func formatDays(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func dayStatusLabel(status *models.DayStatus) string {
	if status == nil {
		return "non renseigné"
	}
	switch *status {
	case models.DayWorkedFull:
		return "journée travaillée"
	case models.DayWorkedHalf:
		return "demi-journée"
	case models.DayOff:
		return "absent"
	}
	return string(*status)
}

func formatMonthView(view *service.MonthView, month time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("🗓 CRA de %s\n", report.MonthLabel(month)))
	sb.WriteString(fmt.Sprintf("Statut : %s\n", view.StatusLabel))
	sb.WriteString(fmt.Sprintf("Jours travaillés : %s / %d jours ouvrés\n",
		formatDays(view.Summary.TotalDays), view.Summary.WorkingDays))
	if view.Summary.HalfDays > 0 {
		sb.WriteString(fmt.Sprintf("Demi-journées : %d\n", view.Summary.HalfDays))
	}
	if view.Summary.OffDays > 0 {
		sb.WriteString(fmt.Sprintf("Absences : %d\n", view.Summary.OffDays))
	}
	if view.Report != nil && view.Report.RevisionReason != "" {
		sb.WriteString(fmt.Sprintf("\n✏️ Révision demandée : %s\n", view.Report.RevisionReason))
	}

	var holidays []string
	for _, cell := range view.Grid {
		if cell.InCurrentMonth && cell.IsHoliday {
			holidays = append(holidays, fmt.Sprintf("%s %s", cell.Date.Format("02.01"), cell.HolidayName))
		}
	}
	if len(holidays) > 0 {
		sb.WriteString("\n🎉 Jours fériés :\n")
		for _, h := range holidays {
			sb.WriteString("  " + h + "\n")
		}
	}

	if !view.Editable {
		sb.WriteString("\n🔒 Saisie verrouillée")
	}

	return strings.TrimRight(sb.String(), "\n")
}

func formatAbsencePeriod(req *models.AbsenceRequest) string {
	return fmt.Sprintf("%s du %s au %s (%d jour(s))",
		req.Type, req.StartDate.Format(botDateLayout), req.EndDate.Format(botDateLayout), req.Days())
}

func formatAbsences(reqs []models.AbsenceRequest) string {
	if len(reqs) == 0 {
		return "📭 Aucune demande d'absence."
	}

	var sb strings.Builder
	sb.WriteString("🏖 Mes absences :\n")
	for i := range reqs {
		req := &reqs[i]
		sb.WriteString(fmt.Sprintf("\n• %s\n  %s", formatAbsencePeriod(req), req.Status.Label()))
		if req.ManagerComment != "" {
			sb.WriteString(" : " + req.ManagerComment)
		}
	}
	return sb.String()
}
