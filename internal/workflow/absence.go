package workflow

import (
	"strings"
	"time"

	"cra-manager/internal/models"
)

// AbsenceDraft - данные новой заявки на отсутствие
type AbsenceDraft struct {
	ConsultantID string
	StartDate    time.Time
	EndDate      time.Time
	Type         string
	Reason       string
}

// NewAbsenceRequest создает заявку. Консультант создает только свою заявку в статусе pending,
// менеджер и администратор создают сразу одобренную заявку от имени консультанта.
// existing - уже известные заявки того же консультанта для проверки пересечений.
func NewAbsenceRequest(actor models.Actor, d AbsenceDraft, existing []models.AbsenceRequest, now time.Time) (*models.AbsenceRequest, error) {
	switch {
	case actor.Role == models.RoleConsultant:
		if d.ConsultantID != "" && d.ConsultantID != actor.ID {
			return nil, models.Forbiddenf("a consultant can only request their own absences")
		}
		d.ConsultantID = actor.ID
	case actor.Role.IsManagerial():
		if d.ConsultantID == "" {
			return nil, models.Validationf("consultant is required")
		}
	default:
		return nil, models.Forbiddenf("role %q cannot create absences", actor.Role)
	}

	start, end := models.Day(d.StartDate), models.Day(d.EndDate)
	if d.StartDate.IsZero() || d.EndDate.IsZero() {
		return nil, models.Validationf("start and end dates are required")
	}
	if end.Before(start) {
		return nil, models.Validationf("end date %s is before start date %s", models.DateKey(end), models.DateKey(start))
	}
	absenceType := strings.TrimSpace(d.Type)
	if absenceType == "" {
		return nil, models.Validationf("absence type is required")
	}

	req := &models.AbsenceRequest{
		ConsultantID: d.ConsultantID,
		StartDate:    start,
		EndDate:      end,
		Type:         absenceType,
		Reason:       strings.TrimSpace(d.Reason),
		Status:       models.AbsencePending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if actor.Role.IsManagerial() {
		req.Status = models.AbsenceApproved
		req.DecidedBy = actor.ID
		decided := now
		req.DecidedAt = &decided
	}

	if err := CheckOverlap(req, existing); err != nil {
		return nil, err
	}
	return req, nil
}

// CheckOverlap проверяет, что период заявки не пересекается с одобренными
// заявками того же консультанта. Сама заявка (по ID) не учитывается.
func CheckOverlap(req *models.AbsenceRequest, existing []models.AbsenceRequest) error {
	for i := range existing {
		other := &existing[i]
		if other.ConsultantID != req.ConsultantID || other.Status != models.AbsenceApproved {
			continue
		}
		if req.ID != "" && other.ID == req.ID {
			continue
		}
		if other.Overlaps(req.StartDate, req.EndDate) {
			return models.OverlappingAbsencef("period %s..%s overlaps approved absence %s..%s",
				models.DateKey(req.StartDate), models.DateKey(req.EndDate),
				models.DateKey(other.StartDate), models.DateKey(other.EndDate))
		}
	}
	return nil
}

// Decision - решение по заявке
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

func ParseDecision(s string) (Decision, error) {
	switch Decision(strings.ToLower(strings.TrimSpace(s))) {
	case DecisionApprove:
		return DecisionApprove, nil
	case DecisionReject:
		return DecisionReject, nil
	}
	return "", models.Validationf("unknown decision %q", s)
}

// DecideAbsence одобряет или отклоняет заявку в статусе pending и возвращает копию.
// Отклонение требует комментария, одобрение повторно проверяет пересечения.
func DecideAbsence(req *models.AbsenceRequest, actor models.Actor, decision Decision, comment string, existing []models.AbsenceRequest, now time.Time) (*models.AbsenceRequest, error) {
	if req == nil {
		return nil, models.NotFoundf("absence request does not exist")
	}
	if !actor.Role.IsManagerial() {
		return nil, models.Forbiddenf("only a manager or an admin can decide absences")
	}
	if req.Status != models.AbsencePending {
		return nil, models.InvalidTransitionf("absence request is already %s", req.Status)
	}

	next := *req
	next.ManagerComment = strings.TrimSpace(comment)

	switch decision {
	case DecisionApprove:
		if err := CheckOverlap(&next, existing); err != nil {
			return nil, err
		}
		next.Status = models.AbsenceApproved
	case DecisionReject:
		if next.ManagerComment == "" {
			return nil, models.Validationf("a comment is required to reject an absence")
		}
		next.Status = models.AbsenceRejected
	default:
		return nil, models.Validationf("unknown decision %q", decision)
	}

	decided := now
	next.DecidedAt = &decided
	next.DecidedBy = actor.ID
	next.UpdatedAt = now
	return &next, nil
}

// CanHardDelete - администратор может удалить только обработанную заявку
func CanHardDelete(req *models.AbsenceRequest, actor models.Actor) error {
	if req == nil {
		return models.NotFoundf("absence request does not exist")
	}
	if !actor.Role.IsAdmin() {
		return models.Forbiddenf("only an admin can delete an absence")
	}
	if !req.IsTerminal() {
		return models.InvalidTransitionf("only approved or rejected absences can be deleted")
	}
	return nil
}
