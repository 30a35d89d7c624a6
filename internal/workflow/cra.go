package workflow

import (
	"slices"
	"strings"
	"time"

	"cra-manager/internal/calendar"
	"cra-manager/internal/models"
)

// Action - переход жизненного цикла CRA
type Action string

const (
	ActionSubmit           Action = "submit"
	ActionValidate         Action = "validate"
	ActionRequestRevision  Action = "request_revision"
	ActionRequestSignature Action = "request_signature"
	ActionSign             Action = "sign"
)

type transitionRule struct {
	from []models.CRAStatus
	to   models.CRAStatus
	// managerial: выполняет менеджер или администратор, иначе только владелец-консультант
	managerial bool
}

var transitions = map[Action]transitionRule{
	ActionSubmit: {
		from: []models.CRAStatus{models.StatusDraft, models.StatusNeedsRevision},
		to:   models.StatusSubmitted,
	},
	ActionValidate: {
		from:       []models.CRAStatus{models.StatusSubmitted},
		to:         models.StatusValidated,
		managerial: true,
	},
	ActionRequestRevision: {
		from:       []models.CRAStatus{models.StatusSubmitted},
		to:         models.StatusNeedsRevision,
		managerial: true,
	},
	ActionRequestSignature: {
		from:       []models.CRAStatus{models.StatusValidated},
		to:         models.StatusSignatureRequested,
		managerial: true,
	},
	ActionSign: {
		from: []models.CRAStatus{models.StatusSignatureRequested},
		to:   models.StatusSigned,
	},
}

func ParseAction(s string) (Action, error) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := transitions[a]; !ok {
		return "", models.Validationf("unknown action %q", s)
	}
	return a, nil
}

// Target возвращает статус, в который ведет действие
func (a Action) Target() models.CRAStatus {
	return transitions[a].to
}

// IsAuthorizedFor - единственная проверка роли для переходов
func IsAuthorizedFor(role models.Role, action Action) bool {
	rule, ok := transitions[action]
	if !ok {
		return false
	}
	if rule.managerial {
		return role.IsManagerial()
	}
	return role == models.RoleConsultant
}

// AvailableActions возвращает переходы, доступные actor для отчета в текущем статусе
func AvailableActions(report *models.CRAReport, actor models.Actor) []Action {
	if report == nil {
		return nil
	}
	var result []Action
	for _, a := range []Action{ActionSubmit, ActionValidate, ActionRequestRevision, ActionRequestSignature, ActionSign} {
		if checkTransition(report, actor, a) == nil {
			result = append(result, a)
		}
	}
	return result
}

// TransitionInput - данные, которые требуются отдельным переходам
type TransitionInput struct {
	Reason         string
	SignatureText  string
	SignatureImage string
}

func checkTransition(report *models.CRAReport, actor models.Actor, action Action) error {
	rule, ok := transitions[action]
	if !ok {
		return models.Validationf("unknown action %q", action)
	}
	if !IsAuthorizedFor(actor.Role, action) {
		return models.Forbiddenf("role %q cannot %s a report", actor.Role, action)
	}
	if !rule.managerial && report.ConsultantID != actor.ID {
		return models.Forbiddenf("only the owning consultant can %s this report", action)
	}
	if !slices.Contains(rule.from, report.Status) {
		return models.InvalidTransitionf("cannot %s a report in status %q", action, report.Status)
	}
	return nil
}

// Transition применяет переход и возвращает новую копию отчета.
// Исходный отчет не изменяется, при ошибке ничего не применяется.
func Transition(report *models.CRAReport, actor models.Actor, action Action, in TransitionInput, now time.Time) (*models.CRAReport, error) {
	if report == nil {
		return nil, models.NotFoundf("report does not exist")
	}
	if err := checkTransition(report, actor, action); err != nil {
		return nil, err
	}

	next := report.Clone()
	next.Status = transitions[action].to

	switch action {
	case ActionSubmit:
		next.RevisionReason = ""
	case ActionRequestRevision:
		reason := strings.TrimSpace(in.Reason)
		if reason == "" {
			return nil, models.Validationf("a revision reason is required")
		}
		next.RevisionReason = reason
	case ActionSign:
		text := strings.TrimSpace(in.SignatureText)
		if text == "" && in.SignatureImage == "" {
			return nil, models.Validationf("a signature text or image is required")
		}
		next.SignatureText = text
		next.SignatureImage = in.SignatureImage
	}

	next.UpdatedAt = now
	return next, nil
}

// DaysEditable - дни и комментарий можно менять только в статусах Draft и NeedsRevision
func DaysEditable(report *models.CRAReport) bool {
	if report == nil {
		return true
	}
	return report.Status == models.StatusDraft || report.Status == models.StatusNeedsRevision
}

// FullyLocked - подписанный отчет не меняется никем
func FullyLocked(report *models.CRAReport) bool {
	return report != nil && report.Status == models.StatusSigned
}

// CanEditDays проверяет право actor менять дни отчета консультанта consultantID.
// Редактирование дней доступно только владельцу, даже администратору нет.
func CanEditDays(report *models.CRAReport, actor models.Actor, consultantID string) error {
	if actor.Role != models.RoleConsultant || actor.ID != consultantID {
		return models.Forbiddenf("only the owning consultant can edit days")
	}
	if report != nil && report.ConsultantID != actor.ID {
		return models.Forbiddenf("only the owning consultant can edit days")
	}
	if FullyLocked(report) {
		return models.InvalidTransitionf("report is signed and fully locked")
	}
	if !DaysEditable(report) {
		return models.InvalidTransitionf("report in status %q is locked", report.Status)
	}
	return nil
}

// NewDraft создает черновик с пустыми днями (неявный переход при первой правке)
func NewDraft(consultantID string, month time.Time, now time.Time) *models.CRAReport {
	return &models.CRAReport{
		ConsultantID: consultantID,
		Month:        models.MonthStart(month),
		Status:       models.StatusDraft,
		Days:         models.DayMap{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// editable возвращает копию для правки, создавая черновик при его отсутствии
func editable(report *models.CRAReport, actor models.Actor, month time.Time, now time.Time) (*models.CRAReport, error) {
	if err := CanEditDays(report, actor, actor.ID); err != nil {
		return nil, err
	}
	if report == nil {
		return NewDraft(actor.ID, month, now), nil
	}
	if !models.SameMonth(report.Month, month) {
		return nil, models.Validationf("month %s does not belong to report %s", models.MonthKey(month), models.MonthKey(report.Month))
	}
	next := report.Clone()
	next.UpdatedAt = now
	return next, nil
}

// SetDayStatus ставит или снимает (status == nil) отметку дня.
// Если отчета нет, создается черновик месяца даты.
// Даты вне месяца отчета отклоняются.
func SetDayStatus(report *models.CRAReport, actor models.Actor, date time.Time, status *models.DayStatus, now time.Time) (*models.CRAReport, error) {
	month := models.MonthStart(date)
	if report != nil {
		month = report.Month
		if !models.SameMonth(date, report.Month) {
			return nil, models.Validationf("date %s is outside of report month %s", models.DateKey(date), models.MonthKey(report.Month))
		}
	}

	next, err := editable(report, actor, month, now)
	if err != nil {
		return nil, err
	}

	key := models.DateKey(date)
	if status == nil {
		delete(next.Days, key)
	} else {
		next.Days[key] = models.DayEntry{Status: *status}
	}
	return next, nil
}

// FillWorkingDays отмечает полным днем все будние непраздничные дни месяца.
// Остальные отметки не трогаются, повторный вызов ничего не меняет.
func FillWorkingDays(report *models.CRAReport, actor models.Actor, month time.Time, now time.Time) (*models.CRAReport, error) {
	next, err := editable(report, actor, month, now)
	if err != nil {
		return nil, err
	}
	for _, d := range calendar.WorkingDays(month) {
		next.Days[models.DateKey(d)] = models.DayEntry{Status: models.DayWorkedFull}
	}
	return next, nil
}

// ClearAll удаляет все отметки дней
func ClearAll(report *models.CRAReport, actor models.Actor, now time.Time) (*models.CRAReport, error) {
	if report == nil {
		return nil, models.NotFoundf("report does not exist")
	}
	next, err := editable(report, actor, report.Month, now)
	if err != nil {
		return nil, err
	}
	next.Days = models.DayMap{}
	return next, nil
}

// SetComment меняет комментарий; правила блокировки те же, что у дней
func SetComment(report *models.CRAReport, actor models.Actor, comment string, now time.Time) (*models.CRAReport, error) {
	if report == nil {
		return nil, models.NotFoundf("report does not exist")
	}
	next, err := editable(report, actor, report.Month, now)
	if err != nil {
		return nil, err
	}
	next.Comment = strings.TrimSpace(comment)
	return next, nil
}

// PrintOptions - флаги печатной формы, nil означает "не менять"
type PrintOptions struct {
	HideHeader          *bool
	HideClientSignature *bool
}

func SetPrintOptions(report *models.CRAReport, actor models.Actor, opts PrintOptions, now time.Time) (*models.CRAReport, error) {
	if report == nil {
		return nil, models.NotFoundf("report does not exist")
	}
	next, err := editable(report, actor, report.Month, now)
	if err != nil {
		return nil, err
	}
	if opts.HideHeader != nil {
		next.HideHeader = *opts.HideHeader
	}
	if opts.HideClientSignature != nil {
		next.HideClientSignature = *opts.HideClientSignature
	}
	return next, nil
}

// CanDelete - жесткое удаление доступно только администратору, в обход жизненного цикла
func CanDelete(report *models.CRAReport, actor models.Actor) error {
	if report == nil {
		return models.NotFoundf("report does not exist")
	}
	if !actor.Role.IsAdmin() {
		return models.Forbiddenf("only an admin can delete a report")
	}
	return nil
}
