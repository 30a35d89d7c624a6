package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"cra-manager/internal/calendar"
	"cra-manager/internal/models"
	"cra-manager/internal/report"
	"cra-manager/internal/repository"
	"cra-manager/internal/workflow"
)

// ReportScope - какие отчеты возвращает ListReports
type ReportScope string

const (
	ScopeAll       ReportScope = "all"
	ScopeDashboard ReportScope = "dashboard"
	ScopeMine      ReportScope = "mine"
)

func ParseScope(s string) (ReportScope, error) {
	switch ReportScope(s) {
	case "", ScopeMine:
		return ScopeMine, nil
	case ScopeAll:
		return ScopeAll, nil
	case ScopeDashboard:
		return ScopeDashboard, nil
	}
	return "", models.Validationf("unknown scope %q", s)
}

// SignatureLinker выдает консультанту ссылку на подпись отчета
type SignatureLinker interface {
	SignatureLink(consultantID, reportID string) (string, error)
}

type CRAService struct {
	reports  repository.CRAReportRepository
	profiles *repository.ProfileRepository
	actions  *ActionLogService
	notifier Notifier
	links    SignatureLinker
	logger   *logrus.Logger
	now      func() time.Time
}

func NewCRAService(
	reports repository.CRAReportRepository,
	profiles *repository.ProfileRepository,
	actions *ActionLogService,
	notifier Notifier,
	links SignatureLinker,
	logger *logrus.Logger,
) *CRAService {
	return &CRAService{
		reports:  reports,
		profiles: profiles,
		actions:  actions,
		notifier: notifier,
		links:    links,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// ListReports возвращает отчеты по области видимости.
// Консультант видит только свои отчеты, какой бы scope он ни запросил.
func (s *CRAService) ListReports(ctx context.Context, actor models.Actor, scope ReportScope, consultantID string) ([]models.CRAReport, error) {
	if !actor.Role.IsManagerial() {
		if consultantID != "" && consultantID != actor.ID {
			return nil, models.Forbiddenf("a consultant can only list their own reports")
		}
		return s.reports.ListByConsultant(ctx, actor.ID)
	}

	switch {
	case consultantID != "":
		return s.reports.ListByConsultant(ctx, consultantID)
	case scope == ScopeMine:
		return s.reports.ListByConsultant(ctx, actor.ID)
	default:
		return s.reports.ListAll(ctx)
	}
}

func (s *CRAService) Get(ctx context.Context, actor models.Actor, id string) (*models.CRAReport, error) {
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canRead(actor, rep.ConsultantID); err != nil {
		return nil, err
	}
	return rep, nil
}

func canRead(actor models.Actor, consultantID string) error {
	if actor.Role.IsManagerial() || actor.ID == consultantID {
		return nil
	}
	return models.Forbiddenf("report belongs to another consultant")
}

// MonthView - данные страницы CRA за месяц
type MonthView struct {
	ConsultantID string             `json:"consultant_id"`
	Month        string             `json:"month"`
	Report       *models.CRAReport  `json:"report"`
	Grid         []calendar.DayCell `json:"grid"`
	Summary      calendar.Summary   `json:"summary"`
	Editable     bool               `json:"editable"`
	Actions      []workflow.Action  `json:"actions"`
	StatusLabel  string             `json:"status_label"`
}

// MonthView собирает сетку месяца; report равен nil, если отчет еще не создан
func (s *CRAService) MonthView(ctx context.Context, actor models.Actor, consultantID string, month time.Time) (*MonthView, error) {
	if consultantID == "" {
		consultantID = actor.ID
	}
	if err := canRead(actor, consultantID); err != nil {
		return nil, err
	}
	if consultantID != actor.ID {
		if _, err := s.profiles.GetByID(ctx, consultantID); err != nil {
			return nil, err
		}
	}

	rep, err := s.reports.GetByPeriod(ctx, consultantID, month)
	if err != nil {
		return nil, err
	}

	view := &MonthView{
		ConsultantID: consultantID,
		Month:        models.MonthKey(month),
		Report:       rep,
		Grid:         calendar.BuildMonthGrid(month, rep),
		Summary:      calendar.Summarize(month, rep),
		Editable:     workflow.CanEditDays(rep, actor, consultantID) == nil,
		Actions:      workflow.AvailableActions(rep, actor),
		StatusLabel:  models.StatusNotCreated.Label(),
	}
	if rep != nil {
		view.StatusLabel = rep.Status.Label()
	}
	return view, nil
}

// SetDay ставит или снимает отметку дня в отчете actor за month.
// Рабочий день на праздник без отметки требует confirmHoliday.
func (s *CRAService) SetDay(ctx context.Context, actor models.Actor, month, date time.Time, status *models.DayStatus, confirmHoliday bool) (*models.CRAReport, error) {
	if !models.SameMonth(date, month) {
		return nil, models.Validationf("date %s is outside of month %s", models.DateKey(date), models.MonthKey(month))
	}

	existing, err := s.reports.GetByPeriod(ctx, actor.ID, month)
	if err != nil {
		return nil, err
	}

	updated, err := workflow.SetDayStatus(existing, actor, date, status, s.now())
	if err != nil {
		return nil, err
	}
	// подтверждение спрашивается только у того, кто вправе править отчет
	if !confirmHoliday && calendar.RequiresConfirmation(month, existing, date, status) {
		return nil, models.HolidayConfirmationf("%s is a public holiday", models.DateKey(date))
	}

	fields := map[string]any{"date": models.DateKey(date)}
	if status != nil {
		fields["status"] = string(*status)
	}
	return s.commit(ctx, actor, existing, updated, fields)
}

// Fill отмечает все рабочие дни месяца полным днем
func (s *CRAService) Fill(ctx context.Context, actor models.Actor, month time.Time) (*models.CRAReport, error) {
	existing, err := s.reports.GetByPeriod(ctx, actor.ID, month)
	if err != nil {
		return nil, err
	}
	updated, err := workflow.FillWorkingDays(existing, actor, month, s.now())
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, actor, existing, updated, map[string]any{"operation": "fill"})
}

// Clear удаляет все отметки месяца
func (s *CRAService) Clear(ctx context.Context, actor models.Actor, month time.Time) (*models.CRAReport, error) {
	existing, err := s.reports.GetByPeriod(ctx, actor.ID, month)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, models.NotFoundf("no report for %s", models.MonthKey(month))
	}
	updated, err := workflow.ClearAll(existing, actor, s.now())
	if err != nil {
		return nil, err
	}
	return s.commit(ctx, actor, existing, updated, map[string]any{"operation": "clear"})
}

// UpdateNotes меняет комментарий и флаги печати; nil-поля не меняются
func (s *CRAService) UpdateNotes(ctx context.Context, actor models.Actor, month time.Time, comment *string, opts workflow.PrintOptions) (*models.CRAReport, error) {
	if comment == nil && opts.HideHeader == nil && opts.HideClientSignature == nil {
		return nil, models.Validationf("nothing to update")
	}

	existing, err := s.reports.GetByPeriod(ctx, actor.ID, month)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, models.NotFoundf("no report for %s", models.MonthKey(month))
	}

	now := s.now()
	updated := existing
	if comment != nil {
		if updated, err = workflow.SetComment(updated, actor, *comment, now); err != nil {
			return nil, err
		}
	}
	if opts.HideHeader != nil || opts.HideClientSignature != nil {
		if updated, err = workflow.SetPrintOptions(updated, actor, opts, now); err != nil {
			return nil, err
		}
	}
	return s.commit(ctx, actor, existing, updated, map[string]any{"operation": "notes"})
}

// Transition выполняет переход жизненного цикла отчета
func (s *CRAService) Transition(ctx context.Context, actor models.Actor, id string, action workflow.Action, in workflow.TransitionInput) (*models.CRAReport, error) {
	existing, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := workflow.Transition(existing, actor, action, in, s.now())
	if err != nil {
		s.logger.WithFields(logrus.Fields{
			"report_id": id,
			"actor_id":  actor.ID,
			"action":    action,
			"status":    existing.Status,
		}).WithError(err).Warn("Transition rejected")
		return nil, err
	}

	saved, err := workflow.Commit(ctx, s.reports, workflow.Propose(existing, updated))
	if err != nil {
		s.logger.WithError(err).WithField("report_id", id).Error("Failed to save transition")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"report_id": id,
		"actor_id":  actor.ID,
		"from":      existing.Status,
		"to":        saved.Status,
	}).Info("Report transitioned")

	s.actions.Record(ctx, actor, models.ActionCRATransition, map[string]any{
		"report_id":     saved.ID,
		"consultant_id": saved.ConsultantID,
		"month":         models.MonthKey(saved.Month),
		"action":        string(action),
		"from":          string(existing.Status),
		"to":            string(saved.Status),
	})

	s.notifyTransition(ctx, saved)
	return saved, nil
}

// notifyTransition сообщает консультанту о возврате на доработку и о запросе подписи
func (s *CRAService) notifyTransition(ctx context.Context, rep *models.CRAReport) {
	log := s.logger.WithFields(logrus.Fields{
		"report_id":     rep.ID,
		"consultant_id": rep.ConsultantID,
	})

	var msg string
	switch rep.Status {
	case models.StatusNeedsRevision:
		msg = fmt.Sprintf("✏️ Votre CRA de %s est à corriger.\nMotif : %s", report.MonthLabel(rep.Month), rep.RevisionReason)
	case models.StatusSignatureRequested:
		link, err := s.links.SignatureLink(rep.ConsultantID, rep.ID)
		if err != nil {
			log.WithError(err).Warn("Cannot build signature link")
			return
		}
		msg = fmt.Sprintf("✍️ Votre CRA de %s est validé et attend votre signature :\n%s", report.MonthLabel(rep.Month), link)
	default:
		return
	}

	profile, err := s.profiles.GetByID(ctx, rep.ConsultantID)
	if err != nil {
		log.WithError(err).Warn("Cannot notify report transition")
		return
	}
	if err := s.notifier.Notify(ctx, profile, msg); err != nil {
		log.WithError(err).Debug("Report transition not delivered")
	}
}

// SignatureTarget возвращает отчет из ссылки на подпись, если он все еще ждет подписи консультанта
func (s *CRAService) SignatureTarget(ctx context.Context, consultantID, reportID string) (*models.CRAReport, error) {
	rep, err := s.reports.GetByID(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if rep.ConsultantID != consultantID {
		return nil, models.Forbiddenf("signature link does not match the report owner")
	}
	if rep.Status != models.StatusSignatureRequested {
		return nil, models.InvalidTransitionf("report in status %q does not await a signature", rep.Status)
	}
	return rep, nil
}

// Delete - жесткое удаление отчета администратором в обход жизненного цикла
func (s *CRAService) Delete(ctx context.Context, actor models.Actor, id string) error {
	existing, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := workflow.CanDelete(existing, actor); err != nil {
		return err
	}
	if err := s.reports.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"report_id": id,
		"actor_id":  actor.ID,
	}).Info("Report deleted")

	s.actions.Record(ctx, actor, models.ActionCRADeleted, map[string]any{
		"report_id":     id,
		"consultant_id": existing.ConsultantID,
		"month":         models.MonthKey(existing.Month),
		"status":        string(existing.Status),
	})
	return nil
}

// commit сохраняет изменение дней или заметок через двухфазный протокол
func (s *CRAService) commit(ctx context.Context, actor models.Actor, before, after *models.CRAReport, details map[string]any) (*models.CRAReport, error) {
	pending := workflow.Propose(before, after)
	saved, err := workflow.Commit(ctx, s.reports, pending)
	if err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"consultant_id": actor.ID,
			"month":         models.MonthKey(after.Month),
		}).Error("Failed to save report")
		return nil, err
	}

	action := models.ActionCRAUpdated
	if pending.IsCreate() {
		action = models.ActionCRACreated
	}
	details["report_id"] = saved.ID
	details["month"] = models.MonthKey(saved.Month)
	s.actions.Record(ctx, actor, action, details)

	s.logger.WithFields(logrus.Fields{
		"report_id":  saved.ID,
		"actor_id":   actor.ID,
		"total_days": saved.TotalDays(),
	}).Debug("Report saved")
	return saved, nil
}
