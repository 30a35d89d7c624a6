package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"cra-manager/internal/models"
	"cra-manager/internal/repository"
	"cra-manager/internal/workflow"
)

type AbsenceService struct {
	absenceRepo repository.AbsenceRequestRepository
	profileRepo *repository.ProfileRepository
	actions     *ActionLogService
	notifier    Notifier
	logger      *logrus.Logger
	now         func() time.Time
}

func NewAbsenceService(
	absenceRepo repository.AbsenceRequestRepository,
	profileRepo *repository.ProfileRepository,
	actions *ActionLogService,
	notifier Notifier,
	logger *logrus.Logger,
) *AbsenceService {
	return &AbsenceService{
		absenceRepo: absenceRepo,
		profileRepo: profileRepo,
		actions:     actions,
		notifier:    notifier,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Create создает заявку: консультант - на себя в статусе pending,
// менеджер или администратор - сразу одобренную за консультанта
func (s *AbsenceService) Create(ctx context.Context, actor models.Actor, draft workflow.AbsenceDraft) (*models.AbsenceRequest, error) {
	consultantID := draft.ConsultantID
	if actor.Role == models.RoleConsultant && consultantID == "" {
		consultantID = actor.ID
	}
	if actor.Role.IsManagerial() && consultantID != "" {
		if _, err := s.profileRepo.GetByID(ctx, consultantID); err != nil {
			return nil, err
		}
	}

	existing, err := s.absenceRepo.ListApproved(ctx, consultantID)
	if err != nil {
		return nil, fmt.Errorf("load approved absences: %w", err)
	}

	req, err := workflow.NewAbsenceRequest(actor, draft, existing, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.absenceRepo.Create(ctx, req); err != nil {
		if errors.Is(err, models.ErrOverlappingAbsence) {
			return nil, err
		}
		s.logger.WithError(err).WithField("consultant_id", req.ConsultantID).Error("Failed to create absence request")
		return nil, fmt.Errorf("create absence request: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"absence_id":    req.ID,
		"consultant_id": req.ConsultantID,
		"status":        req.Status,
		"days":          req.Days(),
	}).Info("Absence request created")

	s.actions.Record(ctx, actor, models.ActionAbsenceCreated, map[string]any{
		"absence_id":    req.ID,
		"consultant_id": req.ConsultantID,
		"start_date":    models.DateKey(req.StartDate),
		"end_date":      models.DateKey(req.EndDate),
		"status":        string(req.Status),
	})
	return req, nil
}

// List возвращает заявки; консультант видит только свои
func (s *AbsenceService) List(ctx context.Context, actor models.Actor, filter repository.AbsenceFilter) ([]models.AbsenceRequest, error) {
	if !actor.Role.IsManagerial() {
		if filter.ConsultantID != "" && filter.ConsultantID != actor.ID {
			return nil, models.Forbiddenf("a consultant can only list their own absences")
		}
		filter.ConsultantID = actor.ID
	}
	return s.absenceRepo.List(ctx, filter)
}

// Decide одобряет или отклоняет заявку в статусе pending
func (s *AbsenceService) Decide(ctx context.Context, actor models.Actor, id string, decision workflow.Decision, comment string) (*models.AbsenceRequest, error) {
	req, err := s.absenceRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	existing, err := s.absenceRepo.ListApproved(ctx, req.ConsultantID)
	if err != nil {
		return nil, fmt.Errorf("load approved absences: %w", err)
	}

	decided, err := workflow.DecideAbsence(req, actor, decision, comment, existing, s.now())
	if err != nil {
		return nil, err
	}

	if err := s.absenceRepo.Update(ctx, decided); err != nil {
		if errors.Is(err, models.ErrOverlappingAbsence) {
			return nil, err
		}
		s.logger.WithError(err).WithField("absence_id", id).Error("Failed to save absence decision")
		return nil, fmt.Errorf("save absence decision: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"absence_id": id,
		"actor_id":   actor.ID,
		"status":     decided.Status,
	}).Info("Absence request decided")

	s.actions.Record(ctx, actor, models.ActionAbsenceDecided, map[string]any{
		"absence_id":    id,
		"consultant_id": decided.ConsultantID,
		"decision":      string(decision),
		"comment":       decided.ManagerComment,
	})

	s.notifyDecision(ctx, decided)
	return decided, nil
}

func (s *AbsenceService) notifyDecision(ctx context.Context, req *models.AbsenceRequest) {
	profile, err := s.profileRepo.GetByID(ctx, req.ConsultantID)
	if err != nil {
		s.logger.WithError(err).WithField("consultant_id", req.ConsultantID).Warn("Cannot notify absence decision")
		return
	}

	msg := fmt.Sprintf("Votre demande d'absence du %s au %s : %s",
		req.StartDate.Format("02.01.2006"), req.EndDate.Format("02.01.2006"), req.Status.Label())
	if req.ManagerComment != "" {
		msg += "\nCommentaire : " + req.ManagerComment
	}

	if err := s.notifier.Notify(ctx, profile, msg); err != nil {
		s.logger.WithError(err).WithField("consultant_id", req.ConsultantID).Debug("Absence decision not delivered")
	}
}

// Delete - жесткое удаление обработанной заявки администратором
func (s *AbsenceService) Delete(ctx context.Context, actor models.Actor, id string) error {
	req, err := s.absenceRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := workflow.CanHardDelete(req, actor); err != nil {
		return err
	}
	if err := s.absenceRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.WithFields(logrus.Fields{
		"absence_id": id,
		"actor_id":   actor.ID,
	}).Info("Absence request deleted")

	s.actions.Record(ctx, actor, models.ActionAbsenceDeleted, map[string]any{
		"absence_id":    id,
		"consultant_id": req.ConsultantID,
		"status":        string(req.Status),
	})
	return nil
}

// ApprovedForMonth возвращает одобренные отсутствия консультанта, пересекающие месяц
func (s *AbsenceService) ApprovedForMonth(ctx context.Context, actor models.Actor, consultantID string, month time.Time) ([]models.AbsenceRequest, error) {
	if err := canRead(actor, consultantID); err != nil {
		return nil, err
	}
	start := models.MonthStart(month)
	return s.absenceRepo.ListApprovedInRange(ctx, consultantID, start, start.AddDate(0, 1, -1))
}
