package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"cra-manager/internal/models"
	"cra-manager/internal/report"
	"cra-manager/internal/repository"
)

// ReminderResult - итог рассылки напоминаний
type ReminderResult struct {
	Targets []report.ReminderTarget `json:"targets"`
	Sent    int                     `json:"sent"`
	Skipped int                     `json:"skipped"`
	Failed  int                     `json:"failed"`
}

type ReminderService struct {
	dashboard *DashboardService
	profiles  *repository.ProfileRepository
	notifier  Notifier
	actions   *ActionLogService
	logger    *logrus.Logger
	now       func() time.Time

	scheduler *cron.Cron
	mu        sync.Mutex
}

func NewReminderService(
	dashboard *DashboardService,
	profiles *repository.ProfileRepository,
	notifier Notifier,
	actions *ActionLogService,
	logger *logrus.Logger,
) *ReminderService {
	return &ReminderService{
		dashboard: dashboard,
		profiles:  profiles,
		notifier:  notifier,
		actions:   actions,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Send рассылает напоминания по сетке периода: всем, кому нужно (all),
// или выбранным строкам (subset)
func (s *ReminderService) Send(ctx context.Context, actor models.Actor, rng report.DateRange, mode report.ReminderMode, keys []string) (*ReminderResult, error) {
	rows, err := s.dashboard.Grid(ctx, actor, rng, report.Filter{})
	if err != nil {
		return nil, err
	}

	targets, err := report.SelectForReminder(rows, mode, keys)
	if err != nil {
		return nil, err
	}

	result := &ReminderResult{Targets: targets}
	if len(targets) == 0 {
		return result, nil
	}

	ids := make([]string, 0, len(targets))
	for _, t := range targets {
		ids = append(ids, t.ConsultantID)
	}
	profiles, err := s.profiles.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load reminder recipients: %w", err)
	}
	byID := make(map[string]*models.Profile, len(profiles))
	for i := range profiles {
		byID[profiles[i].ID] = &profiles[i]
	}

	for _, t := range targets {
		profile, ok := byID[t.ConsultantID]
		if !ok {
			result.Skipped++
			continue
		}
		err := s.notifier.Notify(ctx, profile, reminderMessage(t))
		switch {
		case errors.Is(err, ErrNoChannel):
			result.Skipped++
		case err != nil:
			result.Failed++
		default:
			result.Sent++
		}
	}

	s.logger.WithFields(logrus.Fields{
		"actor_id": actor.ID,
		"mode":     mode,
		"targets":  len(targets),
		"sent":     result.Sent,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	}).Info("Reminders sent")

	s.actions.Record(ctx, actor, models.ActionRemindersSent, map[string]any{
		"mode":    string(mode),
		"from":    models.DateKey(rng.From),
		"to":      models.DateKey(rng.To),
		"targets": len(targets),
		"sent":    result.Sent,
	})
	return result, nil
}

func reminderMessage(t report.ReminderTarget) string {
	return fmt.Sprintf("Bonjour %s, votre CRA de %s est à compléter (statut : %s).",
		t.ConsultantName, report.MonthLabel(t.Month), t.Status.Label())
}

// SendMonthly - плановая рассылка за текущий месяц от имени системы
func (s *ReminderService) SendMonthly(ctx context.Context) (*ReminderResult, error) {
	return s.Send(ctx, models.System, report.MonthRange(s.now()), report.ReminderAll, nil)
}

// StartScheduler запускает плановые напоминания по cron-выражению (5 полей)
func (s *ReminderService) StartScheduler(spec string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler != nil {
		return nil
	}

	scheduler := cron.New()
	_, err := scheduler.AddFunc(spec, func() {
		if _, err := s.SendMonthly(context.Background()); err != nil {
			s.logger.WithError(err).Error("Scheduled reminders failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid reminder schedule %q: %w", spec, err)
	}

	scheduler.Start()
	s.scheduler = scheduler
	s.logger.WithField("schedule", spec).Info("Reminder scheduler started")
	return nil
}

// StopScheduler останавливает планировщик и ждет завершения запущенной рассылки
func (s *ReminderService) StopScheduler(ctx context.Context) error {
	s.mu.Lock()
	scheduler := s.scheduler
	s.scheduler = nil
	s.mu.Unlock()

	if scheduler == nil {
		return nil
	}

	select {
	case <-scheduler.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
