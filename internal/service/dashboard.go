package service

import (
	"context"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"cra-manager/internal/models"
	"cra-manager/internal/report"
	"cra-manager/internal/repository"
)

// DashboardService собирает входные данные и передает их агрегатору.
// Состояния между вызовами не хранит.
type DashboardService struct {
	reports  repository.CRAReportRepository
	profiles *repository.ProfileRepository
	logger   *logrus.Logger
}

func NewDashboardService(
	reports repository.CRAReportRepository,
	profiles *repository.ProfileRepository,
	logger *logrus.Logger,
) *DashboardService {
	return &DashboardService{
		reports:  reports,
		profiles: profiles,
		logger:   logger,
	}
}

// Grid строит полную сетку "консультант x месяц" и применяет фильтр
func (s *DashboardService) Grid(ctx context.Context, actor models.Actor, rng report.DateRange, filter report.Filter) ([]report.Row, error) {
	rows, err := s.buildGrid(ctx, actor, rng)
	if err != nil {
		return nil, err
	}
	return report.ApplyFilter(rows, filter), nil
}

// Summary считает счетчики по нефильтрованной сетке периода
func (s *DashboardService) Summary(ctx context.Context, actor models.Actor, rng report.DateRange) (report.Stats, error) {
	rows, err := s.buildGrid(ctx, actor, rng)
	if err != nil {
		return report.Stats{}, err
	}
	return report.Summarize(rows), nil
}

// Export выгружает отфильтрованную сетку в XLSX
func (s *DashboardService) Export(ctx context.Context, actor models.Actor, rng report.DateRange, filter report.Filter, w io.Writer) error {
	rows, err := s.Grid(ctx, actor, rng, filter)
	if err != nil {
		return err
	}
	if err := report.WriteXLSX(w, rows); err != nil {
		return fmt.Errorf("export grid: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"actor_id": actor.ID,
		"rows":     len(rows),
	}).Info("Dashboard exported")
	return nil
}

func (s *DashboardService) buildGrid(ctx context.Context, actor models.Actor, rng report.DateRange) ([]report.Row, error) {
	if !actor.Role.IsManagerial() {
		return nil, models.Forbiddenf("only managers can see the dashboard")
	}
	if err := rng.Validate(); err != nil {
		return nil, err
	}

	profiles, err := s.profiles.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	clients, err := s.profiles.GetClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	reports, err := s.reports.ListInRange(ctx, rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("load reports: %w", err)
	}

	return report.BuildGrid(profiles, reports, clients, rng), nil
}
