package api

import (
	"bytes"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"

	"cra-manager/internal/models"
	"cra-manager/internal/report"
	"cra-manager/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DashboardApi struct {
	auth      *Authenticator
	dashboard *service.DashboardService
	reminders *service.ReminderService
	now       func() time.Time
}

func NewDashboardApi(auth *Authenticator, dashboard *service.DashboardService, reminders *service.ReminderService) *DashboardApi {
	return &DashboardApi{
		auth:      auth,
		dashboard: dashboard,
		reminders: reminders,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (api *DashboardApi) Setup(router fiber.Router) {
	group := router.Group("/dashboard", api.auth.Require())

	group.Get("/grid", api.Grid)
	group.Get("/summary", api.Summary)
	group.Get("/export.xlsx", api.Export)
	group.Post("/reminders", api.Remind)
}

type rowResponse struct {
	Key            string           `json:"key"`
	Kind           string           `json:"kind"`
	ReportID       string           `json:"report_id,omitempty"`
	ConsultantID   string           `json:"consultant_id"`
	ConsultantName string           `json:"consultant_name"`
	ClientName     string           `json:"client_name"`
	Month          string           `json:"month"`
	Status         models.CRAStatus `json:"status"`
	StatusLabel    string           `json:"status_label"`
	TotalDays      float64          `json:"total_days"`
}

func toRowResponses(rows []report.Row) []rowResponse {
	result := make([]rowResponse, 0, len(rows))
	for _, r := range rows {
		resp := rowResponse{
			Key:            r.Key(),
			Kind:           r.Kind.String(),
			ConsultantID:   r.ConsultantID,
			ConsultantName: r.ConsultantName,
			ClientName:     r.ClientName,
			Month:          models.MonthKey(r.Month),
			Status:         r.Status,
			StatusLabel:    r.Status.Label(),
			TotalDays:      r.TotalDays,
		}
		if r.Report != nil {
			resp.ReportID = r.Report.ID
		}
		result = append(result, resp)
	}
	return result
}

func (api *DashboardApi) Grid(c *fiber.Ctx) error {
	rng, err := dateRange(c, api.now())
	if err != nil {
		return err
	}
	filter, err := gridFilter(c)
	if err != nil {
		return err
	}

	rows, err := api.dashboard.Grid(c.UserContext(), actorFrom(c), rng, filter)
	if err != nil {
		return err
	}
	return c.JSON(toRowResponses(rows))
}

func (api *DashboardApi) Summary(c *fiber.Ctx) error {
	rng, err := dateRange(c, api.now())
	if err != nil {
		return err
	}
	stats, err := api.dashboard.Summary(c.UserContext(), actorFrom(c), rng)
	if err != nil {
		return err
	}
	return c.JSON(stats)
}

func (api *DashboardApi) Export(c *fiber.Ctx) error {
	rng, err := dateRange(c, api.now())
	if err != nil {
		return err
	}
	filter, err := gridFilter(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := api.dashboard.Export(c.UserContext(), actorFrom(c), rng, filter, &buf); err != nil {
		return err
	}

	filename := fmt.Sprintf("cra_%s_%s.xlsx", models.DateKey(rng.From), models.DateKey(rng.To))
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%s", filename))
	return c.Send(buf.Bytes())
}

type reminderRequest struct {
	Mode   string   `json:"mode" validate:"required,oneof=all subset"`
	Keys   []string `json:"keys" validate:"required_if=Mode subset,dive,required"`
	From   string   `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string   `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Preset string   `json:"preset" validate:"omitempty,oneof=this_month last_month this_quarter"`
}

// Remind рассылает напоминания по строкам периода; период задается в теле запроса
func (api *DashboardApi) Remind(c *fiber.Ctx) error {
	var req reminderRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	rng, err := req.dateRange(api.now())
	if err != nil {
		return err
	}

	result, err := api.reminders.Send(c.UserContext(), actorFrom(c), rng, report.ReminderMode(req.Mode), req.Keys)
	if err != nil {
		return err
	}
	return c.JSON(result)
}

func (r reminderRequest) dateRange(now time.Time) (report.DateRange, error) {
	if r.From == "" && r.To == "" {
		preset := r.Preset
		if preset == "" {
			preset = "this_month"
		}
		return report.Preset(preset, now)
	}
	if r.From == "" || r.To == "" {
		return report.DateRange{}, models.Validationf("both from and to are required")
	}
	from, err := models.ParseDate(r.From)
	if err != nil {
		return report.DateRange{}, err
	}
	to, err := models.ParseDate(r.To)
	if err != nil {
		return report.DateRange{}, err
	}
	rng := report.DateRange{From: from, To: to}
	if err := rng.Validate(); err != nil {
		return report.DateRange{}, err
	}
	return rng, nil
}
