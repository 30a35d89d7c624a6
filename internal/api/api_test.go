package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"cra-manager/internal/config"
	"cra-manager/internal/database"
	"cra-manager/internal/models"
	"cra-manager/internal/repository"
	"cra-manager/internal/service"
)

var (
	consultant = models.Actor{ID: "c1", Role: models.RoleConsultant}
	manager    = models.Actor{ID: "m1", Role: models.RoleManager}
	admin      = models.Actor{ID: "a1", Role: models.RoleAdmin}
)

type testServer struct {
	app  *fiber.App
	auth *Authenticator
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	db, err := database.Open("sqlite", ":memory:", logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	profileRepo, err := repository.NewProfileRepository(db)
	if err != nil {
		t.Fatal(err)
	}
	reportRepo, err := repository.NewGormCRAReportRepository(db)
	if err != nil {
		t.Fatal(err)
	}
	absenceRepo, err := repository.NewGormAbsenceRequestRepository(db)
	if err != nil {
		t.Fatal(err)
	}
	actionRepo, err := repository.NewGormActionLogRepository(db)
	if err != nil {
		t.Fatal(err)
	}

	for _, p := range []*models.Profile{
		{ID: "c1", Name: "Alice", Email: "alice@example.com", Role: models.RoleConsultant},
		{ID: "m1", Name: "Marc", Email: "marc@example.com", Role: models.RoleManager},
		{ID: "a1", Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin},
	} {
		if err := profileRepo.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	auth := NewAuthenticator(&config.Config{JWTSecret: "test-secret", AppBaseURL: "https://cra.example.com"})
	actions := service.NewActionLogService(actionRepo, logger)
	notifier := service.NewLogNotifier(logger)
	profiles := service.NewProfileService(profileRepo, logger)
	cra := service.NewCRAService(reportRepo, profileRepo, actions, notifier, auth, logger)
	absences := service.NewAbsenceService(absenceRepo, profileRepo, actions, notifier, logger)
	dashboard := service.NewDashboardService(reportRepo, profileRepo, logger)
	reminders := service.NewReminderService(dashboard, profileRepo, notifier, actions, logger)

	dashboardApi := NewDashboardApi(auth, dashboard, reminders)
	dashboardApi.now = func() time.Time { return time.Date(2025, time.March, 12, 0, 0, 0, 0, time.UTC) }

	app := NewFiberServer(logger)
	RegisterRoutes(app, []Route{
		NewSystemApi(),
		NewCRAApi(auth, cra),
		dashboardApi,
		NewAbsenceApi(auth, absences),
		NewProfileApi(auth, profiles, actions),
	}, logger)

	return &testServer{app: app, auth: auth}
}

func (s *testServer) do(t *testing.T, actor *models.Actor, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, BasePath+path, reader)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		token, err := s.auth.Issue(*actor, time.Hour)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, data
}

func errorCode(t *testing.T, data []byte) string {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("decode error body %s: %v", data, err)
	}
	return resp.Error.Code
}

func TestPublicRoutes(t *testing.T) {
	s := newTestServer(t)

	status, _ := s.do(t, nil, http.MethodGet, "/health", nil)
	if status != http.StatusOK {
		t.Fatalf("health status = %d", status)
	}

	status, data := s.do(t, nil, http.MethodGet, "/holidays/2025", nil)
	if status != http.StatusOK {
		t.Fatalf("holidays status = %d", status)
	}
	var list []holidayResponse
	if err := json.Unmarshal(data, &list); err != nil {
		t.Fatal(err)
	}
	if len(list) != 11 {
		t.Fatalf("France has 11 public holidays, got %d", len(list))
	}

	status, data = s.do(t, nil, http.MethodGet, "/holidays/abc", nil)
	if status != http.StatusBadRequest || errorCode(t, data) != models.ErrorCodeValidation {
		t.Fatalf("bad year: %d %s", status, data)
	}
}

func TestAuthentication(t *testing.T) {
	s := newTestServer(t)

	status, data := s.do(t, nil, http.MethodGet, "/cra", nil)
	if status != http.StatusUnauthorized || errorCode(t, data) != models.ErrorCodeUnauthorized {
		t.Fatalf("missing token: %d %s", status, data)
	}

	other := NewAuthenticator(&config.Config{JWTSecret: "other-secret"})
	token, err := other.Issue(consultant, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodGet, BasePath+"/cra", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("foreign signature accepted: %d", resp.StatusCode)
	}

	expired, err := s.auth.Issue(consultant, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.auth.Parse(expired); models.ErrorCode(err) != models.ErrorCodeUnauthorized {
		t.Fatalf("expired token: %v", err)
	}
}

func TestCRAFlowOverHTTP(t *testing.T) {
	s := newTestServer(t)

	status, data := s.do(t, &consultant, http.MethodPut, "/cra/month/2025-05/days/2025-05-01", map[string]any{"status": "worked_1"})
	if status != http.StatusConflict || errorCode(t, data) != models.ErrorCodeConfirmHoliday {
		t.Fatalf("holiday without confirmation: %d %s", status, data)
	}

	status, data = s.do(t, &consultant, http.MethodPut, "/cra/month/2025-05/days/2025-05-01",
		map[string]any{"status": "worked_1", "confirm_holiday": true})
	if status != http.StatusOK {
		t.Fatalf("confirmed holiday: %d %s", status, data)
	}

	status, data = s.do(t, &consultant, http.MethodPut, "/cra/month/2025-05/days/2025-05-02", map[string]any{"status": "twice"})
	if status != http.StatusBadRequest || errorCode(t, data) != models.ErrorCodeValidation {
		t.Fatalf("bad status: %d %s", status, data)
	}

	status, data = s.do(t, &consultant, http.MethodPost, "/cra/month/2025-05/fill", nil)
	if status != http.StatusOK {
		t.Fatalf("fill: %d %s", status, data)
	}
	var rep models.CRAReport
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatal(err)
	}

	status, data = s.do(t, &consultant, http.MethodGet, "/cra/month/2025-05/grid", nil)
	if status != http.StatusOK {
		t.Fatalf("grid: %d %s", status, data)
	}
	var view struct {
		Grid     []json.RawMessage `json:"grid"`
		Editable bool              `json:"editable"`
		Actions  []string          `json:"actions"`
	}
	if err := json.Unmarshal(data, &view); err != nil {
		t.Fatal(err)
	}
	if len(view.Grid)%7 != 0 || !view.Editable || len(view.Actions) != 1 || view.Actions[0] != "submit" {
		t.Fatalf("month view = %+v", view)
	}

	status, data = s.do(t, &manager, http.MethodPost, "/cra/"+rep.ID+"/transitions", map[string]any{"action": "validate"})
	if status != http.StatusConflict || errorCode(t, data) != models.ErrorCodeInvalidTransition {
		t.Fatalf("validate draft: %d %s", status, data)
	}

	status, data = s.do(t, &consultant, http.MethodPost, "/cra/"+rep.ID+"/transitions", map[string]any{"action": "submit"})
	if status != http.StatusOK {
		t.Fatalf("submit: %d %s", status, data)
	}

	status, data = s.do(t, &consultant, http.MethodPost, "/cra/"+rep.ID+"/transitions", map[string]any{"action": "validate"})
	if status != http.StatusForbidden || errorCode(t, data) != models.ErrorCodeForbidden {
		t.Fatalf("consultant validate: %d %s", status, data)
	}

	status, data = s.do(t, &manager, http.MethodPost, "/cra/"+rep.ID+"/transitions", map[string]any{"action": "publish"})
	if status != http.StatusBadRequest {
		t.Fatalf("unknown action: %d %s", status, data)
	}

	status, data = s.do(t, &manager, http.MethodGet, "/cra?scope=all", nil)
	if status != http.StatusOK {
		t.Fatalf("list: %d %s", status, data)
	}
	var reports []models.CRAReport
	if err := json.Unmarshal(data, &reports); err != nil {
		t.Fatal(err)
	}
	if len(reports) != 1 || reports[0].Status != models.StatusSubmitted {
		t.Fatalf("reports = %+v", reports)
	}

	status, _ = s.do(t, &manager, http.MethodDelete, "/cra/"+rep.ID, nil)
	if status != http.StatusForbidden {
		t.Fatalf("manager delete: %d", status)
	}
	status, _ = s.do(t, &admin, http.MethodDelete, "/cra/"+rep.ID, nil)
	if status != http.StatusNoContent {
		t.Fatalf("admin delete: %d", status)
	}
	status, data = s.do(t, &admin, http.MethodGet, "/cra/"+rep.ID, nil)
	if status != http.StatusNotFound || errorCode(t, data) != models.ErrorCodeNotFound {
		t.Fatalf("deleted report: %d %s", status, data)
	}
}

func TestSignatureLinkOverHTTP(t *testing.T) {
	s := newTestServer(t)

	status, data := s.do(t, &consultant, http.MethodPut, "/cra/month/2025-05/days/2025-05-02", map[string]any{"status": "worked_1"})
	if status != http.StatusOK {
		t.Fatalf("set day: %d %s", status, data)
	}
	var rep models.CRAReport
	if err := json.Unmarshal(data, &rep); err != nil {
		t.Fatal(err)
	}

	link, err := s.auth.SignatureLink("c1", rep.ID)
	if err != nil {
		t.Fatal(err)
	}
	parsed, err := url.Parse(link)
	if err != nil {
		t.Fatal(err)
	}
	if parsed.Host != "cra.example.com" || parsed.Path != "/cra/sign" || parsed.Query().Get("craId") != rep.ID {
		t.Fatalf("link = %s", link)
	}
	token := parsed.Query().Get("token")
	validate := "/link/cra-signature/validate?token=" + url.QueryEscape(token)

	// отчет еще черновик
	status, data = s.do(t, nil, http.MethodGet, validate, nil)
	if status != http.StatusConflict || errorCode(t, data) != models.ErrorCodeInvalidTransition {
		t.Fatalf("draft report link: %d %s", status, data)
	}

	for _, step := range []struct {
		actor  models.Actor
		action string
	}{
		{consultant, "submit"},
		{manager, "validate"},
		{manager, "request_signature"},
	} {
		status, data = s.do(t, &step.actor, http.MethodPost, "/cra/"+rep.ID+"/transitions", map[string]any{"action": step.action})
		if status != http.StatusOK {
			t.Fatalf("%s: %d %s", step.action, status, data)
		}
	}

	status, data = s.do(t, nil, http.MethodGet, validate, nil)
	if status != http.StatusOK {
		t.Fatalf("validate link: %d %s", status, data)
	}
	var resp signatureLinkResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.UserID != "c1" || resp.CRAID != rep.ID || resp.Month != "2025-05" || resp.Status != models.StatusSignatureRequested {
		t.Fatalf("link payload = %+v", resp)
	}

	status, data = s.do(t, nil, http.MethodGet, "/link/cra-signature/validate", nil)
	if status != http.StatusBadRequest || errorCode(t, data) != models.ErrorCodeValidation {
		t.Fatalf("missing token: %d %s", status, data)
	}

	access, err := s.auth.Issue(consultant, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	status, data = s.do(t, nil, http.MethodGet, "/link/cra-signature/validate?token="+url.QueryEscape(access), nil)
	if status != http.StatusUnauthorized || errorCode(t, data) != models.ErrorCodeUnauthorized {
		t.Fatalf("access token as link: %d %s", status, data)
	}

	// ссылка не заменяет токен доступа
	req := httptest.NewRequest(http.MethodGet, BasePath+"/cra", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	httpResp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if httpResp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("signature token accepted as access token: %d", httpResp.StatusCode)
	}
}

func TestDashboardOverHTTP(t *testing.T) {
	s := newTestServer(t)

	status, data := s.do(t, &consultant, http.MethodGet, "/dashboard/grid", nil)
	if status != http.StatusForbidden {
		t.Fatalf("consultant dashboard: %d %s", status, data)
	}

	status, data = s.do(t, &manager, http.MethodGet, "/dashboard/grid?from=2025-01-01&to=2025-03-31", nil)
	if status != http.StatusOK {
		t.Fatalf("grid: %d %s", status, data)
	}
	var rows []rowResponse
	if err := json.Unmarshal(data, &rows); err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0].Month != "2025-03" || rows[0].Status != models.StatusNotCreated {
		t.Fatalf("rows = %+v", rows)
	}

	status, data = s.do(t, &manager, http.MethodGet, "/dashboard/grid?from=2025-03-31&to=2025-01-01", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("inverted range: %d %s", status, data)
	}

	status, data = s.do(t, &manager, http.MethodGet, "/dashboard/grid?from=0001-01-01&to=9999-12-31", nil)
	if status != http.StatusBadRequest || errorCode(t, data) != models.ErrorCodeValidation {
		t.Fatalf("unbounded range: %d %s", status, data)
	}
	status, data = s.do(t, &manager, http.MethodPost, "/dashboard/reminders",
		map[string]any{"mode": "all", "from": "2000-01-01", "to": "2025-12-31"})
	if status != http.StatusBadRequest || errorCode(t, data) != models.ErrorCodeValidation {
		t.Fatalf("unbounded reminder range: %d %s", status, data)
	}

	status, data = s.do(t, &manager, http.MethodGet, "/dashboard/summary?preset=this_quarter", nil)
	if status != http.StatusOK {
		t.Fatalf("summary: %d %s", status, data)
	}

	req := httptest.NewRequest(http.MethodGet, BasePath+"/dashboard/export.xlsx", nil)
	token, _ := s.auth.Issue(manager, time.Hour)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Content-Type") != xlsxContentType {
		t.Fatalf("export: %d %s", resp.StatusCode, resp.Header.Get("Content-Type"))
	}

	status, data = s.do(t, &manager, http.MethodPost, "/dashboard/reminders", map[string]any{"mode": "subset"})
	if status != http.StatusBadRequest {
		t.Fatalf("subset without keys: %d %s", status, data)
	}
	status, data = s.do(t, &manager, http.MethodPost, "/dashboard/reminders", map[string]any{"mode": "all"})
	if status != http.StatusOK {
		t.Fatalf("reminders: %d %s", status, data)
	}
	var result service.ReminderResult
	if err := json.Unmarshal(data, &result); err != nil {
		t.Fatal(err)
	}
	if len(result.Targets) != 1 || result.Sent != 1 {
		t.Fatalf("reminder result = %+v", result)
	}
}

func TestAbsencesOverHTTP(t *testing.T) {
	s := newTestServer(t)

	body := map[string]any{"start_date": "2025-07-07", "end_date": "2025-07-11", "type": "Vacances"}
	status, data := s.do(t, &consultant, http.MethodPost, "/absences", body)
	if status != http.StatusCreated {
		t.Fatalf("create: %d %s", status, data)
	}
	var req models.AbsenceRequest
	if err := json.Unmarshal(data, &req); err != nil {
		t.Fatal(err)
	}

	status, data = s.do(t, &consultant, http.MethodPost, "/absences", map[string]any{"start_date": "07/07/2025", "type": "x"})
	if status != http.StatusBadRequest {
		t.Fatalf("invalid body: %d %s", status, data)
	}

	status, data = s.do(t, &manager, http.MethodPost, "/absences/"+req.ID+"/decision", map[string]any{"decision": "approve"})
	if status != http.StatusOK {
		t.Fatalf("approve: %d %s", status, data)
	}

	status, data = s.do(t, &manager, http.MethodPost, "/absences",
		map[string]any{"consultant_id": "c1", "start_date": "2025-07-10", "end_date": "2025-07-15", "type": "Maladie"})
	if status != http.StatusConflict || errorCode(t, data) != models.ErrorCodeOverlappingAbsence {
		t.Fatalf("overlap: %d %s", status, data)
	}

	status, data = s.do(t, &consultant, http.MethodGet, "/absences/approved/c1?month=2025-07", nil)
	if status != http.StatusOK {
		t.Fatalf("approved: %d %s", status, data)
	}
	var approved []models.AbsenceRequest
	if err := json.Unmarshal(data, &approved); err != nil {
		t.Fatal(err)
	}
	if len(approved) != 1 {
		t.Fatalf("approved = %+v", approved)
	}

	status, _ = s.do(t, &consultant, http.MethodGet, "/absences?consultant_id=m1", nil)
	if status != http.StatusForbidden {
		t.Fatalf("foreign list: %d", status)
	}

	status, _ = s.do(t, &admin, http.MethodDelete, "/absences/"+req.ID, nil)
	if status != http.StatusNoContent {
		t.Fatalf("admin delete: %d", status)
	}
}

func TestProfilesOverHTTP(t *testing.T) {
	s := newTestServer(t)

	status, data := s.do(t, &consultant, http.MethodPut, "/profiles/me/telegram", map[string]any{"chat_id": 555})
	if status != http.StatusOK {
		t.Fatalf("link: %d %s", status, data)
	}

	status, data = s.do(t, &consultant, http.MethodGet, "/profiles/me", nil)
	if status != http.StatusOK {
		t.Fatalf("me: %d %s", status, data)
	}
	var me models.Profile
	if err := json.Unmarshal(data, &me); err != nil {
		t.Fatal(err)
	}
	if me.TelegramChatID != 555 {
		t.Fatalf("me = %+v", me)
	}

	status, _ = s.do(t, &manager, http.MethodPut, "/profiles/me/telegram", map[string]any{"chat_id": 555})
	if status != http.StatusBadRequest {
		t.Fatalf("chat reused: %d", status)
	}

	status, _ = s.do(t, &consultant, http.MethodGet, "/profiles", nil)
	if status != http.StatusForbidden {
		t.Fatalf("consultant roster: %d", status)
	}

	status, _ = s.do(t, &manager, http.MethodGet, "/action-log", nil)
	if status != http.StatusForbidden {
		t.Fatalf("manager action log: %d", status)
	}
	status, data = s.do(t, &admin, http.MethodGet, "/action-log?limit=10", nil)
	if status != http.StatusOK {
		t.Fatalf("admin action log: %d %s", status, data)
	}
}
