package handler

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"cra-manager/internal/database"
	"cra-manager/internal/models"
	"cra-manager/internal/repository"
	"cra-manager/internal/service"
)

type fakeSender struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) last(t *testing.T) tgbotapi.MessageConfig {
	t.Helper()
	if len(f.sent) == 0 {
		t.Fatal("no message sent")
	}
	msg, ok := f.sent[len(f.sent)-1].(tgbotapi.MessageConfig)
	if !ok {
		t.Fatalf("last sent item is %T", f.sent[len(f.sent)-1])
	}
	return msg
}

const (
	consultantChat int64 = 1001
	managerChat    int64 = 2002
)

type testBot struct {
	handler *Handler
	sender  *fakeSender
	reports repository.CRAReportRepository
}

func newTestBot(t *testing.T) *testBot {
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
		{ID: "c1", Name: "Alice", Email: "alice@example.com", Role: models.RoleConsultant, TelegramChatID: consultantChat},
		{ID: "m1", Name: "Marc", Email: "marc@example.com", Role: models.RoleManager, TelegramChatID: managerChat},
	} {
		if err := profileRepo.Create(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	actions := service.NewActionLogService(actionRepo, logger)
	notifier := service.NewLogNotifier(logger)
	profiles := service.NewProfileService(profileRepo, logger)
	cra := service.NewCRAService(reportRepo, profileRepo, actions, notifier, signatureLinks{}, logger)
	absences := service.NewAbsenceService(absenceRepo, profileRepo, actions, notifier, logger)
	dashboard := service.NewDashboardService(reportRepo, profileRepo, logger)
	reminders := service.NewReminderService(dashboard, profileRepo, notifier, actions, logger)

	sender := &fakeSender{}
	h := &Handler{
		bot:       sender,
		profiles:  profiles,
		cra:       cra,
		absences:  absences,
		reminders: reminders,
		logger:    logger,
		now:       func() time.Time { return time.Date(2025, time.May, 12, 10, 0, 0, 0, time.UTC) },
	}
	return &testBot{handler: h, sender: sender, reports: reportRepo}
}

type signatureLinks struct{}

func (signatureLinks) SignatureLink(consultantID, reportID string) (string, error) {
	return "https://cra.example.com/cra/sign?craId=" + reportID, nil
}

func command(chatID int64, text string) tgbotapi.Update {
	name := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text: text,
		Chat: &tgbotapi.Chat{ID: chatID},
		From: &tgbotapi.User{UserName: "tester"},
		Entities: []tgbotapi.MessageEntity{
			{Type: "bot_command", Offset: 0, Length: len(name)},
		},
	}}
}

func (b *testBot) run(t *testing.T, chatID int64, text string) string {
	t.Helper()
	b.handler.handleUpdate(context.Background(), command(chatID, text))
	return b.sender.last(t).Text
}

func TestStartShowsChatIDForUnknownChat(t *testing.T) {
	b := newTestBot(t)

	text := b.run(t, 42, "/start")
	if !strings.Contains(text, "42") {
		t.Fatalf("start reply does not show chat id: %q", text)
	}

	text = b.run(t, 42, "/mycra")
	if !strings.Contains(text, "aucun profil") {
		t.Fatalf("unlinked chat got %q", text)
	}
}

func TestDayFillAndSubmit(t *testing.T) {
	b := newTestBot(t)
	ctx := context.Background()

	text := b.run(t, consultantChat, "/day 13.05.2025 0.5")
	if !strings.Contains(text, "demi-journée") || !strings.Contains(text, "0.5") {
		t.Fatalf("day reply = %q", text)
	}

	text = b.run(t, consultantChat, "/fill")
	if !strings.Contains(text, "remplis") {
		t.Fatalf("fill reply = %q", text)
	}

	report, err := b.reports.GetByPeriod(ctx, "c1", time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC))
	if err != nil || report == nil {
		t.Fatalf("report not stored: %v", err)
	}
	if got := report.Days["2025-05-13"].Status; got != models.DayWorkedFull {
		t.Fatalf("fill left working day as %s", got)
	}
	if _, ok := report.Days["2025-05-01"]; ok {
		t.Fatal("fill marked a public holiday")
	}

	text = b.run(t, consultantChat, "/submit")
	if !strings.Contains(text, models.StatusSubmitted.Label()) {
		t.Fatalf("submit reply = %q", text)
	}

	text = b.run(t, consultantChat, "/day 14.05.2025 1")
	if !strings.Contains(text, "🔒") {
		t.Fatalf("edit after submit should be refused, got %q", text)
	}

	// закрытый отчет не предлагает подтвердить праздник
	b.handler.handleUpdate(ctx, command(consultantChat, "/day 01.05.2025 1"))
	msg := b.sender.last(t)
	if !strings.Contains(msg.Text, "🔒") || msg.ReplyMarkup != nil {
		t.Fatalf("holiday on a submitted report: %q %#v", msg.Text, msg.ReplyMarkup)
	}
}

func TestHolidayNeedsConfirmation(t *testing.T) {
	b := newTestBot(t)

	b.handler.handleUpdate(context.Background(), command(consultantChat, "/day 01.05.2025 1"))
	msg := b.sender.last(t)
	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(markup.InlineKeyboard) != 1 {
		t.Fatalf("expected confirmation keyboard, got %#v", msg.ReplyMarkup)
	}
	data := *markup.InlineKeyboard[0][0].CallbackData
	if data != callbackConfirmDay+"2025-05-01:worked_1" {
		t.Fatalf("callback data = %q", data)
	}

	b.handler.handleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		Data:    data,
		Message: &tgbotapi.Message{MessageID: 7, Chat: &tgbotapi.Chat{ID: consultantChat}},
	}})

	if text := b.sender.last(t).Text; !strings.Contains(text, "journée travaillée") {
		t.Fatalf("confirmation reply = %q", text)
	}
	if len(b.sender.requests) != 2 {
		t.Fatalf("expected keyboard removal and callback answer, got %d requests", len(b.sender.requests))
	}
}

func TestAbsenceCommands(t *testing.T) {
	b := newTestBot(t)

	text := b.run(t, consultantChat, "/absence 02.06.2025 06.06.2025 Vacances pont")
	if !strings.Contains(text, models.AbsencePending.Label()) {
		t.Fatalf("absence reply = %q", text)
	}

	text = b.run(t, consultantChat, "/absence 06.06.2025 02.06.2025 Vacances")
	if !strings.Contains(text, "Données invalides") {
		t.Fatalf("inverted period reply = %q", text)
	}

	text = b.run(t, consultantChat, "/myabsences")
	if !strings.Contains(text, "02.06.2025") || !strings.Contains(text, "(5 jour(s))") {
		t.Fatalf("myabsences reply = %q", text)
	}
}

func TestRemindIsManagerOnly(t *testing.T) {
	b := newTestBot(t)

	if text := b.run(t, consultantChat, "/remind"); !strings.Contains(text, "réservée") {
		t.Fatalf("consultant remind reply = %q", text)
	}
	if text := b.run(t, managerChat, "/remind"); !strings.Contains(text, "Relances") {
		t.Fatalf("manager remind reply = %q", text)
	}
}

func TestParseHelpers(t *testing.T) {
	now := time.Date(2025, time.May, 12, 0, 0, 0, 0, time.UTC)

	month, err := parseMonthArg("", now)
	if err != nil || month != time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC) {
		t.Fatalf("parseMonthArg(\"\") = %v, %v", month, err)
	}
	if month, _ := parseMonthArg("03.2024", now); month.Month() != time.March || month.Year() != 2024 {
		t.Fatalf("parseMonthArg(03.2024) = %v", month)
	}
	if _, err := parseMonthArg("2024/03", now); err == nil {
		t.Fatal("expected error for bad month")
	}

	tests := []struct {
		arg  string
		want *models.DayStatus
		err  bool
	}{
		{"1", statusPtr(models.DayWorkedFull), false},
		{"0,5", statusPtr(models.DayWorkedHalf), false},
		{"off", statusPtr(models.DayOff), false},
		{"clear", nil, false},
		{"2", nil, true},
	}
	for _, tt := range tests {
		got, err := parseDayStatusArg(tt.arg)
		if (err != nil) != tt.err {
			t.Fatalf("parseDayStatusArg(%q) err = %v", tt.arg, err)
		}
		if (got == nil) != (tt.want == nil) || (got != nil && *got != *tt.want) {
			t.Fatalf("parseDayStatusArg(%q) = %v", tt.arg, got)
		}
	}

	monthArg, signature := splitMonthPrefix("04.2025 Alice Martin")
	if monthArg != "04.2025" || signature != "Alice Martin" {
		t.Fatalf("splitMonthPrefix = %q, %q", monthArg, signature)
	}
	monthArg, signature = splitMonthPrefix("Alice")
	if monthArg != "" || signature != "Alice" {
		t.Fatalf("splitMonthPrefix = %q, %q", monthArg, signature)
	}
}

func statusPtr(s models.DayStatus) *models.DayStatus {
	return &s
}
