package report

import (
	"testing"
	"time"

	"cra-manager/internal/models"
)

func TestReportsNeedingReminder(t *testing.T) {
	rows := []Row{
		{ConsultantID: "a", Status: models.StatusDraft},
		{ConsultantID: "b", Status: models.StatusNotCreated},
		{ConsultantID: "c", Status: models.StatusNeedsRevision},
		{ConsultantID: "d", Status: models.StatusSubmitted},
		{ConsultantID: "e", Status: models.StatusSigned},
	}
	got := ReportsNeedingReminder(rows)
	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}
	for _, r := range got {
		if r.ConsultantID > "c" {
			t.Errorf("unexpected row %s", r.ConsultantID)
		}
	}
}

func TestSelectForReminder(t *testing.T) {
	mar := month(2025, time.March)
	rows := []Row{
		{Kind: RowReal, Report: &models.CRAReport{ID: "r1"}, ConsultantID: "a", Month: mar, Status: models.StatusDraft},
		{Kind: RowVirtual, ConsultantID: "b", Month: mar, Status: models.StatusNotCreated},
		{Kind: RowReal, Report: &models.CRAReport{ID: "r3"}, ConsultantID: "c", Month: mar, Status: models.StatusValidated},
	}

	all, err := SelectForReminder(rows, ReminderAll, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("all mode = %d targets, want 2", len(all))
	}

	// r3 не требует напоминания и отбрасывается даже при явном выборе
	subset, err := SelectForReminder(rows, ReminderSubset, []string{"b-2025-03", "r3", "unknown"})
	if err != nil {
		t.Fatal(err)
	}
	if len(subset) != 1 || subset[0].ConsultantID != "b" {
		t.Errorf("subset mode = %+v", subset)
	}

	if _, err := SelectForReminder(rows, ReminderMode("some"), nil); err == nil {
		t.Error("expected error for unknown mode")
	}
}
