package models

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"consultant", RoleConsultant, false},
		{" Manager ", RoleManager, false},
		{"ADMIN", RoleAdmin, false},
		{"guest", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeRole(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeRole(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeRole(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeStatus(t *testing.T) {
	tests := []struct {
		in   string
		want CRAStatus
	}{
		{"draft", StatusDraft},
		{"Needs-Revision", StatusNeedsRevision},
		{"signature requested", StatusSignatureRequested},
		{"Brouillon", StatusDraft},
		{"À réviser", StatusNeedsRevision},
		{"Signature demandée", StatusSignatureRequested},
		{"Non créé", StatusNotCreated},
		{"SIGNED", StatusSigned},
	}
	for _, tt := range tests {
		got, err := NormalizeStatus(tt.in)
		if err != nil {
			t.Errorf("NormalizeStatus(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeStatus(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}

	if _, err := NormalizeStatus("archived"); !errors.Is(err, ErrValidation) {
		t.Errorf("unknown status error = %v", err)
	}
}

func TestDayMapTotals(t *testing.T) {
	days := DayMap{
		"2025-01-06": {Status: DayWorkedFull},
		"2025-01-07": {Status: DayWorkedHalf},
		"2025-01-08": {Status: DayOff},
		"2025-01-09": {Status: DayWorkedHalf},
	}
	if got := days.TotalDays(); got != 2 {
		t.Errorf("TotalDays = %v, want 2", got)
	}
	if got := days.Count(DayWorkedHalf); got != 2 {
		t.Errorf("Count(half) = %d, want 2", got)
	}

	clone := days.Clone()
	clone["2025-01-10"] = DayEntry{Status: DayWorkedFull}
	if len(days) != 4 {
		t.Error("Clone shares storage with the original")
	}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{"2025-03", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), false},
		{"2025-03-17", time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC), false},
		{"03.2025", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := ParseMonth(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMonth(%q) error = %v", tt.in, err)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("ParseMonth(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestSyncPeriod(t *testing.T) {
	r := &CRAReport{Month: time.Date(2025, time.February, 14, 9, 30, 0, 0, time.UTC)}
	r.SyncPeriod()
	if r.PeriodYear != 2025 || r.PeriodMonth != 2 || r.Month.Day() != 1 {
		t.Errorf("unexpected period %d-%d (%s)", r.PeriodYear, r.PeriodMonth, r.Month)
	}
}

func TestErrorCode(t *testing.T) {
	err := Forbiddenf("role %q cannot validate", RoleConsultant)
	if ErrorCode(err) != ErrorCodeForbidden {
		t.Errorf("code = %s", ErrorCode(err))
	}
	if !errors.Is(err, ErrForbidden) {
		t.Error("domain error must wrap its sentinel")
	}
	if ErrorCode(errors.New("boom")) != ErrorCodeInternal {
		t.Error("plain errors must map to INTERNAL")
	}
}

func TestAbsenceOverlaps(t *testing.T) {
	a := &AbsenceRequest{
		StartDate: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC),
	}
	day := func(d int) time.Time { return time.Date(2025, time.June, d, 0, 0, 0, 0, time.UTC) }

	if !a.Overlaps(day(5), day(7)) {
		t.Error("ranges sharing an end day must overlap")
	}
	if a.Overlaps(day(6), day(7)) {
		t.Error("adjacent ranges must not overlap")
	}
	if a.Days() != 5 {
		t.Errorf("Days = %d, want 5", a.Days())
	}
}
