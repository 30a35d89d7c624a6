package holidays

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestEaster(t *testing.T) {
	tests := []struct {
		year int
		want time.Time
	}{
		{1818, date(1818, time.March, 22)},
		{2000, date(2000, time.April, 23)},
		{2019, date(2019, time.April, 21)},
		{2024, date(2024, time.March, 31)},
		{2025, date(2025, time.April, 20)},
		{2038, date(2038, time.April, 25)},
	}

	for _, tt := range tests {
		if got := Easter(tt.year); !got.Equal(tt.want) {
			t.Errorf("Easter(%d) = %s, want %s", tt.year, got.Format("2006-01-02"), tt.want.Format("2006-01-02"))
		}
	}
}

func TestForYear(t *testing.T) {
	got := ForYear(2025)
	if len(got) != 11 {
		t.Fatalf("expected 11 holidays, got %d", len(got))
	}

	want := map[string]string{
		"2025-01-01": "Jour de l'an",
		"2025-04-21": "Lundi de Pâques",
		"2025-05-29": "Ascension",
		"2025-06-09": "Lundi de Pentecôte",
		"2025-07-14": "Fête Nationale",
		"2025-12-25": "Noël",
	}
	index := map[string]string{}
	for _, h := range got {
		index[h.Date.Format("2006-01-02")] = h.Name
	}
	for day, name := range want {
		if index[day] != name {
			t.Errorf("%s: got %q, want %q", day, index[day], name)
		}
	}

	for i := 1; i < len(got); i++ {
		if !got[i-1].Date.Before(got[i].Date) {
			t.Errorf("holidays not in chronological order at %d", i)
		}
	}
}

func TestIsHolidayIgnoresTimeOfDay(t *testing.T) {
	paris, err := time.LoadLocation("Europe/Paris")
	if err != nil {
		t.Skip("tzdata not available")
	}

	if !IsHoliday(time.Date(2024, time.May, 9, 15, 30, 0, 0, paris)) {
		t.Error("Ascension 2024 should be a holiday")
	}
	if IsHoliday(date(2024, time.May, 10)) {
		t.Error("2024-05-10 is not a holiday")
	}
}

func TestForYearsAcrossBoundary(t *testing.T) {
	set := ForYears(2025, 2026, 2026)
	if len(set) != 22 {
		t.Fatalf("expected 22 holidays, got %d", len(set))
	}
	if h, ok := set.Get(date(2026, time.January, 1)); !ok || h.Name != "Jour de l'an" {
		t.Errorf("2026-01-01 not found in set: %+v", h)
	}
}
