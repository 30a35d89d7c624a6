package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cra-manager/internal/models"
)

const (
	// ClientUnassigned - консультант без назначенного клиента
	ClientUnassigned = "Non assigné"
	// ClientUnknown - назначенный клиент отсутствует в справочнике
	ClientUnknown = "N/A"
)

// DateRange - включительный диапазон дат; учитываются все месяцы, которых он касается
type DateRange struct {
	From time.Time
	To   time.Time
}

// MaxRangeMonths - предел длины диапазона сводной таблицы
const MaxRangeMonths = 36

// Validate отклоняет перевернутый диапазон и диапазон длиннее MaxRangeMonths месяцев
func (r DateRange) Validate() error {
	if r.To.Before(r.From) {
		return models.Validationf("date range ends before it starts")
	}
	from, to := models.MonthStart(r.From), models.MonthStart(r.To)
	months := (to.Year()-from.Year())*12 + int(to.Month()-from.Month()) + 1
	if months > MaxRangeMonths {
		return models.Validationf("date range spans %d months, at most %d allowed", months, MaxRangeMonths)
	}
	return nil
}

// MonthRange возвращает диапазон одного месяца
func MonthRange(month time.Time) DateRange {
	start := models.MonthStart(month)
	return DateRange{From: start, To: start.AddDate(0, 1, -1)}
}

// MonthsInRange возвращает первые числа месяцев, целиком или частично попавших в диапазон
func (r DateRange) MonthsInRange() []time.Time {
	from, to := models.MonthStart(r.From), models.MonthStart(r.To)
	if to.Before(from) {
		return nil
	}
	var months []time.Time
	for m := from; !m.After(to); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}

// RowKind - тег строки сводной таблицы
type RowKind int

const (
	RowReal RowKind = iota
	RowVirtual
)

func (k RowKind) String() string {
	if k == RowVirtual {
		return "virtual"
	}
	return "real"
}

// Row - строка "консультант x месяц". Для RowReal заполнен Report,
// для RowVirtual отчета еще нет и статус равен not_created.
type Row struct {
	Kind           RowKind
	Report         *models.CRAReport
	ConsultantID   string
	ConsultantName string
	ClientName     string
	Month          time.Time
	Status         models.CRAStatus
	TotalDays      float64
}

// Key - идентификатор строки: ID отчета или "<consultantId>-<YYYY-MM>" для виртуальной строки
func (r Row) Key() string {
	if r.Kind == RowReal && r.Report != nil {
		return r.Report.ID
	}
	return VirtualKey(r.ConsultantID, r.Month)
}

func VirtualKey(consultantID string, month time.Time) string {
	return fmt.Sprintf("%s-%s", consultantID, models.MonthKey(month))
}

type periodKey struct {
	consultantID string
	year         int
	month        time.Month
}

func keyOf(consultantID string, t time.Time) periodKey {
	return periodKey{consultantID: consultantID, year: t.Year(), month: t.Month()}
}

// BuildGrid строит по строке на каждую пару (консультант, месяц диапазона).
// Отчеты сопоставляются по году и месяцу. Если для пары найдено несколько отчетов,
// берется последний измененный. Функция чистая и не хранит состояния между вызовами.
func BuildGrid(profiles []models.Profile, reports []models.CRAReport, clients []models.Client, rng DateRange) []Row {
	months := rng.MonthsInRange()
	if len(months) == 0 {
		return nil
	}

	clientNames := make(map[string]string, len(clients))
	for _, c := range clients {
		clientNames[c.ID] = c.Name
	}

	byPeriod := make(map[periodKey]*models.CRAReport, len(reports))
	for i := range reports {
		r := &reports[i]
		k := keyOf(r.ConsultantID, r.Month)
		if prev, ok := byPeriod[k]; ok && !newer(r, prev) {
			continue
		}
		byPeriod[k] = r
	}

	var rows []Row
	for i := range profiles {
		p := &profiles[i]
		if !p.IsConsultant() {
			continue
		}
		clientName := resolveClient(p, clientNames)

		for _, m := range months {
			row := Row{
				Kind:           RowVirtual,
				ConsultantID:   p.ID,
				ConsultantName: p.Name,
				ClientName:     clientName,
				Month:          m,
				Status:         models.StatusNotCreated,
			}
			if r, ok := byPeriod[keyOf(p.ID, m)]; ok {
				row.Kind = RowReal
				row.Report = r
				row.Status = r.Status
				row.TotalDays = r.TotalDays()
			}
			rows = append(rows, row)
		}
	}

	SortRows(rows)
	return rows
}

func newer(a, b *models.CRAReport) bool {
	if !a.UpdatedAt.Equal(b.UpdatedAt) {
		return a.UpdatedAt.After(b.UpdatedAt)
	}
	return a.ID > b.ID
}

func resolveClient(p *models.Profile, names map[string]string) string {
	if p.ClientID == nil || *p.ClientID == "" {
		return ClientUnassigned
	}
	if name, ok := names[*p.ClientID]; ok {
		return name
	}
	return ClientUnknown
}

// SortRows упорядочивает строки: месяц по убыванию, имя консультанта, затем ID консультанта.
// Порядок полный, так как пара (консультант, месяц) уникальна.
func SortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if !a.Month.Equal(b.Month) {
			return a.Month.After(b.Month)
		}
		if a.ConsultantName != b.ConsultantName {
			return a.ConsultantName < b.ConsultantName
		}
		return a.ConsultantID < b.ConsultantID
	})
}

// Filter - условия отбора строк; пустое поле не фильтрует
type Filter struct {
	Consultant string
	Client     string
	Status     models.CRAStatus
	Search     string
}

// ApplyFilter возвращает новый срез строк, удовлетворяющих фильтру
func ApplyFilter(rows []Row, f Filter) []Row {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	result := make([]Row, 0, len(rows))
	for _, r := range rows {
		if f.Consultant != "" && r.ConsultantName != f.Consultant && r.ConsultantID != f.Consultant {
			continue
		}
		if f.Client != "" && r.ClientName != f.Client {
			continue
		}
		if f.Status != "" && r.Status != f.Status {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(r.ConsultantName), search) {
			continue
		}
		result = append(result, r)
	}
	return result
}

// Stats - счетчики панели управления
type Stats struct {
	Consultants        int     `json:"consultants"`
	ToChase            int     `json:"to_chase"`
	Submitted          int     `json:"submitted"`
	Validated          int     `json:"validated"`
	SignatureRequested int     `json:"signature_requested"`
	Signed             int     `json:"signed"`
	TotalDays          float64 `json:"total_days"`
}

func Summarize(rows []Row) Stats {
	var s Stats
	consultants := map[string]struct{}{}
	for _, r := range rows {
		consultants[r.ConsultantID] = struct{}{}
		s.TotalDays += r.TotalDays
		switch {
		case NeedsReminder(r.Status):
			s.ToChase++
		case r.Status == models.StatusSubmitted:
			s.Submitted++
		case r.Status == models.StatusValidated:
			s.Validated++
		case r.Status == models.StatusSignatureRequested:
			s.SignatureRequested++
		case r.Status == models.StatusSigned:
			s.Signed++
		}
	}
	s.Consultants = len(consultants)
	return s
}

// Preset возвращает именованный диапазон относительно now
func Preset(name string, now time.Time) (DateRange, error) {
	month := models.MonthStart(now)
	switch name {
	case "this_month":
		return MonthRange(month), nil
	case "last_month":
		return MonthRange(month.AddDate(0, -1, 0)), nil
	case "this_quarter":
		first := time.Date(month.Year(), month.Month()-(month.Month()-1)%3, 1, 0, 0, 0, 0, time.UTC)
		return DateRange{From: first, To: first.AddDate(0, 3, -1)}, nil
	}
	return DateRange{}, models.Validationf("unknown date preset %q", name)
}
