package holidays

import "time"

// Holiday - jour férié observé
type Holiday struct {
	Date time.Time `json:"date"`
	Name string    `json:"name"`
}

// Easter возвращает пасхальное воскресенье (анонимный григорианский алгоритм Гаусса/Мееуса).
// Корректно для годов начиная с 1583.
func Easter(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// ForYear возвращает 11 праздничных дней года в хронологическом порядке
func ForYear(year int) []Holiday {
	easter := Easter(year)
	fixed := func(month time.Month, day int) time.Time {
		return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	}

	return []Holiday{
		{Date: fixed(time.January, 1), Name: "Jour de l'an"},
		{Date: easter.AddDate(0, 0, 1), Name: "Lundi de Pâques"},
		{Date: fixed(time.May, 1), Name: "Fête du Travail"},
		{Date: fixed(time.May, 8), Name: "Victoire 1945"},
		{Date: easter.AddDate(0, 0, 39), Name: "Ascension"},
		{Date: easter.AddDate(0, 0, 50), Name: "Lundi de Pentecôte"},
		{Date: fixed(time.July, 14), Name: "Fête Nationale"},
		{Date: fixed(time.August, 15), Name: "Assomption"},
		{Date: fixed(time.November, 1), Name: "Toussaint"},
		{Date: fixed(time.November, 11), Name: "Armistice"},
		{Date: fixed(time.December, 25), Name: "Noël"},
	}
}

// Lookup ищет праздник по дате; время и часовой пояс игнорируются
func Lookup(date time.Time) (Holiday, bool) {
	for _, h := range ForYear(date.Year()) {
		if h.Date.Month() == date.Month() && h.Date.Day() == date.Day() {
			return h, true
		}
	}
	return Holiday{}, false
}

// IsHoliday проверяет, является ли дата праздничным днем
func IsHoliday(date time.Time) bool {
	_, ok := Lookup(date)
	return ok
}

// Set - праздники нескольких лет, индексированные по ключу YYYY-MM-DD
type Set map[string]Holiday

// ForYears строит Set для всех переданных годов (дубликаты игнорируются)
func ForYears(years ...int) Set {
	set := Set{}
	for _, y := range years {
		for _, h := range ForYear(y) {
			set[h.Date.Format("2006-01-02")] = h
		}
	}
	return set
}

func (s Set) Get(date time.Time) (Holiday, bool) {
	h, ok := s[date.Format("2006-01-02")]
	return h, ok
}
