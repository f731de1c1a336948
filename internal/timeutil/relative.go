package timeutil

import (
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/text/language"
)

// Unit is a step on the relative time ladder.
type Unit int

const (
	UnitSecond Unit = iota
	UnitMinute
	UnitHour
	UnitDay
	UnitWeek
	UnitMonth
	UnitYear
)

type division struct {
	amount float64
	unit   Unit
}

// Each amount converts the current unit into the next one.
var divisions = []division{
	{60, UnitSecond},
	{60, UnitMinute},
	{24, UnitHour},
	{7, UnitDay},
	{4.34524, UnitWeek},
	{12, UnitMonth},
	{math.Inf(1), UnitYear},
}

// RelativeFormatter phrases a signed whole amount of a unit, with "auto"
// wording for the special values (now, yesterday, next week...).
type RelativeFormatter interface {
	Relative(value int, unit Unit) string
	DateFull(t time.Time) string
}

var supported = []language.Tag{language.English, language.Russian}

var matcher = language.NewMatcher(supported)

// Formatters caches one formatter per requested locale. Entries are created
// on first use and live as long as the cache.
type Formatters struct {
	mu    sync.RWMutex
	byTag map[string]RelativeFormatter
}

func NewFormatters() *Formatters {
	return &Formatters{byTag: make(map[string]RelativeFormatter)}
}

// Get returns the formatter for locale, resolving unsupported or malformed
// locales to English.
func (f *Formatters) Get(locale string) RelativeFormatter {
	f.mu.RLock()
	formatter, ok := f.byTag[locale]
	f.mu.RUnlock()
	if ok {
		return formatter
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if formatter, ok := f.byTag[locale]; ok {
		return formatter
	}
	formatter = newFormatter(locale)
	f.byTag[locale] = formatter
	return formatter
}

// Len reports how many locales have been resolved so far.
func (f *Formatters) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.byTag)
}

// TimeAgo describes t relative to now ("3 minutes ago", "in 2 days").
func (f *Formatters) TimeAgo(t time.Time, locale string, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.UTC
	}
	formatter := f.Get(locale)
	duration := t.In(loc).Sub(now.In(loc)).Seconds()

	for _, div := range divisions {
		if math.Abs(duration) < div.amount {
			return formatter.Relative(roundHalfUp(duration), div.unit)
		}
		duration /= div.amount
	}
	return ""
}

// DateFull formats now's date in loc, e.g. "January 1, 2024".
func (f *Formatters) DateFull(locale string, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.UTC
	}
	return f.Get(locale).DateFull(now.In(loc))
}

func roundHalfUp(v float64) int {
	r := math.Floor(v + 0.5)
	if r == 0 {
		return 0
	}
	return int(r)
}

func newFormatter(locale string) RelativeFormatter {
	tag, err := language.Parse(locale)
	if err != nil {
		return english{}
	}
	_, index, confidence := matcher.Match(tag)
	if confidence == language.No {
		return english{}
	}
	switch supported[index] {
	case language.Russian:
		return russian{}
	default:
		return english{}
	}
}

type english struct{}

var englishUnits = map[Unit]string{
	UnitSecond: "second",
	UnitMinute: "minute",
	UnitHour:   "hour",
	UnitDay:    "day",
	UnitWeek:   "week",
	UnitMonth:  "month",
	UnitYear:   "year",
}

func (english) Relative(value int, unit Unit) string {
	switch value {
	case 0:
		switch unit {
		case UnitSecond:
			return "now"
		case UnitDay:
			return "today"
		default:
			return "this " + englishUnits[unit]
		}
	case 1:
		switch unit {
		case UnitDay:
			return "tomorrow"
		case UnitWeek, UnitMonth, UnitYear:
			return "next " + englishUnits[unit]
		}
	case -1:
		switch unit {
		case UnitDay:
			return "yesterday"
		case UnitWeek, UnitMonth, UnitYear:
			return "last " + englishUnits[unit]
		}
	}

	n := value
	if n < 0 {
		n = -n
	}
	name := englishUnits[unit]
	if n != 1 {
		name += "s"
	}
	if value < 0 {
		return fmt.Sprintf("%d %s ago", n, name)
	}
	return fmt.Sprintf("in %d %s", n, name)
}

func (english) DateFull(t time.Time) string {
	return t.Format("January 2, 2006")
}

type russian struct{}

// one, few, many
var russianUnits = map[Unit][3]string{
	UnitSecond: {"секунду", "секунды", "секунд"},
	UnitMinute: {"минуту", "минуты", "минут"},
	UnitHour:   {"час", "часа", "часов"},
	UnitDay:    {"день", "дня", "дней"},
	UnitWeek:   {"неделю", "недели", "недель"},
	UnitMonth:  {"месяц", "месяца", "месяцев"},
	UnitYear:   {"год", "года", "лет"},
}

var russianAuto = map[Unit]map[int]string{
	UnitSecond: {0: "сейчас"},
	UnitMinute: {0: "в эту минуту"},
	UnitHour:   {0: "в этот час"},
	UnitDay:    {-2: "позавчера", -1: "вчера", 0: "сегодня", 1: "завтра", 2: "послезавтра"},
	UnitWeek:   {-1: "на прошлой неделе", 0: "на этой неделе", 1: "на следующей неделе"},
	UnitMonth:  {-1: "в прошлом месяце", 0: "в этом месяце", 1: "в следующем месяце"},
	UnitYear:   {-1: "в прошлом году", 0: "в этом году", 1: "в следующем году"},
}

var russianMonths = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

func (russian) Relative(value int, unit Unit) string {
	if phrase, ok := russianAuto[unit][value]; ok {
		return phrase
	}
	n := value
	if n < 0 {
		n = -n
	}
	name := russianUnits[unit][russianPlural(n)]
	if value < 0 {
		return fmt.Sprintf("%d %s назад", n, name)
	}
	return fmt.Sprintf("через %d %s", n, name)
}

func (russian) DateFull(t time.Time) string {
	return fmt.Sprintf("%d %s %d г.", t.Day(), russianMonths[t.Month()-1], t.Year())
}

func russianPlural(n int) int {
	mod10, mod100 := n%10, n%100
	switch {
	case mod10 == 1 && mod100 != 11:
		return 0
	case mod10 >= 2 && mod10 <= 4 && (mod100 < 12 || mod100 > 14):
		return 1
	default:
		return 2
	}
}
