// Package almanac is the engine's oracle for the Islamic calendar and daily
// prayer times. Providers are fallible; callers degrade to an empty snapshot
// and keep the conversation alive when a lookup fails.
package almanac

import (
	"context"
	"fmt"
	"time"

	"rafiq/internal/logging"
	"rafiq/internal/types"
)

// Provider supplies the daily snapshot for a location. Implementations must
// honor ctx cancellation on any slow path.
type Provider interface {
	Snapshot(ctx context.Context, location string) (types.AlmanacSnapshot, error)
}

// ===== STATIC PROVIDER =====

// StaticProvider computes snapshots locally: a tabular Hijri conversion, a
// built-in table of observances, and per-location prayer times. It never
// performs I/O and is the default when no external source is configured.
type StaticProvider struct {
	// now is injected for tests.
	now func() time.Time
}

// NewStaticProvider returns the built-in provider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{now: time.Now}
}

// Snapshot implements Provider. It cannot fail; the error return exists to
// satisfy the interface shared with fallible providers.
func (p *StaticProvider) Snapshot(ctx context.Context, location string) (types.AlmanacSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return types.AlmanacSnapshot{}, err
	}

	today := p.now()
	hy, hm, hd := toHijri(today)

	snap := types.AlmanacSnapshot{
		Date:      today.Format("2006-01-02"),
		HijriDate: fmt.Sprintf("%d %s %d AH", hd, hijriMonths[hm-1], hy),
		Events:    eventsOn(hm, hd),
		Prayers:   prayersFor(location),
	}
	logging.Almanac("Static snapshot date=%s hijri=%q events=%d", snap.Date, snap.HijriDate, len(snap.Events))
	return snap, nil
}

var hijriMonths = [...]string{
	"Muharram", "Safar", "Rabi al-Awwal", "Rabi al-Thani",
	"Jumada al-Awwal", "Jumada al-Thani", "Rajab", "Shaban",
	"Ramadan", "Shawwal", "Dhu al-Qadah", "Dhu al-Hijjah",
}

// observance keys on Hijri month and day.
type observance struct {
	month, day int
	event      types.CalendarEvent
}

var observances = []observance{
	{1, 1, types.CalendarEvent{Name: "Islamic New Year", Kind: "occasion"}},
	{1, 9, types.CalendarEvent{Name: "Tasua", Kind: "mourning"}},
	{1, 10, types.CalendarEvent{Name: "Ashura", Kind: "mourning"}},
	{2, 20, types.CalendarEvent{Name: "Arbaeen", Kind: "mourning"}},
	{2, 28, types.CalendarEvent{Name: "Martyrdom of Imam Hassan (a.s.)", Kind: "mourning"}},
	{3, 17, types.CalendarEvent{Name: "Birth of Prophet Muhammad (s.a.w.) and Imam Sadiq (a.s.)", Kind: "celebration"}},
	{7, 13, types.CalendarEvent{Name: "Birth of Imam Ali (a.s.)", Kind: "celebration"}},
	{7, 27, types.CalendarEvent{Name: "Mab'ath", Kind: "celebration"}},
	{8, 15, types.CalendarEvent{Name: "Birth of Imam Mahdi (a.s.)", Kind: "celebration"}},
	{9, 19, types.CalendarEvent{Name: "First Night of Qadr", Kind: "occasion"}},
	{9, 21, types.CalendarEvent{Name: "Martyrdom of Imam Ali (a.s.)", Kind: "mourning"}},
	{9, 23, types.CalendarEvent{Name: "Laylat al-Qadr", Kind: "occasion"}},
	{10, 1, types.CalendarEvent{Name: "Eid al-Fitr", Kind: "celebration"}},
	{12, 10, types.CalendarEvent{Name: "Eid al-Adha", Kind: "celebration"}},
	{12, 18, types.CalendarEvent{Name: "Eid al-Ghadir", Kind: "celebration"}},
}

func eventsOn(month, day int) []types.CalendarEvent {
	var out []types.CalendarEvent
	for _, o := range observances {
		if o.month == month && o.day == day {
			out = append(out, o.event)
		}
	}
	return out
}

// toHijri converts a Gregorian date using the tabular (arithmetic) Islamic
// calendar. Off by at most a day or two from sighting-based calendars, which
// is acceptable for a built-in fallback.
func toHijri(t time.Time) (year, month, day int) {
	jdn := gregorianToJDN(t.Year(), int(t.Month()), t.Day())
	// Tabular calendar, astronomical epoch (JDN 1948440).
	d := jdn - 1948440 + 10632
	n := (d - 1) / 10631
	d = d - 10631*n + 354
	j := ((10985-d)/5316)*((50*d)/17719) + (d/5670)*((43*d)/15238)
	d = d - ((30-j)/15)*((17719*j)/50) - (j/16)*((15238*j)/43) + 29
	month = (24 * d) / 709
	day = d - (709*month)/24
	year = 30*n + j - 30
	return year, month, day
}

func gregorianToJDN(y, m, d int) int {
	a := (14 - m) / 12
	y2 := y + 4800 - a
	m2 := m + 12*a - 3
	return d + (153*m2+2)/5 + 365*y2 + y2/4 - y2/100 + y2/400 - 32045
}

// ===== PRAYER TIMES =====

// Static per-city tables. A location without an entry gets the default set
// so the engine still has something reasonable to say.
var prayerTables = map[string]types.PrayerTimes{
	"london":  {Fajr: "04:45", Dhuhr: "13:05", Asr: "17:10", Maghrib: "20:15", Isha: "21:45"},
	"toronto": {Fajr: "05:10", Dhuhr: "13:20", Asr: "17:05", Maghrib: "20:05", Isha: "21:30"},
	"dubai":   {Fajr: "04:30", Dhuhr: "12:25", Asr: "15:50", Maghrib: "18:55", Isha: "20:20"},
	"karachi": {Fajr: "04:40", Dhuhr: "12:35", Asr: "16:10", Maghrib: "19:05", Isha: "20:30"},
	"qom":     {Fajr: "04:50", Dhuhr: "13:10", Asr: "16:45", Maghrib: "20:00", Isha: "21:00"},
}

var defaultPrayers = types.PrayerTimes{
	Fajr: "05:00", Dhuhr: "12:30", Asr: "16:00", Maghrib: "19:00", Isha: "20:30",
}

func prayersFor(location string) types.PrayerTimes {
	if p, ok := prayerTables[normalizeLocation(location)]; ok {
		return p
	}
	return defaultPrayers
}

func normalizeLocation(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		if r == ' ' || r == '\t' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
