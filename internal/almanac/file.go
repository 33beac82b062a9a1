package almanac

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"rafiq/internal/logging"
	"rafiq/internal/types"
)

// FileProvider reads daily snapshots from a YAML almanac file, for
// deployments that ship curated calendars instead of the built-in tables.
// Lookups that fail, including a date with no entry, return an error so the
// caller can degrade.
type FileProvider struct {
	path string
	now  func() time.Time
}

// NewFileProvider returns a provider backed by the YAML file at path. The
// file is re-read on every Snapshot call so edits apply without a restart.
func NewFileProvider(path string) *FileProvider {
	return &FileProvider{path: path, now: time.Now}
}

// almanacFile is the on-disk document shape.
type almanacFile struct {
	Days []dayEntry `yaml:"days"`
}

type dayEntry struct {
	Date    string       `yaml:"date"` // Gregorian, 2006-01-02
	Hijri   string       `yaml:"hijri"`
	Events  []eventEntry `yaml:"events"`
	Prayers prayerEntry  `yaml:"prayers"`
}

type eventEntry struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

type prayerEntry struct {
	Fajr    string `yaml:"fajr"`
	Dhuhr   string `yaml:"dhuhr"`
	Asr     string `yaml:"asr"`
	Maghrib string `yaml:"maghrib"`
	Isha    string `yaml:"isha"`
}

// Snapshot implements Provider.
func (p *FileProvider) Snapshot(ctx context.Context, location string) (types.AlmanacSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return types.AlmanacSnapshot{}, err
	}

	data, err := os.ReadFile(p.path)
	if err != nil {
		return types.AlmanacSnapshot{}, fmt.Errorf("reading almanac file: %w", err)
	}
	var doc almanacFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return types.AlmanacSnapshot{}, fmt.Errorf("parsing almanac file %s: %w", p.path, err)
	}

	today := p.now().Format("2006-01-02")
	for _, day := range doc.Days {
		if day.Date != today {
			continue
		}
		snap := types.AlmanacSnapshot{
			Date:      day.Date,
			HijriDate: day.Hijri,
			Prayers: types.PrayerTimes{
				Fajr:    day.Prayers.Fajr,
				Dhuhr:   day.Prayers.Dhuhr,
				Asr:     day.Prayers.Asr,
				Maghrib: day.Prayers.Maghrib,
				Isha:    day.Prayers.Isha,
			},
		}
		for _, ev := range day.Events {
			snap.Events = append(snap.Events, types.CalendarEvent{Name: ev.Name, Kind: ev.Kind})
		}
		logging.Almanac("File snapshot date=%s events=%d from %s", snap.Date, len(snap.Events), p.path)
		return snap, nil
	}
	return types.AlmanacSnapshot{}, fmt.Errorf("no almanac entry for %s in %s", today, p.path)
}
