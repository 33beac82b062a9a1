package suggestion

import (
	"testing"
	"time"

	"rafiq/internal/types"
)

func rankerAt(hhmm string, cfg Config) *Ranker {
	r := NewRanker(cfg)
	t, _ := time.Parse("15:04", hhmm)
	r.now = func() time.Time {
		return time.Date(2026, 8, 30, t.Hour(), t.Minute(), 0, 0, time.Local)
	}
	return r
}

func fullSnapshot() types.SessionContext {
	snap := types.SessionContext{
		Almanac: types.AlmanacSnapshot{
			Date:    "2026-08-30",
			Events:  []types.CalendarEvent{{Name: "Arbaeen", Kind: "mourning"}},
			Prayers: types.PrayerTimes{Fajr: "05:00", Dhuhr: "13:05", Asr: "16:30", Maghrib: "19:40", Isha: "21:00"},
		},
	}
	snap.Data.TodayInteractions = 0
	return snap
}

func TestRank_CapsAndOrdersByPriority(t *testing.T) {
	// 12:30, Dhuhr at 13:05: all three sources fire.
	r := rankerAt("12:30", DefaultConfig())
	got := r.Rank(fullSnapshot())

	if len(got) != 3 {
		t.Fatalf("expected 3 suggestions, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].Priority > got[i-1].Priority {
			t.Fatalf("priority inversion at %d: %v after %v", i, got[i].Priority, got[i-1].Priority)
		}
	}
	if got[0].Priority != types.PriorityHigh || got[0].Title != "Arbaeen" {
		t.Errorf("expected the calendar event first, got %+v", got[0])
	}
	if got[1].Priority != types.PriorityMedium {
		t.Errorf("expected the prayer reminder second, got %+v", got[1])
	}
	if got[2].Priority != types.PriorityLow {
		t.Errorf("expected the nudge last, got %+v", got[2])
	}
}

func TestRank_RespectsMaxSuggestions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxSuggestions = 2
	r := rankerAt("12:30", cfg)

	got := r.Rank(fullSnapshot())
	if len(got) != 2 {
		t.Fatalf("expected cap of 2, got %d", len(got))
	}
	// The cap drops the lowest priority candidate.
	if got[len(got)-1].Priority == types.PriorityLow {
		t.Errorf("expected the nudge dropped by the cap, got %+v", got)
	}
}

func TestRank_PrayerWindow(t *testing.T) {
	snap := fullSnapshot()
	snap.Almanac.Events = nil
	snap.Data.TodayInteractions = 10 // no nudge

	// Asr at 16:30, window 45m.
	if got := rankerAt("16:00", DefaultConfig()).Rank(snap); len(got) != 1 {
		t.Fatalf("expected prayer reminder inside window, got %+v", got)
	}
	if got := rankerAt("15:00", DefaultConfig()).Rank(snap); len(got) != 0 {
		t.Fatalf("expected nothing outside window, got %+v", got)
	}
	// A prayer already past does not fire.
	if got := rankerAt("16:31", DefaultConfig()).Rank(snap); len(got) != 0 {
		t.Fatalf("expected passed prayer ignored, got %+v", got)
	}
}

func TestRank_NudgeThreshold(t *testing.T) {
	snap := types.SessionContext{}
	r := rankerAt("03:00", DefaultConfig())

	snap.Data.TodayInteractions = 2
	got := r.Rank(snap)
	if len(got) != 1 || got[0].Priority != types.PriorityLow {
		t.Fatalf("expected the nudge on a quiet day, got %+v", got)
	}

	snap.Data.TodayInteractions = 3
	if got := r.Rank(snap); len(got) != 0 {
		t.Fatalf("expected no nudge at the threshold, got %+v", got)
	}
}

func TestRank_EmptySnapshotDegradesQuietly(t *testing.T) {
	snap := types.SessionContext{}
	snap.Data.TodayInteractions = 5

	got := rankerAt("12:00", DefaultConfig()).Rank(snap)
	if len(got) != 0 {
		t.Fatalf("expected no suggestions from an empty snapshot, got %+v", got)
	}
}

func TestRank_Deterministic(t *testing.T) {
	r := rankerAt("12:30", DefaultConfig())
	snap := fullSnapshot()

	first := r.Rank(snap)
	for i := 0; i < 10; i++ {
		again := r.Rank(snap)
		if len(again) != len(first) {
			t.Fatalf("length changed between runs: %d vs %d", len(first), len(again))
		}
		for j := range again {
			if again[j].Title != first[j].Title {
				t.Fatalf("order changed at %d: %q vs %q", j, again[j].Title, first[j].Title)
			}
		}
	}
}

func TestUpcomingWithin_SkipsMalformedTimes(t *testing.T) {
	p := types.PrayerTimes{Fajr: "bogus", Dhuhr: "13:05"}
	now := time.Date(2026, 8, 30, 12, 45, 0, 0, time.UTC)

	name, at, ok := upcomingWithin(p, now, 45*time.Minute)
	if !ok || name != "Dhuhr" || at != "13:05" {
		t.Fatalf("expected malformed entry skipped, got %s %s ok=%v", name, at, ok)
	}
}
