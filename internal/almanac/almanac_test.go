package almanac

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStaticProvider_SnapshotShape(t *testing.T) {
	p := NewStaticProvider()
	p.now = func() time.Time { return time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC) }

	snap, err := p.Snapshot(context.Background(), "London")
	if err != nil {
		t.Fatalf("static provider must not fail: %v", err)
	}
	if snap.Date != "2026-08-30" {
		t.Errorf("expected ISO date, got %q", snap.Date)
	}
	if snap.HijriDate == "" {
		t.Error("expected a display Hijri date")
	}
	if snap.Prayers.Empty() {
		t.Error("expected prayer times for a known city")
	}
}

func TestStaticProvider_UnknownLocationGetsDefaults(t *testing.T) {
	p := NewStaticProvider()
	snap, err := p.Snapshot(context.Background(), "Nowhereville")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Prayers != defaultPrayers {
		t.Errorf("expected default prayer table, got %+v", snap.Prayers)
	}
}

func TestStaticProvider_HonorsCancellation(t *testing.T) {
	p := NewStaticProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := p.Snapshot(ctx, "london"); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestToHijri_KnownMonths(t *testing.T) {
	// Mid-month dates, so a day or two of tabular drift cannot move the
	// month.
	cases := []struct {
		gregorian time.Time
		year      int
		month     int
	}{
		{time.Date(2024, 7, 20, 0, 0, 0, 0, time.UTC), 1446, 1},  // Muharram 1446
		{time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), 1446, 9},  // Ramadan 1446
		{time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC), 1446, 12}, // Dhu al-Hijjah 1446
	}
	for _, tc := range cases {
		y, m, d := toHijri(tc.gregorian)
		if y != tc.year || m != tc.month {
			t.Errorf("toHijri(%s) = %d-%02d-%02d, want year %d month %d",
				tc.gregorian.Format("2006-01-02"), y, m, d, tc.year, tc.month)
		}
		if d < 1 || d > 30 {
			t.Errorf("toHijri(%s) day %d out of range", tc.gregorian.Format("2006-01-02"), d)
		}
	}
}

func TestToHijri_MonotonicOverAYear(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	prevY, prevM, prevD := toHijri(start)
	for i := 1; i < 365; i++ {
		y, m, d := toHijri(start.AddDate(0, 0, i))
		if m < 1 || m > 12 || d < 1 || d > 30 {
			t.Fatalf("day %d: out-of-range hijri %d-%d-%d", i, y, m, d)
		}
		prev := prevY*12*30 + (prevM-1)*30 + prevD
		cur := y*12*30 + (m-1)*30 + d
		if cur <= prev-2 {
			t.Fatalf("day %d: hijri went backwards: %d-%d-%d after %d-%d-%d", i, y, m, d, prevY, prevM, prevD)
		}
		prevY, prevM, prevD = y, m, d
	}
}

func TestEventsOn_AshuraAndEid(t *testing.T) {
	if evs := eventsOn(1, 10); len(evs) != 1 || evs[0].Name != "Ashura" {
		t.Errorf("expected Ashura on 10 Muharram, got %+v", evs)
	}
	if evs := eventsOn(10, 1); len(evs) != 1 || evs[0].Name != "Eid al-Fitr" {
		t.Errorf("expected Eid al-Fitr on 1 Shawwal, got %+v", evs)
	}
	if evs := eventsOn(4, 3); len(evs) != 0 {
		t.Errorf("expected no event, got %+v", evs)
	}
}

func TestFileProvider(t *testing.T) {
	doc := `
days:
  - date: "2026-08-30"
    hijri: "17 Rabi al-Awwal 1448 AH"
    events:
      - name: "Birth of Prophet Muhammad (s.a.w.)"
        kind: celebration
    prayers:
      fajr: "05:01"
      dhuhr: "13:02"
      asr: "16:33"
      maghrib: "19:44"
      isha: "21:05"
`
	path := writeTemp(t, doc)
	p := NewFileProvider(path)
	p.now = func() time.Time { return time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC) }

	snap, err := p.Snapshot(context.Background(), "")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}
	if snap.HijriDate != "17 Rabi al-Awwal 1448 AH" {
		t.Errorf("unexpected hijri date %q", snap.HijriDate)
	}
	if len(snap.Events) != 1 || snap.Events[0].Kind != "celebration" {
		t.Errorf("unexpected events %+v", snap.Events)
	}
	if snap.Prayers.Fajr != "05:01" {
		t.Errorf("unexpected prayers %+v", snap.Prayers)
	}

	// A date with no entry is an error; the caller degrades.
	p.now = func() time.Time { return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC) }
	if _, err := p.Snapshot(context.Background(), ""); err == nil {
		t.Fatal("expected error for missing date entry")
	}
}

func TestFileProvider_MissingFile(t *testing.T) {
	p := NewFileProvider("/nonexistent/almanac.yaml")
	if _, err := p.Snapshot(context.Background(), ""); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestNormalizeLocation(t *testing.T) {
	if got := normalizeLocation("  New York "); got != "newyork" {
		t.Fatalf("got %q", got)
	}
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "almanac.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
