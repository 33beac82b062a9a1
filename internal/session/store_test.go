package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"rafiq/internal/types"
)

func TestAddMessage_EvictsOldestBeyondLimit(t *testing.T) {
	s := NewStore(40)
	for i := 0; i < 41; i++ {
		s.AddMessage(types.RoleUser, fmt.Sprintf("msg %d", i), nil)
	}

	snap := s.Context()
	if got := len(snap.History); got != 40 {
		t.Fatalf("expected history capped at 40, got %d", got)
	}
	if snap.History[0].Text != "msg 1" {
		t.Errorf("expected oldest turn evicted, history starts with %q", snap.History[0].Text)
	}
	if snap.History[39].Text != "msg 40" {
		t.Errorf("expected newest turn retained, history ends with %q", snap.History[39].Text)
	}
}

func TestAddMessage_AssistantTurnsDoNotCount(t *testing.T) {
	s := NewStore(0)
	s.UpdateAlmanac(types.AlmanacSnapshot{Date: "2026-08-30"})

	s.AddMessage(types.RoleUser, "salam", nil)
	s.AddMessage(types.RoleAssistant, "wa alaykum salam", nil)
	s.AddMessage(types.RoleAssistant, "how can I help?", nil)

	if got := s.Context().Data.TodayInteractions; got != 1 {
		t.Fatalf("expected 1 interaction after one user turn, got %d", got)
	}
}

func TestAddMessage_CounterRollsOverOnNewAlmanacDate(t *testing.T) {
	s := NewStore(0)
	s.UpdateAlmanac(types.AlmanacSnapshot{Date: "2026-08-29"})
	s.AddMessage(types.RoleUser, "one", nil)
	s.AddMessage(types.RoleUser, "two", nil)

	if got := s.Context().Data.TodayInteractions; got != 2 {
		t.Fatalf("expected 2 interactions, got %d", got)
	}

	s.UpdateAlmanac(types.AlmanacSnapshot{Date: "2026-08-30"})
	s.AddMessage(types.RoleUser, "three", nil)

	snap := s.Context()
	if snap.Data.TodayInteractions != 1 {
		t.Errorf("expected counter reset to 1 on new date, got %d", snap.Data.TodayInteractions)
	}
	if snap.Data.LastActiveDate != "2026-08-30" {
		t.Errorf("expected last active date updated, got %q", snap.Data.LastActiveDate)
	}
}

func TestAddMessage_EmotionIsReplacementDriven(t *testing.T) {
	s := NewStore(0)

	s.AddMessage(types.RoleUser, "my mother passed away", &types.Intent{
		Category: types.CategoryEmotional,
		Emotion:  types.EmotionGrieving,
	})
	if got := s.Context().CurrentEmotion; got != types.EmotionGrieving {
		t.Fatalf("expected grieving, got %q", got)
	}

	s.AddMessage(types.RoleUser, "alhamdulillah things are better", &types.Intent{
		Category: types.CategorySmallTalk,
		Emotion:  types.EmotionGrateful,
	})
	if got := s.Context().CurrentEmotion; got != types.EmotionGrateful {
		t.Fatalf("expected replacement to grateful, got %q", got)
	}

	// A turn with no detected emotion clears the previous one.
	s.AddMessage(types.RoleUser, "what time is it", nil)
	if got := s.Context().CurrentEmotion; got != types.EmotionNone {
		t.Fatalf("expected emotion cleared, got %q", got)
	}
}

func TestClearHistory_PreservesIdentityAndAlmanac(t *testing.T) {
	s := NewStore(0)
	s.SetUserName("Fatima")
	snap := types.AlmanacSnapshot{
		Date:      "2026-08-30",
		HijriDate: "17 Rabi al-Awwal 1448 AH",
		Events:    []types.CalendarEvent{{Name: "Birth of Prophet Muhammad (s.a.w.)", Kind: "celebration"}},
	}
	s.UpdateAlmanac(snap)
	s.AddMessage(types.RoleUser, "hello", &types.Intent{Category: types.CategorySmallTalk, Emotion: types.EmotionJoyful})

	s.ClearHistory()

	got := s.Context()
	if len(got.History) != 0 {
		t.Errorf("expected empty history, got %d turns", len(got.History))
	}
	if got.Data.TodayInteractions != 0 || got.Data.LastActiveDate != "" {
		t.Errorf("expected session data reset, got %+v", got.Data)
	}
	if got.CurrentEmotion != types.EmotionNone {
		t.Errorf("expected emotion cleared, got %q", got.CurrentEmotion)
	}
	if got.UserName != "Fatima" {
		t.Errorf("expected user name preserved, got %q", got.UserName)
	}
	if diff := cmp.Diff(snap, got.Almanac); diff != "" {
		t.Errorf("expected almanac preserved (-want +got):\n%s", diff)
	}
}

func TestContext_ReturnsDeepCopy(t *testing.T) {
	s := NewStore(0)
	s.UpdateAlmanac(types.AlmanacSnapshot{
		Date:   "2026-08-30",
		Events: []types.CalendarEvent{{Name: "Arbaeen", Kind: "mourning"}},
	})
	s.AddMessage(types.RoleUser, "tell me about ziyarat", &types.Intent{
		Category: types.CategoryNavigation,
		Entities: []types.Entity{{Kind: types.EntityRitual, Name: "Ziyarat Ashura", Slug: "ziyarat-ashura"}},
	})

	snap := s.Context()
	snap.Almanac.Events[0].Name = "mutated"
	snap.History[0].Intent.Entities[0].Slug = "mutated"
	snap.History[0].Text = "mutated"

	fresh := s.Context()
	if fresh.Almanac.Events[0].Name != "Arbaeen" {
		t.Error("almanac events leaked through the snapshot")
	}
	if fresh.History[0].Intent.Entities[0].Slug != "ziyarat-ashura" {
		t.Error("intent entities leaked through the snapshot")
	}
	if fresh.History[0].Text != "tell me about ziyarat" {
		t.Error("history turns leaked through the snapshot")
	}
}

func TestNewStore_DefaultsLimit(t *testing.T) {
	s := NewStore(-5)
	if s.limit != DefaultHistoryLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultHistoryLimit, s.limit)
	}
	if s.ctx.SessionID == "" {
		t.Fatal("expected a session id")
	}
}

func TestAddMessage_TimestampsUseInjectedClock(t *testing.T) {
	s := NewStore(0)
	fixed := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.AddMessage(types.RoleUser, "salam", nil)
	if got := s.Context().History[0].Timestamp; !got.Equal(fixed) {
		t.Fatalf("expected timestamp %v, got %v", fixed, got)
	}
}
