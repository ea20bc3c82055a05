package domain_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"kittenfeed/internal/domain"
)

func TestNewState(t *testing.T) {
	s := domain.NewState(domain.DefaultProfile())

	if s.BirthDate != "2025-08-04" {
		t.Errorf("BirthDate = %q", s.BirthDate)
	}
	if len(s.WeightHistory) != 1 || s.WeightHistory[0].ID != domain.InitialWeightID {
		t.Fatalf("WeightHistory = %+v; want single initial entry", s.WeightHistory)
	}
	if s.LastManualWeight != 2.5 || s.LastWeightDate != "2025-12-26T00:00:00.000Z" {
		t.Errorf("cached weight = %v at %q", s.LastManualWeight, s.LastWeightDate)
	}
	if s.History == nil || len(s.History) != 0 {
		t.Errorf("History = %#v; want empty", s.History)
	}
}

func TestAddFeedingDoesNotMutate(t *testing.T) {
	s := domain.NewState(domain.DefaultProfile())
	at := day(2026, time.January, 10).Add(8 * time.Hour)

	next, err := s.AddFeeding("f1", domain.FoodPate, 60, at)
	if err != nil {
		t.Fatalf("AddFeeding: %v", err)
	}
	if len(s.History) != 0 {
		t.Errorf("input state mutated: %+v", s.History)
	}
	if len(next.History) != 1 || next.History[0].EquivalentGrams != 30 {
		t.Errorf("next.History = %+v", next.History)
	}

	next2, err := next.AddFeeding("f2", domain.FoodDry, 10, at.Add(-time.Hour))
	if err != nil {
		t.Fatalf("AddFeeding: %v", err)
	}
	if next2.History[0].ID != "f1" || next2.History[1].ID != "f2" {
		t.Errorf("history not newest first: %+v", next2.History)
	}

	if _, err := next.AddFeeding("bad", domain.FoodDry, -1, at); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("negative amount err = %v", err)
	}
}

func TestAddWeightRefreshesCache(t *testing.T) {
	s := domain.NewState(domain.DefaultProfile())
	at := time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC)

	next, err := s.AddWeight("w1", 2.75, at)
	if err != nil {
		t.Fatalf("AddWeight: %v", err)
	}
	if next.WeightHistory[0].ID != "w1" {
		t.Errorf("newest weight = %q; want w1", next.WeightHistory[0].ID)
	}
	if next.LastManualWeight != 2.75 || next.LastWeightDate != "2026-01-05T09:00:00.000Z" {
		t.Errorf("cache = %v %q", next.LastManualWeight, next.LastWeightDate)
	}
	if s.LastManualWeight != 2.5 {
		t.Errorf("input state mutated")
	}

	// An older measurement does not become the cached one.
	older, err := next.AddWeight("w0", 2.4, at.AddDate(0, -1, 0))
	if err != nil {
		t.Fatalf("AddWeight: %v", err)
	}
	if older.LastManualWeight != 2.75 {
		t.Errorf("cache = %v; want 2.75", older.LastManualWeight)
	}

	for _, kg := range []float64{0, -1} {
		if _, err := s.AddWeight("bad", kg, at); !errors.Is(err, domain.ErrInvalidWeight) {
			t.Errorf("AddWeight(%v) err = %v", kg, err)
		}
	}
}

func TestDeleteWeight(t *testing.T) {
	s := domain.NewState(domain.DefaultProfile())
	s, _ = s.AddWeight("w1", 2.8, day(2026, time.January, 20))

	tests := []struct {
		name    string
		state   domain.KittenState
		id      string
		wantErr error
		wantLen int
	}{
		{"initial protected", s, domain.InitialWeightID, domain.ErrInitialWeightProtected, 2},
		{"missing id", s, "nope", domain.ErrEntryNotFound, 2},
		{"regular entry", s, "w1", nil, 1},
		{
			name: "last entry kept",
			state: domain.KittenState{WeightHistory: []domain.WeightLog{
				wlog("only", day(2026, time.January, 1), 3),
			}},
			id: "only", wantErr: domain.ErrLastWeightEntry, wantLen: 1,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			next, err := tc.state.DeleteWeight(tc.id)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v; want %v", err, tc.wantErr)
			}
			if len(next.WeightHistory) != tc.wantLen {
				t.Errorf("len = %d; want %d", len(next.WeightHistory), tc.wantLen)
			}
		})
	}

	next, _ := s.DeleteWeight("w1")
	if next.LastManualWeight != 2.5 {
		t.Errorf("cache after delete = %v; want 2.5", next.LastManualWeight)
	}
	if len(s.WeightHistory) != 2 {
		t.Errorf("input state mutated")
	}
}

func TestDeleteAndEditFeeding(t *testing.T) {
	base := day(2026, time.January, 10)
	s := domain.NewState(domain.DefaultProfile())
	s, _ = s.AddFeeding("a", domain.FoodDry, 20, base.Add(8*time.Hour))
	s, _ = s.AddFeeding("b", domain.FoodDry, 20, base.Add(12*time.Hour))

	moved, err := s.EditFeedingTime("a", base.Add(14*time.Hour))
	if err != nil {
		t.Fatalf("EditFeedingTime: %v", err)
	}
	if moved.History[0].ID != "a" {
		t.Errorf("edited feeding not resorted: %+v", moved.History)
	}
	if s.History[0].ID != "b" {
		t.Errorf("input state mutated")
	}

	left, err := moved.DeleteFeeding("b")
	if err != nil {
		t.Fatalf("DeleteFeeding: %v", err)
	}
	if len(left.History) != 1 || left.History[0].ID != "a" {
		t.Errorf("history = %+v", left.History)
	}

	if _, err := s.DeleteFeeding("zzz"); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("DeleteFeeding missing err = %v", err)
	}
	if _, err := s.EditFeedingTime("zzz", base); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("EditFeedingTime missing err = %v", err)
	}
}

func TestEditWeightTime(t *testing.T) {
	s := domain.NewState(domain.DefaultProfile())
	s, _ = s.AddWeight("w1", 2.8, day(2026, time.January, 20))

	// Moving the initial measurement past w1 makes it the newest.
	next, err := s.EditWeightTime(domain.InitialWeightID, day(2026, time.February, 1))
	if err != nil {
		t.Fatalf("EditWeightTime: %v", err)
	}
	if next.LastManualWeight != 2.5 || next.WeightHistory[0].ID != domain.InitialWeightID {
		t.Errorf("cache = %v newest = %q", next.LastManualWeight, next.WeightHistory[0].ID)
	}
	if _, err := s.EditWeightTime("zzz", day(2026, time.February, 1)); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestUpdateSettings(t *testing.T) {
	s := domain.NewState(domain.DefaultProfile())
	next, err := s.UpdateSettings(domain.Settings{RemindersEnabled: true, ReminderAfterMinutes: 180, TelegramChatID: 42})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if !next.Settings.RemindersEnabled || next.Settings.TelegramChatID != 42 {
		t.Errorf("settings = %+v", next.Settings)
	}
	if _, err := s.UpdateSettings(domain.Settings{ReminderAfterMinutes: -1}); !errors.Is(err, domain.ErrInvalidSettings) {
		t.Errorf("negative minutes err = %v", err)
	}
}

func TestStateJSONRoundTrip(t *testing.T) {
	p := domain.DefaultProfile()
	s := domain.NewState(p)
	s, _ = s.AddFeeding("f1", domain.FoodPouch, 2, day(2026, time.January, 10))
	s, _ = s.AddWeight("w1", 2.9, day(2026, time.January, 11))
	s, _ = s.UpdateSettings(domain.Settings{RemindersEnabled: true, TelegramChatID: 7})

	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := domain.NormalizeState(raw, p)
	if err != nil {
		t.Fatalf("NormalizeState: %v", err)
	}
	if !reflect.DeepEqual(got, s) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, s)
	}
}
