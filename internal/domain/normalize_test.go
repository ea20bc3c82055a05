package domain_test

import (
	"errors"
	"testing"
	"time"

	"kittenfeed/internal/domain"
)

func TestNormalizeStateEmpty(t *testing.T) {
	p := domain.DefaultProfile()
	for _, raw := range []string{"", "  ", "null"} {
		s, err := domain.NormalizeState([]byte(raw), p)
		if err != nil {
			t.Fatalf("NormalizeState(%q): %v", raw, err)
		}
		if len(s.WeightHistory) != 1 || s.WeightHistory[0].Weight != 2.5 {
			t.Errorf("NormalizeState(%q) weights = %+v", raw, s.WeightHistory)
		}
	}
}

func TestNormalizeStateMalformed(t *testing.T) {
	_, err := domain.NormalizeState([]byte(`{"history":`), domain.DefaultProfile())
	if !errors.Is(err, domain.ErrMalformedState) {
		t.Errorf("err = %v; want ErrMalformedState", err)
	}
}

func TestNormalizeStateLegacyWeight(t *testing.T) {
	raw := `{
		"birthDate": "2025-08-04",
		"lastManualWeight": 3.1,
		"lastWeightDate": "2026-01-10T08:00:00.000Z",
		"history": []
	}`
	s, err := domain.NormalizeState([]byte(raw), domain.DefaultProfile())
	if err != nil {
		t.Fatalf("NormalizeState: %v", err)
	}
	if len(s.WeightHistory) != 1 {
		t.Fatalf("WeightHistory = %+v", s.WeightHistory)
	}
	w := s.WeightHistory[0]
	want := time.Date(2026, time.January, 10, 8, 0, 0, 0, time.UTC)
	if w.ID != domain.InitialWeightID || w.Weight != 3.1 || !w.Time().Equal(want) {
		t.Errorf("legacy entry = %+v", w)
	}
	if s.Settings != (domain.Settings{}) {
		t.Errorf("settings = %+v; want defaults", s.Settings)
	}
}

func TestNormalizeStateFeedings(t *testing.T) {
	raw := `{
		"birthDate": "2025-08-04",
		"history": [
			{"id": "old", "timestamp": 1000, "type": "POUCH", "amount": 2},
			{"id": "new", "timestamp": 3000, "type": "PATE", "amount": 100, "equivalentGrams": 100},
			{"id": "odd", "timestamp": 2000, "type": "WET", "amount": 5}
		],
		"weightHistory": [
			{"id": "initial", "timestamp": 500, "weight": 2.5},
			{"id": "bogus", "timestamp": 900, "weight": 0}
		]
	}`
	s, err := domain.NormalizeState([]byte(raw), domain.DefaultProfile())
	if err != nil {
		t.Fatalf("NormalizeState: %v", err)
	}
	if len(s.History) != 3 {
		t.Fatalf("History = %+v", s.History)
	}
	if s.History[0].ID != "new" || s.History[1].ID != "odd" || s.History[2].ID != "old" {
		t.Errorf("history not newest first: %+v", s.History)
	}
	if s.History[0].EquivalentGrams != 100 {
		t.Errorf("stored grams recomputed: %v", s.History[0].EquivalentGrams)
	}
	if s.History[2].EquivalentGrams != 40 {
		t.Errorf("missing grams = %v; want 40", s.History[2].EquivalentGrams)
	}
	if s.History[1].EquivalentGrams != 0 || s.History[1].Type != "WET" {
		t.Errorf("unknown type = %+v", s.History[1])
	}
	if len(s.WeightHistory) != 1 {
		t.Errorf("non-positive weight kept: %+v", s.WeightHistory)
	}
}

func TestNormalizeStateBadBirthDate(t *testing.T) {
	s, err := domain.NormalizeState([]byte(`{"birthDate":"soon"}`), domain.DefaultProfile())
	if err != nil {
		t.Fatalf("NormalizeState: %v", err)
	}
	if s.BirthDate != "2025-08-04" {
		t.Errorf("BirthDate = %q; want profile default", s.BirthDate)
	}
}
