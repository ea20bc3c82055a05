package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// storedState mirrors KittenState with optional fields so that absent keys
// can be told apart from zero values.
type storedState struct {
	BirthDate        *string         `json:"birthDate"`
	LastManualWeight *float64        `json:"lastManualWeight"`
	LastWeightDate   *string         `json:"lastWeightDate"`
	History          []storedFeeding `json:"history"`
	WeightHistory    []WeightLog     `json:"weightHistory"`
	Settings         *Settings       `json:"settings"`
}

type storedFeeding struct {
	ID              string   `json:"id"`
	Timestamp       int64    `json:"timestamp"`
	Type            FoodType `json:"type"`
	Amount          float64  `json:"amount"`
	EquivalentGrams *float64 `json:"equivalentGrams"`
}

// NormalizeState decodes a stored blob of any historical shape into the
// current one. An empty or null blob yields the seeded state for defaults.
func NormalizeState(raw []byte, defaults Profile) (KittenState, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return NewState(defaults), nil
	}

	var in storedState
	if err := json.Unmarshal(raw, &in); err != nil {
		return KittenState{}, fmt.Errorf("%w: %v", ErrMalformedState, err)
	}

	s := KittenState{BirthDate: defaults.BirthDate.UTC().Format(dateLayout)}
	if in.BirthDate != nil {
		if _, err := parseDate(*in.BirthDate); err == nil {
			s.BirthDate = *in.BirthDate
		}
	}
	if in.Settings != nil {
		s.Settings = *in.Settings
	}

	s.History = make([]FeedingLog, 0, len(in.History))
	for _, f := range in.History {
		log := FeedingLog{ID: f.ID, Timestamp: f.Timestamp, Type: f.Type, Amount: f.Amount}
		if f.EquivalentGrams != nil {
			log.EquivalentGrams = *f.EquivalentGrams
		} else if grams, err := EquivalentGrams(f.Type, f.Amount); err == nil {
			log.EquivalentGrams = grams
		}
		s.History = append(s.History, log)
	}

	for _, w := range in.WeightHistory {
		if validWeight(w.Weight) {
			s.WeightHistory = append(s.WeightHistory, w)
		}
	}
	if len(s.WeightHistory) == 0 {
		s.WeightHistory = legacyWeights(in, defaults)
	}

	return s.canonical(), nil
}

func legacyWeights(in storedState, defaults Profile) []WeightLog {
	if in.LastManualWeight != nil && validWeight(*in.LastManualWeight) {
		date := defaults.InitialWeightDate
		if in.LastWeightDate != nil {
			if t, err := parseDate(*in.LastWeightDate); err == nil {
				date = t
			}
		}
		return LegacyHistory(*in.LastManualWeight, date)
	}
	return LegacyHistory(defaults.InitialWeight, defaults.InitialWeightDate)
}
