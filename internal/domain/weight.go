package domain

import (
	"sort"
	"time"
)

// InitialWeightID marks the seeded measurement. It can never be deleted.
const InitialWeightID = "initial"

// WeightLog is a single manual weight measurement in kilograms.
type WeightLog struct {
	ID        string  `json:"id"`
	Timestamp int64   `json:"timestamp"`
	Weight    float64 `json:"weight"`
}

// Time returns the measurement instant.
func (w WeightLog) Time() time.Time {
	return time.UnixMilli(w.Timestamp)
}

// LegacyHistory turns the single (lastManualWeight, lastWeightDate) pair of
// older stored states into a one-element history.
func LegacyHistory(weight float64, date time.Time) []WeightLog {
	if weight <= 0 {
		return nil
	}
	return []WeightLog{{ID: InitialWeightID, Timestamp: date.UnixMilli(), Weight: weight}}
}

// sortedWeightsDesc returns a copy of logs ordered newest first. Entries with
// equal timestamps keep their relative order.
func sortedWeightsDesc(logs []WeightLog) []WeightLog {
	out := make([]WeightLog, len(logs))
	copy(out, logs)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}
