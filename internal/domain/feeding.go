package domain

import (
	"math"
	"sort"
	"time"
)

// FoodType is the kind of food in a feeding.
type FoodType string

// Supported food types.
const (
	FoodDry   FoodType = "DRY"
	FoodPouch FoodType = "POUCH"
	FoodPate  FoodType = "PATE"
)

// Dry-food equivalents.
const (
	PouchDryEquivalent     = 20.0 // grams of dry food per pouch
	PateDryEquivalentRatio = 0.5  // grams of dry food per gram of pâté (Trovet)
)

// foodRule converts an amount of one food type into dry-equivalent grams.
type foodRule struct {
	Unit string
	// Factor multiplies the amount into dry-equivalent grams.
	Factor float64
	// DefaultAmount replaces a zero amount, for foods counted in portions.
	DefaultAmount float64
}

var foodRules = map[FoodType]foodRule{
	FoodDry:   {Unit: "g", Factor: 1},
	FoodPouch: {Unit: "pcs", Factor: PouchDryEquivalent, DefaultAmount: 1},
	FoodPate:  {Unit: "g", Factor: PateDryEquivalentRatio},
}

// Valid reports whether t has a conversion rule.
func (t FoodType) Valid() bool {
	_, ok := foodRules[t]
	return ok
}

// Unit returns the unit amounts of t are recorded in.
func (t FoodType) Unit() string {
	return foodRules[t].Unit
}

// FeedingLog is one recorded feeding. EquivalentGrams is fixed when the log is
// created and never recomputed.
type FeedingLog struct {
	ID              string   `json:"id"`
	Timestamp       int64    `json:"timestamp"`
	Type            FoodType `json:"type"`
	Amount          float64  `json:"amount"`
	EquivalentGrams float64  `json:"equivalentGrams"`
}

// Time returns the feeding instant.
func (f FeedingLog) Time() time.Time {
	return time.UnixMilli(f.Timestamp)
}

// NewFeedingLog validates amount and derives the dry-equivalent grams.
func NewFeedingLog(id string, food FoodType, amount float64, at time.Time) (FeedingLog, error) {
	amount, grams, err := convertFood(food, amount)
	if err != nil {
		return FeedingLog{}, err
	}
	return FeedingLog{
		ID:              id,
		Timestamp:       at.UnixMilli(),
		Type:            food,
		Amount:          amount,
		EquivalentGrams: grams,
	}, nil
}

// EquivalentGrams converts amount of food into dry-equivalent grams.
func EquivalentGrams(food FoodType, amount float64) (float64, error) {
	_, grams, err := convertFood(food, amount)
	return grams, err
}

func convertFood(food FoodType, amount float64) (float64, float64, error) {
	rule, ok := foodRules[food]
	if !ok {
		return 0, 0, ErrUnknownFoodType
	}
	if amount == 0 && rule.DefaultAmount > 0 {
		amount = rule.DefaultAmount
	}
	if !(amount > 0) || math.IsInf(amount, 1) {
		return 0, 0, ErrInvalidAmount
	}
	return amount, amount * rule.Factor, nil
}

func sortFeedingsDesc(logs []FeedingLog) {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Timestamp > logs[j].Timestamp
	})
}
