package domain_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"kittenfeed/internal/domain"
)

func TestEquivalentGrams(t *testing.T) {
	tests := []struct {
		name    string
		food    domain.FoodType
		amount  float64
		want    float64
		wantErr error
	}{
		{"dry", domain.FoodDry, 30, 30, nil},
		{"one pouch", domain.FoodPouch, 1, 20, nil},
		{"two pouches", domain.FoodPouch, 2, 40, nil},
		{"pouch defaults to one", domain.FoodPouch, 0, 20, nil},
		{"pate", domain.FoodPate, 100, 50, nil},
		{"dry zero", domain.FoodDry, 0, 0, domain.ErrInvalidAmount},
		{"negative", domain.FoodPate, -5, 0, domain.ErrInvalidAmount},
		{"not a number", domain.FoodDry, math.NaN(), 0, domain.ErrInvalidAmount},
		{"infinite", domain.FoodDry, math.Inf(1), 0, domain.ErrInvalidAmount},
		{"unknown type", domain.FoodType("WET"), 10, 0, domain.ErrUnknownFoodType},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := domain.EquivalentGrams(tc.food, tc.amount)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err = %v; want %v", err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("grams = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestNewFeedingLog(t *testing.T) {
	at := time.Date(2026, time.January, 10, 8, 30, 0, 0, time.UTC)
	log, err := domain.NewFeedingLog("f1", domain.FoodPouch, 0, at)
	if err != nil {
		t.Fatalf("NewFeedingLog: %v", err)
	}
	if log.Amount != 1 || log.EquivalentGrams != 20 {
		t.Errorf("got amount=%v grams=%v; want 1 and 20", log.Amount, log.EquivalentGrams)
	}
	if !log.Time().Equal(at) {
		t.Errorf("Time() = %v; want %v", log.Time(), at)
	}
}

func TestFoodTypeUnit(t *testing.T) {
	if u := domain.FoodPouch.Unit(); u != "pcs" {
		t.Errorf("pouch unit = %q", u)
	}
	if u := domain.FoodPate.Unit(); u != "g" {
		t.Errorf("pate unit = %q", u)
	}
	if domain.FoodType("WET").Valid() {
		t.Error("WET reported valid")
	}
}
