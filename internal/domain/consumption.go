package domain

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// MealsPerDay is the number of meals a day's norm is split into.
const MealsPerDay = 4

// FeedingsOnDay returns the feedings on the same calendar day as day in loc,
// oldest first.
func FeedingsOnDay(logs []FeedingLog, day time.Time, loc *time.Location) []FeedingLog {
	if loc == nil {
		loc = time.Local
	}
	y, m, d := day.In(loc).Date()

	out := make([]FeedingLog, 0, MealsPerDay)
	for _, l := range logs {
		ly, lm, ld := l.Time().In(loc).Date()
		if ly == y && lm == m && ld == d {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp < out[j].Timestamp
	})
	return out
}

// ConsumedOnDay sums the dry-equivalent grams eaten on day.
func ConsumedOnDay(logs []FeedingLog, day time.Time, loc *time.Location) float64 {
	var total float64
	for _, l := range FeedingsOnDay(logs, day, loc) {
		total += l.EquivalentGrams
	}
	return total
}

// MealPlan splits what is left of a day's norm over the remaining meals.
type MealPlan struct {
	NormGrams      float64 `json:"normGrams"`
	ConsumedGrams  float64 `json:"consumedGrams"`
	RemainingGrams float64 `json:"remainingGrams"`
	MealsEaten     int     `json:"mealsEaten"`
	MealsLeft      int     `json:"mealsLeft"`
	NextMealGrams  float64 `json:"nextMealGrams"`
}

// PlanMeals computes the remaining grams and the next portion. Once all meals
// are eaten, any remainder becomes the next portion.
func PlanMeals(norm, consumed float64, mealsEaten int) MealPlan {
	p := MealPlan{
		NormGrams:      norm,
		ConsumedGrams:  consumed,
		RemainingGrams: math.Max(0, norm-consumed),
		MealsEaten:     mealsEaten,
		MealsLeft:      max(0, MealsPerDay-mealsEaten),
	}
	if p.MealsLeft > 0 {
		p.NextMealGrams = p.RemainingGrams / float64(p.MealsLeft)
	} else {
		p.NextMealGrams = p.RemainingGrams
	}
	return p
}

// IntervalText renders the time between two feedings as "just now", "45m",
// "3h" or "2h 5m".
func IntervalText(prev, current time.Time) string {
	mins := int(math.Round(float64(current.Sub(prev)) / float64(time.Minute)))
	if mins < 2 {
		return "just now"
	}
	if mins < 60 {
		return fmt.Sprintf("%dm", mins)
	}
	hrs, rest := mins/60, mins%60
	if rest > 0 {
		return fmt.Sprintf("%dh %dm", hrs, rest)
	}
	return fmt.Sprintf("%dh", hrs)
}
