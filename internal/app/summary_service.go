package app

import (
	"context"
	"time"

	"kittenfeed/internal/domain"
)

const maxDailyDays = 366

// SummaryService derives the dashboard figures from a family's state.
type SummaryService struct {
	states *StateService
	loc    *time.Location
}

// NewSummaryService creates a SummaryService. Calendar days are taken in loc;
// a nil loc means time.Local.
func NewSummaryService(states *StateService, loc *time.Location) *SummaryService {
	if loc == nil {
		loc = time.Local
	}
	return &SummaryService{states: states, loc: loc}
}

// WeightPoint is a weight in the requested unit.
type WeightPoint struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// TodayFeeding is a feeding from today with the gap to the one before it.
type TodayFeeding struct {
	domain.FeedingLog
	SincePrevious string `json:"sincePrevious,omitempty"`
}

// Summary is the dashboard view of one family at a point in time.
type Summary struct {
	FamilyID   string         `json:"familyId"`
	KittenName string         `json:"kittenName"`
	AgeMonths  float64        `json:"ageMonths"`
	Bracket    domain.Bracket `json:"bracket"`

	EstimatedWeight  WeightPoint `json:"estimatedWeight"`
	LastManualWeight WeightPoint `json:"lastManualWeight"`
	GainedGrams      float64     `json:"gainedSinceLastWeightGrams"`

	// GrowthRateGrams is the rate the estimate used; PersonalGrowthRate is
	// set only when two usable measurements exist.
	GrowthRateGrams    float64  `json:"growthRateGrams"`
	PersonalGrowthRate *float64 `json:"personalGrowthRate"`

	DailyNormGrams float64         `json:"dailyNormGrams"`
	MealPlan       domain.MealPlan `json:"mealPlan"`

	MinutesSinceLastFeeding *int           `json:"minutesSinceLastFeeding"`
	Today                   []TodayFeeding `json:"today"`
}

// Summary computes the dashboard for familyID at now, with weights in unit.
func (s *SummaryService) Summary(ctx context.Context, familyID, unit string, now time.Time) (*Summary, error) {
	if unit == "" {
		unit = domain.UnitKg
	}
	if !domain.ValidUnit(unit) {
		return nil, domain.ErrInvalidUnit
	}
	st, err := s.states.Get(ctx, familyID)
	if err != nil {
		return nil, err
	}
	return s.summarize(familyID, st, unit, now), nil
}

func (s *SummaryService) summarize(familyID string, st domain.KittenState, unit string, now time.Time) *Summary {
	birth := st.Birth()
	age := domain.AgeInMonths(birth, now)
	est := st.EstimatedWeight(now)
	rate, _ := domain.GrowthRate(st.WeightHistory, birth)
	norm := domain.DailyNorm(est, age)

	today := domain.FeedingsOnDay(st.History, now, s.loc)
	consumed := 0.0
	feedings := make([]TodayFeeding, 0, len(today))
	for i, f := range today {
		consumed += f.EquivalentGrams
		tf := TodayFeeding{FeedingLog: f}
		if i > 0 {
			tf.SincePrevious = domain.IntervalText(today[i-1].Time(), f.Time())
		}
		feedings = append(feedings, tf)
	}

	sum := &Summary{
		FamilyID:         familyID,
		KittenName:       s.states.Profile().Name,
		AgeMonths:        age,
		Bracket:          domain.BracketForAge(age),
		EstimatedWeight:  WeightPoint{Value: domain.ConvertWeight(est, domain.UnitKg, unit), Unit: unit},
		LastManualWeight: WeightPoint{Value: domain.ConvertWeight(st.LastManualWeight, domain.UnitKg, unit), Unit: unit},
		GainedGrams:      (est - st.LastManualWeight) * 1000,
		GrowthRateGrams:  rate,
		DailyNormGrams:   norm,
		MealPlan:         domain.PlanMeals(norm, consumed, len(today)),
		Today:            feedings,
	}
	if personal, ok := domain.PersonalGrowthRate(st.WeightHistory); ok {
		sum.PersonalGrowthRate = &personal
	}
	if last, ok := st.LastFeeding(); ok {
		mins := max(0, int(now.Sub(last.Time())/time.Minute))
		sum.MinutesSinceLastFeeding = &mins
	}
	return sum
}

// DayPoint is a single data point returned by Daily.
type DayPoint struct {
	Day               string  `json:"day"`
	ConsumedGrams     float64 `json:"consumedGrams"`
	NormGrams         float64 `json:"normGrams"`
	EstimatedWeightKg float64 `json:"estimatedWeightKg"`
}

// Daily returns consumption against the norm for the last days days, oldest
// first. The norm for a past day uses the weight estimated at the end of
// that day.
func (s *SummaryService) Daily(ctx context.Context, familyID string, days int, now time.Time) ([]DayPoint, error) {
	if days < 1 {
		days = 1
	}
	if days > maxDailyDays {
		days = maxDailyDays
	}
	st, err := s.states.Get(ctx, familyID)
	if err != nil {
		return nil, err
	}

	birth := st.Birth()
	today := now.In(s.loc)
	points := make([]DayPoint, 0, days)
	for i := days - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		y, m, dd := d.Date()
		at := time.Date(y, m, dd+1, 0, 0, 0, 0, s.loc).Add(-time.Millisecond)
		if at.After(now) {
			at = now
		}
		est := domain.EstimateWeight(st.WeightHistory, birth, at)
		points = append(points, DayPoint{
			Day:               d.Format("2006-01-02"),
			ConsumedGrams:     domain.ConsumedOnDay(st.History, d, s.loc),
			NormGrams:         domain.DailyNorm(est, domain.AgeInMonths(birth, at)),
			EstimatedWeightKg: est,
		})
	}
	return points, nil
}
