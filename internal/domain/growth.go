package domain

import (
	"math"
	"time"
)

const (
	// DaysPerMonth is the mean month length used for all age arithmetic.
	DaysPerMonth = 30.44
	// MaturityMonths is the age after which weight is assumed to stop growing.
	MaturityMonths = 12.0

	msPerDay = 24 * 60 * 60 * 1000

	minPersonalRate = 5.0
	maxPersonalRate = 40.0
	// Measurements closer than this (in days) give no personal rate.
	minRateSpanDays = 0.5
)

// Fallback growth rates in grams per day, bucketed by age at the last
// measurement.
const (
	GrowthRateUnder1Month = 12.5
	GrowthRate1To4Months  = 14.0
	GrowthRate4To12Months = 15.9 // ~111 g/week
)

// AgeInMonths returns the distance between birth and t in average months.
//
// The difference is absolute: an instant before birth yields a positive age
// rather than an error. Callers that care must compare the instants
// themselves.
func AgeInMonths(birth, t time.Time) float64 {
	diff := math.Abs(float64(t.UnixMilli() - birth.UnixMilli()))
	return diff / (msPerDay * DaysPerMonth)
}

// PersonalGrowthRate derives a daily gain in grams from the two most recent
// distinct-timestamp measurements. It reports false when no such pair exists
// or when they are at most half a day apart. The rate is clamped to [5, 40].
func PersonalGrowthRate(history []WeightLog) (float64, bool) {
	if len(history) < 2 {
		return 0, false
	}
	sorted := sortedWeightsDesc(history)
	p1 := sorted[0]
	i := 1
	for i < len(sorted) && sorted[i].Timestamp == p1.Timestamp {
		i++
	}
	if i == len(sorted) {
		return 0, false
	}
	p2 := sorted[i]

	diffGrams := (p1.Weight - p2.Weight) * 1000
	diffDays := float64(p1.Timestamp-p2.Timestamp) / msPerDay
	if diffDays <= minRateSpanDays {
		return 0, false
	}
	return clamp(diffGrams/diffDays, minPersonalRate, maxPersonalRate), true
}

// DefaultGrowthRate returns the age-bucketed growth constant.
func DefaultGrowthRate(ageMonths float64) float64 {
	switch {
	case ageMonths < 1:
		return GrowthRateUnder1Month
	case ageMonths < 4:
		return GrowthRate1To4Months
	default:
		return GrowthRate4To12Months
	}
}

// GrowthRate returns the daily rate EstimateWeight would apply to history,
// and whether it is the personal rate.
func GrowthRate(history []WeightLog, birth time.Time) (float64, bool) {
	if rate, ok := PersonalGrowthRate(history); ok {
		return rate, true
	}
	if len(history) == 0 {
		return 0, false
	}
	last := sortedWeightsDesc(history)[0]
	return DefaultGrowthRate(AgeInMonths(birth, last.Time())), false
}

// EstimateWeight projects the current weight in kilograms from the most recent
// measurement. It returns 0 for an empty history. Growth stops at
// MaturityMonths; a measurement in the future or exactly at now is returned
// unchanged.
func EstimateWeight(history []WeightLog, birth, now time.Time) float64 {
	if len(history) == 0 {
		return 0
	}
	last := sortedWeightsDesc(history)[0]

	diffDays := float64(now.UnixMilli()-last.Timestamp) / msPerDay
	if diffDays <= 0 {
		return last.Weight
	}

	ageAtMeasurement := AgeInMonths(birth, last.Time())
	if ageAtMeasurement >= MaturityMonths {
		return last.Weight
	}

	dailyRate, ok := PersonalGrowthRate(history)
	if !ok {
		dailyRate = DefaultGrowthRate(ageAtMeasurement)
	}

	daysUntilMature := math.Max(0, (MaturityMonths-ageAtMeasurement)*DaysPerMonth)
	effectiveDays := math.Min(diffDays, daysUntilMature)

	return (last.Weight*1000 + effectiveDays*dailyRate) / 1000
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
