package advice

import (
	"context"
	"fmt"
	"strings"

	"kittenfeed/internal/domain"
)

// slowGrowth is the measured daily gain below which owners are told to
// keep an eye on weight.
const slowGrowth = 8.0

// Static gives deterministic advice from the feeding norm alone.
type Static struct{}

var _ domain.AdviceProvider = Static{}

// Advice implements domain.AdviceProvider. It never fails.
func (Static) Advice(_ context.Context, in domain.AdviceInput) (string, error) {
	var parts []string

	remaining := in.DailyNormGrams - in.ConsumedGrams
	switch {
	case remaining <= 0:
		parts = append(parts, fmt.Sprintf(
			"Daily norm reached (%.0f of %.0f g). Offer water and play instead of extra food.",
			in.ConsumedGrams, in.DailyNormGrams))
	case in.ConsumedGrams == 0:
		parts = append(parts, fmt.Sprintf(
			"Nothing logged yet today. Plan about %.0f g over %d meals.",
			in.DailyNormGrams, domain.MealsPerDay))
	default:
		parts = append(parts, fmt.Sprintf(
			"About %.0f g left of today's %.0f g norm. Split it over the remaining meals.",
			remaining, in.DailyNormGrams))
	}

	if in.PersonalRate && in.GrowthRateGrams < slowGrowth {
		parts = append(parts, fmt.Sprintf(
			"Weight gain is slow (%.1f g/day); weigh again in a few days and ask a vet if it persists.",
			in.GrowthRateGrams))
	}
	if in.AgeMonths >= domain.MaturityMonths {
		parts = append(parts, "At twelve months it is time to discuss adult food with your vet.")
	}
	return strings.Join(parts, " "), nil
}
