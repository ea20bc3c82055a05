package app

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"kittenfeed/internal/domain"
)

// Advice sources.
const (
	AdviceFromProvider = "provider"
	AdviceFromFallback = "fallback"
	AdviceFromCache    = "cache"
)

// Advice is a feeding recommendation for the current state.
type Advice struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// AdviceService asks an AdviceProvider about the current summary. Answers
// are cached per family and input, and a failing provider falls back to the
// local rules.
type AdviceService struct {
	summaries *SummaryService
	provider  domain.AdviceProvider
	fallback  domain.AdviceProvider
	cache     *cache.Cache
	log       logrus.FieldLogger
	rec       Recorder
}

// NewAdviceService creates an AdviceService. provider may be nil, in which
// case fallback answers every request.
func NewAdviceService(summaries *SummaryService, provider, fallback domain.AdviceProvider, ttl time.Duration, log logrus.FieldLogger) *AdviceService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AdviceService{
		summaries: summaries,
		provider:  provider,
		fallback:  fallback,
		cache:     cache.New(ttl, 2*ttl),
		log:       log,
		rec:       noopRecorder{},
	}
}

// WithRecorder attaches a metrics recorder.
func (s *AdviceService) WithRecorder(r Recorder) *AdviceService {
	if r != nil {
		s.rec = r
	}
	return s
}

// Advice returns a recommendation for familyID at now.
func (s *AdviceService) Advice(ctx context.Context, familyID string, now time.Time) (Advice, error) {
	sum, err := s.summaries.Summary(ctx, familyID, domain.UnitKg, now)
	if err != nil {
		return Advice{}, err
	}
	in := AdviceInputFor(sum)

	key := adviceKey(familyID, in)
	if text, ok := s.cache.Get(key); ok {
		s.rec.ObserveAdvice(AdviceFromCache)
		return Advice{Text: text.(string), Source: AdviceFromCache}, nil
	}

	if s.provider != nil {
		text, err := s.provider.Advice(ctx, in)
		if err == nil && text != "" {
			s.cache.Set(key, text, cache.DefaultExpiration)
			s.rec.ObserveAdvice(AdviceFromProvider)
			return Advice{Text: text, Source: AdviceFromProvider}, nil
		}
		s.log.WithFields(logrus.Fields{"family_id": familyID, "error": err}).Warn("advice provider failed, using fallback")
	}

	text, err := s.fallback.Advice(ctx, in)
	if err != nil {
		return Advice{}, fmt.Errorf("fallback advice: %w", err)
	}
	s.rec.ObserveAdvice(AdviceFromFallback)
	return Advice{Text: text, Source: AdviceFromFallback}, nil
}

// AdviceInputFor extracts the provider input from a summary.
func AdviceInputFor(sum *Summary) domain.AdviceInput {
	return domain.AdviceInput{
		AgeMonths:       sum.AgeMonths,
		WeightKg:        sum.EstimatedWeight.Value,
		DailyNormGrams:  sum.DailyNormGrams,
		ConsumedGrams:   sum.MealPlan.ConsumedGrams,
		GrowthRateGrams: sum.GrowthRateGrams,
		PersonalRate:    sum.PersonalGrowthRate != nil,
	}
}

// adviceKey rounds the inputs so that minute-to-minute drift in the estimate
// reuses the cached answer.
func adviceKey(familyID string, in domain.AdviceInput) string {
	return fmt.Sprintf("%s|%.1f|%.2f|%.0f|%.0f|%.1f",
		familyID, in.AgeMonths, in.WeightKg, in.DailyNormGrams, in.ConsumedGrams, in.GrowthRateGrams)
}
