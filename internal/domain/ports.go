package domain

import "context"

// StateRepository persists one opaque JSON state document per family.
// LoadState returns nil, nil for a family that has never been saved.
type StateRepository interface {
	LoadState(ctx context.Context, familyID string) ([]byte, error)
	SaveState(ctx context.Context, familyID string, state []byte) error
	ListFamilies(ctx context.Context) ([]string, error)
}

// AdviceInput is the snapshot an advice provider reasons about.
type AdviceInput struct {
	AgeMonths       float64
	WeightKg        float64
	DailyNormGrams  float64
	ConsumedGrams   float64
	GrowthRateGrams float64
	PersonalRate    bool
}

// AdviceProvider produces a short feeding recommendation.
type AdviceProvider interface {
	Advice(ctx context.Context, in AdviceInput) (string, error)
}

// Notifier delivers a text message to a chat. A notifier with no delivery
// channel configured returns ErrNotifierDisabled.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}
