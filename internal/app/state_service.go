package app

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"kittenfeed/internal/domain"
)

const maxFamilyIDLen = 64

// StateService encapsulates reading and changing a family's shared state.
// Every write stores the whole document; concurrent writers from different
// processes resolve as last writer wins.
type StateService struct {
	repo    domain.StateRepository
	profile domain.Profile
	now     func() time.Time
	newID   func() string
	rec     Recorder

	// mu serialises read-modify-write cycles within this process.
	mu sync.Mutex
}

// NewStateService creates a StateService backed by the given repository.
// States that do not exist yet are seeded from profile.
func NewStateService(repo domain.StateRepository, profile domain.Profile) *StateService {
	return &StateService{
		repo:    repo,
		profile: profile,
		now:     time.Now,
		newID:   uuid.NewString,
		rec:     noopRecorder{},
	}
}

// WithClock replaces the time source used for entries without a timestamp.
func (s *StateService) WithClock(now func() time.Time) *StateService {
	s.now = now
	return s
}

// WithRecorder attaches a metrics recorder.
func (s *StateService) WithRecorder(r Recorder) *StateService {
	if r != nil {
		s.rec = r
	}
	return s
}

// Profile returns the kitten profile new states are seeded from.
func (s *StateService) Profile() domain.Profile {
	return s.profile
}

// Now returns the service clock's current time.
func (s *StateService) Now() time.Time {
	return s.now()
}

// Get returns the normalised state for familyID. A family that has never
// been saved gets a freshly seeded state, which is not persisted.
func (s *StateService) Get(ctx context.Context, familyID string) (domain.KittenState, error) {
	if err := validFamilyID(familyID); err != nil {
		return domain.KittenState{}, err
	}
	return s.load(ctx, familyID)
}

// Replace stores a whole state document as sent by a client. The document is
// normalised first so the store only ever holds the current shape.
func (s *StateService) Replace(ctx context.Context, familyID string, raw []byte) (domain.KittenState, error) {
	if err := validFamilyID(familyID); err != nil {
		return domain.KittenState{}, err
	}
	st, err := domain.NormalizeState(raw, s.profile)
	if err != nil {
		s.rec.ObserveTransition("replace", err)
		return domain.KittenState{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = s.save(ctx, familyID, st)
	s.rec.ObserveTransition("replace", err)
	return st, err
}

// AddFeeding records a feeding. A zero at means now.
func (s *StateService) AddFeeding(ctx context.Context, familyID string, food domain.FoodType, amount float64, at time.Time) (domain.KittenState, error) {
	at = s.orNow(at)
	id := s.newID()
	return s.mutate(ctx, familyID, "add_feeding", func(st domain.KittenState) (domain.KittenState, error) {
		return st.AddFeeding(id, food, amount, at)
	})
}

// AddWeight records a manual weight measurement in kilograms. A zero at means
// now.
func (s *StateService) AddWeight(ctx context.Context, familyID string, kg float64, at time.Time) (domain.KittenState, error) {
	at = s.orNow(at)
	id := s.newID()
	return s.mutate(ctx, familyID, "add_weight", func(st domain.KittenState) (domain.KittenState, error) {
		return st.AddWeight(id, kg, at)
	})
}

// DeleteFeeding removes a feeding by id.
func (s *StateService) DeleteFeeding(ctx context.Context, familyID, id string) (domain.KittenState, error) {
	return s.mutate(ctx, familyID, "delete_feeding", func(st domain.KittenState) (domain.KittenState, error) {
		return st.DeleteFeeding(id)
	})
}

// DeleteWeight removes a weight measurement by id.
func (s *StateService) DeleteWeight(ctx context.Context, familyID, id string) (domain.KittenState, error) {
	return s.mutate(ctx, familyID, "delete_weight", func(st domain.KittenState) (domain.KittenState, error) {
		return st.DeleteWeight(id)
	})
}

// EditFeedingTime moves a feeding to a new instant.
func (s *StateService) EditFeedingTime(ctx context.Context, familyID, id string, at time.Time) (domain.KittenState, error) {
	return s.mutate(ctx, familyID, "edit_feeding_time", func(st domain.KittenState) (domain.KittenState, error) {
		return st.EditFeedingTime(id, at)
	})
}

// EditWeightTime moves a weight measurement to a new instant.
func (s *StateService) EditWeightTime(ctx context.Context, familyID, id string, at time.Time) (domain.KittenState, error) {
	return s.mutate(ctx, familyID, "edit_weight_time", func(st domain.KittenState) (domain.KittenState, error) {
		return st.EditWeightTime(id, at)
	})
}

// UpdateSettings replaces the family's settings.
func (s *StateService) UpdateSettings(ctx context.Context, familyID string, settings domain.Settings) (domain.KittenState, error) {
	return s.mutate(ctx, familyID, "update_settings", func(st domain.KittenState) (domain.KittenState, error) {
		return st.UpdateSettings(settings)
	})
}

// Families lists every family with a stored state.
func (s *StateService) Families(ctx context.Context) ([]string, error) {
	return s.repo.ListFamilies(ctx)
}

func (s *StateService) mutate(ctx context.Context, familyID, op string, fn func(domain.KittenState) (domain.KittenState, error)) (domain.KittenState, error) {
	if err := validFamilyID(familyID); err != nil {
		return domain.KittenState{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.load(ctx, familyID)
	if err != nil {
		s.rec.ObserveTransition(op, err)
		return domain.KittenState{}, err
	}
	next, err := fn(st)
	if err == nil {
		err = s.save(ctx, familyID, next)
	}
	s.rec.ObserveTransition(op, err)
	if err != nil {
		return domain.KittenState{}, err
	}
	return next, nil
}

func (s *StateService) load(ctx context.Context, familyID string) (domain.KittenState, error) {
	raw, err := s.repo.LoadState(ctx, familyID)
	if err != nil {
		return domain.KittenState{}, fmt.Errorf("load state: %w", err)
	}
	return domain.NormalizeState(raw, s.profile)
}

func (s *StateService) save(ctx context.Context, familyID string, st domain.KittenState) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := s.repo.SaveState(ctx, familyID, raw); err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

func (s *StateService) orNow(at time.Time) time.Time {
	if at.IsZero() {
		return s.now()
	}
	return at
}

func validFamilyID(id string) error {
	if id == "" || len(id) > maxFamilyIDLen {
		return domain.ErrInvalidFamilyID
	}
	return nil
}
