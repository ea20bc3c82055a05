package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"kittenfeed/internal/app"
	"kittenfeed/internal/domain"
)

type mockStateRepo struct {
	loadFn func(ctx context.Context, familyID string) ([]byte, error)
	saveFn func(ctx context.Context, familyID string, state []byte) error
	listFn func(ctx context.Context) ([]string, error)
}

func (m *mockStateRepo) LoadState(ctx context.Context, familyID string) ([]byte, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx, familyID)
	}
	return nil, nil
}

func (m *mockStateRepo) SaveState(ctx context.Context, familyID string, state []byte) error {
	if m.saveFn != nil {
		return m.saveFn(ctx, familyID, state)
	}
	return nil
}

func (m *mockStateRepo) ListFamilies(ctx context.Context) ([]string, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

// mapRepo wires a mockStateRepo to an in-memory map.
func mapRepo() (*mockStateRepo, map[string][]byte) {
	var mu sync.Mutex
	data := map[string][]byte{}
	return &mockStateRepo{
		loadFn: func(_ context.Context, id string) ([]byte, error) {
			mu.Lock()
			defer mu.Unlock()
			return data[id], nil
		},
		saveFn: func(_ context.Context, id string, state []byte) error {
			mu.Lock()
			defer mu.Unlock()
			data[id] = state
			return nil
		},
		listFn: func(_ context.Context) ([]string, error) {
			mu.Lock()
			defer mu.Unlock()
			ids := make([]string, 0, len(data))
			for id := range data {
				ids = append(ids, id)
			}
			return ids, nil
		},
	}, data
}

var fixedNow = time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)

func newStateService(repo domain.StateRepository) *app.StateService {
	return app.NewStateService(repo, domain.DefaultProfile()).
		WithClock(func() time.Time { return fixedNow })
}

func TestGetState_SeedsWithoutSaving(t *testing.T) {
	saved := false
	repo := &mockStateRepo{
		saveFn: func(context.Context, string, []byte) error { saved = true; return nil },
	}
	svc := newStateService(repo)

	st, err := svc.Get(context.Background(), "ozzy-home")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.LastManualWeight != 2.5 {
		t.Errorf("expected seeded weight 2.5, got %v", st.LastManualWeight)
	}
	if saved {
		t.Error("Get must not persist")
	}
}

func TestGetState_FamilyIDValidation(t *testing.T) {
	svc := newStateService(&mockStateRepo{})
	for _, id := range []string{"", strings.Repeat("x", 65)} {
		if _, err := svc.Get(context.Background(), id); !errors.Is(err, domain.ErrInvalidFamilyID) {
			t.Errorf("Get(%q) err = %v", id, err)
		}
	}
}

func TestGetState_RepoError(t *testing.T) {
	repo := &mockStateRepo{
		loadFn: func(context.Context, string) ([]byte, error) { return nil, errors.New("db down") },
	}
	if _, err := newStateService(repo).Get(context.Background(), "f"); err == nil {
		t.Fatal("expected error from repo")
	}
}

func TestReplaceState_Normalises(t *testing.T) {
	repo, data := mapRepo()
	svc := newStateService(repo)

	legacy := `{"birthDate":"2025-08-04","lastManualWeight":3,"lastWeightDate":"2026-01-01T00:00:00.000Z","history":[]}`
	if _, err := svc.Replace(context.Background(), "f", []byte(legacy)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var stored domain.KittenState
	if err := json.Unmarshal(data["f"], &stored); err != nil {
		t.Fatalf("stored blob is not JSON: %v", err)
	}
	if len(stored.WeightHistory) != 1 || stored.WeightHistory[0].ID != domain.InitialWeightID {
		t.Errorf("stored weight history = %+v", stored.WeightHistory)
	}
}

func TestReplaceState_Malformed(t *testing.T) {
	repo, data := mapRepo()
	_, err := newStateService(repo).Replace(context.Background(), "f", []byte("{"))
	if !errors.Is(err, domain.ErrMalformedState) {
		t.Fatalf("err = %v; want ErrMalformedState", err)
	}
	if _, ok := data["f"]; ok {
		t.Error("malformed state was saved")
	}
}

func TestAddFeeding_PersistsAndUsesClock(t *testing.T) {
	repo, _ := mapRepo()
	svc := newStateService(repo)
	ctx := context.Background()

	st, err := svc.AddFeeding(ctx, "f", domain.FoodPouch, 0, time.Time{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.History) != 1 {
		t.Fatalf("expected 1 feeding, got %d", len(st.History))
	}
	f := st.History[0]
	if f.ID == "" || f.EquivalentGrams != 20 || !f.Time().Equal(fixedNow) {
		t.Errorf("unexpected feeding: %+v", f)
	}

	again, err := svc.Get(ctx, "f")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(again.History) != 1 || again.History[0].ID != f.ID {
		t.Errorf("feeding not persisted: %+v", again.History)
	}
}

func TestAddFeeding_ValidationNotSaved(t *testing.T) {
	repo, data := mapRepo()
	svc := newStateService(repo)

	_, err := svc.AddFeeding(context.Background(), "f", domain.FoodDry, -3, time.Time{})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Fatalf("err = %v; want ErrInvalidAmount", err)
	}
	if len(data) != 0 {
		t.Error("failed transition was saved")
	}
}

func TestWeightLifecycle(t *testing.T) {
	repo, _ := mapRepo()
	svc := newStateService(repo)
	ctx := context.Background()

	st, err := svc.AddWeight(ctx, "f", 2.9, fixedNow.Add(-time.Hour))
	if err != nil {
		t.Fatalf("AddWeight: %v", err)
	}
	id := st.WeightHistory[0].ID

	st, err = svc.EditWeightTime(ctx, "f", id, fixedNow.Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("EditWeightTime: %v", err)
	}
	if st.WeightHistory[0].Timestamp != fixedNow.Add(-2*time.Hour).UnixMilli() {
		t.Errorf("timestamp not edited: %+v", st.WeightHistory[0])
	}

	if _, err := svc.DeleteWeight(ctx, "f", domain.InitialWeightID); !errors.Is(err, domain.ErrInitialWeightProtected) {
		t.Errorf("delete initial err = %v", err)
	}
	st, err = svc.DeleteWeight(ctx, "f", id)
	if err != nil {
		t.Fatalf("DeleteWeight: %v", err)
	}
	if len(st.WeightHistory) != 1 || st.LastManualWeight != 2.5 {
		t.Errorf("after delete: %+v", st.WeightHistory)
	}
}

func TestFeedingEditAndDelete(t *testing.T) {
	repo, _ := mapRepo()
	svc := newStateService(repo)
	ctx := context.Background()

	st, _ := svc.AddFeeding(ctx, "f", domain.FoodDry, 25, fixedNow.Add(-3*time.Hour))
	id := st.History[0].ID

	st, err := svc.EditFeedingTime(ctx, "f", id, fixedNow.Add(-time.Hour))
	if err != nil {
		t.Fatalf("EditFeedingTime: %v", err)
	}
	if !st.History[0].Time().Equal(fixedNow.Add(-time.Hour)) {
		t.Errorf("time not edited: %v", st.History[0].Time())
	}

	st, err = svc.DeleteFeeding(ctx, "f", id)
	if err != nil {
		t.Fatalf("DeleteFeeding: %v", err)
	}
	if len(st.History) != 0 {
		t.Errorf("feeding not deleted: %+v", st.History)
	}
	if _, err := svc.DeleteFeeding(ctx, "f", id); !errors.Is(err, domain.ErrEntryNotFound) {
		t.Errorf("second delete err = %v", err)
	}
}

type transitionCall struct {
	op  string
	err error
}

type mockRecorder struct {
	mu          sync.Mutex
	transitions []transitionCall
	reminders   []error
	advice      []string
}

func (m *mockRecorder) ObserveTransition(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transitions = append(m.transitions, transitionCall{op, err})
}

func (m *mockRecorder) ObserveReminder(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders = append(m.reminders, err)
}

func (m *mockRecorder) ObserveAdvice(source string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.advice = append(m.advice, source)
}

func TestStateService_RecordsTransitions(t *testing.T) {
	repo, _ := mapRepo()
	rec := &mockRecorder{}
	svc := newStateService(repo).WithRecorder(rec)
	ctx := context.Background()

	_, _ = svc.UpdateSettings(ctx, "f", domain.Settings{RemindersEnabled: true})
	_, _ = svc.DeleteFeeding(ctx, "f", "missing")

	if len(rec.transitions) != 2 {
		t.Fatalf("expected 2 transitions, got %d", len(rec.transitions))
	}
	if rec.transitions[0].op != "update_settings" || rec.transitions[0].err != nil {
		t.Errorf("first = %+v", rec.transitions[0])
	}
	if rec.transitions[1].op != "delete_feeding" || !errors.Is(rec.transitions[1].err, domain.ErrEntryNotFound) {
		t.Errorf("second = %+v", rec.transitions[1])
	}
}
