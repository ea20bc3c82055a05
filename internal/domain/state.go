package domain

import (
	"math"
	"time"
)

const (
	dateLayout = "2006-01-02"
	// isoLayout matches JavaScript's Date.toISOString.
	isoLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Profile holds the fixed facts about the kitten that seed a new state.
type Profile struct {
	Name              string
	FamilyID          string
	BirthDate         time.Time
	InitialWeight     float64
	InitialWeightDate time.Time
}

// DefaultProfile is used when no profile file is configured.
func DefaultProfile() Profile {
	return Profile{
		Name:              "Ozzy",
		FamilyID:          "ozzy-home",
		BirthDate:         time.Date(2025, time.August, 4, 0, 0, 0, 0, time.UTC),
		InitialWeight:     2.5,
		InitialWeightDate: time.Date(2025, time.December, 26, 0, 0, 0, 0, time.UTC),
	}
}

// Settings are per-family feature flags.
type Settings struct {
	RemindersEnabled     bool  `json:"remindersEnabled"`
	ReminderAfterMinutes int   `json:"reminderAfterMinutes,omitempty"`
	TelegramChatID       int64 `json:"telegramChatId,omitempty"`
}

// KittenState is the whole shared state of one family. It is stored and
// synchronised as a single JSON document.
//
// LastManualWeight and LastWeightDate are derived from WeightHistory and kept
// for clients that still read the older shape.
type KittenState struct {
	BirthDate        string       `json:"birthDate"`
	LastManualWeight float64      `json:"lastManualWeight"`
	LastWeightDate   string       `json:"lastWeightDate"`
	History          []FeedingLog `json:"history"`
	WeightHistory    []WeightLog  `json:"weightHistory"`
	Settings         Settings     `json:"settings"`
}

// NewState returns a fresh state seeded with the profile's initial weight.
func NewState(p Profile) KittenState {
	s := KittenState{
		BirthDate:     p.BirthDate.UTC().Format(dateLayout),
		History:       []FeedingLog{},
		WeightHistory: LegacyHistory(p.InitialWeight, p.InitialWeightDate),
	}
	return s.canonical()
}

// Birth returns the birth date at UTC midnight, or the zero time when the
// stored value cannot be parsed.
func (s KittenState) Birth() time.Time {
	t, _ := parseDate(s.BirthDate)
	return t
}

// EstimatedWeight projects the current weight at now.
func (s KittenState) EstimatedWeight(now time.Time) float64 {
	return EstimateWeight(s.WeightHistory, s.Birth(), now)
}

// LastFeeding returns the most recent feeding, if any.
func (s KittenState) LastFeeding() (FeedingLog, bool) {
	if len(s.History) == 0 {
		return FeedingLog{}, false
	}
	return s.History[0], true
}

// AddFeeding returns a new state with the feeding appended.
func (s KittenState) AddFeeding(id string, food FoodType, amount float64, at time.Time) (KittenState, error) {
	log, err := NewFeedingLog(id, food, amount, at)
	if err != nil {
		return s, err
	}
	next := s.clone()
	next.History = append(next.History, log)
	return next.canonical(), nil
}

// AddWeight returns a new state with the measurement appended.
func (s KittenState) AddWeight(id string, kg float64, at time.Time) (KittenState, error) {
	if !validWeight(kg) {
		return s, ErrInvalidWeight
	}
	next := s.clone()
	next.WeightHistory = append(next.WeightHistory, WeightLog{ID: id, Timestamp: at.UnixMilli(), Weight: kg})
	return next.canonical(), nil
}

// DeleteFeeding returns a new state without the feeding id.
func (s KittenState) DeleteFeeding(id string) (KittenState, error) {
	i := s.feedingIndex(id)
	if i < 0 {
		return s, ErrEntryNotFound
	}
	next := s.clone()
	next.History = append(next.History[:i], next.History[i+1:]...)
	return next.canonical(), nil
}

// DeleteWeight returns a new state without the measurement id. The initial
// measurement and the last remaining one are refused.
func (s KittenState) DeleteWeight(id string) (KittenState, error) {
	if id == InitialWeightID {
		return s, ErrInitialWeightProtected
	}
	i := s.weightIndex(id)
	if i < 0 {
		return s, ErrEntryNotFound
	}
	if len(s.WeightHistory) <= 1 {
		return s, ErrLastWeightEntry
	}
	next := s.clone()
	next.WeightHistory = append(next.WeightHistory[:i], next.WeightHistory[i+1:]...)
	return next.canonical(), nil
}

// EditFeedingTime returns a new state with the feeding moved to at.
func (s KittenState) EditFeedingTime(id string, at time.Time) (KittenState, error) {
	i := s.feedingIndex(id)
	if i < 0 {
		return s, ErrEntryNotFound
	}
	next := s.clone()
	next.History[i].Timestamp = at.UnixMilli()
	return next.canonical(), nil
}

// EditWeightTime returns a new state with the measurement moved to at.
func (s KittenState) EditWeightTime(id string, at time.Time) (KittenState, error) {
	i := s.weightIndex(id)
	if i < 0 {
		return s, ErrEntryNotFound
	}
	next := s.clone()
	next.WeightHistory[i].Timestamp = at.UnixMilli()
	return next.canonical(), nil
}

// UpdateSettings returns a new state with settings replaced.
func (s KittenState) UpdateSettings(settings Settings) (KittenState, error) {
	if settings.ReminderAfterMinutes < 0 {
		return s, ErrInvalidSettings
	}
	next := s.clone()
	next.Settings = settings
	return next.canonical(), nil
}

func (s KittenState) feedingIndex(id string) int {
	for i, l := range s.History {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (s KittenState) weightIndex(id string) int {
	for i, l := range s.WeightHistory {
		if l.ID == id {
			return i
		}
	}
	return -1
}

func (s KittenState) clone() KittenState {
	next := s
	next.History = make([]FeedingLog, len(s.History))
	copy(next.History, s.History)
	next.WeightHistory = make([]WeightLog, len(s.WeightHistory))
	copy(next.WeightHistory, s.WeightHistory)
	return next
}

// canonical sorts both logs newest first and refreshes the cached last
// manual weight. It sorts in place, so callers pass a clone.
func (s KittenState) canonical() KittenState {
	if s.History == nil {
		s.History = []FeedingLog{}
	}
	sortFeedingsDesc(s.History)
	s.WeightHistory = sortedWeightsDesc(s.WeightHistory)
	if len(s.WeightHistory) > 0 {
		last := s.WeightHistory[0]
		s.LastManualWeight = last.Weight
		s.LastWeightDate = last.Time().UTC().Format(isoLayout)
	}
	return s
}

func validWeight(kg float64) bool {
	return kg > 0 && !math.IsInf(kg, 1)
}

func parseDate(v string) (time.Time, error) {
	if t, err := time.ParseInLocation(dateLayout, v, time.UTC); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339Nano, v)
}
