package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"kittenfeed/internal/domain"
)

// ReminderService notifies families whose kitten has not been fed for a
// while. Each feeding triggers at most one reminder.
type ReminderService struct {
	summaries *SummaryService
	notifier  domain.Notifier
	after     time.Duration
	sent      *cache.Cache
	log       logrus.FieldLogger
	rec       Recorder
}

// NewReminderService creates a ReminderService. after is used for families
// that have not set their own threshold.
func NewReminderService(summaries *SummaryService, notifier domain.Notifier, after time.Duration, log logrus.FieldLogger) *ReminderService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &ReminderService{
		summaries: summaries,
		notifier:  notifier,
		after:     after,
		sent:      cache.New(72*time.Hour, time.Hour),
		log:       log,
		rec:       noopRecorder{},
	}
}

// WithRecorder attaches a metrics recorder.
func (s *ReminderService) WithRecorder(r Recorder) *ReminderService {
	if r != nil {
		s.rec = r
	}
	return s
}

// Check sends due reminders and returns how many were sent. A failure for one
// family is logged and does not stop the others; all such failures are
// returned joined.
func (s *ReminderService) Check(ctx context.Context, now time.Time) (int, error) {
	families, err := s.summaries.states.Families(ctx)
	if err != nil {
		return 0, fmt.Errorf("list families: %w", err)
	}

	var (
		sent int
		errs []error
	)
	for _, id := range families {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		ok, err := s.checkFamily(ctx, id, now)
		if err != nil {
			s.log.WithFields(logrus.Fields{"family_id": id, "error": err}).Error("reminder failed")
			errs = append(errs, fmt.Errorf("family %s: %w", id, err))
			continue
		}
		if ok {
			sent++
		}
	}
	return sent, errors.Join(errs...)
}

func (s *ReminderService) checkFamily(ctx context.Context, familyID string, now time.Time) (bool, error) {
	st, err := s.summaries.states.Get(ctx, familyID)
	if err != nil {
		return false, err
	}
	cfg := st.Settings
	if !cfg.RemindersEnabled || cfg.TelegramChatID == 0 {
		return false, nil
	}
	last, ok := st.LastFeeding()
	if !ok {
		return false, nil
	}

	after := s.after
	if cfg.ReminderAfterMinutes > 0 {
		after = time.Duration(cfg.ReminderAfterMinutes) * time.Minute
	}
	if now.Sub(last.Time()) < after {
		return false, nil
	}

	key := familyID + "|" + last.ID
	if _, done := s.sent.Get(key); done {
		return false, nil
	}

	sum := s.summaries.summarize(familyID, st, domain.UnitKg, now)
	text := ReminderText(sum.KittenName, last.Time(), now, sum.MealPlan)
	err = s.notifier.Notify(ctx, cfg.TelegramChatID, text)
	if errors.Is(err, domain.ErrNotifierDisabled) {
		// Not delivered, so the feeding stays eligible.
		return false, nil
	}
	s.rec.ObserveReminder(err)
	if err != nil {
		return false, err
	}
	s.sent.SetDefault(key, now)
	s.log.WithFields(logrus.Fields{"family_id": familyID, "feeding_id": last.ID}).Info("reminder sent")
	return true, nil
}

// ReminderText renders the reminder message in Markdown.
func ReminderText(name string, last, now time.Time, plan domain.MealPlan) string {
	interval := domain.IntervalText(last, now)
	text := fmt.Sprintf("🐾 *%s* was last fed %s ago.", name, interval)
	if interval == "just now" {
		text = fmt.Sprintf("🐾 *%s* was fed just now.", name)
	}
	if plan.NextMealGrams > 0 {
		text += fmt.Sprintf("\n\nNext portion: **%.0f g** dry equivalent (%.0f g left today).", plan.NextMealGrams, plan.RemainingGrams)
	}
	return text
}
