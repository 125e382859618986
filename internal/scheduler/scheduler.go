package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/example/lexitrack/internal/logger"
	"github.com/example/lexitrack/pkg/models"
	"github.com/go-co-op/gocron"
)

// Notification window defaults, in hours of the scheduler's location
const (
	DefaultNotificationStartHour   = 4
	DefaultNotificationEndHour     = 18
	DefaultRecomputeInterval       = time.Hour
	DefaultReminderRecommendations = 3
)

// Config controls the periodic jobs
type Config struct {
	RecomputeInterval       time.Duration
	NotificationStartHour   int
	NotificationEndHour     int
	ReminderRecommendations int
	Location                *time.Location
}

// DefaultConfig returns the default scheduler configuration
func DefaultConfig() Config {
	return Config{
		RecomputeInterval:       DefaultRecomputeInterval,
		NotificationStartHour:   DefaultNotificationStartHour,
		NotificationEndHour:     DefaultNotificationEndHour,
		ReminderRecommendations: DefaultReminderRecommendations,
		Location:                time.UTC,
	}
}

// Reminder is what the learner is told when reviews are waiting
type Reminder struct {
	DueCount        int
	Streak          int
	Recommendations []models.Recommendation
}

// Notifier delivers reminders
type Notifier interface {
	SendReminder(ctx context.Context, r Reminder) error
}

// Reviews is the part of the review service the jobs drive
type Reviews interface {
	Queue(ctx context.Context) ([]models.ReviewQueueItem, error)
	Recompute(ctx context.Context) (*models.LearnerProfile, error)
	Profile(ctx context.Context) (*models.LearnerProfile, error)
}

// Recommendations lists the queued recommendations
type Recommendations interface {
	Queued(ctx context.Context) ([]models.Recommendation, error)
}

// Scheduler runs profile recomputation and review reminders in the background
type Scheduler struct {
	scheduler *gocron.Scheduler
	reviews   Reviews
	recs      Recommendations
	notifier  Notifier
	cfg       Config
	log       *logger.Logger
	clock     func() time.Time
}

// New creates a new scheduler instance; notifier and recs may be nil
func New(reviews Reviews, recs Recommendations, notifier Notifier, cfg Config, log *logger.Logger) *Scheduler {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.RecomputeInterval <= 0 {
		cfg.RecomputeInterval = DefaultRecomputeInterval
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(cfg.Location),
		reviews:   reviews,
		recs:      recs,
		notifier:  notifier,
		cfg:       cfg,
		log:       log,
		clock:     time.Now,
	}
}

// Start begins running all scheduled tasks without blocking
func (s *Scheduler) Start() error {
	if _, err := s.scheduler.Every(s.cfg.RecomputeInterval).Do(s.recompute); err != nil {
		return fmt.Errorf("schedule recompute job: %w", err)
	}
	if s.notifier != nil {
		if _, err := s.scheduler.Every(1).Hour().Do(s.checkAndSendReminders); err != nil {
			return fmt.Errorf("schedule reminder job: %w", err)
		}
	}

	s.scheduler.StartAsync()
	s.log.Info("scheduler started",
		"recompute_interval", s.cfg.RecomputeInterval.String(),
		"reminders", s.notifier != nil)
	return nil
}

// Stop terminates all scheduled tasks
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

func (s *Scheduler) recompute() {
	if _, err := s.reviews.Recompute(context.Background()); err != nil {
		s.log.Warn("scheduled profile recompute failed", "error", err)
	}
}

// checkAndSendReminders sends a reminder when reviews are due inside the notification window
func (s *Scheduler) checkAndSendReminders() {
	hour := s.clock().In(s.cfg.Location).Hour()
	if !s.withinNotificationHours(hour) {
		s.log.Debug("outside notification hours, skipping reminders",
			"hour", hour,
			"start", s.cfg.NotificationStartHour,
			"end", s.cfg.NotificationEndHour)
		return
	}

	if _, err := s.RunManualCheck(context.Background()); err != nil {
		s.log.Warn("reminder check failed", "error", err)
	}
}

func (s *Scheduler) withinNotificationHours(hour int) bool {
	return hour >= s.cfg.NotificationStartHour && hour <= s.cfg.NotificationEndHour
}

// RunManualCheck sends a reminder now if any review is due, ignoring the notification window.
// It reports whether a reminder was sent.
func (s *Scheduler) RunManualCheck(ctx context.Context) (bool, error) {
	if s.notifier == nil {
		return false, fmt.Errorf("no notifier configured")
	}

	queue, err := s.reviews.Queue(ctx)
	if err != nil {
		return false, fmt.Errorf("build review queue: %w", err)
	}
	if len(queue) == 0 {
		return false, nil
	}

	reminder := Reminder{DueCount: len(queue)}

	if s.recs != nil {
		recs, err := s.recs.Queued(ctx)
		if err != nil {
			s.log.Warn("could not list recommendations for reminder", "error", err)
		}
		if n := s.cfg.ReminderRecommendations; len(recs) > n {
			recs = recs[:n]
		}
		reminder.Recommendations = recs
	}

	if profile, err := s.reviews.Profile(ctx); err == nil {
		reminder.Streak = profile.CurrentStreak
	}

	if err := s.notifier.SendReminder(ctx, reminder); err != nil {
		return false, fmt.Errorf("send reminder: %w", err)
	}
	s.log.Info("reminder sent", "due", reminder.DueCount, "recommendations", len(reminder.Recommendations))
	return true, nil
}
