package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/lexitrack/internal/logger"
	"github.com/example/lexitrack/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReviews struct {
	queue      []models.ReviewQueueItem
	queueErr   error
	recomputes int
}

func (f *fakeReviews) Queue(context.Context) ([]models.ReviewQueueItem, error) {
	return f.queue, f.queueErr
}

func (f *fakeReviews) Recompute(context.Context) (*models.LearnerProfile, error) {
	f.recomputes++
	return &models.LearnerProfile{ID: 1, CurrentStreak: 4}, nil
}

func (f *fakeReviews) Profile(context.Context) (*models.LearnerProfile, error) {
	return &models.LearnerProfile{ID: 1, CurrentStreak: 4}, nil
}

type fakeRecs []models.Recommendation

func (f fakeRecs) Queued(context.Context) ([]models.Recommendation, error) {
	return f, nil
}

type fakeNotifier struct {
	sent []Reminder
	err  error
}

func (f *fakeNotifier) SendReminder(_ context.Context, r Reminder) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, r)
	return nil
}

func newTestScheduler(reviews Reviews, recs Recommendations, n Notifier, hour int) *Scheduler {
	s := New(reviews, recs, n, DefaultConfig(), logger.Nop())
	s.clock = func() time.Time {
		return time.Date(2024, 3, 1, hour, 30, 0, 0, time.UTC)
	}
	return s
}

func TestRunManualCheckSendsReminder(t *testing.T) {
	reviews := &fakeReviews{queue: make([]models.ReviewQueueItem, 7)}
	recs := fakeRecs{
		{SurfaceForm: "本"}, {SurfaceForm: "水"}, {SurfaceForm: "山"}, {SurfaceForm: "川"},
	}
	n := &fakeNotifier{}
	s := newTestScheduler(reviews, recs, n, 10)

	sent, err := s.RunManualCheck(context.Background())
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, n.sent, 1)
	assert.Equal(t, 7, n.sent[0].DueCount)
	assert.Equal(t, 4, n.sent[0].Streak)
	assert.Len(t, n.sent[0].Recommendations, DefaultReminderRecommendations)
	assert.Zero(t, reviews.recomputes, "a reminder must not touch the profile")
}

func TestRunManualCheckNothingDue(t *testing.T) {
	n := &fakeNotifier{}
	s := newTestScheduler(&fakeReviews{}, nil, n, 10)

	sent, err := s.RunManualCheck(context.Background())
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, n.sent)
}

func TestRunManualCheckErrors(t *testing.T) {
	t.Run("no notifier", func(t *testing.T) {
		s := newTestScheduler(&fakeReviews{}, nil, nil, 10)
		_, err := s.RunManualCheck(context.Background())
		assert.Error(t, err)
	})

	t.Run("queue failure", func(t *testing.T) {
		s := newTestScheduler(&fakeReviews{queueErr: errors.New("db down")}, nil, &fakeNotifier{}, 10)
		_, err := s.RunManualCheck(context.Background())
		assert.ErrorContains(t, err, "db down")
	})

	t.Run("send failure", func(t *testing.T) {
		reviews := &fakeReviews{queue: make([]models.ReviewQueueItem, 1)}
		s := newTestScheduler(reviews, nil, &fakeNotifier{err: errors.New("blocked")}, 10)
		sent, err := s.RunManualCheck(context.Background())
		assert.False(t, sent)
		assert.ErrorContains(t, err, "blocked")
	})
}

func TestReminderRespectsNotificationHours(t *testing.T) {
	tests := []struct {
		hour int
		want int
	}{
		{hour: 3, want: 0},
		{hour: 4, want: 1},
		{hour: 12, want: 1},
		{hour: 18, want: 1},
		{hour: 19, want: 0},
	}

	for _, tt := range tests {
		reviews := &fakeReviews{queue: make([]models.ReviewQueueItem, 2)}
		n := &fakeNotifier{}
		s := newTestScheduler(reviews, nil, n, tt.hour)

		s.checkAndSendReminders()
		assert.Len(t, n.sent, tt.want, "hour %d", tt.hour)
	}
}

func TestScheduledRecompute(t *testing.T) {
	reviews := &fakeReviews{}
	s := newTestScheduler(reviews, nil, nil, 10)

	s.recompute()
	assert.Equal(t, 1, reviews.recomputes)
}

func TestNewAppliesDefaults(t *testing.T) {
	s := New(&fakeReviews{}, nil, nil, Config{}, logger.Nop())
	assert.Equal(t, DefaultRecomputeInterval, s.cfg.RecomputeInterval)
	assert.Equal(t, time.UTC, s.cfg.Location)
}

func TestStartAndStop(t *testing.T) {
	s := newTestScheduler(&fakeReviews{}, nil, &fakeNotifier{}, 10)
	require.NoError(t, s.Start())
	s.Stop()
}
