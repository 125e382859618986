package spaced_repetition

import (
	"math"
	"sort"
	"time"

	"github.com/example/lexitrack/pkg/models"
	fsrs "github.com/open-spaced-repetition/go-fsrs/v3"
)

const (
	// DefaultTargetRetention is the recall probability reviews are scheduled for
	DefaultTargetRetention = 0.9
	// DefaultMaxInterval caps the interval at 100 years, as FSRS does
	DefaultMaxInterval = 36500

	day = 24 * time.Hour
)

// Scheduler implements FSRS spaced repetition for one skill of one item.
// It holds no item state; every call is a function of its arguments.
type Scheduler struct {
	// Target probability of recall at the due date
	TargetRetention float64
	// Maximum interval in days
	MaxInterval int

	fsrs *fsrs.FSRS
}

// NewScheduler creates a scheduler with the default 0.90 retention target
func NewScheduler() *Scheduler {
	return NewSchedulerWithRetention(DefaultTargetRetention, DefaultMaxInterval)
}

// NewSchedulerWithRetention creates a scheduler for a custom retention target
func NewSchedulerWithRetention(retention float64, maxInterval int) *Scheduler {
	params := fsrs.DefaultParam()
	params.RequestRetention = retention
	params.MaximumInterval = float64(maxInterval)
	// Fuzzing randomises intervals; scheduling must be reproducible.
	params.EnableFuzz = false

	return &Scheduler{
		TargetRetention: retention,
		MaxInterval:     maxInterval,
		fsrs:            fsrs.NewFSRS(params),
	}
}

// NewMemoryState returns the state of a skill that has never been reviewed
func NewMemoryState(now time.Time) models.MemoryState {
	card := fsrs.NewCard()
	card.Due = now
	return fromCard(card)
}

var ratings = map[models.Grade]fsrs.Rating{
	models.GradeAgain: fsrs.Again,
	models.GradeHard:  fsrs.Hard,
	models.GradeGood:  fsrs.Good,
	models.GradeEasy:  fsrs.Easy,
}

// Schedule applies a review outcome at time now and returns the updated state
// together with the next interval in days
func (s *Scheduler) Schedule(state models.MemoryState, grade models.Grade, now time.Time) (models.MemoryState, int, error) {
	rating, ok := ratings[grade]
	if !ok {
		return state, 0, models.InvalidInput("unknown grade %d", int(grade))
	}

	record := s.fsrs.Repeat(toCard(state), now)
	next := fromCard(record[rating].Card)
	return next, next.ScheduledDays, nil
}

// Retrievability estimates the probability that the skill can be recalled at now.
// Unreviewed states have zero retrievability; states not yet due have full retrievability.
func Retrievability(state models.MemoryState, now time.Time) float64 {
	if state.Reps == 0 {
		return 0
	}
	if !now.After(state.Due) {
		return 1.0
	}
	if state.Stability <= 0 {
		return 0
	}

	elapsed := now.Sub(state.Due).Hours()/24 + float64(state.ScheduledDays)
	r := 1 / (1 + elapsed/(9*state.Stability))
	return math.Max(0, math.Min(1, r))
}

// DueQueue returns one entry per (item, skill) whose due date has passed,
// most overdue first. Items keep their input order on ties.
func DueQueue(items []models.LearnableItem, now time.Time) []models.ReviewQueueItem {
	var queue []models.ReviewQueueItem

	for _, item := range items {
		for _, skill := range []models.Skill{models.SkillRecognition, models.SkillProduction} {
			state := item.Memory(skill)
			if state.Due.After(now) {
				continue
			}
			queue = append(queue, models.ReviewQueueItem{
				ItemID:         item.ID,
				Kind:           item.Kind,
				SurfaceForm:    item.SurfaceForm,
				Reading:        item.Reading,
				Meaning:        item.Meaning,
				Skill:          skill,
				Stage:          item.Stage,
				OverdueDays:    int(now.Sub(state.Due) / day),
				Retrievability: Retrievability(*state, now),
			})
		}
	}

	sort.SliceStable(queue, func(i, j int) bool {
		return queue[i].OverdueDays > queue[j].OverdueDays
	})
	return queue
}

func toCard(state models.MemoryState) fsrs.Card {
	card := fsrs.Card{
		Due:           state.Due,
		Stability:     state.Stability,
		Difficulty:    state.Difficulty,
		ElapsedDays:   nonNegative(state.ElapsedDays),
		ScheduledDays: nonNegative(state.ScheduledDays),
		Reps:          nonNegative(state.Reps),
		Lapses:        nonNegative(state.Lapses),
		State:         fsrs.State(state.State),
	}
	if state.LastReview != nil {
		card.LastReview = *state.LastReview
	}
	return card
}

func fromCard(card fsrs.Card) models.MemoryState {
	state := models.MemoryState{
		Due:           card.Due,
		Stability:     card.Stability,
		Difficulty:    card.Difficulty,
		ElapsedDays:   int(card.ElapsedDays),
		ScheduledDays: int(card.ScheduledDays),
		Reps:          int(card.Reps),
		Lapses:        int(card.Lapses),
		State:         models.MemoryPhase(card.State),
	}
	if !card.LastReview.IsZero() {
		lastReview := card.LastReview
		state.LastReview = &lastReview
	}
	return state
}

func nonNegative(n int) uint64 {
	if n < 0 {
		return 0
	}
	return uint64(n)
}
