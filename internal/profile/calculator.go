// Package profile aggregates memory states into the learner's level snapshot.
package profile

import (
	"math"
	"sort"
	"time"

	"github.com/example/lexitrack/internal/curriculum"
	"github.com/example/lexitrack/internal/spaced_repetition"
	"github.com/example/lexitrack/pkg/models"
)

// Mean retrievability a level must exceed to count toward a ceiling
const (
	ComprehensionThreshold = 0.80
	ProductionThreshold    = 0.60
)

// Ceilings is the level snapshot derived from the inventory
type Ceilings struct {
	ComputedLevel        string
	ComprehensionCeiling string
	ProductionCeiling    string
	ReadingLevel         float64
	ListeningLevel       float64
	SpeakingLevel        float64
	WritingLevel         float64
}

// Calculate computes the ceilings and modality levels at time now.
// Unseen items are ignored, as are items tagged with a level outside the scale.
// Both ceilings default to the weakest level.
func Calculate(items []models.LearnableItem, levels curriculum.LevelScale, now time.Time) Ceilings {
	seen := make([]models.LearnableItem, 0, len(items))
	byLevel := make(map[string][]models.LearnableItem, len(levels))
	for _, item := range items {
		if item.Stage == models.StageUnseen {
			continue
		}
		seen = append(seen, item)
		level := levels.Normalize(item.Level)
		if levels.Contains(level) {
			byLevel[level] = append(byLevel[level], item)
		}
	}

	comprehension := ceiling(byLevel, levels, models.SkillRecognition, ComprehensionThreshold, now)
	production := ceiling(byLevel, levels, models.SkillProduction, ProductionThreshold, now)

	var reading, writing []float64
	for i := range seen {
		item := &seen[i]
		if item.Recognition.Reps > 0 {
			reading = append(reading, spaced_repetition.Retrievability(item.Recognition, now))
		}
		if item.WritingProductions > 0 {
			writing = append(writing, spaced_repetition.Retrievability(item.Production, now))
		}
	}

	return Ceilings{
		ComputedLevel:        levels.Higher(comprehension, production),
		ComprehensionCeiling: comprehension,
		ProductionCeiling:    production,
		ReadingLevel:         round2(mean(reading)),
		WritingLevel:         round2(mean(writing)),
		// listening and speaking stay at zero until a voice modality feeds them
	}
}

// ceiling scans from the weakest level and stops at the first populated level
// whose mean retrievability does not exceed threshold
func ceiling(byLevel map[string][]models.LearnableItem, levels curriculum.LevelScale, skill models.Skill, threshold float64, now time.Time) string {
	result := levels.Weakest()
	for _, level := range levels {
		group := byLevel[level]
		if len(group) == 0 {
			continue
		}
		var sum float64
		for i := range group {
			sum += spaced_repetition.Retrievability(*group[i].Memory(skill), now)
		}
		if sum/float64(len(group)) <= threshold {
			break
		}
		result = level
	}
	return result
}

// Recalculate folds a fresh calculation into the stored profile. The streak only moves
// for activity: each timestamp is a review made since prev.LastActiveDate. With no
// activity the streak and the last active date are left as they were.
func Recalculate(prev models.LearnerProfile, items []models.LearnableItem, levels curriculum.LevelScale, totalReviewEvents int, activity []time.Time, now time.Time) models.LearnerProfile {
	c := Calculate(items, levels, now)

	next := prev
	next.ComputedLevel = c.ComputedLevel
	next.ComprehensionCeiling = c.ComprehensionCeiling
	next.ProductionCeiling = c.ProductionCeiling
	next.ReadingLevel = c.ReadingLevel
	next.ListeningLevel = c.ListeningLevel
	next.SpeakingLevel = c.SpeakingLevel
	next.WritingLevel = c.WritingLevel
	next.TotalReviewEvents = totalReviewEvents

	days := make([]time.Time, 0, len(activity))
	for _, t := range activity {
		if prev.LastActiveDate != nil && t.Before(*prev.LastActiveDate) {
			continue
		}
		days = append(days, t.In(now.Location()))
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	for i := range days {
		active := days[i]
		next.CurrentStreak, next.LongestStreak = ComputeStreak(next.LastActiveDate, next.CurrentStreak, next.LongestStreak, active)
		next.LastActiveDate = &active
	}

	next.UpdatedAt = now
	return next
}

// ComputeStreak returns the current and longest daily streak for activity at now.
// Days are calendar days in now's location.
func ComputeStreak(lastActive *time.Time, prevStreak, prevLongest int, now time.Time) (current, longest int) {
	current = 1
	if lastActive != nil {
		switch daysBetween(*lastActive, now) {
		case 0:
			current = max(prevStreak, 1)
		case 1:
			current = prevStreak + 1
		}
	}
	return current, max(current, prevLongest)
}

func daysBetween(from, to time.Time) int {
	from = from.In(to.Location())
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
