package curriculum

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/example/lexitrack/internal/spaced_repetition"
	"github.com/example/lexitrack/pkg/models"
)

// Score adjustments applied on top of the frequency score
const (
	CurrentLevelBonus      = 0.5
	HighFrequencyBonus     = 0.1
	HighFrequencyMaxRank   = 100
	PrerequisitesMetBonus  = 0.3
	MissingPrereqPenalty   = 2.0
	ActiveRegressionFactor = 0.3
	AvoidedGrammarBonus    = 0.2
)

// BehaviorSignals exposes the item sets produced by the behavioral pattern detectors
type BehaviorSignals interface {
	RegressedItemIDs() map[int64]bool
	AvoidedItemIDs() map[int64]bool
}

// StaticSignals is a fixed set of behavioral signals
type StaticSignals struct {
	Regressed map[int64]bool
	Avoided   map[int64]bool
}

func (s StaticSignals) RegressedItemIDs() map[int64]bool { return s.Regressed }
func (s StaticSignals) AvoidedItemIDs() map[int64]bool   { return s.Avoided }

// SignalsFromIDs builds static signals from item id lists; with both lists empty it returns nil
func SignalsFromIDs(regressed, avoided []int64) BehaviorSignals {
	if len(regressed) == 0 && len(avoided) == 0 {
		return nil
	}
	return StaticSignals{Regressed: idSet(regressed), Avoided: idSet(avoided)}
}

func idSet(ids []int64) map[int64]bool {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// RecommendInput is everything the recommender needs for one batch
type RecommendInput struct {
	Bubble            models.KnowledgeBubble
	KnownSurfaceForms map[string]bool
	KnownPatternIDs   map[string]bool
	Cap               int
	Signals           BehaviorSignals // optional
}

type candidate struct {
	rec     models.Recommendation
	score   float64
	reasons []string
}

// FrequencyScore is 1/log2(rank+2); rarer entries score lower
func FrequencyScore(rank int) float64 {
	return 1.0 / math.Log2(float64(rank)+2)
}

// Recommend ranks unknown corpus entries at the frontier and current levels and returns at most Cap of them.
// Ties keep the order: frontier vocabulary, current vocabulary, frontier grammar, current grammar,
// each in corpus order.
func Recommend(input RecommendInput, corpus *Corpus) []models.Recommendation {
	if input.Cap <= 0 {
		return []models.Recommendation{}
	}

	targets := []string{input.Bubble.FrontierLevel}
	if input.Bubble.CurrentLevel != input.Bubble.FrontierLevel {
		targets = append(targets, input.Bubble.CurrentLevel)
	}

	var candidates []*candidate

	for _, level := range targets {
		vocab, _ := corpus.ByLevel(level)
		for _, v := range vocab {
			if input.KnownSurfaceForms[v.SurfaceForm] {
				continue
			}
			c := newCandidate(models.Recommendation{
				Kind:             models.KindLexical,
				SurfaceForm:      v.SurfaceForm,
				Reading:          v.Reading,
				Meaning:          v.Meaning,
				Level:            v.Level,
				FrequencyRank:    v.FrequencyRank,
				PrerequisitesMet: true,
			}, level == input.Bubble.CurrentLevel)
			candidates = append(candidates, c)
		}
	}

	for _, level := range targets {
		_, grammar := corpus.ByLevel(level)
		for _, g := range grammar {
			if input.KnownPatternIDs[g.PatternID] {
				continue
			}
			c := newCandidate(models.Recommendation{
				Kind:          models.KindGrammar,
				SurfaceForm:   g.Name,
				PatternID:     g.PatternID,
				Name:          g.Name,
				Meaning:       g.Description,
				Level:         g.Level,
				FrequencyRank: g.FrequencyRank,
			}, level == input.Bubble.CurrentLevel)

			met, missing := CheckPrerequisites(g.PatternID, input.KnownPatternIDs, corpus)
			c.rec.PrerequisitesMet = met
			if met {
				c.score += PrerequisitesMetBonus
				c.reasons = append(c.reasons, "all prerequisites met")
			} else {
				c.score -= MissingPrereqPenalty
				c.reasons = append(c.reasons, "missing prerequisites: "+strings.Join(missing, ", "))
			}
			candidates = append(candidates, c)
		}
	}

	applySignals(candidates, input.Signals)

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > input.Cap {
		candidates = candidates[:input.Cap]
	}

	recs := make([]models.Recommendation, 0, len(candidates))
	for _, c := range candidates {
		c.rec.Priority = round2(c.score)
		c.rec.Reason = strings.Join(c.reasons, "; ")
		c.rec.Status = models.StatusQueued
		recs = append(recs, c.rec)
	}
	return recs
}

func newCandidate(rec models.Recommendation, currentLevel bool) *candidate {
	c := &candidate{rec: rec, score: FrequencyScore(rec.FrequencyRank)}

	if currentLevel {
		c.score += CurrentLevelBonus
		c.reasons = append(c.reasons, "fills gap in current level")
	} else {
		c.reasons = append(c.reasons, "frontier level (i+1)")
	}

	if rec.FrequencyRank <= HighFrequencyMaxRank {
		c.score += HighFrequencyBonus
		c.reasons = append(c.reasons, "high frequency")
	}

	return c
}

// applySignals discounts every candidate while any regression is active and
// resurfaces grammar while any avoidance is active.
func applySignals(candidates []*candidate, signals BehaviorSignals) {
	if signals == nil {
		return
	}
	regressing := len(signals.RegressedItemIDs()) > 0
	avoiding := len(signals.AvoidedItemIDs()) > 0

	for _, c := range candidates {
		if regressing {
			c.score -= ActiveRegressionFactor
		}
		if avoiding && c.rec.Kind == models.KindGrammar {
			c.score += AvoidedGrammarBonus
		}
	}
}

// CheckPrerequisites reports whether every prerequisite of a pattern is known,
// and which ones are missing, in declaration order.
func CheckPrerequisites(patternID string, known map[string]bool, corpus *Corpus) (bool, []string) {
	var missing []string
	for _, prereq := range corpus.Prerequisites(patternID) {
		if !known[prereq] {
			missing = append(missing, prereq)
		}
	}
	return len(missing) == 0, missing
}

// IntroduceItem turns an accepted recommendation into a new inventory item at stage Introduced
func IntroduceItem(rec models.Recommendation, now time.Time) (models.LearnableItem, error) {
	item := models.LearnableItem{
		Kind:          rec.Kind,
		SurfaceForm:   rec.SurfaceForm,
		Reading:       rec.Reading,
		Meaning:       rec.Meaning,
		Level:         rec.Level,
		FrequencyRank: rec.FrequencyRank,
		Stage:         models.StageIntroduced,
		Recognition:   spaced_repetition.NewMemoryState(now),
		Production:    spaced_repetition.NewMemoryState(now),
		ContextTypes:  models.ContextTypes{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	switch rec.Kind {
	case models.KindLexical:
		if rec.SurfaceForm == "" {
			return models.LearnableItem{}, models.InvalidInput("lexical recommendation has no surface form")
		}
	case models.KindGrammar:
		if rec.PatternID == "" {
			return models.LearnableItem{}, models.InvalidInput("grammar recommendation has no pattern id")
		}
		item.PatternID = rec.PatternID
		if item.SurfaceForm == "" {
			item.SurfaceForm = rec.PatternID
		}
	default:
		return models.LearnableItem{}, fmt.Errorf("%w: unknown item kind %q", models.ErrInvalidInput, rec.Kind)
	}

	return item, nil
}
