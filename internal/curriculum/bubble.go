package curriculum

import (
	"fmt"
	"math"

	"github.com/example/lexitrack/pkg/models"
)

// CoverageThreshold is the share of a level that must be known for it to count as mastered
const CoverageThreshold = 0.80

const (
	maxMissingVocabulary = 10
	maxMissingGrammar    = 5
)

// IsKnown reports whether the stage counts toward coverage
func IsKnown(stage models.MasteryStage) bool {
	return stage >= models.StageApprentice3 && stage <= models.StageBurned
}

// IsProductionReady reports whether the stage counts as production ready
func IsProductionReady(stage models.MasteryStage) bool {
	return stage >= models.StageJourneyman && stage <= models.StageBurned
}

// ComputeBubble measures the inventory against the reference corpus.
// Items with an empty level count as the weakest level. Items tagged with a level
// outside the scale only contribute to the overall coverage.
func ComputeBubble(items []models.LearnableItem, corpus *Corpus) models.KnowledgeBubble {
	levels := corpus.Levels

	byLevel := make(map[string][]models.LearnableItem, len(levels))
	totalKnown := 0
	for _, item := range items {
		level := levels.Normalize(item.Level)
		byLevel[level] = append(byLevel[level], item)
		if IsKnown(item.Stage) {
			totalKnown++
		}
	}

	breakdowns := make([]models.LevelBreakdown, 0, len(levels))
	for _, level := range levels {
		total := corpus.Total(level)
		known, ready := 0, 0
		for _, item := range byLevel[level] {
			if IsKnown(item.Stage) {
				known++
			}
			if IsProductionReady(item.Stage) {
				ready++
			}
		}
		breakdowns = append(breakdowns, models.LevelBreakdown{
			Level:               level,
			TotalReferenceItems: total,
			KnownItems:          known,
			ProductionReady:     ready,
			Coverage:            ratio(known, total),
		})
	}

	currentIdx := 0
	for i, b := range breakdowns {
		if b.Coverage < CoverageThreshold {
			break
		}
		currentIdx = i
	}
	current := levels[currentIdx]

	return models.KnowledgeBubble{
		LevelBreakdowns:    breakdowns,
		CurrentLevel:       current,
		FrontierLevel:      levels.Next(current),
		GapsInCurrentLevel: currentLevelGaps(byLevel[current], items, corpus, current),
		OverallCoverage:    ratio(totalKnown, corpus.Size()),
	}
}

func currentLevelGaps(levelItems, all []models.LearnableItem, corpus *Corpus, level string) []models.Gap {
	gaps := make([]models.Gap, 0)

	for _, item := range levelItems {
		reason, weak := weakReason(item.Stage)
		if !weak {
			continue
		}
		gaps = append(gaps, models.Gap{
			Kind:        item.Kind,
			ItemID:      item.ID,
			SurfaceForm: item.SurfaceForm,
			PatternID:   item.PatternID,
			Reason:      reason,
		})
	}

	surfaces, patterns := KnownSets(all)
	vocab, grammar := corpus.ByLevel(level)

	missing := 0
	for _, v := range vocab {
		if missing == maxMissingVocabulary {
			break
		}
		if surfaces[v.SurfaceForm] {
			continue
		}
		gaps = append(gaps, models.Gap{
			Kind:        models.KindLexical,
			SurfaceForm: v.SurfaceForm,
			Reason:      fmt.Sprintf("Missing from vocabulary (freq rank: %d)", v.FrequencyRank),
		})
		missing++
	}

	missing = 0
	for _, g := range grammar {
		if missing == maxMissingGrammar {
			break
		}
		if patterns[g.PatternID] {
			continue
		}
		gaps = append(gaps, models.Gap{
			Kind:      models.KindGrammar,
			PatternID: g.PatternID,
			Reason:    fmt.Sprintf("Missing grammar pattern: %s", g.Name),
		})
		missing++
	}

	return gaps
}

func weakReason(stage models.MasteryStage) (string, bool) {
	switch stage {
	case models.StageUnseen:
		return "Not yet seen", true
	case models.StageIntroduced:
		return "Introduced but not in SRS", true
	case models.StageApprentice1, models.StageApprentice2:
		return "Weak — needs more review", true
	default:
		return "", false
	}
}

// KnownSets returns the surface forms of every lexical item and the pattern ids of
// every grammar item in the inventory, whatever their stage.
func KnownSets(items []models.LearnableItem) (surfaceForms, patternIDs map[string]bool) {
	surfaceForms = make(map[string]bool)
	patternIDs = make(map[string]bool)
	for _, item := range items {
		switch item.Kind {
		case models.KindLexical:
			surfaceForms[item.SurfaceForm] = true
		case models.KindGrammar:
			patternIDs[item.PatternID] = true
		}
	}
	return surfaceForms, patternIDs
}

func ratio(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return round2(float64(n) / float64(total))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
