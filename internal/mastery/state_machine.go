// Package mastery implements the ten-stage mastery progression of a learnable item.
package mastery

import "github.com/example/lexitrack/pkg/models"

// Gate thresholds for the evidence-gated promotions
const (
	MinProductionWeight  = 1.0 // apprentice_4 -> journeyman
	MinContextCount      = 3   // journeyman -> expert
	MinNovelContextCount = 2   // expert -> master, grammar only
)

// Evidence is the contextual history the gated promotions read.
// Callers maintain these counters on the item record.
type Evidence struct {
	Kind              models.ItemKind
	ProductionWeight  float64
	ContextCount      int
	NovelContextCount int
}

// EvidenceFor extracts the gate evidence from an item
func EvidenceFor(item *models.LearnableItem) Evidence {
	return Evidence{
		Kind:              item.Kind,
		ProductionWeight:  item.ProductionWeight,
		ContextCount:      item.ContextCount,
		NovelContextCount: item.NovelContextCount,
	}
}

var promotions = map[models.MasteryStage]models.MasteryStage{
	models.StageUnseen:      models.StageIntroduced,
	models.StageIntroduced:  models.StageApprentice1,
	models.StageApprentice1: models.StageApprentice2,
	models.StageApprentice2: models.StageApprentice3,
	models.StageApprentice3: models.StageApprentice4,
	models.StageApprentice4: models.StageJourneyman,
	models.StageJourneyman:  models.StageExpert,
	models.StageExpert:      models.StageMaster,
	models.StageMaster:      models.StageBurned,
}

var demotions = map[models.MasteryStage]models.MasteryStage{
	models.StageApprentice2: models.StageApprentice1,
	models.StageApprentice3: models.StageApprentice2,
	models.StageApprentice4: models.StageApprentice3,
	models.StageJourneyman:  models.StageApprentice4,
	models.StageExpert:      models.StageJourneyman,
	models.StageMaster:      models.StageExpert,
	models.StageBurned:      models.StageMaster,
}

// Advance returns the stage that follows a review graded grade.
// Again demotes one stage, Hard holds, Good and Easy promote one stage unless a gate blocks.
// Stages without a table entry stay where they are.
func Advance(stage models.MasteryStage, grade models.Grade, ev Evidence) (models.MasteryStage, error) {
	if !stage.Valid() {
		return stage, models.InvalidInput("unknown mastery stage %d", int(stage))
	}

	switch grade {
	case models.GradeAgain:
		if prev, ok := demotions[stage]; ok {
			return prev, nil
		}
		return stage, nil
	case models.GradeHard:
		return stage, nil
	case models.GradeGood, models.GradeEasy:
		next, ok := promotions[stage]
		if !ok || !gateOpen(stage, ev) {
			return stage, nil
		}
		return next, nil
	default:
		return stage, models.InvalidInput("unknown grade %d", int(grade))
	}
}

func gateOpen(from models.MasteryStage, ev Evidence) bool {
	switch from {
	case models.StageApprentice4:
		return ev.ProductionWeight >= MinProductionWeight
	case models.StageJourneyman:
		return ev.ContextCount >= MinContextCount
	case models.StageExpert:
		if ev.Kind == models.KindGrammar {
			return ev.NovelContextCount >= MinNovelContextCount
		}
	}
	return true
}

// IsApprentice reports whether the stage is one of the four apprentice tiers
func IsApprentice(stage models.MasteryStage) bool {
	return stage >= models.StageApprentice1 && stage <= models.StageApprentice4
}

// IsActive reports whether the item is in rotation, i.e. neither unseen nor burned
func IsActive(stage models.MasteryStage) bool {
	return stage.Valid() && stage != models.StageUnseen && stage != models.StageBurned
}
