package curriculum

import "github.com/example/lexitrack/pkg/models"

// IdentifyGaps ranks everything holding the learner back.
// High: gaps already listed in the bubble. Medium: frontier items that were introduced
// but never reviewed. Low: Apprentice4 items waiting on production evidence.
func IdentifyGaps(bubble models.KnowledgeBubble, items []models.LearnableItem, levels LevelScale) []models.Gap {
	gaps := make([]models.Gap, 0, len(bubble.GapsInCurrentLevel))

	for _, gap := range bubble.GapsInCurrentLevel {
		gap.Severity = models.SeverityHigh
		gaps = append(gaps, gap)
	}

	for _, item := range items {
		if levels.Normalize(item.Level) != bubble.FrontierLevel || item.Stage != models.StageIntroduced {
			continue
		}
		gaps = append(gaps, itemGap(item, "At frontier level — introduced but not added to SRS", models.SeverityMedium))
	}

	for _, item := range items {
		if item.Stage != models.StageApprentice4 || item.ProductionWeight >= 1.0 {
			continue
		}
		gaps = append(gaps, itemGap(item, "Stuck at apprentice_4 — needs production evidence", models.SeverityLow))
	}

	return gaps
}

func itemGap(item models.LearnableItem, reason string, severity models.GapSeverity) models.Gap {
	return models.Gap{
		Kind:        item.Kind,
		ItemID:      item.ID,
		SurfaceForm: item.SurfaceForm,
		PatternID:   item.PatternID,
		Reason:      reason,
		Severity:    severity,
	}
}
