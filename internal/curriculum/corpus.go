package curriculum

import "github.com/example/lexitrack/pkg/models"

// Corpus is the immutable leveled reference inventory.
// It is safe for concurrent readers; nothing mutates it after NewCorpus.
type Corpus struct {
	Levels     LevelScale
	Vocabulary []models.VocabularyEntry
	Grammar    []models.GrammarEntry

	prerequisites map[string][]string
	totals        map[string]int
}

// NewCorpus validates the records and indexes prerequisites and per-level totals
func NewCorpus(levels LevelScale, vocabulary []models.VocabularyEntry, grammar []models.GrammarEntry) (*Corpus, error) {
	if len(levels) == 0 {
		return nil, models.InvalidInput("corpus has no level scale")
	}

	c := &Corpus{
		Levels:        levels,
		Vocabulary:    vocabulary,
		Grammar:       grammar,
		prerequisites: make(map[string][]string, len(grammar)),
		totals:        make(map[string]int, len(levels)),
	}

	for i, v := range vocabulary {
		if v.SurfaceForm == "" {
			return nil, models.InvalidInput("vocabulary record %d has no surface form", i)
		}
		if err := c.checkRecord(v.SurfaceForm, v.Level, v.FrequencyRank); err != nil {
			return nil, err
		}
		c.totals[v.Level]++
	}

	for i, g := range grammar {
		if g.PatternID == "" {
			return nil, models.InvalidInput("grammar record %d has no pattern id", i)
		}
		if err := c.checkRecord(g.PatternID, g.Level, g.FrequencyRank); err != nil {
			return nil, err
		}
		if _, dup := c.prerequisites[g.PatternID]; dup {
			return nil, models.InvalidInput("grammar pattern %q defined twice", g.PatternID)
		}
		c.prerequisites[g.PatternID] = g.PrerequisiteIDs
		c.totals[g.Level]++
	}

	return c, nil
}

func (c *Corpus) checkRecord(key, level string, rank int) error {
	if !c.Levels.Contains(level) {
		return models.InvalidInput("record %q has unknown level %q", key, level)
	}
	if rank < 1 {
		return models.InvalidInput("record %q has non-positive frequency rank %d", key, rank)
	}
	return nil
}

// Total returns the number of reference items at level
func (c *Corpus) Total(level string) int {
	return c.totals[level]
}

// Size returns the number of reference items across all levels
func (c *Corpus) Size() int {
	return len(c.Vocabulary) + len(c.Grammar)
}

// Prerequisites returns the prerequisite pattern ids of a grammar pattern
func (c *Corpus) Prerequisites(patternID string) []string {
	return c.prerequisites[patternID]
}

// ByLevel returns the entries at one level, in corpus order
func (c *Corpus) ByLevel(level string) ([]models.VocabularyEntry, []models.GrammarEntry) {
	var vocab []models.VocabularyEntry
	for _, v := range c.Vocabulary {
		if v.Level == level {
			vocab = append(vocab, v)
		}
	}
	var grammar []models.GrammarEntry
	for _, g := range c.Grammar {
		if g.Level == level {
			grammar = append(grammar, g)
		}
	}
	return vocab, grammar
}

// ByFrequencyRange returns the entries whose rank lies in [min, max]
func (c *Corpus) ByFrequencyRange(min, max int) ([]models.VocabularyEntry, []models.GrammarEntry) {
	var vocab []models.VocabularyEntry
	for _, v := range c.Vocabulary {
		if v.FrequencyRank >= min && v.FrequencyRank <= max {
			vocab = append(vocab, v)
		}
	}
	var grammar []models.GrammarEntry
	for _, g := range c.Grammar {
		if g.FrequencyRank >= min && g.FrequencyRank <= max {
			grammar = append(grammar, g)
		}
	}
	return vocab, grammar
}
