package models

// VocabularyEntry is a reference-corpus word
type VocabularyEntry struct {
	SurfaceForm   string `json:"surfaceForm" yaml:"surfaceForm"`
	Reading       string `json:"reading" yaml:"reading"`
	Meaning       string `json:"meaning" yaml:"meaning"`
	PartOfSpeech  string `json:"partOfSpeech" yaml:"partOfSpeech"`
	Level         string `json:"level" yaml:"level"`
	FrequencyRank int    `json:"frequencyRank" yaml:"frequencyRank"`
}

// GrammarEntry is a reference-corpus grammar pattern
type GrammarEntry struct {
	PatternID       string   `json:"patternId" yaml:"patternId"`
	Name            string   `json:"name" yaml:"name"`
	Description     string   `json:"description" yaml:"description"`
	Level           string   `json:"level" yaml:"level"`
	FrequencyRank   int      `json:"frequencyRank" yaml:"frequencyRank"`
	PrerequisiteIDs []string `json:"prerequisiteIds" yaml:"prerequisiteIds"`
}
