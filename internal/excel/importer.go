package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/lexitrack/pkg/models"
	"github.com/xuri/excelize/v2"
)

// VocabularyColumns maps vocabulary fields to sheet column letters
type VocabularyColumns struct {
	SurfaceForm   string
	Reading       string
	Meaning       string
	PartOfSpeech  string
	Level         string
	FrequencyRank string
}

// GrammarColumns maps grammar fields to sheet column letters
type GrammarColumns struct {
	PatternID     string
	Name          string
	Description   string
	Level         string
	FrequencyRank string
	Prerequisites string // ';' or ',' separated pattern ids
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath          string
	VocabularySheet   string
	GrammarSheet      string
	VocabularyColumns VocabularyColumns
	GrammarColumns    GrammarColumns
	StartRow          int // first data row (1-based), rows above are headers
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		VocabularySheet: "vocabulary",
		GrammarSheet:    "grammar",
		VocabularyColumns: VocabularyColumns{
			SurfaceForm:   "A",
			Reading:       "B",
			Meaning:       "C",
			PartOfSpeech:  "D",
			Level:         "E",
			FrequencyRank: "F",
		},
		GrammarColumns: GrammarColumns{
			PatternID:     "A",
			Name:          "B",
			Description:   "C",
			Level:         "D",
			FrequencyRank: "E",
			Prerequisites: "F",
		},
		StartRow: 2,
	}
}

// ImportResult holds the parsed corpus records and row counters
type ImportResult struct {
	Vocabulary     []models.VocabularyEntry
	Grammar        []models.GrammarEntry
	TotalProcessed int
	Skipped        int
}

// ImportCorpus reads reference-corpus records from an Excel or CSV file.
// A malformed row aborts the import with models.ErrInvalidInput.
func ImportCorpus(config ImportConfig) (*ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	if ext == ".csv" {
		file, err := os.Open(config.FilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer file.Close()
		return ImportCSV(file, config.StartRow)
	}

	return importFromExcel(config)
}

// importFromExcel reads the vocabulary and grammar sheets of a workbook
func importFromExcel(config ImportConfig) (*ImportResult, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	result := &ImportResult{}

	vocabRows, err := f.GetRows(config.VocabularySheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows of sheet %q: %w", config.VocabularySheet, err)
	}
	for i, row := range vocabRows {
		if i < config.StartRow-1 {
			continue
		}
		if isBlank(row) {
			result.Skipped++
			continue
		}
		result.TotalProcessed++

		entry, err := vocabularyFromRow(row, config.VocabularyColumns)
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", config.VocabularySheet, i+1, err)
		}
		result.Vocabulary = append(result.Vocabulary, entry)
	}

	grammarRows, err := f.GetRows(config.GrammarSheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows of sheet %q: %w", config.GrammarSheet, err)
	}
	for i, row := range grammarRows {
		if i < config.StartRow-1 {
			continue
		}
		if isBlank(row) {
			result.Skipped++
			continue
		}
		result.TotalProcessed++

		entry, err := grammarFromRow(row, config.GrammarColumns)
		if err != nil {
			return nil, fmt.Errorf("sheet %q row %d: %w", config.GrammarSheet, i+1, err)
		}
		result.Grammar = append(result.Grammar, entry)
	}

	return result, nil
}

// ImportCSV reads a single CSV stream whose first column names the record kind.
//
//	lexical,surfaceForm,reading,meaning,partOfSpeech,level,frequencyRank
//	grammar,patternId,name,description,level,frequencyRank,prerequisites
func ImportCSV(r io.Reader, startRow int) (*ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	result := &ImportResult{}
	rowNum := 0

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, models.InvalidInput("error reading CSV: %v", err)
		}

		rowNum++
		if rowNum < startRow {
			continue
		}
		if isBlank(row) {
			result.Skipped++
			continue
		}
		result.TotalProcessed++

		kind, err := models.ParseItemKind(row[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", rowNum, err)
		}
		fields := row[1:]

		switch kind {
		case models.KindLexical:
			entry, err := vocabularyFromRow(fields, VocabularyColumns{"A", "B", "C", "D", "E", "F"})
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", rowNum, err)
			}
			result.Vocabulary = append(result.Vocabulary, entry)
		case models.KindGrammar:
			entry, err := grammarFromRow(fields, GrammarColumns{"A", "B", "C", "D", "E", "F"})
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", rowNum, err)
			}
			result.Grammar = append(result.Grammar, entry)
		}
	}

	return result, nil
}

func vocabularyFromRow(row []string, cols VocabularyColumns) (models.VocabularyEntry, error) {
	rank, err := parseRank(cell(row, cols.FrequencyRank))
	if err != nil {
		return models.VocabularyEntry{}, err
	}
	entry := models.VocabularyEntry{
		SurfaceForm:   cell(row, cols.SurfaceForm),
		Reading:       cell(row, cols.Reading),
		Meaning:       cell(row, cols.Meaning),
		PartOfSpeech:  cell(row, cols.PartOfSpeech),
		Level:         cell(row, cols.Level),
		FrequencyRank: rank,
	}
	if entry.SurfaceForm == "" {
		return entry, models.InvalidInput("surface form cannot be empty")
	}
	return entry, nil
}

func grammarFromRow(row []string, cols GrammarColumns) (models.GrammarEntry, error) {
	rank, err := parseRank(cell(row, cols.FrequencyRank))
	if err != nil {
		return models.GrammarEntry{}, err
	}
	entry := models.GrammarEntry{
		PatternID:       cell(row, cols.PatternID),
		Name:            cell(row, cols.Name),
		Description:     cell(row, cols.Description),
		Level:           cell(row, cols.Level),
		FrequencyRank:   rank,
		PrerequisiteIDs: splitList(cell(row, cols.Prerequisites)),
	}
	if entry.PatternID == "" {
		return entry, models.InvalidInput("pattern id cannot be empty")
	}
	return entry, nil
}

// cell returns the trimmed value at a column letter, or "" when the row is short
func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return strings.TrimSpace(row[idx])
	}
	return ""
}

func parseRank(s string) (int, error) {
	rank, err := strconv.Atoi(s)
	if err != nil {
		return 0, models.InvalidInput("frequency rank %q is not an integer", s)
	}
	if rank < 1 {
		return 0, models.InvalidInput("frequency rank %d must be positive", rank)
	}
	return rank, nil
}

func splitList(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ';' || r == ',' })
	var out []string
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// columnToIndex converts an Excel column letter to a zero-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}
