package curriculum

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/example/lexitrack/internal/excel"
	"github.com/example/lexitrack/internal/logger"
	"github.com/example/lexitrack/pkg/models"
	"gopkg.in/yaml.v3"
)

// corpusDocument is the on-disk shape of a JSON or YAML corpus
type corpusDocument struct {
	Vocabulary []models.VocabularyEntry `json:"vocabulary" yaml:"vocabulary"`
	Grammar    []models.GrammarEntry    `json:"grammar" yaml:"grammar"`
}

// Format names a corpus encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatFromPath infers the format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unsupported corpus file %q", path)
	}
}

// ParseCorpus decodes a JSON, YAML or CSV corpus stream
func ParseCorpus(r io.Reader, format Format, levels LevelScale) (*Corpus, error) {
	var doc corpusDocument

	switch format {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, models.InvalidInput("decode JSON corpus: %v", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
			return nil, models.InvalidInput("decode YAML corpus: %v", err)
		}
	case FormatCSV:
		result, err := excel.ImportCSV(r, 2)
		if err != nil {
			return nil, err
		}
		doc.Vocabulary, doc.Grammar = result.Vocabulary, result.Grammar
	default:
		return nil, fmt.Errorf("format %q cannot be streamed", format)
	}

	return NewCorpus(levels, doc.Vocabulary, doc.Grammar)
}

// LoadCorpusFile reads a corpus file of any supported format
func LoadCorpusFile(path string, levels LevelScale) (*Corpus, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	if format == FormatXLSX {
		config := excel.DefaultImportConfig()
		config.FilePath = path
		result, err := excel.ImportCorpus(config)
		if err != nil {
			return nil, err
		}
		return NewCorpus(levels, result.Vocabulary, result.Grammar)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()

	return ParseCorpus(f, format, levels)
}

// WriteJSON encodes the corpus in the canonical JSON format
func WriteJSON(w io.Writer, c *Corpus) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(corpusDocument{Vocabulary: c.Vocabulary, Grammar: c.Grammar}); err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}
	return nil
}

// Loader loads the reference corpus once and serves the cached copy afterwards.
// A failed load is cached as well; the corpus is never reloaded for the process lifetime.
type Loader struct {
	path   string
	levels LevelScale
	log    *logger.Logger

	once   sync.Once
	corpus *Corpus
	err    error
}

func NewLoader(path string, levels LevelScale, log *logger.Logger) *Loader {
	return &Loader{path: path, levels: levels, log: log}
}

// Load returns the corpus, reading it on the first call
func (l *Loader) Load() (*Corpus, error) {
	l.once.Do(func() {
		l.corpus, l.err = LoadCorpusFile(l.path, l.levels)
		if l.err != nil {
			l.log.Error("reference corpus load failed", "path", l.path, "error", l.err)
			return
		}
		l.log.Info("reference corpus loaded",
			"path", l.path,
			"vocabulary", len(l.corpus.Vocabulary),
			"grammar", len(l.corpus.Grammar))
	})
	return l.corpus, l.err
}
