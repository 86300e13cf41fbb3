package ingest

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rkeerthivasan/estateline/models"
)

// Loader reads tabular and plain-text source files into Documents. Missing
// files are skipped with a warning; a failure on one file never aborts the
// batch.
type Loader struct {
	logger *log.Logger
}

func NewLoader(logger *log.Logger) *Loader {
	if logger == nil {
		logger = log.New(log.Writer(), "[INGEST] ", log.LstdFlags)
	}
	return &Loader{logger: logger}
}

// LoadAll loads all configured CSV and text files, in the configured order.
func (l *Loader) LoadAll(csvPaths, textPaths []string) []models.Document {
	var docs []models.Document
	for _, p := range csvPaths {
		loaded, err := l.loadCSV(p)
		if err != nil {
			l.logger.Printf("warn: skipping csv %s: %v", p, err)
			continue
		}
		docs = append(docs, loaded...)
	}
	for _, p := range textPaths {
		doc, err := l.loadText(p)
		if err != nil {
			l.logger.Printf("warn: skipping txt %s: %v", p, err)
			continue
		}
		docs = append(docs, doc)
	}
	return docs
}

// LoadProfile reads the designated company profile document. Unlike the
// general sources this is a single trusted text; a read failure is reported
// to the caller, which decides whether it is fatal.
func (l *Loader) LoadProfile(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("profile path not configured")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading profile: %w", err)
	}
	return string(data), nil
}

// loadCSV produces one Document per data row. The row text lists each column
// as "header: value" on its own line, so column names survive into the
// embedded text.
func (l *Loader) loadCSV(path string) ([]models.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	header := records[0]
	base := filepath.Base(path)
	docs := make([]models.Document, 0, len(records)-1)
	for i, row := range records[1:] {
		var b strings.Builder
		for j, cell := range row {
			if j < len(header) {
				b.WriteString(header[j])
			} else {
				b.WriteString("column_" + strconv.Itoa(j))
			}
			b.WriteString(": ")
			b.WriteString(cell)
			if j < len(row)-1 {
				b.WriteString("\n")
			}
		}
		docs = append(docs, models.Document{
			SourceID: fmt.Sprintf("%s:%d", base, i),
			Origin:   models.OriginTabular,
			Text:     b.String(),
			Metadata: map[string]string{
				"source": path,
				"row":    strconv.Itoa(i),
			},
		})
	}
	l.logger.Printf("loaded %d rows from %s", len(docs), base)
	return docs, nil
}

func (l *Loader) loadText(path string) (models.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Document{}, err
	}
	base := filepath.Base(path)
	l.logger.Printf("loaded %s", base)
	return models.Document{
		SourceID: base,
		Origin:   models.OriginText,
		Text:     string(data),
		Metadata: map[string]string{"source": path},
	}, nil
}
