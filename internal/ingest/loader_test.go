package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rkeerthivasan/estateline/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadAll_CSVRowsAndText(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "sales.csv", "name,location,price\nVilla Aurora,Dubai Marina,2500000\nSky Loft,Downtown,1800000\n")
	txtPath := writeFile(t, dir, "faq.txt", "We assist with buying, selling and renting.")

	l := NewLoader(nil)
	docs := l.LoadAll([]string{csvPath}, []string{txtPath})
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(docs))
	}

	first := docs[0]
	if first.Origin != models.OriginTabular {
		t.Errorf("origin = %v, want tabular", first.Origin)
	}
	if !strings.Contains(first.Text, "name: Villa Aurora") || !strings.Contains(first.Text, "price: 2500000") {
		t.Errorf("row text missing header:value lines: %q", first.Text)
	}
	if first.Metadata["row"] != "0" {
		t.Errorf("row metadata = %q", first.Metadata["row"])
	}

	last := docs[2]
	if last.Origin != models.OriginText {
		t.Errorf("origin = %v, want text", last.Origin)
	}
	if last.SourceID != "faq.txt" {
		t.Errorf("source id = %q", last.SourceID)
	}
}

func TestLoadAll_SkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	txtPath := writeFile(t, dir, "about.txt", "Founded in 2010.")

	l := NewLoader(nil)
	docs := l.LoadAll(
		[]string{filepath.Join(dir, "nope.csv")},
		[]string{filepath.Join(dir, "nope.txt"), txtPath},
	)
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].SourceID != "about.txt" {
		t.Errorf("source id = %q", docs[0].SourceID)
	}
}

func TestLoadAll_HeaderOnlyCSV(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeFile(t, dir, "empty.csv", "name,location\n")

	l := NewLoader(nil)
	docs := l.LoadAll([]string{csvPath}, nil)
	if len(docs) != 0 {
		t.Errorf("expected no documents for header-only csv, got %d", len(docs))
	}
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "profile.txt", "Baaz Landmark is a real estate brokerage.")

	l := NewLoader(nil)
	got, err := l.LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if got != "Baaz Landmark is a real estate brokerage." {
		t.Errorf("profile = %q", got)
	}

	if _, err := l.LoadProfile(""); err == nil {
		t.Error("expected error for empty profile path")
	}
	if _, err := l.LoadProfile(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing profile file")
	}
}
