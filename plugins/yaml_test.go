package plugins

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseDefinitionYAML(t *testing.T) {
	def, err := ParseDefinitionYAML([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if def.Name != "ProductAddEditor" || len(def.Engines["mysql"]) != 2 {
		t.Fatalf("unexpected definition: %+v", def)
	}
	if got := def.Engines["mysql"][0].When.ColumnMissing; len(got) != 1 || got[0] != "mshop_product.editor" {
		t.Fatalf("unexpected conditions: %v", got)
	}
}

func TestParseDefinitionYAMLErrors(t *testing.T) {
	if _, err := ParseDefinitionYAML([]byte("")); err == nil {
		t.Fatalf("expected empty payload to fail validation")
	}
	_, err := ParseDefinitionYAML([]byte("name: A\nversion: 1\nengines: {}\n"))
	if err == nil || !strings.Contains(err.Error(), "version") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

const multiTaskYAML = `name: ReviewsCreate
pre: [TablesCreateMShop]
engines:
  sqlite:
    - when:
        table_missing: [mshop_review]
      sql:
        - CREATE TABLE mshop_review (id INTEGER PRIMARY KEY)
---
---
name: ReviewsAddRating
pre: [ReviewsCreate]
engines:
  sqlite:
    - when:
        column_missing: [mshop_review.rating]
      sql:
        - ALTER TABLE mshop_review ADD COLUMN rating INTEGER NOT NULL DEFAULT 0
`

func TestParseDefinitionDocuments(t *testing.T) {
	defs, err := ParseDefinitionDocuments([]byte(multiTaskYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("expected 2 definitions, got %d", len(defs))
	}
	if defs[0].Name != "ReviewsCreate" || defs[1].Name != "ReviewsAddRating" {
		t.Fatalf("unexpected order: %s, %s", defs[0].Name, defs[1].Name)
	}
	if _, err := ParseDefinitionYAML([]byte(multiTaskYAML)); err == nil {
		t.Fatalf("single-task parse should reject a multi-task payload")
	}
}

func TestParseDefinitionDocumentsReportsDocument(t *testing.T) {
	payload := sampleYAML + "---\nname: B\nengines: {}\n"
	_, err := ParseDefinitionDocuments([]byte(payload))
	if err == nil || !strings.Contains(err.Error(), "document 2") {
		t.Fatalf("expected error for document 2, got %v", err)
	}
}

func TestLoadDir(t *testing.T) {
	root := t.TempDir()
	single := filepath.Join(root, "b-editor.yaml")
	multi := filepath.Join(root, "a-reviews.yml")
	files := map[string]string{
		single:                             sampleYAML,
		multi:                              multiTaskYAML,
		filepath.Join(root, "c-status.go"): goPluginSource,
		filepath.Join(root, "notes.txt"):   "ignored",
	}
	for path, body := range files {
		if err := os.WriteFile(path, []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	defs, err := LoadDir(root)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	var got []string
	for _, def := range defs {
		got = append(got, def.Definition.Name+"@"+filepath.Base(def.Path))
	}
	want := []string{
		"ReviewsCreate@a-reviews.yml#1",
		"ReviewsAddRating@a-reviews.yml#2",
		"ProductAddEditor@b-editor.yaml",
		"ProductAddStatus@c-status.go#1",
	}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("definitions = %v, want %v", got, want)
	}
}

func TestLoadDirNamesFailingFile(t *testing.T) {
	root := t.TempDir()
	bad := filepath.Join(root, "broken.yaml")
	if err := os.WriteFile(bad, []byte("name: A\nversion: 1\n"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	_, err := LoadDir(root)
	if err == nil || !strings.Contains(err.Error(), bad) {
		t.Fatalf("expected error naming %s, got %v", bad, err)
	}
}

func TestLoadDirMissing(t *testing.T) {
	defs, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("missing dir should not error: %v", err)
	}
	if defs != nil {
		t.Fatalf("expected nil slice for missing dir, got %v", defs)
	}
}
