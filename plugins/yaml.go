package plugins

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefinitionFile pairs a parsed task definition with where it was declared.
// Path is the file for single-task files and "<file>#<n>" when the file
// declares several tasks.
type DefinitionFile struct {
	Definition TaskDefinition
	Path       string
}

// ParseDefinitionYAML decodes a payload that must hold exactly one task.
func ParseDefinitionYAML(data []byte) (TaskDefinition, error) {
	defs, err := ParseDefinitionDocuments(data)
	if err != nil {
		return TaskDefinition{}, err
	}
	if len(defs) != 1 {
		return TaskDefinition{}, fmt.Errorf("plugin: expected one task definition, found %d", len(defs))
	}
	return defs[0], nil
}

// ParseDefinitionDocuments decodes a YAML stream where every "---" separated
// document declares one task. Empty documents are ignored; unknown keys are
// rejected.
func ParseDefinitionDocuments(data []byte) ([]TaskDefinition, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("plugin: definition payload is empty")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var defs []TaskDefinition
	for doc := 1; ; doc++ {
		var def TaskDefinition
		err := dec.Decode(&def)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("plugin: document %d: %w", doc, err)
		}
		if def.empty() {
			continue
		}
		if err := def.Validate(); err != nil {
			return nil, fmt.Errorf("plugin: document %d: %w", doc, err)
		}
		defs = append(defs, def.Normalized())
	}
	if len(defs) == 0 {
		return nil, fmt.Errorf("plugin: no task definitions found")
	}
	return defs, nil
}

// LoadDefinitionFile reads the task definitions of one YAML file.
func LoadDefinitionFile(path string) ([]DefinitionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	defs, err := ParseDefinitionDocuments(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	clean := filepath.Clean(path)
	files := make([]DefinitionFile, len(defs))
	for i, def := range defs {
		source := clean
		if len(defs) > 1 {
			source = fmt.Sprintf("%s#%d", clean, i+1)
		}
		files[i] = DefinitionFile{Definition: def, Path: source}
	}
	return files, nil
}

// LoadDir walks dir once, in file name order, and collects the tasks declared
// by *.yaml/*.yml files and by Go files defining TaskDefinitions. A missing
// directory means no plugins.
func LoadDir(dir string) ([]DefinitionFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("plugin: read %s: %w", trimmed, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var defs []DefinitionFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(trimmed, entry.Name())
		var fileDefs []DefinitionFile
		switch pluginKind(entry.Name()) {
		case kindYAML:
			fileDefs, err = LoadDefinitionFile(path)
		case kindGo:
			fileDefs, err = loadGoDefinitionFile(path)
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		defs = append(defs, fileDefs...)
	}
	return defs, nil
}

type fileKind int

const (
	kindNone fileKind = iota
	kindYAML
	kindGo
)

func pluginKind(name string) fileKind {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch {
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return kindYAML
	case strings.HasSuffix(lower, "_test.go"):
		return kindNone
	case strings.HasSuffix(lower, ".go"):
		return kindGo
	}
	return kindNone
}
