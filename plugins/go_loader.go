package plugins

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
	"gopkg.in/yaml.v3"
)

// goDefinitionFuncName is the function a Go-scripted plugin must define:
//
//	func TaskDefinitions() ([]map[string]any, error)
//
// Each map uses the same keys as the YAML format.
const goDefinitionFuncName = "TaskDefinitions"

// loadGoDefinitionFile interprets path and collects the task definitions its
// TaskDefinitions function returns.
func loadGoDefinitionFile(path string) ([]DefinitionFile, error) {
	code, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("plugin: read %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(code))) == 0 {
		return nil, fmt.Errorf("plugin: %s is empty", path)
	}
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("plugin: load symbols: %w", err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("plugin: interpret %s: %w", path, err)
	}
	fnValue, err := i.Eval(goDefinitionFuncName)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s must define %s() ([]map[string]any, error): %w", path, goDefinitionFuncName, err)
	}
	raws, err := callDefinitionFunc(fnValue)
	if err != nil {
		return nil, fmt.Errorf("plugin: %s: %w", path, err)
	}
	files := make([]DefinitionFile, 0, len(raws))
	for idx, raw := range raws {
		def, err := decodeRawDefinition(raw)
		if err != nil {
			return nil, fmt.Errorf("plugin: %s definition[%d]: %w", path, idx, err)
		}
		files = append(files, DefinitionFile{Definition: def, Path: fmt.Sprintf("%s#%d", path, idx+1)})
	}
	return files, nil
}

// decodeRawDefinition routes an interpreted map through the YAML decoder so
// both plugin kinds share one validation path.
func decodeRawDefinition(raw map[string]any) (TaskDefinition, error) {
	payload, err := yaml.Marshal(raw)
	if err != nil {
		return TaskDefinition{}, err
	}
	return ParseDefinitionYAML(payload)
}

func callDefinitionFunc(fn reflect.Value) ([]map[string]any, error) {
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("%s is not a function", goDefinitionFuncName)
	}
	results := fn.Call(nil)
	switch len(results) {
	case 1:
	case 2:
		if errVal := results[1]; !errVal.IsNil() {
			if e, ok := errVal.Interface().(error); ok {
				return nil, e
			}
			return nil, fmt.Errorf("%s returned a non-error second value", goDefinitionFuncName)
		}
	default:
		return nil, fmt.Errorf("%s must return ([]map[string]any[, error])", goDefinitionFuncName)
	}
	list := results[0]
	if defs, ok := list.Interface().([]map[string]any); ok {
		return defs, nil
	}
	if list.Kind() != reflect.Slice {
		return nil, fmt.Errorf("%s must return []map[string]any", goDefinitionFuncName)
	}
	out := make([]map[string]any, list.Len())
	for i := range out {
		m, ok := list.Index(i).Interface().(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s[%d] is not map[string]any", goDefinitionFuncName, i)
		}
		out[i] = m
	}
	return out, nil
}
