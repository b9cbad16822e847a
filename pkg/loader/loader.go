// Package loader turns raw documents into jsonvalue trees. It accepts the
// formats an API or a saved response is likely to come in: JSON, NDJSON,
// YAML (single or multi-document) and TOML.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/oakwood-commons/jsondash/pkg/jsonvalue"
)

// ErrEmptyInput is returned for blank input.
var ErrEmptyInput = jsonvalue.ErrEmptyInput

// LoadData parses input, auto-detecting its format, and returns one value per
// document. Single-document inputs return a slice of length one.
func LoadData(input string) ([]jsonvalue.Value, error) {
	input = strings.TrimSpace(normalizeNewlines(input))
	if input == "" {
		return nil, ErrEmptyInput
	}

	if strings.Contains(input, "\n---") || strings.HasPrefix(input, "---") {
		return loadMultiDocYAML(input)
	}

	lines := strings.Split(input, "\n")
	if len(lines) > 1 && isLikelyNDJSON(lines) {
		// A pretty-printed JSON document also starts lines with '{' or '[';
		// prefer it when the whole input is one valid value.
		if v, err := jsonvalue.ParseString(input); err == nil {
			return []jsonvalue.Value{v}, nil
		}
		return loadNDJSON(input)
	}

	// TOML [section] headers look like JSON arrays, so check TOML first.
	if isLikelyTOML(input) {
		if docs, err := loadTOML(input); err == nil {
			return docs, nil
		}
	}

	if strings.HasPrefix(input, "{") || strings.HasPrefix(input, "[") || strings.HasPrefix(input, `"`) {
		if v, err := jsonvalue.ParseString(input); err == nil {
			return []jsonvalue.Value{v}, nil
		}
	}

	return loadYAML(input)
}

// LoadRoot parses input into a single root. Multi-document inputs become an array.
func LoadRoot(input string) (jsonvalue.Value, error) {
	docs, err := LoadData(input)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	if len(docs) == 1 {
		return docs[0], nil
	}
	return jsonvalue.ArrayValue(docs...), nil
}

// LoadReader reads r to the end and parses it with LoadRoot.
func LoadReader(r io.Reader) (jsonvalue.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return jsonvalue.Value{}, fmt.Errorf("read input: %w", err)
	}
	return LoadRoot(string(data))
}

// LoadFile reads a file. A recognised extension selects the parser first;
// when that parser fails, auto-detection gets a chance.
func LoadFile(path string) (jsonvalue.Value, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	input := strings.TrimSpace(string(data))
	if input == "" {
		return jsonvalue.Value{}, fmt.Errorf("%s: %w", path, ErrEmptyInput)
	}

	var byExt func(string) ([]jsonvalue.Value, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		byExt = loadJSON
	case ".ndjson", ".jsonl":
		byExt = loadNDJSON
	case ".yaml", ".yml":
		byExt = loadMultiDocYAML
	case ".toml":
		byExt = loadTOML
	}
	if byExt != nil {
		if docs, err := byExt(input); err == nil {
			return single(docs), nil
		}
	}
	return LoadRoot(input)
}

func single(docs []jsonvalue.Value) jsonvalue.Value {
	if len(docs) == 1 {
		return docs[0]
	}
	return jsonvalue.ArrayValue(docs...)
}

func loadJSON(input string) ([]jsonvalue.Value, error) {
	v, err := jsonvalue.ParseString(input)
	if err != nil {
		return nil, err
	}
	return []jsonvalue.Value{v}, nil
}

func loadYAML(input string) ([]jsonvalue.Value, error) {
	v, err := jsonvalue.FromYAML([]byte(input))
	if err != nil {
		return nil, err
	}
	return []jsonvalue.Value{v}, nil
}

func loadMultiDocYAML(input string) ([]jsonvalue.Value, error) {
	var results []jsonvalue.Value
	decoder := yaml.NewDecoder(strings.NewReader(input))
	for {
		var doc yaml.Node
		if err := decoder.Decode(&doc); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("%w: %w", jsonvalue.ErrInvalidYAML, err)
		}
		v := jsonvalue.FromYAMLNode(&doc)
		if v.IsNull() || v.IsAbsent() {
			continue
		}
		results = append(results, v)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no documents found in multi-document YAML")
	}
	return results, nil
}

// loadNDJSON parses one JSON value per line. Lines that are not JSON are
// kept as plain strings.
func loadNDJSON(input string) ([]jsonvalue.Value, error) {
	lines := strings.Split(normalizeNewlines(input), "\n")
	results := make([]jsonvalue.Value, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := jsonvalue.ParseString(line)
		if err != nil {
			results = append(results, jsonvalue.StringValue(line))
			continue
		}
		results = append(results, v)
	}
	if len(results) == 0 {
		return nil, ErrEmptyInput
	}
	return results, nil
}

// normalizeNewlines maps CRLF and lone CR (progress-bar output) to LF.
func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// isLikelyNDJSON requires several non-empty lines, most of them starting with
// '{' or '['. YAML list items ("- name") never match.
func isLikelyNDJSON(lines []string) bool {
	jsonCount := 0
	nonEmptyCount := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		nonEmptyCount++
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			jsonCount++
		}
	}
	return nonEmptyCount > 1 && jsonCount > nonEmptyCount/2
}

var (
	tomlSectionPattern  = regexp.MustCompile(`^\s*\[{1,2}(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\]{1,2}\s*$`)
	tomlKeyValuePattern = regexp.MustCompile(`^\s*(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+')+(?:\.(?:[a-zA-Z_][a-zA-Z0-9_-]*|"[^"]+"|'[^']+'))*\s*=\s*.+$`)
)

// isLikelyTOML looks for section headers or a majority of key = value lines.
func isLikelyTOML(input string) bool {
	sectionCount := 0
	keyValueCount := 0
	nonEmptyCount := 0
	for _, line := range strings.Split(input, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		nonEmptyCount++
		if tomlSectionPattern.MatchString(line) {
			sectionCount++
		}
		if tomlKeyValuePattern.MatchString(line) {
			keyValueCount++
		}
	}
	if sectionCount > 0 {
		return true
	}
	return nonEmptyCount > 0 && keyValueCount > nonEmptyCount/2
}

// loadTOML decodes TOML. go-toml hands back Go maps, so key order is sorted.
func loadTOML(input string) ([]jsonvalue.Value, error) {
	var data map[string]any
	if err := toml.Unmarshal([]byte(input), &data); err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	v, err := jsonvalue.FromAny(data)
	if err != nil {
		return nil, fmt.Errorf("invalid TOML: %w", err)
	}
	return []jsonvalue.Value{v}, nil
}
