// Package codebook loads construct definitions from JSON, CSV, or plain-text
// files and renders them for prompt inclusion.
package codebook

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported codebook format")
	ErrEmptyInput        = errors.New("empty codebook input")
)

// Construct is a single named psychological concept.
type Construct struct {
	Name       string   `json:"name"`
	Definition string   `json:"definition"`
	Examples   []string `json:"examples,omitempty"`
}

// String renders the construct for prompt inclusion.
func (c Construct) String() string {
	var b strings.Builder
	b.WriteString("Construct: " + c.Name + "\nDefinition: " + c.Definition)
	if len(c.Examples) > 0 {
		b.WriteString("\nExamples:\n  - " + strings.Join(c.Examples, "\n  - "))
	}
	return b.String()
}

// Codebook is a collection of constructs loaded from one source file.
type Codebook struct {
	Constructs []Construct
	Source     string
}

// FromFile loads a codebook, dispatching on file extension.
func FromFile(path string) (*Codebook, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("codebook not found: %w", err)
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return fromJSON(path)
	case ".csv":
		return fromCSV(path)
	case ".txt":
		return fromTxt(path)
	default:
		return nil, fmt.Errorf("%w: %s (supported formats: .json, .csv, .txt)", ErrUnsupportedFormat, ext)
	}
}

// fromJSON accepts three shapes: {"constructs": [...]}, a bare list, or a
// name-keyed mapping of {definition, examples}.
func fromJSON(path string) (*Codebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	badFormat := fmt.Errorf("json codebook %s: format not recognized "+
		"(expected {constructs:[...]}, a construct list, or a name-keyed mapping)", path)

	var object map[string]json.RawMessage
	if err := json.Unmarshal(data, &object); err != nil {
		// Not an object: the bare-list shape.
		var list []Construct
		if err := json.Unmarshal(data, &list); err != nil {
			return nil, badFormat
		}
		return &Codebook{Constructs: list, Source: path}, nil
	}

	if raw, ok := object["constructs"]; ok {
		var list []Construct
		if err := json.Unmarshal(raw, &list); err != nil {
			return nil, badFormat
		}
		return &Codebook{Constructs: list, Source: path}, nil
	}

	// Name-keyed mapping. Keys are sorted for a reproducible construct order.
	var keyed map[string]struct {
		Definition string   `json:"definition"`
		Examples   []string `json:"examples"`
	}
	if err := json.Unmarshal(data, &keyed); err != nil {
		return nil, badFormat
	}

	names := make([]string, 0, len(keyed))
	for name := range keyed {
		names = append(names, name)
	}
	sort.Strings(names)

	constructs := make([]Construct, 0, len(names))
	for _, name := range names {
		details := keyed[name]
		constructs = append(constructs, Construct{
			Name:       name,
			Definition: details.Definition,
			Examples:   details.Examples,
		})
	}
	return &Codebook{Constructs: constructs, Source: path}, nil
}

func fromCSV(path string) (*Codebook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyInput)
	}
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", path, err)
	}

	cols := make(map[string]int)
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	field := func(record []string, names ...string) string {
		for _, name := range names {
			if i, ok := cols[name]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
		}
		return ""
	}

	var constructs []Construct
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv %s: %w", path, err)
		}

		name := field(record, "name", "construct")
		if name == "" {
			continue
		}
		constructs = append(constructs, Construct{
			Name:       name,
			Definition: field(record, "definition", "description"),
			Examples:   splitExamples(field(record, "examples", "example")),
		})
	}

	return &Codebook{Constructs: constructs, Source: path}, nil
}

// fromTxt accepts CONSTRUCT:/DEFINITION:/EXAMPLES: tagged blocks, or the
// simple form of blank-line-separated "name then definition lines" blocks.
func fromTxt(path string) (*Codebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	content := string(data)
	var constructs []Construct
	if strings.Contains(strings.ToUpper(content), "CONSTRUCT:") {
		constructs = parseTaggedTxt(content)
	} else {
		constructs = parseSimpleTxt(content)
	}
	return &Codebook{Constructs: constructs, Source: path}, nil
}

func parseTaggedTxt(content string) []Construct {
	var constructs []Construct
	var current *Construct

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		upper := strings.ToUpper(trimmed)

		switch {
		case strings.HasPrefix(upper, "CONSTRUCT:"):
			if current != nil {
				constructs = append(constructs, *current)
			}
			current = &Construct{Name: strings.TrimSpace(trimmed[len("CONSTRUCT:"):])}
		case strings.HasPrefix(upper, "DEFINITION:") && current != nil:
			current.Definition = strings.TrimSpace(trimmed[len("DEFINITION:"):])
		case strings.HasPrefix(upper, "EXAMPLES:") && current != nil:
			current.Examples = splitExamples(strings.TrimSpace(trimmed[len("EXAMPLES:"):]))
		}
	}
	if current != nil {
		constructs = append(constructs, *current)
	}
	return constructs
}

func parseSimpleTxt(content string) []Construct {
	var constructs []Construct
	for _, block := range strings.Split(strings.TrimSpace(content), "\n\n") {
		var lines []string
		for _, line := range strings.Split(block, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
		if len(lines) == 0 {
			continue
		}
		constructs = append(constructs, Construct{
			Name:       lines[0],
			Definition: strings.Join(lines[1:], " "),
		})
	}
	return constructs
}

func splitExamples(s string) []string {
	if s == "" {
		return nil
	}
	var examples []string
	for _, part := range strings.Split(s, ";") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			examples = append(examples, trimmed)
		}
	}
	return examples
}

// String renders the whole codebook for prompt inclusion.
func (cb *Codebook) String() string {
	parts := make([]string, len(cb.Constructs))
	for i, c := range cb.Constructs {
		parts[i] = c.String()
	}
	return strings.Join(parts, "\n\n")
}

// Len reports the number of constructs.
func (cb *Codebook) Len() int {
	return len(cb.Constructs)
}
