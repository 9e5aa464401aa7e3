// Package document loads interview transcripts from files, directories, or
// inline text into immutable Document records, detecting speaker identifiers
// along the way.
package document

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Sentinel conditions for structural input problems. Parse-level badness
// inside a transcript never errors; only IO and format problems do.
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrEmptyInput        = errors.New("empty input")
	ErrNoDocuments       = errors.New("no valid documents found")
)

// sniffLen is how much of a CSV file is inspected to decide whether it is a
// table with named columns or raw transcript text. Tunable, not load-bearing.
const sniffLen = 2048

// Document is a loaded interview transcript. Immutable after construction.
type Document struct {
	ID       string
	Content  string
	Speakers []string
	Source   string
}

// Recognized delimited-table column names, matched case-insensitively.
var (
	speakerColumns = map[string]bool{"speaker": true, "speaker_id": true, "participant": true, "id": true}
	textColumns    = map[string]bool{"text": true, "content": true, "utterance": true, "transcript": true, "message": true}
	sniffTerms     = []string{"speaker", "text", "content", "utterance"}
)

// Loader loads documents from the filesystem.
type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	return &Loader{logger: logger}
}

// Load reads documents from a single file or every supported file in a
// directory. Directory loads skip files that fail to load and only error when
// nothing loads at all.
func (l *Loader) Load(path string) ([]Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("path not found: %w", err)
	}

	if info.IsDir() {
		return l.loadDirectory(path)
	}

	doc, err := l.loadFile(path)
	if err != nil {
		return nil, err
	}
	return []Document{doc}, nil
}

func (l *Loader) loadDirectory(dir string) ([]Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var documents []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".txt" && ext != ".csv" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		doc, err := l.loadFile(path)
		if err != nil {
			l.logger.Warn("failed to load document", "path", path, "error", err)
			continue
		}
		documents = append(documents, doc)
	}

	if len(documents) == 0 {
		return nil, fmt.Errorf("%w in directory %s (supported formats: .txt, .csv)", ErrNoDocuments, dir)
	}
	return documents, nil
}

func (l *Loader) loadFile(path string) (Document, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt":
		return loadTxt(path)
	case ".csv":
		return loadCSV(path)
	default:
		return Document{}, fmt.Errorf("%w: %s (supported formats: .txt, .csv)", ErrUnsupportedFormat, ext)
	}
}

func loadTxt(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}

	content := string(data)
	return Document{
		ID:       stem(path),
		Content:  content,
		Speakers: DetectSpeakers(content),
		Source:   path,
	}, nil
}

// loadCSV reduces a delimited file to a single text blob. When a speaker-like
// column exists, rows become "speaker: text" lines and the column's values,
// de-duplicated in encounter order, form the speaker set. Files whose first
// bytes show no table vocabulary are treated as raw transcript text.
func loadCSV(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return Document{}, fmt.Errorf("%s: %w", path, ErrEmptyInput)
	}

	if !looksLikeTable(data) {
		content := string(data)
		return Document{
			ID:       stem(path),
			Content:  content,
			Speakers: DetectSpeakers(content),
			Source:   path,
		}, nil
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return Document{}, fmt.Errorf("%s: %w", path, ErrEmptyInput)
	}
	if err != nil {
		return Document{}, fmt.Errorf("parse csv %s: %w", path, err)
	}

	speakerCol, textCol := resolveColumns(header)

	var lines []string
	var speakers []string
	seen := make(map[string]bool)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Document{}, fmt.Errorf("parse csv %s: %w", path, err)
		}

		text := ""
		if textCol < len(record) {
			text = strings.TrimSpace(record[textCol])
		}

		speaker := ""
		if speakerCol >= 0 && speakerCol < len(record) {
			speaker = strings.TrimSpace(record[speakerCol])
		}

		if speaker != "" {
			if !seen[speaker] {
				seen[speaker] = true
				speakers = append(speakers, speaker)
			}
			lines = append(lines, speaker+": "+text)
		} else {
			lines = append(lines, text)
		}
	}

	content := strings.Join(lines, "\n")
	if len(speakers) == 0 {
		speakers = DetectSpeakers(content)
	}

	return Document{
		ID:       stem(path),
		Content:  content,
		Speakers: speakers,
		Source:   path,
	}, nil
}

// resolveColumns maps the header to a speaker column (-1 when absent) and a
// text column (first column when no recognized name matches). Later header
// matches win, mirroring how duplicate columns shadow each other.
func resolveColumns(header []string) (speakerCol, textCol int) {
	speakerCol, textCol = -1, -1
	for i, name := range header {
		key := strings.ToLower(strings.TrimSpace(name))
		if speakerColumns[key] {
			speakerCol = i
		} else if textColumns[key] {
			textCol = i
		}
	}
	if textCol < 0 {
		textCol = 0
	}
	return speakerCol, textCol
}

func looksLikeTable(data []byte) bool {
	sample := data
	if len(sample) > sniffLen {
		sample = sample[:sniffLen]
	}
	lower := strings.ToLower(string(sample))
	for _, term := range sniffTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// FromText creates a Document from an in-memory string.
func FromText(text, id string) Document {
	if id == "" {
		id = "inline"
	}
	return Document{
		ID:       id,
		Content:  text,
		Speakers: DetectSpeakers(text),
		Source:   "<string>",
	}
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
