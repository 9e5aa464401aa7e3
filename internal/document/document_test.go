package document

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoad_TxtFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "interview_01.txt", "Interviewer: How are you?\nPA-001: Fine, thanks.\n")

	docs, err := NewLoader(discardLogger()).Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}

	doc := docs[0]
	if doc.ID != "interview_01" {
		t.Errorf("id = %q, want filename stem interview_01", doc.ID)
	}
	if doc.Source != path {
		t.Errorf("source = %q, want %q", doc.Source, path)
	}
	want := []string{"Interviewer", "PA-001"}
	if !reflect.DeepEqual(doc.Speakers, want) {
		t.Errorf("speakers = %v, want %v", doc.Speakers, want)
	}
}

func TestLoad_MissingPath(t *testing.T) {
	_, err := NewLoader(discardLogger()).Load(filepath.Join(t.TempDir(), "nope.txt"))
	if err == nil {
		t.Fatal("expected error for missing path")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected not-found condition, got %v", err)
	}
}

func TestLoad_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "scan.pdf", "%PDF-1.4")

	_, err := NewLoader(discardLogger()).Load(path)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestLoad_CSVWithSpeakerColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "session.csv",
		"speaker,text\nZoe,Hello there\nAbe,Hi Zoe\nZoe,How have you been\n")

	docs, err := NewLoader(discardLogger()).Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	doc := docs[0]

	want := "Zoe: Hello there\nAbe: Hi Zoe\nZoe: How have you been"
	if doc.Content != want {
		t.Errorf("content = %q, want %q", doc.Content, want)
	}

	// Speaker column values keep encounter order, not sorted order.
	if !reflect.DeepEqual(doc.Speakers, []string{"Zoe", "Abe"}) {
		t.Errorf("speakers = %v, want [Zoe Abe] in encounter order", doc.Speakers)
	}
}

func TestLoad_CSVSingleTextColumn(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "notes.csv", "utterance\nfirst line\nsecond line\n")

	docs, err := NewLoader(discardLogger()).Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs[0].Content != "first line\nsecond line" {
		t.Errorf("content = %q", docs[0].Content)
	}
}

func TestLoad_CSVWithoutTableVocabularyIsRawText(t *testing.T) {
	dir := t.TempDir()
	raw := "PA-001  I felt better after the visit.\nTH-002  Tell me more.\n"
	path := writeFile(t, dir, "raw.csv", raw)

	docs, err := NewLoader(discardLogger()).Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if docs[0].Content != raw {
		t.Errorf("content = %q, want raw file content", docs[0].Content)
	}
	if !reflect.DeepEqual(docs[0].Speakers, []string{"PA-001", "TH-002"}) {
		t.Errorf("speakers = %v", docs[0].Speakers)
	}
}

func TestLoad_EmptyCSV(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "empty.csv", "")

	_, err := NewLoader(discardLogger()).Load(path)
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
}

func TestLoad_DirectorySkipsUnsupported(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "Interviewer: hello\n")
	writeFile(t, dir, "b.pdf", "%PDF-1.4")

	docs, err := NewLoader(discardLogger()).Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected exactly 1 document, got %d", len(docs))
	}
	if docs[0].ID != "a" {
		t.Errorf("id = %q, want a", docs[0].ID)
	}
}

func TestLoad_DirectoryWithNoLoadableFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "only.pdf", "%PDF-1.4")

	_, err := NewLoader(discardLogger()).Load(dir)
	if !errors.Is(err, ErrNoDocuments) {
		t.Fatalf("expected ErrNoDocuments, got %v", err)
	}
}

func TestLoad_DirectorySortedOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "B: later\n")
	writeFile(t, dir, "a.txt", "A: earlier\n")

	docs, err := NewLoader(discardLogger()).Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 || docs[0].ID != "a" || docs[1].ID != "b" {
		t.Errorf("documents not in sorted name order: %v", docs)
	}
}

func TestLoad_DirectoryContinuesPastBadFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.csv", "")
	writeFile(t, dir, "good.txt", "PA-001  fine\n")

	docs, err := NewLoader(discardLogger()).Load(dir)
	if err != nil {
		t.Fatalf("expected partial success, got %v", err)
	}
	if len(docs) != 1 || docs[0].ID != "good" {
		t.Errorf("expected only the good document, got %v", docs)
	}
}

func TestFromText(t *testing.T) {
	doc := FromText("Alice: hi\n", "sample")
	if doc.ID != "sample" {
		t.Errorf("id = %q, want sample", doc.ID)
	}
	if doc.Source != "<string>" {
		t.Errorf("source = %q, want <string>", doc.Source)
	}
	if !reflect.DeepEqual(doc.Speakers, []string{"Alice"}) {
		t.Errorf("speakers = %v, want [Alice]", doc.Speakers)
	}

	doc = FromText("no speakers here", "")
	if doc.ID != "inline" {
		t.Errorf("empty id should default to inline, got %q", doc.ID)
	}
}

func TestDetectSpeakers_HeaderUnion(t *testing.T) {
	text := "SPEAKERS\nAlice, Bob\n\nAlice\nHello\n"
	got := DetectSpeakers(text)
	if !reflect.DeepEqual(got, []string{"Alice", "Bob"}) {
		t.Errorf("speakers = %v, want [Alice Bob]", got)
	}
}

func TestDetectSpeakers_AllPatterns(t *testing.T) {
	text := "TH-001  Tell me about it.\nInterviewer: Go on.\n[PA-001] I will.\n"
	got := DetectSpeakers(text)
	want := []string{"Interviewer", "PA-001", "TH-001"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("speakers = %v, want %v", got, want)
	}
}

func TestDetectSpeakers_Idempotent(t *testing.T) {
	text := "SPEAKERS\nZed Amy\n\nZed: hi\nAmy: hello\n"
	first := DetectSpeakers(text)
	second := DetectSpeakers(text)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("detection not idempotent: %v vs %v", first, second)
	}
}

func TestDetectSpeakers_NoMatches(t *testing.T) {
	got := DetectSpeakers("just a paragraph of plain prose with no labels")
	if len(got) != 0 {
		t.Errorf("expected empty speaker set, got %v", got)
	}
}
