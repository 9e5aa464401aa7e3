// Package parser turns raw model replies into typed construct instances.
//
// Model output is a loose contract: labeled fields in free text, possibly
// reordered, missing, or spread over multiple lines. Parsing is best-effort —
// bad values degrade to empty strings or the -1 confidence sentinel, and the
// only way a block is rejected entirely is a missing construct name.
package parser

import (
	"regexp"
	"strconv"
	"strings"
)

// ConfidenceUnparseable marks a confidence field that was absent or carried
// no usable number. Valid model scores are 0, 1, or 2.
const ConfidenceUnparseable = -1

// Instance is a single identified construct occurrence.
type Instance struct {
	DocID      string
	SpeakerID  string
	Construct  string
	Quote      string
	Confidence int
}

// blockMarker starts a new instance block when found at the beginning of a line.
var blockMarker = regexp.MustCompile(`(?i)^(?:DOC_ID:|DOC ID:)`)

// fieldRule locates one labeled field inside a block. The captured value runs
// from the end of the label to the earliest terminator occurrence (matched
// case-insensitively), so a value — notably a quote — may span lines.
type fieldRule struct {
	label       *regexp.Regexp
	terminators []string
}

var (
	docIDRule      = fieldRule{regexp.MustCompile(`(?i)DOC[_\s]?ID:\s*`), []string{"\n", "speaker"}}
	speakerIDRule  = fieldRule{regexp.MustCompile(`(?i)SPEAKER[_\s]?ID:\s*`), []string{"\n", "construct"}}
	constructRule  = fieldRule{regexp.MustCompile(`(?i)CONSTRUCT:\s*`), []string{"\n", "quote"}}
	quoteRule      = fieldRule{regexp.MustCompile(`(?i)QUOTE:\s*`), []string{"\nconfidence", "\ndoc"}}
	confidenceRule = fieldRule{regexp.MustCompile(`(?i)CONFIDENCE:\s*`), []string{"\n"}}
)

var digitRun = regexp.MustCompile(`\d+`)

// Parse extracts construct instances from a raw model reply. knownDocID, when
// non-empty, replaces whatever doc id the model reported: the identifying key
// is never trusted from model output. Output order follows block order.
func Parse(raw, knownDocID string) []Instance {
	var instances []Instance

	for _, block := range splitBlocks(raw) {
		if strings.TrimSpace(block) == "" {
			continue
		}

		inst, ok := parseBlock(block)
		if !ok {
			continue
		}
		if knownDocID != "" {
			inst.DocID = knownDocID
		}
		instances = append(instances, inst)
	}

	return instances
}

// splitBlocks cuts the reply at every line that opens with a DOC_ID marker.
// The marker line belongs to the block it starts. A reply with no markers is
// a single block.
func splitBlocks(raw string) []string {
	lines := strings.Split(raw, "\n")

	var blocks []string
	var current []string
	for i, line := range lines {
		if i > 0 && blockMarker.MatchString(line) {
			blocks = append(blocks, strings.Join(current, "\n"))
			current = nil
		}
		current = append(current, line)
	}
	return append(blocks, strings.Join(current, "\n"))
}

// fields is the optional-field accumulator filled by the rules before the
// typed Instance is built.
type fields struct {
	docID      string
	speakerID  string
	construct  string
	quote      string
	confidence string
}

// parseBlock extracts one instance from a block. Returns false when the block
// has no construct — such blocks are dropped, never emitted empty.
func parseBlock(block string) (Instance, bool) {
	f := fields{
		docID:      extract(block, docIDRule),
		speakerID:  extract(block, speakerIDRule),
		construct:  extract(block, constructRule),
		quote:      extract(block, quoteRule),
		confidence: extract(block, confidenceRule),
	}

	if f.construct == "" {
		return Instance{}, false
	}

	return Instance{
		DocID:      f.docID,
		SpeakerID:  f.speakerID,
		Construct:  f.construct,
		Quote:      f.quote,
		Confidence: parseConfidence(f.confidence),
	}, true
}

// extract applies a single field rule to the block. The rule's label is
// searched anywhere in the block, so field order does not matter.
func extract(block string, rule fieldRule) string {
	loc := rule.label.FindStringIndex(block)
	if loc == nil {
		return ""
	}

	value := block[loc[1]:]
	lower := strings.ToLower(value)
	cut := len(value)
	for _, term := range rule.terminators {
		if i := strings.Index(lower, term); i >= 0 && i < cut {
			cut = i
		}
	}
	return strings.TrimSpace(value[:cut])
}

// parseConfidence never fails: a clean integer parses directly, otherwise the
// first run of digits wins, otherwise the sentinel.
func parseConfidence(captured string) int {
	if captured == "" {
		return ConfidenceUnparseable
	}
	if n, err := strconv.Atoi(captured); err == nil {
		return n
	}
	if run := digitRun.FindString(captured); run != "" {
		if n, err := strconv.Atoi(run); err == nil {
			return n
		}
	}
	return ConfidenceUnparseable
}
