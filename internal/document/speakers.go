package document

import (
	"regexp"
	"sort"
	"strings"
)

// speakerHeader matches an explicit SPEAKERS header: the literal line followed
// by a line of comma/whitespace-separated identifiers.
var speakerHeader = regexp.MustCompile(`SPEAKERS\s*\n([^\n]+)`)

var (
	speakerToken = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	tokenSplit   = regexp.MustCompile(`[,\s]+`)
)

// inlinePatterns are the structural heuristics for speaker labels, applied
// line-anchored over the whole transcript. All of them run; matches accumulate.
var inlinePatterns = []*regexp.Regexp{
	// "TH-001  utterance" — uppercase prefix, dash, 3 digits, 2+ spaces.
	regexp.MustCompile(`(?m)^([A-Z]{2,}-\d{3})\s{2,}`),
	// "Interviewer: utterance"
	regexp.MustCompile(`(?m)^([A-Za-z0-9_-]+):\s*`),
	// "[PA-001] utterance"
	regexp.MustCompile(`(?m)^\[([A-Za-z0-9_-]+)\]\s*`),
}

// DetectSpeakers extracts speaker identifiers from transcript text. The
// explicit header list and the inline patterns are unioned; the result is
// de-duplicated and sorted. Detection failure is an empty set, never an error.
func DetectSpeakers(text string) []string {
	found := make(map[string]bool)

	if m := speakerHeader.FindStringSubmatch(text); m != nil {
		for _, token := range tokenSplit.Split(m[1], -1) {
			token = strings.TrimSpace(token)
			if token != "" && speakerToken.MatchString(token) {
				found[token] = true
			}
		}
	}

	for _, pattern := range inlinePatterns {
		for _, m := range pattern.FindAllStringSubmatch(text, -1) {
			found[m[1]] = true
		}
	}

	speakers := make([]string, 0, len(found))
	for s := range found {
		speakers = append(speakers, s)
	}
	sort.Strings(speakers)
	return speakers
}
