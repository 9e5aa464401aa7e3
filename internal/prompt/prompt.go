// Package prompt builds the instruction prompt sent to the model for each
// document. The default template carries {doc_id}, {speakers}, {text}, and
// {codebook} placeholders; callers may replace either the whole template or
// just the scoring criteria section.
package prompt

import (
	"fmt"
	"strings"

	"github.com/frey-perez/encoding-prompter/internal/codebook"
	"github.com/frey-perez/encoding-prompter/internal/document"
)

// DefaultScoringCriteria is the ordinal scoring instruction used when no
// override is given.
const DefaultScoringCriteria = `Provide an ordinal score (0=construct is not mentioned or is negated, 1 = indirect mention or not clear, 2 = clear and prototypical mention of the construct) as to whether the interview clearly mentions the construct, according to its definition and examples.`

// The default template is assembled from parts so the scoring criteria
// section can be swapped structurally rather than by substring matching.
const (
	defaultHead = `You are analyzing an interview transcript to identify and extract instances of psychological constructs.

Document ID: {doc_id}
Speakers in this document: {speakers}

Text to analyze:
{text}

Codebook of constructs:
{codebook}

Instructions:
1. Identify which constructs from the codebook appear in the text
2. For each construct found, extract ALL instances where it appears
3. For each instance, provide:
   - Document ID (use exactly: {doc_id})
   - Speaker ID (use the EXACT speaker ID from the transcript, e.g., {speakers})
   - The construct name (use the exact name from the codebook)
   - An exact quote from the text
   - `

	defaultTail = `

Format your response EXACTLY like this:
DOC_ID: {doc_id}
SPEAKER_ID: [use exact speaker ID from transcript]
CONSTRUCT: [construct name]
QUOTE: [exact quote from text]
CONFIDENCE: [score]

(Continue for all instances of all constructs found)

Your response:`
)

// Options customizes prompt construction. Template, when set, replaces the
// whole default template and must contain {text} and {codebook}.
// ScoringCriteria swaps only the scoring section of the default template and
// is ignored when Template is set.
type Options struct {
	Template        string
	ScoringCriteria string
}

// Template is a validated prompt template ready to render per document.
type Template struct {
	text string
}

// Build validates the options and produces a renderable template.
func Build(opts Options) (Template, error) {
	if opts.Template != "" {
		if !strings.Contains(opts.Template, "{text}") || !strings.Contains(opts.Template, "{codebook}") {
			return Template{}, fmt.Errorf("custom prompt must contain {text} and {codebook} placeholders")
		}
		return Template{text: opts.Template}, nil
	}

	criteria := opts.ScoringCriteria
	if criteria == "" {
		criteria = DefaultScoringCriteria
	}
	return Template{text: defaultHead + criteria + defaultTail}, nil
}

// Render substitutes the document, its speakers, and the codebook into the
// template. Documents without detected speakers render as "Unknown".
func (t Template) Render(doc document.Document, cb *codebook.Codebook) string {
	speakers := "Unknown"
	if len(doc.Speakers) > 0 {
		speakers = strings.Join(doc.Speakers, ", ")
	}

	return strings.NewReplacer(
		"{doc_id}", doc.ID,
		"{speakers}", speakers,
		"{text}", doc.Content,
		"{codebook}", cb.String(),
	).Replace(t.text)
}
