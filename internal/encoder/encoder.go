// Package encoder orchestrates the encoding pipeline: render a prompt per
// document, send it to the model, and parse the reply into tabular instances.
package encoder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/frey-perez/encoding-prompter/internal/codebook"
	"github.com/frey-perez/encoding-prompter/internal/document"
	"github.com/frey-perez/encoding-prompter/internal/openrouter"
	"github.com/frey-perez/encoding-prompter/internal/parser"
	"github.com/frey-perez/encoding-prompter/internal/prompt"
	"github.com/frey-perez/encoding-prompter/internal/results"
)

const (
	defaultMaxTokens   = 4096
	defaultTemperature = 0.1
)

// Options tunes a single encoding run. Zero values take the defaults above.
type Options struct {
	Template        string
	ScoringCriteria string
	MaxTokens       int
	Temperature     float64

	// OnDocumentComplete fires after each document is parsed, before the
	// next one is sent. Optional.
	OnDocumentComplete func(runID, docID string, table results.Table)
}

// Encoder drives documents through the model one at a time.
type Encoder struct {
	client   *openrouter.Client
	codebook *codebook.Codebook
	template prompt.Template
	opts     Options
	logger   *slog.Logger
}

func New(client *openrouter.Client, cb *codebook.Codebook, opts Options, logger *slog.Logger) (*Encoder, error) {
	tmpl, err := prompt.Build(prompt.Options{
		Template:        opts.Template,
		ScoringCriteria: opts.ScoringCriteria,
	})
	if err != nil {
		return nil, fmt.Errorf("build template: %w", err)
	}

	if opts.MaxTokens == 0 {
		opts.MaxTokens = defaultMaxTokens
	}
	if opts.Temperature == 0 {
		opts.Temperature = defaultTemperature
	}

	return &Encoder{
		client:   client,
		codebook: cb,
		template: tmpl,
		opts:     opts,
		logger:   logger,
	}, nil
}

// Encode runs every document through the model sequentially and merges the
// per-document tables in input order. A model failure aborts the run; partial
// results are discarded.
func (e *Encoder) Encode(ctx context.Context, docs []document.Document) (results.Table, error) {
	runID := uuid.NewString()
	e.logger.Info("encoding run started",
		"run_id", runID,
		"documents", len(docs),
		"constructs", e.codebook.Len(),
		"model", e.client.Model())

	tables := make([]results.Table, 0, len(docs))
	for _, doc := range docs {
		table, err := e.encodeDocument(ctx, runID, doc)
		if err != nil {
			return results.Table{}, fmt.Errorf("encode %s: %w", doc.ID, err)
		}
		tables = append(tables, table)
	}

	merged := results.Merge(tables)
	e.logger.Info("encoding run finished", "run_id", runID, "instances", len(merged.Rows))
	return merged, nil
}

// EncodeText encodes a single in-memory transcript.
func (e *Encoder) EncodeText(ctx context.Context, text, docID string) (results.Table, error) {
	return e.Encode(ctx, []document.Document{document.FromText(text, docID)})
}

func (e *Encoder) encodeDocument(ctx context.Context, runID string, doc document.Document) (results.Table, error) {
	rendered := e.template.Render(doc, e.codebook)

	resp, err := e.client.Complete(ctx, rendered, e.opts.MaxTokens, e.opts.Temperature)
	if err != nil {
		return results.Table{}, fmt.Errorf("model call: %w", err)
	}

	instances := parser.Parse(resp.Content, doc.ID)
	table := results.FromInstances(instances)

	attrs := []any{
		"run_id", runID,
		"doc_id", doc.ID,
		"instances", len(instances),
		"model", resp.Model,
	}
	if resp.Usage != nil {
		attrs = append(attrs, "total_tokens", resp.Usage.TotalTokens)
	}
	e.logger.Info("document encoded", attrs...)

	if e.opts.OnDocumentComplete != nil {
		e.opts.OnDocumentComplete(runID, doc.ID, table)
	}
	return table, nil
}
