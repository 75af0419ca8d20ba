// Package rollover carries the latest recurring section of a page forward:
// the newest heading group is archived under the previous heading's title
// and a fresh copy is placed after it.
package rollover

import (
	"fmt"
	"log/slog"

	"github.com/aidanlsb/wikiroll/internal/markdown"
	"github.com/aidanlsb/wikiroll/internal/outline"
	"github.com/aidanlsb/wikiroll/internal/storage"
)

// Format selects the body syntax.
type Format string

const (
	FormatStorage  Format = "xml"
	FormatMarkdown Format = "md"
)

// ParseFormat accepts the names used on the command line.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "xml", "storage", "":
		return FormatStorage, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown body format %q (want xml or md)", s)
}

// Summary describes what a transform did. Duplicated is false when fewer
// than two heading groups were found and nothing was copied.
type Summary struct {
	GroupsIn   int      `json:"groups_in"`
	GroupsOut  int      `json:"groups_out"`
	Carried    string   `json:"carried"`
	Leaders    []string `json:"leaders"`
	Duplicated bool     `json:"duplicated"`
}

// Transformer applies the rollover with a given heading table.
type Transformer struct {
	table  outline.Table
	logger *slog.Logger
}

// Option configures a Transformer.
type Option func(*Transformer)

// WithTable replaces the default h1/h2/h3 heading table.
func WithTable(t outline.Table) Option {
	return func(tr *Transformer) { tr.table = t }
}

// WithLogger sets the logger for group traces.
func WithLogger(l *slog.Logger) Option {
	return func(tr *Transformer) { tr.logger = l }
}

// New builds a Transformer.
func New(opts ...Option) *Transformer {
	tr := &Transformer{table: outline.Headings, logger: slog.Default()}
	for _, o := range opts {
		o(tr)
	}
	return tr
}

// TransformStorage rolls over a storage-format body.
func TransformStorage(value string) (string, Summary, error) {
	return New().Storage(value)
}

// TransformMarkdown rolls over a Markdown document.
func TransformMarkdown(src []byte) ([]byte, Summary, error) {
	return New().Markdown(src)
}

// Transform dispatches on format.
func (tr *Transformer) Transform(format Format, body []byte) ([]byte, Summary, error) {
	switch format {
	case FormatStorage:
		out, sum, err := tr.Storage(string(body))
		return []byte(out), sum, err
	case FormatMarkdown:
		return tr.Markdown(body)
	}
	return nil, Summary{}, fmt.Errorf("unknown body format %q", format)
}

// Storage rolls over a storage-format body.
func (tr *Transformer) Storage(value string) (string, Summary, error) {
	body, err := storage.Parse(value)
	if err != nil {
		return "", Summary{}, err
	}
	nodes, sum, err := tr.apply(body.Nodes())
	if err != nil {
		return "", sum, err
	}
	if err := body.SetNodes(nodes); err != nil {
		return "", sum, err
	}
	return body.String(), sum, nil
}

// Markdown rolls over a Markdown document.
func (tr *Transformer) Markdown(src []byte) ([]byte, Summary, error) {
	doc, err := markdown.Parse(src)
	if err != nil {
		return nil, Summary{}, err
	}
	nodes, sum, err := tr.apply(doc.Nodes())
	if err != nil {
		return nil, sum, err
	}
	if err := doc.SetNodes(nodes); err != nil {
		return nil, sum, err
	}
	return doc.Bytes(), sum, nil
}

func (tr *Transformer) apply(nodes []outline.Node) ([]outline.Node, Summary, error) {
	groups := tr.table.Group(nodes)
	sum := Summary{GroupsIn: len(groups)}
	for _, g := range groups {
		if tr.table.Leads(g[0].Tag()) {
			if len(sum.Leaders) == 0 {
				sum.Carried = g[0].Text()
			}
			sum.Leaders = append(sum.Leaders, g[0].Text())
		}
	}
	tr.logger.Debug("grouped body", "nodes", len(nodes), "groups", len(groups), "leaders", sum.Leaders)

	out, err := tr.table.Rollover(groups)
	if err != nil {
		return nil, sum, fmt.Errorf("rollover: %w", err)
	}
	sum.GroupsOut = len(out)
	sum.Duplicated = len(out) > len(groups)
	return outline.Flatten(out), sum, nil
}
