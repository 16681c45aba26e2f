// Package statement extracts the securities portfolio table from broker
// report attachments.
package statement

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/joseph-ayodele/broker-reports/internal/schema"
)

// DefaultSectionMarker is the paragraph text that introduces the portfolio table.
const DefaultSectionMarker = "Портфель Ценных Бумаг"

var (
	reDocumentEnd = regexp.MustCompile(`(?i)</html>`)
	reLineBreak   = regexp.MustCompile(`(?i)<br\s*/?>`)
	rePeriod      = regexp.MustCompile(`(\d+\.\d+\.\d+)\s+по\s+(\d+\.\d+\.\d+)`)
)

// Document is the result of parsing one attachment.
type Document struct {
	Name string
	// Heading is the text of the first h3 element.
	Heading string
	// PeriodFrom and PeriodTo hold the range exactly as written in the heading.
	PeriodFrom string
	PeriodTo   string
	// From and To are the parsed period boundaries.
	From time.Time
	To   time.Time
	// HasPortfolio is false when the section marker is absent.
	HasPortfolio bool
	Records      []PortfolioRecord
}

// Extractor finds the portfolio table in a report and turns its rows into
// records. It holds no per-call state and is safe for concurrent use.
type Extractor struct {
	marker string
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSectionMarker overrides the paragraph text that precedes the table.
func WithSectionMarker(marker string) Option {
	return func(e *Extractor) {
		if strings.TrimSpace(marker) != "" {
			e.marker = marker
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor returns an Extractor for the "Портфель Ценных Бумаг" section.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		marker: DefaultSectionMarker,
		logger: slog.Default(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract returns the portfolio records of a single report, in row order. A
// report without the portfolio section yields no records and no error.
func Extract(markup string) ([]PortfolioRecord, error) {
	return NewExtractor().Extract(markup)
}

// Extract is the method form of the package level Extract.
func (e *Extractor) Extract(markup string) ([]PortfolioRecord, error) {
	return e.ExtractDocument("", markup)
}

// ExtractDocument is Extract with errors tagged by document name.
func (e *Extractor) ExtractDocument(name, markup string) ([]PortfolioRecord, error) {
	doc, err := e.Parse(name, markup)
	if err != nil {
		return nil, err
	}
	return doc.Records, nil
}

// Parse runs the full extraction and also reports the heading and period.
func (e *Extractor) Parse(name, markup string) (*Document, error) {
	root, err := html.Parse(strings.NewReader(prepare(markup)))
	if err != nil {
		return nil, fmt.Errorf("%sparse markup: %w", docPrefix(name), err)
	}

	doc := &Document{Name: name}

	h3 := findFirst(root, func(n *html.Node) bool { return n.DataAtom == atom.H3 })
	if h3 == nil {
		return nil, &HeadingNotFoundError{Document: name}
	}
	doc.Heading = collapseSpace(textContent(h3))
	m := rePeriod.FindStringSubmatch(doc.Heading)
	if m == nil {
		return nil, &PeriodNotFoundError{Document: name, Heading: doc.Heading}
	}
	doc.PeriodFrom, doc.PeriodTo = m[1], m[2]
	if doc.From, err = schema.ParseDate(doc.PeriodFrom); err != nil {
		return nil, &PeriodNotFoundError{Document: name, Heading: doc.Heading, Err: err}
	}
	if doc.To, err = schema.ParseDate(doc.PeriodTo); err != nil {
		return nil, &PeriodNotFoundError{Document: name, Heading: doc.Heading, Err: err}
	}

	section := findFirst(root, func(n *html.Node) bool {
		return n.DataAtom == atom.P && strings.Contains(collapseSpace(textContent(n)), e.marker)
	})
	if section == nil {
		e.logger.Debug("statement.section.absent", "document", name, "marker", e.marker)
		return doc, nil
	}
	doc.HasPortfolio = true

	table := tableAfter(section)
	if table == nil {
		return nil, &TableNotFoundError{Document: name, Marker: e.marker}
	}

	want := CellCount()
	for i, cells := range dataRows(table) {
		if len(cells) != want {
			return nil, &RowShapeError{Document: name, Row: i, Cells: len(cells), Want: want}
		}
		rec, err := NewPortfolioRecord(append(cells, doc.PeriodFrom, doc.PeriodTo))
		if err != nil {
			return nil, &RowError{Document: name, Row: i, Err: err}
		}
		doc.Records = append(doc.Records, rec)
	}

	e.logger.Debug("statement.extract.ok",
		"document", name,
		"period_from", doc.PeriodFrom,
		"period_to", doc.PeriodTo,
		"records", len(doc.Records),
	)
	return doc, nil
}

// prepare drops everything after the first closing html tag and rewrites line
// breaks as a literal `\n` so they survive as cell text.
func prepare(markup string) string {
	if loc := reDocumentEnd.FindStringIndex(markup); loc != nil {
		markup = markup[:loc[1]]
	}
	return reLineBreak.ReplaceAllString(markup, `\n`)
}
