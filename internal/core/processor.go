package core

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/joseph-ayodele/broker-reports/constants"
	"github.com/joseph-ayodele/broker-reports/internal/common"
	"github.com/joseph-ayodele/broker-reports/internal/ingest"
	"github.com/joseph-ayodele/broker-reports/internal/repository"
	"github.com/joseph-ayodele/broker-reports/internal/statement"
)

// Result is the outcome of processing one attachment.
type Result struct {
	Path       string
	Document   *statement.Document
	Status     constants.DocumentStatus
	DocumentID uuid.UUID // set when persisted
	Err        error
}

// Summary aggregates a batch run.
type Summary struct {
	RunID     uuid.UUID
	Documents int
	Parsed    int
	Empty     int
	Failed    int
	Records   int
}

// Processor reads, decodes and extracts attachments, optionally persisting
// every document. A failing document never stops the batch.
type Processor struct {
	logger    *slog.Logger
	extractor *statement.Extractor
	repo      repository.StatementRepository
	charset   string
	workers   int
}

func NewProcessor(
	logger *slog.Logger,
	extractor *statement.Extractor,
	repo repository.StatementRepository,
	charset string,
	workers int,
) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	if extractor == nil {
		extractor = statement.NewExtractor(statement.WithLogger(logger))
	}
	if workers <= 0 {
		workers = 1
	}
	return &Processor{
		logger:    logger,
		extractor: extractor,
		repo:      repo,
		charset:   charset,
		workers:   workers,
	}
}

// ProcessFiles handles paths with bounded parallelism. Results keep the
// order of paths. The returned error is non-nil only when ctx is done.
func (p *Processor) ProcessFiles(ctx context.Context, paths []string) ([]Result, Summary, error) {
	runID := common.RunIDFromContext(ctx)
	if runID == uuid.Nil {
		runID = uuid.New()
		ctx = common.WithRunID(ctx, runID)
	}
	p.logger.Info("processor.run.start", "run_id", runID, "documents", len(paths), "workers", p.workers)

	results := make([]Result, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, path := range paths {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = p.ProcessFile(gctx, path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, summarize(runID, results), err
	}
	if err := ctx.Err(); err != nil {
		return results, summarize(runID, results), err
	}

	sum := summarize(runID, results)
	p.logger.Info("processor.run.done",
		"run_id", runID, "documents", sum.Documents, "parsed", sum.Parsed,
		"empty", sum.Empty, "failed", sum.Failed, "records", sum.Records)
	return results, sum, nil
}

// ProcessFile parses one attachment. Errors are reported in the result.
func (p *Processor) ProcessFile(ctx context.Context, path string) Result {
	name := filepath.Base(path)
	ctx = common.WithDocument(ctx, name)
	res := Result{Path: path}

	doc, err := p.parse(path, name)
	res.Document = doc
	switch {
	case err != nil:
		res.Status = constants.DocumentStatusFailed
		res.Err = err
		p.logger.Warn("processor.document.failed", "file", path, "error", err, "kind", errorKind(err))
	case !doc.HasPortfolio:
		res.Status = constants.DocumentStatusEmpty
		p.logger.Info("processor.document.empty", "file", path)
	default:
		res.Status = constants.DocumentStatusParsed
		p.logger.Debug("processor.document.ok", "file", path, "records", len(doc.Records))
	}

	if p.repo != nil {
		id, err := p.persist(ctx, name, res)
		if err != nil {
			p.logger.Error("processor.persist.failed", "file", path, "error", err)
			res.Status = constants.DocumentStatusFailed
			res.Err = errors.Join(res.Err, err)
		}
		res.DocumentID = id
	}
	return res
}

func (p *Processor) parse(path, name string) (*statement.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, common.WrapError(err, "read "+path)
	}
	markup, err := ingest.DecodeHTML(data, p.charset)
	if err != nil {
		return nil, common.WrapError(err, "decode "+path)
	}
	return p.extractor.Parse(name, markup)
}

func (p *Processor) persist(ctx context.Context, name string, res Result) (uuid.UUID, error) {
	row := repository.DocumentRow{
		RunID:  common.RunIDFromContext(ctx),
		Name:   name,
		Status: res.Status,
	}
	var records []statement.PortfolioRecord
	if d := res.Document; d != nil {
		row.Heading = d.Heading
		row.PeriodFrom = d.From
		row.PeriodTo = d.To
		// Failed documents keep no partial records.
		if res.Err == nil {
			records = d.Records
		}
	}
	if res.Err != nil {
		row.Error = res.Err.Error()
	}
	saved, err := p.repo.SaveDocument(ctx, row, records)
	if err != nil {
		return uuid.Nil, err
	}
	return saved.ID, nil
}

// Records flattens the records of all parsed documents, in order.
func Records(results []Result) []statement.PortfolioRecord {
	var out []statement.PortfolioRecord
	for _, r := range results {
		if r.Err == nil && r.Document != nil {
			out = append(out, r.Document.Records...)
		}
	}
	return out
}

func summarize(runID uuid.UUID, results []Result) Summary {
	s := Summary{RunID: runID}
	for _, r := range results {
		if r.Status == "" {
			continue // not started
		}
		s.Documents++
		switch r.Status {
		case constants.DocumentStatusParsed:
			s.Parsed++
			s.Records += len(r.Document.Records)
		case constants.DocumentStatusEmpty:
			s.Empty++
		case constants.DocumentStatusFailed:
			s.Failed++
		}
	}
	return s
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, statement.ErrStructural):
		return "structural"
	case errors.Is(err, statement.ErrShape):
		return "shape"
	case errors.Is(err, statement.ErrData):
		return "data"
	default:
		return "io"
	}
}
