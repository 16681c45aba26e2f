package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"text/tabwriter"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/broker-reports/internal/common"
	"github.com/joseph-ayodele/broker-reports/internal/core"
	"github.com/joseph-ayodele/broker-reports/internal/export"
	"github.com/joseph-ayodele/broker-reports/internal/ingest"
	repo "github.com/joseph-ayodele/broker-reports/internal/repository"
	"github.com/joseph-ayodele/broker-reports/internal/statement"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	cfg := common.LoadConfig()

	var (
		dir     = flag.String("dir", cfg.Storage.AttachmentsDir, "directory with saved report attachments")
		out     = flag.String("out", cfg.Batch.Output, "output XLSX file path (defaults to <dir>/../portfolio.xlsx)")
		useDB   = flag.Bool("db", false, "store documents and records in the configured database")
		inmem   = flag.Bool("inmem", false, "store into an in-memory SQLite database")
		workers = flag.Int("workers", cfg.Batch.Workers, "documents parsed in parallel")
		cs      = flag.String("charset", cfg.Storage.Charset, "force attachment charset (default: detect)")
		marker  = flag.String("marker", statement.DefaultSectionMarker, "portfolio section marker text")
		runID   = flag.String("run", "", "re-export a stored batch run from the configured database instead of parsing")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *runID != "" {
		if *out == "" {
			*out = "portfolio-" + *runID + ".xlsx"
		}
		os.Exit(exportRun(cfg, *runID, *out, *verbose))
	}

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "portfolio.xlsx")
	}

	logger := newLogger(*verbose)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	files, stats, err := ingest.ScanDirectory(*dir)
	if err != nil {
		logger.Error("failed to scan directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	logger.Info("scan complete", "dir", *dir, "scanned", stats.Scanned, "matched", stats.Matched)

	var statements repo.StatementRepository
	if *useDB || *inmem {
		dbCfg := repo.ConfigFrom(cfg.Database)
		if *inmem {
			dbCfg = repo.InMemory()
		}
		db, err := repo.Open(ctx, dbCfg, logger)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.EnsureSchema(ctx); err != nil {
			logger.Error("failed to prepare database", "error", err)
			os.Exit(1)
		}
		statements = repo.NewStatementRepository(db, logger)
	}

	extractor := statement.NewExtractor(statement.WithSectionMarker(*marker), statement.WithLogger(logger))
	processor := core.NewProcessor(logger, extractor, statements, *cs, *workers)

	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	results, sum, err := processor.ProcessFiles(ctx, paths)
	if err != nil {
		logger.Error("batch interrupted", "error", err)
		os.Exit(1)
	}

	xlsx, err := export.NewService(statements, logger).ExportRecordsXLSX(ctx, core.Records(results))
	if err != nil {
		logger.Error("failed to export records", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"run_id", sum.RunID,
		"documents", sum.Documents,
		"parsed", sum.Parsed,
		"empty", sum.Empty,
		"failed", sum.Failed,
		"records", sum.Records,
		"output_file", *out)

	printSummary(results, sum, *out)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

// exportRun writes the records stored for a previous run and returns the
// process exit code.
func exportRun(cfg *common.Config, rawID, out string, verbose bool) int {
	logger := newLogger(verbose)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	id, err := uuid.Parse(rawID)
	if err != nil {
		printError("Error: invalid --run %q: %v\n", rawID, err)
		return 1
	}
	db, err := repo.Open(ctx, repo.ConfigFrom(cfg.Database), logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		return 1
	}
	defer db.Close()
	if err := db.EnsureSchema(ctx); err != nil {
		logger.Error("failed to prepare database", "error", err)
		return 1
	}

	xlsx, err := export.NewService(repo.NewStatementRepository(db, logger), logger).ExportRunXLSX(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		printError("Error: no documents stored for run %s\n", id)
		return 1
	}
	if err != nil {
		logger.Error("failed to export run", "run_id", id, "error", err)
		return 1
	}
	if err := os.WriteFile(out, xlsx, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		return 1
	}
	logger.Info("run exported", "run_id", id, "output_file", out)
	return 0
}

func printSummary(results []core.Result, sum core.Summary, out string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DOCUMENT\tSTATUS\tPERIOD\tRECORDS\tERROR")
	for _, r := range results {
		period, records, msg := "", 0, ""
		if r.Document != nil {
			period = r.Document.PeriodFrom + " - " + r.Document.PeriodTo
			records = len(r.Document.Records)
		}
		if r.Err != nil {
			msg = r.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", filepath.Base(r.Path), r.Status, period, records, msg)
	}
	_ = w.Flush()

	fmt.Printf("\nDocuments: %d (parsed %d, empty %d, failed %d)\n", sum.Documents, sum.Parsed, sum.Empty, sum.Failed)
	fmt.Printf("Records:   %d\n", sum.Records)
	fmt.Printf("Output:    %s\n", out)
}
