package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"google.golang.org/api/option"

	"github.com/joseph-ayodele/broker-reports/internal/common"
	"github.com/joseph-ayodele/broker-reports/internal/ingest"
	"github.com/joseph-ayodele/broker-reports/internal/mail"
)

func main() {
	cfg := common.LoadConfig()

	flag.StringVar(&cfg.Mail.Query, "query", cfg.Mail.Query, "mailbox search query")
	flag.StringVar(&cfg.Storage.AttachmentsDir, "dir", cfg.Storage.AttachmentsDir, "directory to save attachments into")
	flag.StringVar(&cfg.Mail.CredentialsFile, "credentials", cfg.Mail.CredentialsFile, "OAuth client secrets JSON")
	flag.StringVar(&cfg.Mail.TokenFile, "token", cfg.Mail.TokenFile, "cached OAuth token JSON")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	if err := cfg.ValidateMail(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	client, err := mail.Authorize(ctx, mail.AuthConfig{
		CredentialsFile: cfg.Mail.CredentialsFile,
		TokenFile:       cfg.Mail.TokenFile,
		Prompt:          os.Stdout,
	}, logger)
	if err != nil {
		logger.Error("mailbox authorization failed", "error", common.AuthError("authorize mailbox", err))
		os.Exit(1)
	}

	src, err := mail.NewGmail(ctx, cfg.Mail.User, logger, option.WithHTTPClient(client))
	if err != nil {
		logger.Error("failed to create mail client", "error", err)
		os.Exit(1)
	}

	results, stats, err := ingest.NewMailDownloader(src, cfg.Storage.AttachmentsDir, logger).Download(ctx, cfg.Mail.Query)
	if err != nil {
		logger.Error("download failed", "error", err)
		os.Exit(1)
	}
	for _, r := range results {
		if r.Err != "" {
			fmt.Printf("FAILED  %s: %s\n", r.MessageID, r.Err)
		}
	}

	fmt.Printf("Messages: %d\n", stats.Scanned)
	fmt.Printf("- Saved: %d\n", stats.Saved)
	fmt.Printf("- Skipped (already saved): %d\n", stats.Skipped)
	fmt.Printf("- Without HTML attachment: %d\n", stats.NoHTML)
	fmt.Printf("- Failed: %d\n", stats.Failed)
	fmt.Printf("Directory: %s\n", cfg.Storage.AttachmentsDir)
	if stats.Failed > 0 {
		os.Exit(1)
	}
}
