package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jorgepascosoto/mysql-snapshot/internal/compress"
	"github.com/jorgepascosoto/mysql-snapshot/internal/config"
	"github.com/jorgepascosoto/mysql-snapshot/internal/dump"
	"github.com/jorgepascosoto/mysql-snapshot/internal/encrypt"
	"github.com/jorgepascosoto/mysql-snapshot/internal/notify"
	"github.com/jorgepascosoto/mysql-snapshot/internal/schema"
	"github.com/jorgepascosoto/mysql-snapshot/internal/storage"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown of the outer pipeline. The dump
	// engine itself finishes the current table before the cancellation is
	// observed on its next database call.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("Received shutdown signal, canceling...")
		cancel()
	}()

	if err := run(ctx); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run(ctx context.Context) error {
	startTime := time.Now()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	summary := &notify.SnapshotSummary{
		Database:   cfg.Connection.Database,
		Compressed: cfg.Compression,
		Encrypted:  cfg.HasEncryption(),
	}

	outPath, err := performSnapshot(ctx, cfg, summary)
	summary.Duration = time.Since(startTime)

	if err != nil {
		summary.Success = false
		summary.Error = err
	} else {
		summary.Success = true
		summary.OutputPath = outPath
	}
	notify.LogSummary(summary)

	if nerr := sendNotification(ctx, cfg, summary); nerr != nil {
		log.Printf("Warning: failed to send notification: %v", nerr)
	}

	return err
}

func performSnapshot(ctx context.Context, cfg *config.Config, summary *notify.SnapshotSummary) (string, error) {
	registry := dump.NewRegistry()
	defer func() {
		if err := registry.Shutdown(); err != nil {
			log.Printf("Warning: failed to shut down pool registry: %v", err)
		}
	}()

	pool, err := registry.Acquire(cfg.Connection)
	if err != nil {
		return "", fmt.Errorf("failed to connect: %w", err)
	}

	log.Printf("Discovering tables in database '%s'...", cfg.Connection.Database)
	tables, err := schema.ListTables(ctx, pool.DB())
	if err != nil {
		return "", err
	}
	for _, t := range tables {
		if t.IsView {
			summary.Views++
		} else {
			summary.Tables++
		}
	}
	log.Printf("Found %d table(s) and %d view(s)", summary.Tables, summary.Views)

	outPath := cfg.OutputPath
	if outPath == "" {
		timestamp := time.Now().UTC().Format("20060102-150405")
		outPath = fmt.Sprintf("%s-%s.sql", cfg.Connection.Database, timestamp)
	}

	log.Printf("Dumping to %s...", outPath)
	results, err := dump.Run(ctx, cfg.Connection, cfg.DumpOptions(), tables, outPath)
	if err != nil {
		return "", err
	}
	for _, res := range results {
		summary.Rows += res.Rows
	}
	log.Printf("Dumped %d row(s) across %d table(s)", summary.Rows, len(results))

	if cfg.Compression {
		log.Printf("Compressing %s...", outPath)
		if err := compress.CompressFile(outPath); err != nil {
			return "", err
		}
	}

	if cfg.HasEncryption() {
		log.Printf("Encrypting %s...", outPath)
		encryptor, err := encrypt.NewAESEncryptor(cfg.EncryptionKey)
		if err != nil {
			return "", fmt.Errorf("failed to create encryptor: %w", err)
		}
		outPath, err = encryptor.EncryptFile(outPath)
		if err != nil {
			return "", err
		}
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return "", fmt.Errorf("failed to stat output file: %w", err)
	}
	summary.Size = info.Size()

	if cfg.HasUpload() {
		key, err := uploadSnapshot(ctx, cfg, outPath)
		if err != nil {
			return "", err
		}
		summary.UploadKey = key
	}

	return outPath, nil
}

func uploadSnapshot(ctx context.Context, cfg *config.Config, path string) (string, error) {
	creds := storage.Credentials{
		AccountID:       cfg.R2AccountID,
		AccessKeyID:     cfg.R2AccessKeyID,
		SecretAccessKey: cfg.R2SecretAccessKey,
		Bucket:          cfg.R2BucketName,
	}
	client, err := storage.NewR2Client(ctx, creds, cfg.BackupPrefix)
	if err != nil {
		return "", fmt.Errorf("failed to create R2 client: %w", err)
	}

	log.Printf("Uploading %s to bucket '%s'...", path, client.Bucket())
	key, err := client.UploadFile(ctx, path)
	if err != nil {
		return "", err
	}
	log.Printf("Uploaded snapshot as %s", key)

	if cfg.HasRetention() {
		result, err := storage.ApplyRetention(ctx, client, storage.RetentionPolicy{
			Days:  cfg.RetentionDays,
			Count: cfg.RetentionCount,
		})
		if err != nil {
			log.Printf("Warning: retention policy failed: %v", err)
		} else if result.DeletedCount > 0 {
			log.Printf("Deleted %d old snapshot(s)", result.DeletedCount)
		}
	}

	return key, nil
}

func sendNotification(ctx context.Context, cfg *config.Config, summary *notify.SnapshotSummary) error {
	if cfg.WebhookURL == "" {
		return nil
	}
	shouldNotify := (summary.Success && cfg.NotifyOnSuccess) || (!summary.Success && cfg.NotifyOnFailure)
	if !shouldNotify {
		return nil
	}
	notifier := notify.NewWebhookNotifier(cfg.WebhookURL)
	if err := notifier.Notify(ctx, summary); err != nil {
		return fmt.Errorf("webhook notification failed: %w", err)
	}
	return nil
}
