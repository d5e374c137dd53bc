package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/ligustah/offload/internal/config"
	offloadhttp "github.com/ligustah/offload/internal/http"
	"github.com/ligustah/offload/internal/source"
	"github.com/ligustah/offload/internal/transfer"
	"github.com/ligustah/offload/pkg/archive"
)

// commonFlags holds the flags shared by every subcommand. Flag values
// override the environment, which overrides the config file, which overrides
// the built-in defaults.
type commonFlags struct {
	configFile *string
	indexURL   *string
	zip        *string
	dir        *string
	bucket     *string
	ledger     *string
	failureLog *string
	batchSize  *int
	workers    *int
	retries    *int
	progress   *bool
}

func registerCommonFlags(fs *flag.FlagSet) *commonFlags {
	return &commonFlags{
		configFile: fs.String("config", "", "YAML config file"),
		indexURL:   fs.String("index", "", "Item index URL (required unless configured)"),
		zip:        fs.String("zip", "", "Archive into a single zip container at this path"),
		dir:        fs.String("dir", "", "Archive into a local directory"),
		bucket:     fs.String("bucket", "", "Archive into a gocloud bucket URL (s3://..., gs://...)"),
		ledger:     fs.String("ledger", "", "Completion ledger path"),
		failureLog: fs.String("failure-log", "", "Deletion failure log path"),
		batchSize:  fs.Int("batch-size", 0, "Items per batch"),
		workers:    fs.Int("workers", 0, "Parallel workers"),
		retries:    fs.Int("retries", 0, "Attempts per item"),
		progress:   fs.Bool("progress", false, "Show live progress"),
	}
}

func loadConfig(cf *commonFlags) (config.Config, error) {
	cfg := config.Default()

	if *cf.configFile != "" {
		fileCfg, err := config.LoadFromFile(*cf.configFile)
		if err != nil {
			return cfg, err
		}
		cfg = fileCfg
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return cfg, err
	}

	cfg = cfg.Merge(config.Config{
		Source: config.SourceConfig{IndexURL: *cf.indexURL},
		Archive: config.ArchiveConfig{
			Zip:    *cf.zip,
			Dir:    *cf.dir,
			Bucket: *cf.bucket,
		},
		Ledger:     *cf.ledger,
		FailureLog: *cf.failureLog,
		BatchSize:  *cf.batchSize,
		Workers:    *cf.workers,
		Retry:      config.RetryConfig{Attempts: *cf.retries},
		Progress:   *cf.progress,
	})

	return cfg, cfg.Validate()
}

// openSink opens the configured archive destination. Directory targets get a
// fileblob bucket rooted at the directory so entry timestamps can be adjusted
// on the files themselves.
func openSink(ctx context.Context, cfg config.Config) (archive.Sink, error) {
	switch {
	case cfg.Archive.Zip != "":
		return archive.OpenZip(cfg.Archive.Zip)

	case cfg.Archive.Dir != "":
		abs, err := filepath.Abs(cfg.Archive.Dir)
		if err != nil {
			return nil, fmt.Errorf("resolve archive dir: %w", err)
		}
		if err := os.MkdirAll(abs, 0755); err != nil {
			return nil, fmt.Errorf("create archive dir: %w", err)
		}
		bkt, err := fileblob.OpenBucket(abs, nil)
		if err != nil {
			return nil, fmt.Errorf("open archive dir: %w", err)
		}
		return archive.NewBucket(bkt, abs), nil

	default:
		bkt, err := blob.OpenBucket(ctx, cfg.Archive.Bucket)
		if err != nil {
			return nil, fmt.Errorf("open archive bucket: %w", err)
		}
		return archive.NewBucket(bkt, ""), nil
	}
}

// openBlobBucket opens the archive destination as a raw bucket, for
// validation reads. Zip targets are not handled here.
func openBlobBucket(ctx context.Context, cfg config.Config) (*blob.Bucket, error) {
	if cfg.Archive.Dir != "" {
		abs, err := filepath.Abs(cfg.Archive.Dir)
		if err != nil {
			return nil, fmt.Errorf("resolve archive dir: %w", err)
		}
		return fileblob.OpenBucket(abs, nil)
	}
	return blob.OpenBucket(ctx, cfg.Archive.Bucket)
}

func newLibrary(cfg config.Config) source.Library {
	client := offloadhttp.NewClient(offloadhttp.DefaultOptions())
	return source.NewHTTPLibrary(cfg.Source.IndexURL, client)
}

func engineOptions(cfg config.Config) transfer.Options {
	return transfer.Options{
		BatchSize:   cfg.BatchSize,
		Workers:     cfg.Workers,
		MaxAttempts: cfg.Retry.Attempts,
		Progress:    cfg.Progress,
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM. Cancellation
// is observed between batches: the current batch drains before the run stops.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[offload] Received interrupt, finishing current batch...")
		cancel()
	}()

	return ctx, cancel
}

func printSummary(label string, s transfer.Summary) {
	fmt.Fprintf(os.Stderr, "[offload] %s: %d total | %d already archived | %d completed | %d failed\n",
		label, s.Total, s.AlreadyDone, s.Completed, s.Failed)
	for _, id := range s.Failures {
		fmt.Fprintf(os.Stderr, "  failed: %s\n", id)
	}
}
