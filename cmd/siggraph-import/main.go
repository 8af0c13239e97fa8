// Package main is the entry point for the SigGraph import daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"siggraph/internal/archive"
	"siggraph/internal/config"
	"siggraph/internal/feed"
	"siggraph/internal/graph"
	"siggraph/internal/importer"
	"siggraph/internal/logging"
	"siggraph/internal/report"
	"siggraph/internal/state"
	"siggraph/internal/taxonomy"
)

var version = "dev"

func main() {
	var (
		showVersion bool
		runOnce     bool
	)

	flag.BoolVar(&showVersion, "version", false, "Show version and exit")
	flag.BoolVar(&runOnce, "once", false, "Run a single import and exit")
	flag.Parse()

	if showVersion {
		fmt.Printf("siggraph-import %s\n", version)
		os.Exit(0)
	}

	// Load configuration first so the log level can honor it.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"feed_url", cfg.Feed.URL,
		"feed_api_key", logging.MaskSensitiveValue("api_key", cfg.Feed.APIKey),
		"graph_url", cfg.Graph.URL,
		"graph_token", logging.MaskSensitiveValue("token", cfg.Graph.Token),
		"interval", cfg.Scheduler.Interval.String(),
		"state_backend", cfg.State.Backend,
		"kafka_enabled", cfg.Report.Kafka.Enabled,
		"clickhouse_enabled", cfg.Report.ClickHouse.Enabled,
		"archive_enabled", cfg.Archive.Enabled,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional raw payload archiver, shared by the feed and taxonomy
	// clients.
	var archiver *archive.Writer
	if cfg.Archive.Enabled {
		archiver, err = archive.NewWriter(ctx, cfg.Archive)
		if err != nil {
			slog.Error("failed to initialize archive writer", "error", err)
			os.Exit(1)
		}
		slog.Info("payload archiving enabled", "bucket", cfg.Archive.Bucket)
	}

	taxonomyFetcher := taxonomy.NewHTTPFetcher(cfg.Taxonomy)
	feedClient := feed.NewClient(cfg.Feed)
	if archiver != nil {
		taxonomyFetcher = taxonomyFetcher.WithArchiver(archiver)
		feedClient = feedClient.WithArchiver(archiver)
	}

	graphClient := graph.NewClient(cfg.Graph)

	store, err := newStateStore(cfg)
	if err != nil {
		slog.Error("failed to initialize state store", "error", err)
		os.Exit(1)
	}

	var publisher *report.Publisher
	if cfg.Report.Kafka.Enabled {
		publisher, err = report.NewPublisher(cfg.Report.Kafka, logger)
		if err != nil {
			slog.Error("failed to initialize kafka publisher", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
	}

	var outcomeWriter *report.OutcomeWriter
	if cfg.Report.ClickHouse.Enabled {
		outcomeWriter, err = report.NewOutcomeWriter(ctx, cfg.Report.ClickHouse)
		if err != nil {
			slog.Error("failed to initialize clickhouse writer", "error", err)
			os.Exit(1)
		}
		defer outcomeWriter.Close()
	}

	imp := importer.New(graphClient, feedClient, taxonomyFetcher, cfg.Importer)

	runner := &runner{
		importer:      imp,
		store:         store,
		publisher:     publisher,
		outcomeWriter: outcomeWriter,
	}

	if runOnce {
		if err := runner.runOnce(ctx); err != nil {
			slog.Error("import run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	runner.loop(ctx, cfg.Scheduler)
	slog.Info("shutdown complete")
}

// runner ties the importer to its checkpoint store and reporting sinks.
type runner struct {
	importer      *importer.Importer
	store         state.Store
	publisher     *report.Publisher
	outcomeWriter *report.OutcomeWriter
}

// loop runs imports on the configured interval until ctx is canceled.
// The interval is measured from the persisted checkpoint, so restarts
// do not trigger an immediate re-run when the last run is recent.
func (r *runner) loop(ctx context.Context, sched config.SchedulerConfig) {
	ticker := time.NewTicker(sched.PollInterval)
	defer ticker.Stop()

	for {
		prior, err := r.store.Load(ctx)
		if err != nil {
			slog.Error("failed to load checkpoint", "error", err)
		} else if due(prior, sched.Interval) {
			if err := r.run(ctx, prior); err != nil {
				slog.Error("import run failed", "error", err)
			}
		} else {
			slog.Debug("run not due yet", "interval", sched.Interval.String())
		}

		select {
		case <-ctx.Done():
			slog.Info("shutdown signal received")
			return
		case <-ticker.C:
		}
	}
}

func (r *runner) runOnce(ctx context.Context) error {
	prior, err := r.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load checkpoint: %w", err)
	}
	return r.run(ctx, prior)
}

func (r *runner) run(ctx context.Context, prior state.State) error {
	next, summary := r.importer.Run(ctx, prior)

	slog.Info("import run finished",
		"run_id", summary.RunID,
		"feed_fetched", summary.FeedFetched,
		"taxonomy_entries", summary.TaxonomyEntries,
		"imported", summary.Imported(),
		"failed", summary.Failed(),
		"duration", summary.FinishedAt.Sub(summary.StartedAt).String(),
	)

	if err := r.store.Save(ctx, next); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, summary); err != nil {
			slog.Error("failed to publish run summary", "error", err)
		}
	}
	if r.outcomeWriter != nil {
		if err := r.outcomeWriter.WriteSummary(ctx, summary); err != nil {
			slog.Error("failed to write outcomes", "error", err)
		}
	}
	return nil
}

// due reports whether enough time has passed since the checkpointed
// run. A missing or unreadable checkpoint means a run is due.
func due(prior state.State, interval time.Duration) bool {
	last, ok := lastRun(prior)
	if !ok {
		return true
	}
	return time.Since(last) >= interval
}

// lastRun extracts the checkpoint timestamp. The value is written as
// an int64 but comes back as float64 after a JSON round trip through
// redis, so both are accepted.
func lastRun(s state.State) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	switch v := s[importer.StateKey].(type) {
	case int64:
		return time.Unix(v, 0), true
	case float64:
		return time.Unix(int64(v), 0), true
	default:
		return time.Time{}, false
	}
}

func newStateStore(cfg *config.Config) (state.Store, error) {
	switch cfg.State.Backend {
	case "redis":
		return state.NewRedisStore(cfg.State.Redis)
	default:
		return state.NewMemoryStore(), nil
	}
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
