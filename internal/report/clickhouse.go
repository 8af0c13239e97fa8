package report

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"siggraph/internal/importer"
)

// ClickHouseConfig holds the outcome audit sink settings.
type ClickHouseConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Hosts       []string      `yaml:"hosts"`
	Database    string        `yaml:"database"`
	Username    string        `yaml:"username"`
	Password    string        `yaml:"password"`
	Table       string        `yaml:"table"`
	TLSEnabled  bool          `yaml:"tls_enabled"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

// DefaultClickHouseConfig returns the default audit sink configuration.
func DefaultClickHouseConfig() ClickHouseConfig {
	return ClickHouseConfig{
		Enabled:     false,
		Hosts:       []string{"localhost:9000"},
		Database:    "siggraph",
		Username:    "default",
		Table:       "import_outcomes",
		DialTimeout: 10 * time.Second,
	}
}

// OutcomeWriter persists per-signature outcomes for post-run auditing.
type OutcomeWriter struct {
	conn  driver.Conn
	table string
}

// NewOutcomeWriter connects to ClickHouse and ensures the audit table.
func NewOutcomeWriter(ctx context.Context, cfg ClickHouseConfig) (*OutcomeWriter, error) {
	opts := &clickhouse.Options{
		Addr: cfg.Hosts,
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionZSTD,
		},
		DialTimeout: cfg.DialTimeout,
	}
	if cfg.TLSEnabled {
		opts.TLS = &tls.Config{InsecureSkipVerify: false}
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("report: clickhouse open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("report: clickhouse ping: %w", err)
	}

	w := &OutcomeWriter{conn: conn, table: cfg.Table}
	if err := w.ensureTable(ctx); err != nil {
		return nil, err
	}

	return w, nil
}

func (w *OutcomeWriter) ensureTable(ctx context.Context) error {
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			run_id       UUID,
			outcome_id   UUID,
			rule         String,
			status       LowCardinality(String),
			reason       String,
			indicator_id String,
			processed_at DateTime64(3, 'UTC')
		)
		ENGINE = MergeTree()
		PARTITION BY toYYYYMM(processed_at)
		ORDER BY (run_id, processed_at)
	`, w.table)

	if err := w.conn.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("report: ensure audit table: %w", err)
	}
	return nil
}

// WriteSummary inserts one row per outcome in a single batch.
func (w *OutcomeWriter) WriteSummary(ctx context.Context, summary *importer.Summary) error {
	if len(summary.Outcomes) == 0 {
		return nil
	}

	batch, err := w.conn.PrepareBatch(ctx, fmt.Sprintf("INSERT INTO %s", w.table))
	if err != nil {
		return fmt.Errorf("report: prepare batch: %w", err)
	}

	for _, row := range outcomeRows(summary) {
		if err := batch.Append(
			row.runID,
			row.outcomeID,
			row.rule,
			row.status,
			row.reason,
			row.indicatorID,
			row.processedAt,
		); err != nil {
			return fmt.Errorf("report: append outcome: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("report: send batch: %w", err)
	}

	slog.Debug("wrote outcome audit rows",
		"run_id", summary.RunID,
		"rows", len(summary.Outcomes),
	)
	return nil
}

// Close releases the ClickHouse connection.
func (w *OutcomeWriter) Close() error {
	return w.conn.Close()
}

// outcomeRow is a flattened audit record.
type outcomeRow struct {
	runID       string
	outcomeID   string
	rule        string
	status      string
	reason      string
	indicatorID string
	processedAt time.Time
}

// outcomeRows flattens a summary into insertable rows.
func outcomeRows(summary *importer.Summary) []outcomeRow {
	rows := make([]outcomeRow, 0, len(summary.Outcomes))
	for _, o := range summary.Outcomes {
		rows = append(rows, outcomeRow{
			runID:       summary.RunID.String(),
			outcomeID:   o.ID.String(),
			rule:        o.Rule,
			status:      string(o.Status),
			reason:      o.Reason,
			indicatorID: o.IndicatorID,
			processedAt: o.ProcessedAt,
		})
	}
	return rows
}
