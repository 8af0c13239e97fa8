// Package importer drives one enrichment run: it builds the taxonomy
// index, pulls the signature feed, creates indicator nodes in the graph
// store, and attaches taxonomy relationships, hygiene labels, and
// reference links. Failures are best-effort: a broken signature is
// recorded and skipped, never fatal to the run.
package importer

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"siggraph/internal/graph"
	"siggraph/internal/redact"
	"siggraph/internal/schema"
	"siggraph/internal/state"
	"siggraph/internal/taxonomy"
)

// StateKey is the fixed key the run checkpoint is stored under.
const StateKey = "knowledge_importer_state"

// GraphService is the capability set the importer needs from the graph
// store. Label creation must be an upsert: creating the same label value
// twice must not duplicate it.
type GraphService interface {
	CreateIndicator(ctx context.Context, p graph.IndicatorParams) (string, error)
	CreateLabel(ctx context.Context, labelType, value, color string) (string, error)
	AttachLabel(ctx context.Context, targetID, labelID string) error
	CreateExternalReference(ctx context.Context, sourceName, url, description string) (string, error)
	AttachExternalReference(ctx context.Context, targetID, refID string) error
	CreateRelationship(ctx context.Context, p graph.RelationshipParams) (string, error)
	ReadByID(ctx context.Context, id string) (*graph.Entity, error)
	CreateIdentity(ctx context.Context, name, identityType, description string) (string, error)
}

// FeedClient retrieves the signature feed.
type FeedClient interface {
	FetchRules(ctx context.Context) ([]schema.Rule, error)
}

// Config holds the import behavior settings.
type Config struct {
	SourceName          string   `yaml:"source_name"`
	IdentityName        string   `yaml:"identity_name"`
	IdentityDescription string   `yaml:"identity_description"`
	LabelType           string   `yaml:"label_type"`
	LabelColor          string   `yaml:"label_color"`
	RelationshipDesc    string   `yaml:"relationship_description"`
	MarkingIDs          []string `yaml:"marking_ids"`
	UpdateExisting      bool     `yaml:"update_existing"`
}

// DefaultConfig returns the default import configuration.
func DefaultConfig() Config {
	return Config{
		SourceName:          "Valhalla API",
		IdentityName:        "Nextron Systems GmbH",
		IdentityDescription: "THOR APT scanner and Valhalla YARA rule API provider",
		LabelType:           "Valhalla",
		LabelColor:          "#46beda",
		RelationshipDesc:    "YARA rule from the Valhalla API",
		UpdateExisting:      false,
	}
}

// Importer runs the signature enrichment pipeline.
type Importer struct {
	graph    GraphService
	feed     FeedClient
	taxonomy taxonomy.Fetcher
	config   Config
}

// New creates an Importer. The taxonomy index is rebuilt on every Run;
// no mapping state leaks across runs.
func New(g GraphService, f FeedClient, t taxonomy.Fetcher, cfg Config) *Importer {
	return &Importer{
		graph:    g,
		feed:     f,
		taxonomy: t,
		config:   cfg,
	}
}

// Run executes one import. The taxonomy index is built first; if that
// fails the run continues with an empty mapping. A feed fetch failure
// ends the run early and returns the prior checkpoint unchanged. Every
// other failure is recorded per signature and the loop continues.
func (im *Importer) Run(ctx context.Context, prior state.State) (state.State, *Summary) {
	summary := &Summary{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
	}

	slog.Info("starting knowledge import", "run_id", summary.RunID)

	index, err := taxonomy.Build(ctx, im.taxonomy)
	if err != nil {
		slog.Error("taxonomy dataset unavailable, continuing with empty mapping", "error", err)
		index = taxonomy.Index{}
	}
	summary.TaxonomyEntries = len(index)

	rules, err := im.feed.FetchRules(ctx)
	if err != nil {
		slog.Error("failed to fetch signature feed, run makes no progress", "error", err)
		summary.FinishedAt = time.Now().UTC()
		return prior, summary
	}
	summary.FeedFetched = true
	slog.Info("fetched signature feed",
		"rules", len(rules),
		"taxonomy_entries", summary.TaxonomyEntries,
	)

	createdBy := im.ensureIdentity(ctx)

	resolver := NewTagResolver(im.graph, index, im.config.LabelType, im.config.LabelColor, im.config.RelationshipDesc)
	linker := NewReferenceLinker(im.graph, im.config.SourceName)

	for _, rule := range rules {
		summary.Outcomes = append(summary.Outcomes, im.processRule(ctx, rule, createdBy, resolver, linker))
	}

	summary.FinishedAt = time.Now().UTC()
	slog.Info("knowledge import completed",
		"run_id", summary.RunID,
		"imported", summary.Imported(),
		"failed", summary.Failed(),
	)

	return state.State{StateKey: summary.FinishedAt.Unix()}, summary
}

// processRule creates the indicator for one signature and attaches its
// context. When indicator creation fails the reference and tag sub-steps
// are skipped outright so no identifier from a previous iteration can be
// reused.
func (im *Importer) processRule(ctx context.Context, rule schema.Rule, createdBy string, resolver *TagResolver, linker *ReferenceLinker) Outcome {
	outcome := Outcome{
		ID:          uuid.New(),
		Rule:        rule.Name,
		ProcessedAt: time.Now().UTC(),
	}

	indicatorID, err := im.graph.CreateIndicator(ctx, graph.IndicatorParams{
		Name:               rule.Name,
		Description:        rule.Description,
		PatternType:        "yara",
		Pattern:            rule.Content,
		MainObservableType: "File-SHA256",
		MarkingIDs:         im.config.MarkingIDs,
		CreatedBy:          createdBy,
		ValidFrom:          rule.Date,
		Score:              rule.Score,
		Update:             im.config.UpdateExisting,
		Detection:          true,
	})
	if err != nil {
		slog.Error("failed to create indicator", "rule", rule.Name, "error", err)
		outcome.Status = StatusFailed
		outcome.Reason = redact.Error(err)
		return outcome
	}

	outcome.IndicatorID = indicatorID

	linker.Attach(ctx, rule.References, indicatorID)
	resolver.Resolve(ctx, rule.Tags, indicatorID)

	outcome.Status = StatusImported
	return outcome
}

// ensureIdentity creates the provider identity stamped on indicators.
// On failure indicators are created without a createdBy reference.
func (im *Importer) ensureIdentity(ctx context.Context) string {
	id, err := im.graph.CreateIdentity(ctx, im.config.IdentityName, "Organization", im.config.IdentityDescription)
	if err != nil {
		slog.Error("failed to create provider identity", "error", err)
		return ""
	}
	return id
}
