package importer

import (
	"context"
	"errors"
	"log/slog"
	"regexp"

	"siggraph/internal/graph"
	"siggraph/internal/taxonomy"
)

// Tag shapes that encode external taxonomy identifiers. The two patterns
// are mutually exclusive by construction, but each is checked
// independently: classification is non-exclusive and a typed tag still
// receives its hygiene label.
var (
	attackPatternTag = regexp.MustCompile(`^T\d{4}$`)
	intrusionSetTag  = regexp.MustCompile(`^G\d{4}$`)
)

// TagResolver turns a signature's tags into graph relationships and
// hygiene labels.
type TagResolver struct {
	graph      GraphService
	index      taxonomy.Index
	labelType  string
	labelColor string
	relDesc    string
}

// NewTagResolver creates a resolver over a built taxonomy index.
func NewTagResolver(g GraphService, index taxonomy.Index, labelType, labelColor, relDesc string) *TagResolver {
	return &TagResolver{
		graph:      g,
		index:      index,
		labelType:  labelType,
		labelColor: labelColor,
		relDesc:    relDesc,
	}
}

// Resolve processes every tag of one signature. Tags matching the
// attack-pattern or intrusion-set shape are resolved to relationships;
// every tag, matched or not, is also attached as a hygiene label.
func (r *TagResolver) Resolve(ctx context.Context, tags []string, indicatorID string) {
	for _, tag := range tags {
		if attackPatternTag.MatchString(tag) {
			r.linkByExternalID(ctx, tag, indicatorID, graph.EntityAttackPattern)
		}
		if intrusionSetTag.MatchString(tag) {
			r.linkByExternalID(ctx, tag, indicatorID, graph.EntityIntrusionSet)
		}

		r.attachLabel(ctx, tag, indicatorID)
	}
}

// linkByExternalID creates an indicates relationship from the indicator to
// the taxonomy node mapped to the external id, if both the mapping and the
// node exist. Misses are informational, not errors.
func (r *TagResolver) linkByExternalID(ctx context.Context, externalID, indicatorID, targetType string) {
	nodeID, ok := r.index.Lookup(externalID)
	if !ok {
		slog.Info("no taxonomy mapping found for tag",
			"tag", externalID,
			"target_type", targetType,
		)
		return
	}

	if _, err := r.graph.ReadByID(ctx, nodeID); err != nil {
		if errors.Is(err, graph.ErrNotFound) {
			slog.Info("taxonomy node not present in graph store; has the taxonomy import run?",
				"node_id", nodeID,
				"target_type", targetType,
			)
			return
		}
		slog.Error("failed to read taxonomy node",
			"node_id", nodeID,
			"error", err,
		)
		return
	}

	_, err := r.graph.CreateRelationship(ctx, graph.RelationshipParams{
		FromType:         graph.EntityIndicator,
		FromID:           indicatorID,
		ToType:           targetType,
		ToID:             nodeID,
		RelationshipType: graph.RelationshipIndicates,
		Description:      r.relDesc,
	})
	if err != nil {
		slog.Error("failed to create relationship",
			"indicator_id", indicatorID,
			"node_id", nodeID,
			"error", err,
		)
	}
}

// attachLabel upserts a label node for the tag's literal text and attaches
// it to the indicator. The store deduplicates label values.
func (r *TagResolver) attachLabel(ctx context.Context, tag, indicatorID string) {
	labelID, err := r.graph.CreateLabel(ctx, r.labelType, tag, r.labelColor)
	if err != nil {
		slog.Error("failed to create label", "tag", tag, "error", err)
		return
	}
	if err := r.graph.AttachLabel(ctx, indicatorID, labelID); err != nil {
		slog.Error("failed to attach label",
			"tag", tag,
			"indicator_id", indicatorID,
			"error", err,
		)
	}
}
