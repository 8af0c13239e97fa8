package importer

import (
	"context"
	"log/slog"
	"net/url"
)

// noReference is the feed's sentinel for "no reference provided".
const noReference = "-"

// ReferenceLinker attaches a signature's reference URLs to its indicator.
type ReferenceLinker struct {
	graph      GraphService
	sourceName string
}

// NewReferenceLinker creates a linker stamping references with the given
// source name.
func NewReferenceLinker(g GraphService, sourceName string) *ReferenceLinker {
	return &ReferenceLinker{graph: g, sourceName: sourceName}
}

// Attach creates an external-reference node per well-formed reference URL
// and attaches it to the indicator. A reference that fails to parse, or
// parses without a scheme, is logged and skipped; one bad URL never stops
// the rest.
func (l *ReferenceLinker) Attach(ctx context.Context, references []string, indicatorID string) {
	if len(references) == 0 || indicatorID == "" {
		return
	}

	for _, ref := range references {
		if ref == noReference {
			continue
		}

		parsed, err := url.Parse(ref)
		if err != nil || parsed.Scheme == "" {
			slog.Error("skipping malformed rule reference", "reference", ref)
			continue
		}
		normalized := parsed.String()

		refID, err := l.graph.CreateExternalReference(ctx, l.sourceName, normalized, "Rule Reference: "+normalized)
		if err != nil {
			slog.Error("failed to create external reference",
				"url", normalized,
				"error", err,
			)
			continue
		}

		if err := l.graph.AttachExternalReference(ctx, indicatorID, refID); err != nil {
			slog.Error("failed to attach external reference",
				"indicator_id", indicatorID,
				"reference_id", refID,
				"error", err,
			)
		}
	}
}
