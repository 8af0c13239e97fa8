package importer

import (
	"context"
	"errors"
	"fmt"

	"siggraph/internal/graph"
	"siggraph/internal/schema"
	"siggraph/internal/taxonomy"
)

// fakeGraph records every write requested against the graph store.
type fakeGraph struct {
	existing       map[string]bool // ids ReadByID reports as present
	failIndicators map[string]bool // rule names whose creation fails

	indicatorSeq  int
	indicators    []graph.IndicatorParams
	relationships []graph.RelationshipParams
	labels        []string
	labelAttaches [][2]string // indicatorID, labelID
	refs          []string    // created reference urls
	refAttaches   [][2]string // indicatorID, refID
	identities    []string
	reads         []string
}

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		existing:       make(map[string]bool),
		failIndicators: make(map[string]bool),
	}
}

func (f *fakeGraph) writeCount() int {
	return len(f.indicators) + len(f.relationships) + len(f.labels) +
		len(f.labelAttaches) + len(f.refs) + len(f.refAttaches) + len(f.identities)
}

func (f *fakeGraph) CreateIndicator(ctx context.Context, p graph.IndicatorParams) (string, error) {
	if f.failIndicators[p.Name] {
		return "", errors.New("graph write failure")
	}
	f.indicatorSeq++
	f.indicators = append(f.indicators, p)
	return fmt.Sprintf("indicator--%d", f.indicatorSeq), nil
}

func (f *fakeGraph) CreateLabel(ctx context.Context, labelType, value, color string) (string, error) {
	f.labels = append(f.labels, value)
	return "label--" + value, nil
}

func (f *fakeGraph) AttachLabel(ctx context.Context, targetID, labelID string) error {
	f.labelAttaches = append(f.labelAttaches, [2]string{targetID, labelID})
	return nil
}

func (f *fakeGraph) CreateExternalReference(ctx context.Context, sourceName, url, description string) (string, error) {
	f.refs = append(f.refs, url)
	return fmt.Sprintf("ref--%d", len(f.refs)), nil
}

func (f *fakeGraph) AttachExternalReference(ctx context.Context, targetID, refID string) error {
	f.refAttaches = append(f.refAttaches, [2]string{targetID, refID})
	return nil
}

func (f *fakeGraph) CreateRelationship(ctx context.Context, p graph.RelationshipParams) (string, error) {
	f.relationships = append(f.relationships, p)
	return fmt.Sprintf("relationship--%d", len(f.relationships)), nil
}

func (f *fakeGraph) ReadByID(ctx context.Context, id string) (*graph.Entity, error) {
	f.reads = append(f.reads, id)
	if !f.existing[id] {
		return nil, fmt.Errorf("%w: %s", graph.ErrNotFound, id)
	}
	return &graph.Entity{ID: id}, nil
}

func (f *fakeGraph) CreateIdentity(ctx context.Context, name, identityType, description string) (string, error) {
	f.identities = append(f.identities, name)
	return "identity--1", nil
}

// fakeFeed serves a fixed rule set or a fixed error.
type fakeFeed struct {
	rules []schema.Rule
	err   error
}

func (f *fakeFeed) FetchRules(ctx context.Context) ([]schema.Rule, error) {
	return f.rules, f.err
}

// fakeTaxonomy serves a fixed object set or a fixed error.
type fakeTaxonomy struct {
	objects []taxonomy.Object
	err     error
}

func (f *fakeTaxonomy) FetchObjects(ctx context.Context) ([]taxonomy.Object, error) {
	return f.objects, f.err
}
