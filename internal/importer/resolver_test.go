package importer

import (
	"context"
	"testing"

	"siggraph/internal/graph"
	"siggraph/internal/taxonomy"
)

func newTestResolver(g *fakeGraph, index taxonomy.Index) *TagResolver {
	cfg := DefaultConfig()
	return NewTagResolver(g, index, cfg.LabelType, cfg.LabelColor, cfg.RelationshipDesc)
}

func TestTagResolver_AttackPatternMapped(t *testing.T) {
	g := newFakeGraph()
	g.existing["attack-pattern--abc"] = true

	r := newTestResolver(g, taxonomy.Index{"T1059": "attack-pattern--abc"})
	r.Resolve(context.Background(), []string{"T1059"}, "indicator--1")

	if len(g.relationships) != 1 {
		t.Fatalf("relationships = %d, want 1", len(g.relationships))
	}
	rel := g.relationships[0]
	if rel.RelationshipType != graph.RelationshipIndicates {
		t.Errorf("relationship type = %q, want indicates", rel.RelationshipType)
	}
	if rel.FromID != "indicator--1" || rel.ToID != "attack-pattern--abc" {
		t.Errorf("relationship endpoints = %s -> %s", rel.FromID, rel.ToID)
	}
	if rel.ToType != graph.EntityAttackPattern {
		t.Errorf("relationship target type = %q", rel.ToType)
	}

	// The typed tag still receives its hygiene label.
	if len(g.labels) != 1 || g.labels[0] != "T1059" {
		t.Errorf("labels = %v, want [T1059]", g.labels)
	}
	if len(g.labelAttaches) != 1 {
		t.Errorf("label attaches = %d, want 1", len(g.labelAttaches))
	}
}

func TestTagResolver_IntrusionSetMapped(t *testing.T) {
	g := newFakeGraph()
	g.existing["intrusion-set--def"] = true

	r := newTestResolver(g, taxonomy.Index{"G0016": "intrusion-set--def"})
	r.Resolve(context.Background(), []string{"G0016"}, "indicator--1")

	if len(g.relationships) != 1 {
		t.Fatalf("relationships = %d, want 1", len(g.relationships))
	}
	if g.relationships[0].ToType != graph.EntityIntrusionSet {
		t.Errorf("relationship target type = %q", g.relationships[0].ToType)
	}
}

func TestTagResolver_UnmappedTag(t *testing.T) {
	g := newFakeGraph()

	r := newTestResolver(g, taxonomy.Index{})
	r.Resolve(context.Background(), []string{"G0016"}, "indicator--1")

	if len(g.relationships) != 0 {
		t.Errorf("relationships = %d, want 0 for unmapped tag", len(g.relationships))
	}
	if len(g.reads) != 0 {
		t.Errorf("reads = %d, want 0 when index lookup misses", len(g.reads))
	}
	if len(g.labels) != 1 || g.labels[0] != "G0016" {
		t.Errorf("labels = %v, want exactly the hygiene label [G0016]", g.labels)
	}
}

func TestTagResolver_NodeMissingFromStore(t *testing.T) {
	g := newFakeGraph() // mapping exists, node does not

	r := newTestResolver(g, taxonomy.Index{"T1003": "attack-pattern--gone"})
	r.Resolve(context.Background(), []string{"T1003"}, "indicator--1")

	if len(g.reads) != 1 {
		t.Errorf("reads = %d, want 1", len(g.reads))
	}
	if len(g.relationships) != 0 {
		t.Errorf("relationships = %d, want 0 when the node is absent", len(g.relationships))
	}
	if len(g.labels) != 1 {
		t.Errorf("labels = %d, want 1", len(g.labels))
	}
}

func TestTagResolver_EveryTagGetsALabel(t *testing.T) {
	g := newFakeGraph()
	g.existing["attack-pattern--abc"] = true

	tags := []string{"T1059", "SUSP", "EXE", "G0016", "T10599", "t1059"}
	r := newTestResolver(g, taxonomy.Index{"T1059": "attack-pattern--abc"})
	r.Resolve(context.Background(), tags, "indicator--1")

	if len(g.labels) != len(tags) {
		t.Errorf("labels = %d, want one per tag (%d)", len(g.labels), len(tags))
	}
	if len(g.labelAttaches) != len(tags) {
		t.Errorf("label attaches = %d, want %d", len(g.labelAttaches), len(tags))
	}
	// Only the exact-shape T1059 resolves; T10599 and t1059 are plain tags.
	if len(g.relationships) != 1 {
		t.Errorf("relationships = %d, want 1", len(g.relationships))
	}
}

func TestTagShapePatterns(t *testing.T) {
	cases := []struct {
		tag    string
		attack bool
		group  bool
	}{
		{"T1059", true, false},
		{"G0016", false, true},
		{"T105", false, false},
		{"T10591", false, false},
		{"GT1059", false, false},
		{"g0016", false, false},
		{"", false, false},
	}

	for _, tc := range cases {
		if got := attackPatternTag.MatchString(tc.tag); got != tc.attack {
			t.Errorf("attackPatternTag.MatchString(%q) = %v, want %v", tc.tag, got, tc.attack)
		}
		if got := intrusionSetTag.MatchString(tc.tag); got != tc.group {
			t.Errorf("intrusionSetTag.MatchString(%q) = %v, want %v", tc.tag, got, tc.group)
		}
	}
}
