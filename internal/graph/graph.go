// Package graph provides the client for the knowledge-graph store.
// The importer only requests entity creation; the store owns the
// entities and their identifiers after that.
package graph

import (
	"errors"
	"time"
)

// ErrNotFound indicates the requested entity does not exist in the store.
var ErrNotFound = errors.New("graph: entity not found")

// Entity is a node returned by the graph store.
type Entity struct {
	ID   string `json:"id"`
	Type string `json:"entity_type"`
	Name string `json:"name"`
}

// IndicatorParams holds the fields for indicator node creation.
type IndicatorParams struct {
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	PatternType        string    `json:"pattern_type"`
	Pattern            string    `json:"pattern"`
	MainObservableType string    `json:"main_observable_type"`
	MarkingIDs         []string  `json:"marking_ids,omitempty"`
	CreatedBy          string    `json:"created_by,omitempty"`
	ValidFrom          time.Time `json:"valid_from"`
	Score              int       `json:"score"`
	Update             bool      `json:"update"`
	Detection          bool      `json:"detection"`
}

// RelationshipParams holds the fields for relationship creation.
type RelationshipParams struct {
	FromType         string `json:"from_type"`
	FromID           string `json:"from_id"`
	ToType           string `json:"to_type"`
	ToID             string `json:"to_id"`
	RelationshipType string `json:"relationship_type"`
	Description      string `json:"description,omitempty"`
}

// Entity type names used in relationship requests.
const (
	EntityIndicator     = "Indicator"
	EntityAttackPattern = "Attack-Pattern"
	EntityIntrusionSet  = "Intrusion-Set"
)

// RelationshipIndicates is the relationship type from an indicator to the
// taxonomy entity it detects.
const RelationshipIndicates = "indicates"
