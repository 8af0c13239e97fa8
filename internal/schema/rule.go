// Package schema defines the canonical signature record for SigGraph.
// Feed responses are validated against this structure before import.
package schema

import "time"

// Rule represents a single detection signature from the rule feed.
// Records are immutable once parsed; the importer only reads them.
type Rule struct {
	Name        string    `json:"name" validate:"required,max=512"`
	Description string    `json:"description" validate:"max=65536"`
	Content     string    `json:"content" validate:"required"`
	Tags        []string  `json:"tags" validate:"dive,max=256"`
	References  []string  `json:"references" validate:"dive,max=2048"`
	Score       int       `json:"score" validate:"min=0,max=100"`
	Date        time.Time `json:"date"`
}

// FeedResponse is the envelope returned by the signature feed API.
type FeedResponse struct {
	Status  string `json:"status" validate:"required"`
	Version int    `json:"version"`
	Rules   []Rule `json:"rules" validate:"dive"`
}

// StatusOK is the feed status value indicating a usable response.
const StatusOK = "green"
