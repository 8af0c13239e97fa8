// Package taxonomy builds the lookup from external taxonomy identifiers
// (for example T1059 or G0016) to the graph store's internal node ids.
package taxonomy

import "errors"

// Object kinds that contribute to the index. All other kinds are skipped.
const (
	TypeAttackPattern = "attack-pattern"
	TypeIntrusionSet  = "intrusion-set"
)

var (
	// ErrUnavailable indicates the taxonomy dataset could not be fetched.
	ErrUnavailable = errors.New("taxonomy: dataset unavailable")

	// ErrMalformedPayload indicates the dataset payload could not be parsed.
	ErrMalformedPayload = errors.New("taxonomy: malformed payload")
)

// ExternalReference is a single external reference entry on a taxonomy object.
type ExternalReference struct {
	SourceName string `json:"source_name"`
	ExternalID string `json:"external_id"`
	URL        string `json:"url"`
}

// Object is a typed entry in the taxonomy dataset. Only the fields the
// index consumes are modeled; everything else in the payload is ignored.
type Object struct {
	ID                 string              `json:"id"`
	Type               string              `json:"type"`
	Name               string              `json:"name"`
	ExternalReferences []ExternalReference `json:"external_references"`
}

// Bundle is the dataset envelope.
type Bundle struct {
	Type    string   `json:"type"`
	ID      string   `json:"id"`
	Objects []Object `json:"objects"`
}

// externalID returns the canonical external identifier of an object.
// Only the first external reference is significant.
func (o *Object) externalID() string {
	if len(o.ExternalReferences) == 0 {
		return ""
	}
	return o.ExternalReferences[0].ExternalID
}
