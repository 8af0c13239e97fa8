package taxonomy

import (
	"context"
	"fmt"
)

// Fetcher retrieves the taxonomy dataset.
type Fetcher interface {
	FetchObjects(ctx context.Context) ([]Object, error)
}

// Index maps external taxonomy identifiers to graph node ids.
// It is built fresh for every import run and is read-only afterwards.
type Index map[string]string

// Build scans the dataset once, in provided order, and keeps the node id
// of every attack-pattern and intrusion-set whose first external reference
// carries a non-empty external id. When two objects share an external id
// the later one wins; the source data is not expected to contain such
// collisions and they are not detected here.
func Build(ctx context.Context, fetcher Fetcher) (Index, error) {
	objects, err := fetcher.FetchObjects(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	index := make(Index)
	for _, obj := range objects {
		if obj.Type != TypeAttackPattern && obj.Type != TypeIntrusionSet {
			continue
		}
		extID := obj.externalID()
		if extID == "" || obj.ID == "" {
			continue
		}
		index[extID] = obj.ID
	}

	return index, nil
}

// Lookup returns the node id mapped to the given external id.
func (i Index) Lookup(externalID string) (string, bool) {
	nodeID, ok := i[externalID]
	if !ok || nodeID == "" {
		return "", false
	}
	return nodeID, true
}
