// Package viewport holds the filtered result set and releases it to the
// renderer in bounded batches. Marker objects are expensive to create, so
// capping per-batch creation bounds per-interaction latency instead of
// materializing thousands of off-screen markers up front.
package viewport

import "imovelmap/pkg/models"

// DefaultBatchSize is how many listings one release materializes.
const DefaultBatchSize = 100

// BatchLoader releases the working set in order, DefaultBatchSize at a time.
// Batches are irreversible: once released they stay materialized until the
// next SetFilteredSet. The engine drives it from the map event callbacks, so
// it is not safe for concurrent use.
type BatchLoader struct {
	listings  []models.Listing
	cursor    int
	batchSize int
}

func NewBatchLoader(batchSize int) *BatchLoader {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &BatchLoader{batchSize: batchSize}
}

// SetFilteredSet replaces the working set and resets the release cursor.
// Previously released markers are invalidated; the caller clears the render
// surface.
func (l *BatchLoader) SetFilteredSet(listings []models.Listing) {
	l.listings = listings
	l.cursor = 0
}

// ReleaseNextBatch advances the cursor and returns the next slice of the
// working set. Returns an empty batch once the set is exhausted.
func (l *BatchLoader) ReleaseNextBatch() []models.Listing {
	if l.cursor >= len(l.listings) {
		return nil
	}
	end := l.cursor + l.batchSize
	if end > len(l.listings) {
		end = len(l.listings)
	}
	batch := l.listings[l.cursor:end]
	l.cursor = end
	return batch
}

// Released returns every listing materialized so far, in release order.
func (l *BatchLoader) Released() []models.Listing {
	return l.listings[:l.cursor]
}

// HasMore reports whether releases remain.
func (l *BatchLoader) HasMore() bool {
	return l.cursor < len(l.listings)
}

// Cursor is the count of listings released so far.
func (l *BatchLoader) Cursor() int { return l.cursor }

// Len is the size of the full working set.
func (l *BatchLoader) Len() int { return len(l.listings) }
