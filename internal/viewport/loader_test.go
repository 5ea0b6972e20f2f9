package viewport

import (
	"fmt"
	"testing"

	"imovelmap/pkg/models"
)

func makeListings(n int) []models.Listing {
	out := make([]models.Listing, n)
	for i := range out {
		out[i] = models.Listing{Codigo: fmt.Sprintf("AB%04d", i)}
	}
	return out
}

func TestReleaseBatchesCoverSetExactlyOnce(t *testing.T) {
	const n, k = 250, 100
	l := NewBatchLoader(k)
	l.SetFilteredSet(makeListings(n))

	var sizes []int
	seen := make(map[string]int)
	order := 0
	for l.HasMore() {
		batch := l.ReleaseNextBatch()
		sizes = append(sizes, len(batch))
		for _, item := range batch {
			seen[item.Codigo]++
			want := fmt.Sprintf("AB%04d", order)
			if item.Codigo != want {
				t.Fatalf("listing %d released out of order: got %s want %s", order, item.Codigo, want)
			}
			order++
		}
	}

	// 250 listings at batch size 100 → releases of 100, 100, 50.
	wantSizes := []int{100, 100, 50}
	if len(sizes) != len(wantSizes) {
		t.Fatalf("got %d batches %v, want %v", len(sizes), sizes, wantSizes)
	}
	for i := range wantSizes {
		if sizes[i] != wantSizes[i] {
			t.Errorf("batch %d size = %d, want %d", i, sizes[i], wantSizes[i])
		}
	}
	if len(seen) != n {
		t.Errorf("covered %d distinct listings, want %d", len(seen), n)
	}
	for code, count := range seen {
		if count != 1 {
			t.Errorf("listing %s released %d times", code, count)
		}
	}
}

func TestReleaseAfterExhaustionIsEmpty(t *testing.T) {
	l := NewBatchLoader(10)
	l.SetFilteredSet(makeListings(5))

	if got := len(l.ReleaseNextBatch()); got != 5 {
		t.Fatalf("first release = %d, want 5", got)
	}
	if batch := l.ReleaseNextBatch(); batch != nil {
		t.Errorf("release past end = %v, want nil", batch)
	}
	if l.HasMore() {
		t.Error("HasMore after exhaustion")
	}
	if l.Cursor() != 5 {
		t.Errorf("cursor = %d, want 5", l.Cursor())
	}
}

func TestSetFilteredSetResetsCursor(t *testing.T) {
	l := NewBatchLoader(2)
	l.SetFilteredSet(makeListings(6))
	l.ReleaseNextBatch()
	l.ReleaseNextBatch()
	if l.Cursor() != 4 {
		t.Fatalf("cursor = %d, want 4", l.Cursor())
	}

	l.SetFilteredSet(makeListings(3))
	if l.Cursor() != 0 {
		t.Errorf("cursor not reset: %d", l.Cursor())
	}
	if got := len(l.Released()); got != 0 {
		t.Errorf("released set not cleared: %d", got)
	}
	if got := len(l.ReleaseNextBatch()); got != 2 {
		t.Errorf("first batch of new set = %d, want 2", got)
	}
}

func TestEmptySet(t *testing.T) {
	l := NewBatchLoader(0) // falls back to DefaultBatchSize
	l.SetFilteredSet(nil)
	if l.HasMore() {
		t.Error("empty set reports HasMore")
	}
	if batch := l.ReleaseNextBatch(); batch != nil {
		t.Errorf("release on empty set = %v", batch)
	}
}
