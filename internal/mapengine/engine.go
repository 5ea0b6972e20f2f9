// Package mapengine wires the map pipeline together: filtered fetches feed
// the batch loader, released batches feed the cluster manager, marker taps
// open the detail overlay, and overlay actions flow to the favorite
// synchronizer. The external map provider only calls the exported handlers
// (OnIdle, OnViewportChanged) through an adapter, so the engine tests
// without a real map.
package mapengine

import (
	"context"
	"errors"
	"fmt"
	"log"

	"imovelmap/internal/cluster"
	"imovelmap/internal/favorites"
	"imovelmap/internal/overlay"
	"imovelmap/internal/viewport"
	"imovelmap/pkg/models"
)

// ListingSource provides the full filtered marker set. listings.Client is
// the production implementation.
type ListingSource interface {
	FetchMap(ctx context.Context, filters models.ListingFilters) ([]models.Listing, error)
}

// Renderer draws the cluster assignment onto the map surface. Each call
// replaces the previous visual set wholesale.
type Renderer interface {
	Render(a cluster.Assignment)
	Clear()
}

// Notify surfaces a transient, non-fatal message to the user. Read failures
// go through here; they never clear existing map state.
type Notify func(msg string)

type Engine struct {
	source   ListingSource
	loader   *viewport.BatchLoader
	clusters *cluster.Manager
	overlay  *overlay.Manager
	favs     *favorites.Synchronizer
	renderer Renderer
	notify   Notify

	vp       models.Viewport
	filters  models.ListingFilters
	filtered []models.Listing

	// markers released so far, in release order, plus a code index for
	// overlay opens and favorite toggles.
	materialized []models.Listing
	byCode       map[string]int
}

type Config struct {
	Source    ListingSource
	Clusters  *cluster.Manager
	Overlay   *overlay.Manager
	Favorites *favorites.Synchronizer
	Renderer  Renderer
	Notify    Notify
	BatchSize int
}

func New(cfg Config) *Engine {
	size := cfg.BatchSize
	if size <= 0 {
		size = viewport.DefaultBatchSize
	}
	notify := cfg.Notify
	if notify == nil {
		notify = func(msg string) { log.Printf("[engine] %s", msg) }
	}
	return &Engine{
		source:   cfg.Source,
		loader:   viewport.NewBatchLoader(size),
		clusters: cfg.Clusters,
		overlay:  cfg.Overlay,
		favs:     cfg.Favorites,
		renderer: cfg.Renderer,
		notify:   notify,
		byCode:   make(map[string]int),
	}
}

func (e *Engine) Viewport() models.Viewport          { return e.vp }
func (e *Engine) Filters() models.ListingFilters     { return e.filters }
func (e *Engine) Materialized() []models.Listing     { return e.materialized }
func (e *Engine) Favorites() *favorites.Synchronizer { return e.favs }

// ApplyFilters fetches the filtered set and restarts the batch pipeline. An
// empty filter set is an unfiltered fetch, not an empty result. On a fetch
// failure the prior markers, clusters and overlay stay untouched; the
// failure is surfaced as a transient notification and returned.
func (e *Engine) ApplyFilters(ctx context.Context, filters models.ListingFilters) error {
	listings, err := e.source.FetchMap(ctx, filters)
	if err != nil {
		e.notify(fmt.Sprintf("busca falhou: %v", err))
		return err
	}

	e.filters = filters
	e.filtered = listings
	e.loader.SetFilteredSet(listings)
	e.materialized = e.materialized[:0]
	e.byCode = make(map[string]int, len(listings))
	e.overlay.Close()
	e.renderer.Clear()

	// First screenful renders immediately; the rest waits for idle events.
	e.releaseBatch()
	e.rebuild()
	return nil
}

// ClearFilters reverts to the unfiltered set.
func (e *Engine) ClearFilters(ctx context.Context) error {
	return e.ApplyFilters(ctx, models.ListingFilters{})
}

// OnViewportChanged records the provider's new viewport and recomputes
// everything derived from it: the cluster assignment over the markers
// materialized so far, and the overlay placement.
func (e *Engine) OnViewportChanged(vp models.Viewport) {
	e.vp = vp
	e.rebuild()
}

// OnIdle fires after a pan or zoom settles. Beyond the viewport-change work
// it releases the next marker batch, if any remains.
func (e *Engine) OnIdle(vp models.Viewport) {
	e.vp = vp
	e.releaseBatch()
	e.rebuild()
}

// OpenListing opens the detail overlay for a materialized marker.
func (e *Engine) OpenListing(codigo string) error {
	i, ok := e.byCode[codigo]
	if !ok {
		return fmt.Errorf("open %s: not materialized", codigo)
	}
	return e.overlay.Open(e.materialized[i], e.vp)
}

// CloseOverlay closes the detail overlay; safe when none is open.
func (e *Engine) CloseOverlay() {
	e.overlay.Close()
}

// ToggleFavorite toggles the favorite status of a listing, passing along the
// materialized snapshot so the registry can add without a fetch.
func (e *Engine) ToggleFavorite(ctx context.Context, codigo string) (string, error) {
	var known *models.Listing
	if i, ok := e.byCode[codigo]; ok {
		l := e.materialized[i]
		known = &l
	} else if l, ok := e.favs.Registry.Get(codigo); ok {
		known = &l
	}
	if known == nil && !e.favs.IsFavorite(codigo) {
		return "", errors.New("toggle: listing not materialized")
	}
	return e.favs.Toggle(ctx, codigo, known)
}

func (e *Engine) releaseBatch() {
	batch := e.loader.ReleaseNextBatch()
	for _, l := range batch {
		e.byCode[l.Codigo] = len(e.materialized)
		e.materialized = append(e.materialized, l)
	}
}

func (e *Engine) rebuild() {
	if e.vp.Size.Width <= 0 || e.vp.Size.Height <= 0 {
		return
	}

	markers := make([]cluster.Marker, 0, len(e.materialized))
	for _, l := range e.materialized {
		markers = append(markers, cluster.Marker{
			Codigo:   l.Codigo,
			Position: models.LatLng{Lat: l.Latitude, Lng: l.Longitude},
		})
	}
	e.renderer.Render(e.clusters.Rebuild(markers, e.vp))

	if err := e.overlay.Reposition(e.vp); err != nil {
		e.notify(fmt.Sprintf("overlay fora da tela: %v", err))
	}
}
