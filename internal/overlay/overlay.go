// Package overlay manages the single custom detail panel layered over the
// map surface. The panel is not a native map annotation; it is positioned in
// drawing-surface pixel space from its listing's geographic anchor, so it
// must be repositioned on every pan or zoom.
package overlay

import (
	"fmt"

	"imovelmap/internal/favorites"
	"imovelmap/internal/geo"
	"imovelmap/pkg/models"
)

// Default panel footprint in surface pixels.
const (
	DefaultWidth  = 320.0
	DefaultHeight = 190.0

	// AnchorGap leaves room for the marker symbol between panel and anchor.
	AnchorGap = 12.0
	// EdgeMargin keeps the panel off the surface edges when clamping.
	EdgeMargin = 8.0
)

type State int

const (
	StateClosed State = iota
	StateOpening
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateOpen:
		return "open"
	default:
		return "closed"
	}
}

// Placement is where the panel's top-left corner goes, and whether it ended
// up below the anchor because there was no vertical room above.
type Placement struct {
	At    models.Offset
	Below bool
}

// Surface is the rendering side of the panel, injected so the manager tests
// without a real drawing surface. Attach and Detach bracket the panel's
// lifetime; Place and SetFavorite update a live panel.
type Surface interface {
	Attach(listing models.Listing, favorite bool)
	Place(p Placement)
	SetFavorite(favorite bool)
	Detach()
}

// Manager owns the at-most-one live panel. It is not safe for concurrent
// use; the engine serializes all calls on its event turn.
type Manager struct {
	surface  Surface
	registry *favorites.Registry

	width  float64
	height float64

	state       State
	listing     models.Listing
	unsubscribe func()
}

func NewManager(surface Surface, registry *favorites.Registry) *Manager {
	return &Manager{
		surface:  surface,
		registry: registry,
		width:    DefaultWidth,
		height:   DefaultHeight,
	}
}

func (m *Manager) State() State { return m.state }

// Current returns the listing of the live panel, if any.
func (m *Manager) Current() (models.Listing, bool) {
	if m.state == StateClosed {
		return models.Listing{}, false
	}
	return m.listing, true
}

// Open shows the panel for listing, tearing down any existing panel first.
// A missing or invalid anchor coordinate prevents opening; the manager stays
// Closed and no panel is attached.
func (m *Manager) Open(listing models.Listing, vp models.Viewport) error {
	m.Close()

	anchor := models.LatLng{Lat: listing.Latitude, Lng: listing.Longitude}
	if !geo.Valid(anchor) {
		return fmt.Errorf("overlay %s: unusable anchor (%.6f, %.6f)", listing.Codigo, anchor.Lat, anchor.Lng)
	}

	m.state = StateOpening
	m.listing = listing

	m.surface.Attach(listing, m.registry.IsFavorite(listing.Codigo))

	code := listing.Codigo
	m.unsubscribe = m.registry.Subscribe(func(codes []string) {
		fav := false
		for _, c := range codes {
			if c == code {
				fav = true
				break
			}
		}
		m.surface.SetFavorite(fav)
	})

	if err := m.Reposition(vp); err != nil {
		m.Close()
		return err
	}

	m.state = StateOpen
	return nil
}

// Reposition recomputes the panel placement from the anchor coordinate and
// the current viewport. The panel sits above the anchor by default, flips
// below when there is no vertical room, and is clamped so it never renders
// off the drawing surface.
func (m *Manager) Reposition(vp models.Viewport) error {
	if m.state == StateClosed {
		return nil
	}

	anchor := models.LatLng{Lat: m.listing.Latitude, Lng: m.listing.Longitude}
	scale := geo.ZoomScale(vp.Zoom)
	px, err := geo.Project(anchor, scale)
	if err != nil {
		return fmt.Errorf("overlay %s: %w", m.listing.Codigo, err)
	}
	at, err := geo.OffsetInViewport(px, vp.Bounds, vp.Size, scale)
	if err != nil {
		return fmt.Errorf("overlay %s: %w", m.listing.Codigo, err)
	}

	p := Placement{
		At: models.Offset{
			X: at.X - m.width/2,
			Y: at.Y - m.height - AnchorGap,
		},
	}
	if p.At.Y < EdgeMargin {
		p.At.Y = at.Y + AnchorGap
		p.Below = true
	}

	p.At.X = clamp(p.At.X, EdgeMargin, vp.Size.Width-m.width-EdgeMargin)
	p.At.Y = clamp(p.At.Y, EdgeMargin, vp.Size.Height-m.height-EdgeMargin)

	m.surface.Place(p)
	return nil
}

// Close tears the panel down: unsubscribes from favorite updates, detaches
// the surface and returns to Closed. Safe to call when already Closed, and
// must run on every exit path.
func (m *Manager) Close() {
	if m.state == StateClosed {
		return
	}
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.surface.Detach()
	m.state = StateClosed
	m.listing = models.Listing{}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		// Surface smaller than the panel; pin to the margin.
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
