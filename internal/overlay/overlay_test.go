package overlay

import (
	"testing"

	"imovelmap/internal/favorites"
	"imovelmap/pkg/models"
)

type fakeSurface struct {
	attached  int
	detached  int
	placed    []Placement
	favorite  []bool
	lastShown models.Listing
}

func (f *fakeSurface) Attach(l models.Listing, fav bool) {
	f.attached++
	f.lastShown = l
	f.favorite = append(f.favorite, fav)
}

func (f *fakeSurface) Place(p Placement)    { f.placed = append(f.placed, p) }
func (f *fakeSurface) SetFavorite(fav bool) { f.favorite = append(f.favorite, fav) }
func (f *fakeSurface) Detach()              { f.detached++ }

func testViewport() models.Viewport {
	return models.Viewport{
		Zoom: 12,
		Bounds: models.Bounds{
			NorthEast: models.LatLng{Lat: -23.40, Lng: -46.40},
			SouthWest: models.LatLng{Lat: -23.70, Lng: -46.80},
		},
		Size: models.Size{Width: 1000, Height: 800},
	}
}

func testListing(code string, lat, lng float64) models.Listing {
	return models.Listing{
		Codigo:     code,
		TipoImovel: "Apartamento",
		Cidade:     "São Paulo",
		Estado:     "SP",
		Valor:      320000,
		Latitude:   lat,
		Longitude:  lng,
	}
}

func TestOpenTransitionsAndPlacesAboveAnchor(t *testing.T) {
	surf := &fakeSurface{}
	m := NewManager(surf, favorites.NewRegistry())
	vp := testViewport()

	l := testListing("AB1234", -23.55, -46.60)
	if err := m.Open(l, vp); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if m.State() != StateOpen {
		t.Errorf("state = %v, want open", m.State())
	}
	if surf.attached != 1 || surf.lastShown.Codigo != "AB1234" {
		t.Errorf("attached = %d, shown = %q", surf.attached, surf.lastShown.Codigo)
	}
	if len(surf.placed) != 1 {
		t.Fatalf("placed %d times, want 1", len(surf.placed))
	}
	p := surf.placed[0]
	if p.Below {
		t.Error("mid-viewport anchor should place above")
	}
	if p.At.X < EdgeMargin || p.At.Y < EdgeMargin {
		t.Errorf("placement %+v escapes the surface", p.At)
	}
}

func TestOpenRejectsUnusableAnchor(t *testing.T) {
	surf := &fakeSurface{}
	m := NewManager(surf, favorites.NewRegistry())

	bad := testListing("XX0000", 0, 0)
	if err := m.Open(bad, testViewport()); err == nil {
		t.Fatal("Open with a zero coordinate should fail")
	}
	if m.State() != StateClosed {
		t.Errorf("state = %v, want closed", m.State())
	}
	if surf.attached != 0 {
		t.Error("panel attached despite unusable anchor")
	}
}

func TestOpenReplacesExistingPanel(t *testing.T) {
	surf := &fakeSurface{}
	m := NewManager(surf, favorites.NewRegistry())
	vp := testViewport()

	if err := m.Open(testListing("AA0001", -23.55, -46.60), vp); err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := m.Open(testListing("BB0002", -23.50, -46.55), vp); err != nil {
		t.Fatalf("second Open: %v", err)
	}

	if surf.detached != 1 {
		t.Errorf("detached = %d, want 1 (old panel torn down)", surf.detached)
	}
	cur, ok := m.Current()
	if !ok || cur.Codigo != "BB0002" {
		t.Errorf("current = %q, ok=%v", cur.Codigo, ok)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	surf := &fakeSurface{}
	m := NewManager(surf, favorites.NewRegistry())

	m.Close()
	if surf.detached != 0 {
		t.Error("closing a closed manager detached a panel")
	}

	if err := m.Open(testListing("AB1234", -23.55, -46.60), testViewport()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	m.Close()
	m.Close()
	if surf.detached != 1 {
		t.Errorf("detached = %d, want 1", surf.detached)
	}
	if _, ok := m.Current(); ok {
		t.Error("closed manager still reports a current listing")
	}
}

func TestRepositionFlipsBelowNearTopEdge(t *testing.T) {
	surf := &fakeSurface{}
	m := NewManager(surf, favorites.NewRegistry())
	vp := testViewport()

	// Just inside the northern bound: no room above the anchor.
	if err := m.Open(testListing("AB1234", -23.41, -46.60), vp); err != nil {
		t.Fatalf("Open: %v", err)
	}
	p := surf.placed[len(surf.placed)-1]
	if !p.Below {
		t.Error("near-top anchor should flip below")
	}
	if p.At.Y < EdgeMargin {
		t.Errorf("flipped placement y = %.1f still above the surface", p.At.Y)
	}
}

func TestRepositionClampsToSurface(t *testing.T) {
	surf := &fakeSurface{}
	m := NewManager(surf, favorites.NewRegistry())
	vp := testViewport()

	// Just inside the western bound: centering would push the panel off-left.
	if err := m.Open(testListing("AB1234", -23.55, -46.79), vp); err != nil {
		t.Fatalf("Open: %v", err)
	}
	p := surf.placed[len(surf.placed)-1]
	if p.At.X != EdgeMargin {
		t.Errorf("x = %.1f, want clamped to %.1f", p.At.X, EdgeMargin)
	}
}

func TestRepositionWhileClosedIsNoop(t *testing.T) {
	surf := &fakeSurface{}
	m := NewManager(surf, favorites.NewRegistry())
	if err := m.Reposition(testViewport()); err != nil {
		t.Fatalf("Reposition while closed: %v", err)
	}
	if len(surf.placed) != 0 {
		t.Error("closed manager placed a panel")
	}
}

func TestFavoriteUpdatesFlowUntilClose(t *testing.T) {
	surf := &fakeSurface{}
	reg := favorites.NewRegistry()
	m := NewManager(surf, reg)

	l := testListing("AB1234", -23.55, -46.60)
	if err := m.Open(l, testViewport()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if surf.favorite[0] {
		t.Error("panel opened as favorite before any toggle")
	}

	reg.Add(l.Codigo, l)
	if last := surf.favorite[len(surf.favorite)-1]; !last {
		t.Error("registry add did not reach the panel")
	}

	reg.Remove(l.Codigo)
	if last := surf.favorite[len(surf.favorite)-1]; last {
		t.Error("registry remove did not reach the panel")
	}

	m.Close()
	seen := len(surf.favorite)
	reg.Add(l.Codigo, l)
	if len(surf.favorite) != seen {
		t.Error("closed panel still receives favorite updates")
	}
}
