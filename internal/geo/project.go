// Package geo implements the Web Mercator world-to-pixel transform used to
// place custom overlays and cluster markers in the map's pixel space. It is
// pure: same zoom and bounds always give the same pixel, so callers own any
// caching.
package geo

import (
	"math"

	"imovelmap/pkg/apierr"
	"imovelmap/pkg/models"
)

// TileSize is the map provider's tile edge in pixels.
const TileSize = 256

// MaxLatitude is the Mercator projection limit; latitudes beyond it do not
// project to finite y.
const MaxLatitude = 85.05112878

// ZoomScale converts a zoom level to the projection scale factor 2^zoom.
func ZoomScale(zoom float64) float64 {
	return math.Pow(2, zoom)
}

// Valid reports whether ll can be projected. NaN/Inf components, latitudes
// past the Mercator limit and the (0,0) null-island sentinel used by the
// listings importer for unguessable addresses are all rejected.
func Valid(ll models.LatLng) bool {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lng) ||
		math.IsInf(ll.Lat, 0) || math.IsInf(ll.Lng, 0) {
		return false
	}
	if math.Abs(ll.Lat) > MaxLatitude || math.Abs(ll.Lng) > 180 {
		return false
	}
	if ll.Lat == 0 && ll.Lng == 0 {
		return false
	}
	return true
}

// Project converts a geographic coordinate to world-pixel space at the given
// zoom scale (2^zoom).
func Project(ll models.LatLng, zoomScale float64) (models.Pixel, error) {
	if !Valid(ll) {
		return models.Pixel{}, apierr.New(apierr.KindProjection, "invalid coordinate")
	}

	siny := math.Sin(ll.Lat * math.Pi / 180)
	x := TileSize/2 + ll.Lng*TileSize/360
	y := TileSize/2 - 0.5*math.Log((1+siny)/(1-siny))*TileSize/(2*math.Pi)

	return models.Pixel{
		X: x * zoomScale,
		Y: y * zoomScale,
	}, nil
}

// Unproject converts a world pixel back to a geographic coordinate. Inverse
// of Project for any valid input.
func Unproject(p models.Pixel, zoomScale float64) models.LatLng {
	world := TileSize * zoomScale
	xn := p.X / world
	yn := p.Y / world
	return models.LatLng{
		Lat: math.Atan(math.Sinh(math.Pi*(1-2*yn))) * 180 / math.Pi,
		Lng: xn*360 - 180,
	}
}

// OffsetInViewport computes where a projected world pixel falls relative to
// the top-left of the drawing surface. The y axis is scaled against the
// projected NE/SW corners rather than interpolated in degrees, which keeps
// the placement aligned with the provider's own marker positions under the
// nonlinear Mercator y.
func OffsetInViewport(p models.Pixel, bounds models.Bounds, size models.Size, zoomScale float64) (models.Offset, error) {
	topRight, err := Project(bounds.NorthEast, zoomScale)
	if err != nil {
		return models.Offset{}, err
	}
	bottomLeft, err := Project(bounds.SouthWest, zoomScale)
	if err != nil {
		return models.Offset{}, err
	}

	spanX := topRight.X - bottomLeft.X
	spanY := bottomLeft.Y - topRight.Y
	if spanX <= 0 || spanY <= 0 {
		return models.Offset{}, apierr.New(apierr.KindProjection, "degenerate viewport bounds")
	}

	return models.Offset{
		X: (p.X - bottomLeft.X) * size.Width / spanX,
		Y: (p.Y - topRight.Y) * size.Height / spanY,
	}, nil
}
