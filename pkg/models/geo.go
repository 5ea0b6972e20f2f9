package models

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Pixel is a point in projected world-pixel space at some zoom scale.
type Pixel struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Offset is a point relative to the top-left of the drawing surface.
type Offset struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Bounds are the geographic corners of the visible map region.
type Bounds struct {
	NorthEast LatLng `json:"ne"`
	SouthWest LatLng `json:"sw"`
}

// Size is the pixel dimensions of the map drawing surface.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport is the visible map state: zoom level, geographic bounds and the
// pixel dimensions of the drawing surface. It is mutated only by the map
// provider's pan/zoom notifications.
type Viewport struct {
	Zoom   float64 `json:"zoom"`
	Bounds Bounds  `json:"bounds"`
	Size   Size    `json:"size"`
}
