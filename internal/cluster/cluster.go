// Package cluster groups the currently materialized markers into visual
// aggregates by pixel proximity at the current zoom. Every viewport change
// discards and rebuilds the whole assignment; nothing is patched
// incrementally, so the result can never drift between zoom levels. The
// recompute cost is bounded by the batch loader, which keeps the marker set
// small.
package cluster

import (
	"github.com/google/uuid"

	"imovelmap/internal/geo"
	"imovelmap/pkg/models"
)

const (
	// DefaultRadius is the grouping radius in pixels.
	DefaultRadius = 60
	// DefaultMaxZoom is the zoom level above which markers always render
	// individually.
	DefaultMaxZoom = 15
)

// Symbol scales for the three aggregate size tiers.
const (
	ScaleSmall  = 22 // fewer than 10 members
	ScaleMedium = 30 // fewer than 100 members
	ScaleLarge  = 38 // 100 or more members
)

// Marker is one renderable listing position.
type Marker struct {
	Codigo   string
	Position models.LatLng
}

// Cluster is an ephemeral aggregate of nearby markers. IDs identify a
// cluster within a single render pass only.
type Cluster struct {
	ID       uint32
	Centroid models.LatLng
	Count    int
	Members  []string
	Scale    float64
}

// Assignment is one full render pass: aggregates plus the markers that
// remain individual. It completely replaces the previous visual set.
type Assignment struct {
	Clusters []Cluster
	Markers  []Marker
}

type Manager struct {
	radius  float64
	maxZoom float64
}

func NewManager(radius, maxZoom float64) *Manager {
	if radius <= 0 {
		radius = DefaultRadius
	}
	if maxZoom <= 0 {
		maxZoom = DefaultMaxZoom
	}
	return &Manager{radius: radius, maxZoom: maxZoom}
}

// ScaleFor returns the aggregate symbol scale for a member count.
func ScaleFor(count int) float64 {
	switch {
	case count < 10:
		return ScaleSmall
	case count < 100:
		return ScaleMedium
	default:
		return ScaleLarge
	}
}

// Rebuild computes a fresh assignment for the given markers and viewport.
// Markers with invalid coordinates are skipped. Past the max-zoom threshold
// everything renders individually.
func (m *Manager) Rebuild(markers []Marker, vp models.Viewport) Assignment {
	scale := geo.ZoomScale(vp.Zoom)

	type projected struct {
		marker Marker
		px     models.Pixel
	}
	pts := make([]projected, 0, len(markers))
	for _, mk := range markers {
		px, err := geo.Project(mk.Position, scale)
		if err != nil {
			continue
		}
		pts = append(pts, projected{marker: mk, px: px})
	}

	var out Assignment
	if vp.Zoom > m.maxZoom {
		for _, p := range pts {
			out.Markers = append(out.Markers, p.marker)
		}
		return out
	}

	r2 := m.radius * m.radius
	assigned := make([]bool, len(pts))
	for i := range pts {
		if assigned[i] {
			continue
		}
		group := []int{i}
		for j := i + 1; j < len(pts); j++ {
			if assigned[j] {
				continue
			}
			dx := pts[j].px.X - pts[i].px.X
			dy := pts[j].px.Y - pts[i].px.Y
			if dx*dx+dy*dy <= r2 {
				group = append(group, j)
			}
		}

		if len(group) < 2 {
			assigned[i] = true
			out.Markers = append(out.Markers, pts[i].marker)
			continue
		}

		var sumX, sumY float64
		members := make([]string, 0, len(group))
		for _, idx := range group {
			assigned[idx] = true
			sumX += pts[idx].px.X
			sumY += pts[idx].px.Y
			members = append(members, pts[idx].marker.Codigo)
		}
		n := float64(len(group))
		centroid := geo.Unproject(models.Pixel{X: sumX / n, Y: sumY / n}, scale)

		out.Clusters = append(out.Clusters, Cluster{
			ID:       uuid.New().ID(),
			Centroid: centroid,
			Count:    len(group),
			Members:  members,
			Scale:    ScaleFor(len(group)),
		})
	}

	return out
}
