package zones

import (
	"fmt"
	"sync"

	"github.com/studentepercaso/ai-parking-collision-and-safety/geometry"
)

// ResolvedZones is one camera's zone set materialised at a frame
// resolution: grids resized, polygons scaled
type ResolvedZones struct {
	Grids    map[string]*geometry.Grid
	Polygons map[string]geometry.Polygon
}

// Cache resolves and memoises zone definitions per (camera, resolution).
// Decoding and resizing happen once on first use at a given resolution,
// later frames hit the cache.  Safe for concurrent use
type Cache struct {
	provider Provider

	mu       sync.Mutex
	resolved map[string]*ResolvedZones
}

// NewCache creates a zone cache on top of a provider
func NewCache(provider Provider) *Cache {
	return &Cache{
		provider: provider,
		resolved: make(map[string]*ResolvedZones),
	}
}

// Resolve returns the camera's zones at the given frame resolution.  A nil
// result means the camera has no zones configured
func (c *Cache) Resolve(cameraID string, width, height int) (*ResolvedZones, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid resolution %dx%d", width, height)
	}

	key := fmt.Sprintf("%s_%d_%d", cameraID, height, width)

	c.mu.Lock()
	defer c.mu.Unlock()

	if rz, ok := c.resolved[key]; ok {
		return rz, nil
	}

	src, err := c.provider.Zones(cameraID)
	if err != nil {
		return nil, fmt.Errorf("zones for %s: %w", cameraID, err)
	}
	if src == nil || len(src.Obstacles) == 0 {
		c.resolved[key] = nil
		return nil, nil
	}

	rz := &ResolvedZones{
		Grids:    make(map[string]*geometry.Grid),
		Polygons: make(map[string]geometry.Polygon),
	}

	for name, obs := range src.Obstacles {
		switch {
		case !obs.Mask.Empty():
			mask := obs.Mask
			if mask.W != width || mask.H != height {
				mask, err = mask.Resize(width, height)
				if err != nil {
					return nil, fmt.Errorf("resize obstacle %s: %w", name, err)
				}
			}
			rz.Grids[name] = mask

		case len(obs.Polygon) >= 3:
			rz.Polygons[name] = scalePolygon(obs.Polygon,
				float64(width)/float64(obs.Width),
				float64(height)/float64(obs.Height))
		}
	}

	c.resolved[key] = rz
	return rz, nil
}

// scalePolygon maps a polygon from its native shape to frame coordinates
func scalePolygon(poly geometry.Polygon, sx, sy float64) geometry.Polygon {
	out := make(geometry.Polygon, len(poly))
	for i, pt := range poly {
		out[i] = geometry.Point{X: pt.X * sx, Y: pt.Y * sy}
	}
	return out
}
