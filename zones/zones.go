// Package zones loads per-camera zone configuration and caches obstacle
// occupancy grids at the resolutions the detection engine asks for.
//
// The on-disk format is a single JSON document mapping camera id to its
// zone set.  Obstacles are either a base64-encoded image mask recorded at
// a native shape, or a polygon outline in the same native coordinates:
//
//	{
//	  "cam_entrance": {
//	    "obstacles": {
//	      "pillar_1": {"mask_base64": "...", "shape": [720, 1280]},
//	      "barrier":  {"polygon": [[100,600],[400,600],[400,700],[100,700]],
//	                   "shape": [720, 1280]}
//	    }
//	  }
//	}
package zones

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/studentepercaso/ai-parking-collision-and-safety/geometry"
)

// Obstacle is one named static obstacle inside a camera view, carrying
// either an occupancy grid at its native shape or a polygon outline
type Obstacle struct {
	Name    string
	Mask    *geometry.Grid
	Polygon geometry.Polygon
	// native shape the mask or polygon was recorded at
	Width, Height int
}

// CameraZones holds the zone set of one camera
type CameraZones struct {
	Obstacles map[string]Obstacle
}

// Provider supplies zone definitions per camera.  A nil result means the
// camera has no zones configured
type Provider interface {
	Zones(cameraID string) (*CameraZones, error)
}

// StaticProvider serves a fixed in-memory zone set, used in tests and by
// host applications that manage zone configuration themselves
type StaticProvider map[string]CameraZones

// Zones returns the zone set for a camera
func (p StaticProvider) Zones(cameraID string) (*CameraZones, error) {
	z, ok := p[cameraID]
	if !ok {
		return nil, nil
	}
	return &z, nil
}

// obstacleDef is the JSON shape of one obstacle definition
type obstacleDef struct {
	MaskBase64 string      `json:"mask_base64"`
	Polygon    [][]float64 `json:"polygon"`
	Shape      []int       `json:"shape"` // [height, width]
}

// cameraDef is the JSON shape of one camera's zone set
type cameraDef struct {
	Obstacles map[string]obstacleDef `json:"obstacles"`
}

// FileProvider reads the JSON zone configuration once and serves decoded
// zone sets from memory
type FileProvider struct {
	cameras map[string]CameraZones
}

// NewFileProvider loads and decodes a zone configuration file
func NewFileProvider(path string) (*FileProvider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read zones config: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a zone configuration document
func ParseConfig(data []byte) (*FileProvider, error) {
	var raw map[string]cameraDef

	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse zones config: %w", err)
	}

	p := &FileProvider{cameras: make(map[string]CameraZones)}

	for cameraID, cam := range raw {
		cz := CameraZones{Obstacles: make(map[string]Obstacle)}

		for name, def := range cam.Obstacles {
			obs, err := decodeObstacle(name, def)
			if err != nil {
				return nil, fmt.Errorf("camera %s obstacle %s: %w",
					cameraID, name, err)
			}
			cz.Obstacles[name] = obs
		}

		p.cameras[cameraID] = cz
	}

	return p, nil
}

// Zones returns the zone set for a camera
func (p *FileProvider) Zones(cameraID string) (*CameraZones, error) {
	z, ok := p.cameras[cameraID]
	if !ok {
		return nil, nil
	}
	return &z, nil
}

// decodeObstacle converts one JSON obstacle definition into its runtime form
func decodeObstacle(name string, def obstacleDef) (Obstacle, error) {
	if len(def.Shape) != 2 || def.Shape[0] <= 0 || def.Shape[1] <= 0 {
		return Obstacle{}, fmt.Errorf("missing or invalid shape")
	}

	obs := Obstacle{
		Name:   name,
		Height: def.Shape[0],
		Width:  def.Shape[1],
	}

	switch {
	case def.MaskBase64 != "":
		raw, err := base64.StdEncoding.DecodeString(def.MaskBase64)
		if err != nil {
			return Obstacle{}, fmt.Errorf("decode mask base64: %w", err)
		}

		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return Obstacle{}, fmt.Errorf("decode mask image: %w", err)
		}

		mask := geometry.GridFromImage(img)
		if mask.W != obs.Width || mask.H != obs.Height {
			mask, err = mask.Resize(obs.Width, obs.Height)
			if err != nil {
				return Obstacle{}, fmt.Errorf("resize mask to shape: %w", err)
			}
		}
		obs.Mask = mask

	case len(def.Polygon) >= 3:
		for _, pt := range def.Polygon {
			if len(pt) != 2 {
				return Obstacle{}, fmt.Errorf("polygon vertex needs 2 coordinates")
			}
			obs.Polygon = append(obs.Polygon, geometry.Point{X: pt[0], Y: pt[1]})
		}

	default:
		return Obstacle{}, fmt.Errorf("obstacle needs mask_base64 or a polygon with >=3 vertices")
	}

	return obs, nil
}
