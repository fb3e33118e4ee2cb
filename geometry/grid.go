package geometry

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Grid is a per-pixel occupancy mask stored as a row-major byte buffer.
// Any non-zero byte marks an occupied pixel.  Grids come from instance
// segmentation output or from decoded obstacle zone images
type Grid struct {
	W, H int
	Pix  []uint8
}

// NewGrid creates an empty grid of the given size
func NewGrid(w, h int) *Grid {
	return &Grid{W: w, H: h, Pix: make([]uint8, w*h)}
}

// GridFromBox synthesizes a rectangular occupancy grid of the given frame
// size with the box area filled.  Used for vehicles that carry no native
// segmentation mask
func GridFromBox(b Box, w, h int) *Grid {
	g := NewGrid(w, h)
	c := b.Clamp(w, h)

	for y := int(c.Y1); y < int(c.Y2); y++ {
		row := y * w
		for x := int(c.X1); x < int(c.X2); x++ {
			g.Pix[row+x] = 1
		}
	}

	return g
}

// Empty reports whether the grid has no backing pixels
func (g *Grid) Empty() bool {
	return g == nil || g.W <= 0 || g.H <= 0 || len(g.Pix) == 0
}

// At reports occupancy at pixel (x, y), false outside the grid
func (g *Grid) At(x, y int) bool {
	if x < 0 || y < 0 || x >= g.W || y >= g.H {
		return false
	}
	return g.Pix[y*g.W+x] != 0
}

// Area returns the number of occupied pixels
func (g *Grid) Area() int {
	n := 0
	for _, p := range g.Pix {
		if p != 0 {
			n++
		}
	}
	return n
}

// IntersectCount returns the number of pixels occupied in both grids.  The
// grids must share the same size, mismatched grids count as disjoint
func (g *Grid) IntersectCount(other *Grid) int {
	if g.Empty() || other.Empty() || g.W != other.W || g.H != other.H {
		return 0
	}

	n := 0
	for i, p := range g.Pix {
		if p != 0 && other.Pix[i] != 0 {
			n++
		}
	}
	return n
}

// IoU returns the Intersection over Union of two grids, zero when the
// union is empty
func (g *Grid) IoU(other *Grid) float64 {
	inter := g.IntersectCount(other)
	if inter <= 0 {
		return 0
	}

	union := g.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}

	return float64(inter) / float64(union)
}

// BottomStrip returns a copy of the grid keeping only the rows in the
// lowest heightRatio fraction of the box extent, everything else cleared
func (g *Grid) BottomStrip(b Box, heightRatio float64) *Grid {
	out := NewGrid(g.W, g.H)

	strip := int(b.Height() * heightRatio)
	y1 := int(b.Y2) - strip
	if y1 < 0 {
		y1 = 0
	}
	y2 := int(b.Y2)
	if y2 > g.H {
		y2 = g.H
	}

	for y := y1; y < y2; y++ {
		copy(out.Pix[y*g.W:(y+1)*g.W], g.Pix[y*g.W:(y+1)*g.W])
	}

	return out
}

// Resize scales the grid to the given size using nearest-neighbour
// interpolation, which preserves the binary occupancy values
func (g *Grid) Resize(w, h int) (*Grid, error) {
	if g.Empty() {
		return nil, fmt.Errorf("resize of empty grid")
	}
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid resize target %dx%d", w, h)
	}
	if w == g.W && h == g.H {
		return g, nil
	}

	src := &image.Gray{Pix: g.Pix, Stride: g.W, Rect: image.Rect(0, 0, g.W, g.H)}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.NearestNeighbor.Scale(dst, dst.Rect, src, src.Rect, draw.Src, nil)

	return &Grid{W: w, H: h, Pix: dst.Pix}, nil
}

// GridFromImage converts a decoded image into an occupancy grid, treating
// any pixel with luminance above 127 as occupied
func GridFromImage(img image.Image) *Grid {
	bounds := img.Bounds()
	g := NewGrid(bounds.Dx(), bounds.Dy())

	gray, ok := img.(*image.Gray)
	if ok && gray.Stride == g.W {
		for i, p := range gray.Pix {
			if p > 127 {
				g.Pix[i] = 1
			}
		}
		return g
	}

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, gc, b, _ := img.At(x, y).RGBA()
			// 8-bit luminance, same weights as image/color.GrayModel
			lum := (299*(r>>8) + 587*(gc>>8) + 114*(b>>8)) / 1000
			if lum > 127 {
				g.Pix[(y-bounds.Min.Y)*g.W+(x-bounds.Min.X)] = 1
			}
		}
	}

	return g
}

// IoUBoxMask returns the IoU of two objects preferring mask-based IoU when
// both occupancy grids exist and falling back to box IoU otherwise
func IoUBoxMask(b1, b2 Box, m1, m2 *Grid) float64 {
	if !m1.Empty() && !m2.Empty() {
		return m1.IoU(m2)
	}
	return b1.IoU(b2)
}
