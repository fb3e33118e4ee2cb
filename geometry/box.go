package geometry

import (
	"math"
)

// Box represents an axis-aligned bounding box in pixel coordinates using
// the (x1, y1, x2, y2) corner format produced by the upstream tracker
type Box struct {
	X1, Y1, X2, Y2 float64
}

// NewBox creates a new Box from corner coordinates
func NewBox(x1, y1, x2, y2 float64) Box {
	return Box{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Width returns the width of the box
func (b Box) Width() float64 {
	return b.X2 - b.X1
}

// Height returns the height of the box
func (b Box) Height() float64 {
	return b.Y2 - b.Y1
}

// Area returns the area of the box, zero for degenerate boxes
func (b Box) Area() float64 {
	return math.Max(0, b.Width()) * math.Max(0, b.Height())
}

// Center returns the center point of the box
func (b Box) Center() (float64, float64) {
	return (b.X1 + b.X2) / 2, (b.Y1 + b.Y2) / 2
}

// Valid reports whether the box has finite coordinates and positive extent.
// Tracker output occasionally contains NaN or inverted corners, those boxes
// must be rejected before any geometry runs on them
func (b Box) Valid() bool {
	for _, v := range []float64{b.X1, b.Y1, b.X2, b.Y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.X2 > b.X1 && b.Y2 > b.Y1
}

// Intersects reports whether two boxes overlap
func (b Box) Intersects(other Box) bool {
	if b.X2 < other.X1 || other.X2 < b.X1 {
		return false
	}
	if b.Y2 < other.Y1 || other.Y2 < b.Y1 {
		return false
	}
	return true
}

// IntersectionArea returns the overlapping area of two boxes
func (b Box) IntersectionArea(other Box) float64 {
	iw := math.Min(b.X2, other.X2) - math.Max(b.X1, other.X1)
	ih := math.Min(b.Y2, other.Y2) - math.Max(b.Y1, other.Y1)

	if iw <= 0 || ih <= 0 {
		return 0
	}

	return iw * ih
}

// IoU returns the Intersection over Union of two boxes, zero when the
// union is empty
func (b Box) IoU(other Box) float64 {
	inter := b.IntersectionArea(other)
	if inter <= 0 {
		return 0
	}

	union := b.Area() + other.Area() - inter
	if union <= 0 {
		return 0
	}

	return inter / union
}

// GroundPoint returns the bottom-center point of the box.  The bottom edge
// is where the object touches the road, making the point a depth-invariant
// proxy for ground contact
func (b Box) GroundPoint() (float64, float64) {
	return (b.X1 + b.X2) / 2, b.Y2
}

// GroundPointDistance returns the distance between the ground points of
// two boxes
func GroundPointDistance(b1, b2 Box) float64 {
	gx1, gy1 := b1.GroundPoint()
	gx2, gy2 := b2.GroundPoint()
	return math.Hypot(gx1-gx2, gy1-gy2)
}

// CenterDistance returns the distance between the centers of two boxes
func CenterDistance(b1, b2 Box) float64 {
	cx1, cy1 := b1.Center()
	cx2, cy2 := b2.Center()
	return math.Hypot(cx1-cx2, cy1-cy2)
}

// BottomStrip returns the lowest heightRatio fraction of the box, the zone
// most likely to touch the ground or a neighbouring vehicle
func (b Box) BottomStrip(heightRatio float64) Box {
	strip := b.Height() * heightRatio
	return Box{X1: b.X1, Y1: b.Y2 - strip, X2: b.X2, Y2: b.Y2}
}

// Clamp restricts the box to the frame of the given width and height,
// keeping at least one pixel of extent
func (b Box) Clamp(width, height int) Box {
	w := float64(width)
	h := float64(height)

	x1 := math.Max(0, math.Min(b.X1, w-1))
	y1 := math.Max(0, math.Min(b.Y1, h-1))
	x2 := math.Max(x1+1, math.Min(b.X2, w))
	y2 := math.Max(y1+1, math.Min(b.Y2, h))

	return Box{X1: x1, Y1: y1, X2: x2, Y2: y2}
}
