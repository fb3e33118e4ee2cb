package geometry

import (
	clipper "github.com/ctessum/go.clipper"
)

// Point is a 2D point in pixel coordinates
type Point struct {
	X, Y float64
}

// Polygon is a closed polygon described by its vertices in order
type Polygon []Point

// clipper works on integer coordinates, scale pixels up to keep
// sub-pixel precision through the boolean operation
const clipperScale = 1000

// PointInPolygon reports whether the point (x, y) lies inside the polygon
// using the ray casting algorithm.  Polygons with fewer than 3 vertices
// contain nothing
func PointInPolygon(x, y float64, poly Polygon) bool {
	n := len(poly)
	if n < 3 {
		return false
	}

	inside := false
	j := n - 1

	for i := 0; i < n; i++ {
		xi, yi := poly[i].X, poly[i].Y
		xj, yj := poly[j].X, poly[j].Y

		if (yi > y) != (yj > y) && yj != yi &&
			x < (xj-xi)*(y-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}

	return inside
}

// toClipperPath converts a polygon to a scaled integer clipper path
func toClipperPath(poly Polygon) clipper.Path {
	var path clipper.Path

	for _, pt := range poly {
		path = append(path, &clipper.IntPoint{
			X: clipper.CInt(pt.X * clipperScale),
			Y: clipper.CInt(pt.Y * clipperScale),
		})
	}

	return path
}

// BoxPolygon returns the box outline as a polygon
func BoxPolygon(b Box) Polygon {
	return Polygon{
		{X: b.X1, Y: b.Y1},
		{X: b.X2, Y: b.Y1},
		{X: b.X2, Y: b.Y2},
		{X: b.X1, Y: b.Y2},
	}
}

// PolygonIntersectionArea returns the overlapping area in square pixels of
// two polygons
func PolygonIntersectionArea(a, b Polygon) float64 {
	if len(a) < 3 || len(b) < 3 {
		return 0
	}

	c := clipper.NewClipper(clipper.IoNone)
	c.AddPath(toClipperPath(a), clipper.PtSubject, true)
	c.AddPath(toClipperPath(b), clipper.PtClip, true)

	solution, ok := c.Execute1(clipper.CtIntersection,
		clipper.PftEvenOdd, clipper.PftEvenOdd)
	if !ok {
		return 0
	}

	area := 0.0
	for _, path := range solution {
		area += clipper.Area(path)
	}

	return area / (clipperScale * clipperScale)
}
