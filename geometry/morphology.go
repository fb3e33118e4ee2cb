package geometry

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// Smooth applies a morphological open followed by close with a 3x3 kernel,
// removing single-pixel noise and filling pinholes in segmentation masks
// before overlap ratios are computed on them
func (g *Grid) Smooth() (*Grid, error) {
	if g.Empty() {
		return nil, fmt.Errorf("smooth of empty grid")
	}
	if len(g.Pix) != g.W*g.H {
		return nil, fmt.Errorf("grid buffer %d does not match %dx%d",
			len(g.Pix), g.W, g.H)
	}

	src, err := gocv.NewMatFromBytes(g.H, g.W, gocv.MatTypeCV8U, g.Pix)
	if err != nil {
		return nil, fmt.Errorf("mask to mat: %w", err)
	}
	defer src.Close()

	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(3, 3))
	defer kernel.Close()

	opened := gocv.NewMat()
	defer opened.Close()
	gocv.MorphologyEx(src, &opened, gocv.MorphOpen, kernel)

	closed := gocv.NewMat()
	defer closed.Close()
	gocv.MorphologyEx(opened, &closed, gocv.MorphClose, kernel)

	out := &Grid{W: g.W, H: g.H, Pix: make([]uint8, g.W*g.H)}
	copy(out.Pix, closed.ToBytes())

	return out, nil
}
