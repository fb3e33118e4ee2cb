package collision

import (
	"github.com/studentepercaso/ai-parking-collision-and-safety/geometry"
)

// pairContext carries everything a contact strategy needs to judge one
// vehicle pair on one frame
type pairContext struct {
	box1, box2   geometry.Box
	mask1, mask2 *geometry.Grid

	state1, state2 MotionState

	// inter-center distance, current and previous frame
	dist        float64
	prevDist    float64
	hasPrevDist bool

	// linear threshold scale against the 720p baseline
	scale float64
}

// contactResult is a strategy verdict: candidate contact plus the overlap
// metric reported in event payloads
type contactResult struct {
	contact bool
	overlap float64
}

// contactStrategy decides whether two tracked vehicles are candidates for
// physical contact.  The strategy is chosen once at engine construction
type contactStrategy interface {
	evaluate(pc *pairContext) contactResult
}

// groundPointStrategy judges contact from the bottom edge of each vehicle:
// the ground points and the lowest strip of the silhouette.  Upper-body
// overlap from camera perspective never reaches the decision, which makes
// a separate perspective filter unnecessary on this path
type groundPointStrategy struct {
	cfg *Config
}

func (s *groundPointStrategy) evaluate(pc *pairContext) contactResult {
	res := contactResult{
		overlap: geometry.IoUBoxMask(pc.box1, pc.box2, pc.mask1, pc.mask2),
	}

	gpDist := geometry.GroundPointDistance(pc.box1, pc.box2)
	threshold := s.cfg.GroundPointDistanceThreshold * pc.scale

	veryClose := gpDist <= threshold*0.5
	withinThreshold := gpDist <= threshold

	if veryClose {
		res.contact = true
		return res
	}

	if withinThreshold && bottomStripOverlap(pc.mask1, pc.mask2, pc.box1, pc.box2,
		s.cfg.BottomStripHeightRatio, s.cfg.BottomStripOverlapRatio) {
		res.contact = true
	}

	return res
}

// bottomStripOverlap reports whether the lowest strips of two vehicles
// overlap by at least minRatio of the smaller strip.  Mask strips are used
// when both masks exist, otherwise box strips
func bottomStripOverlap(m1, m2 *geometry.Grid, b1, b2 geometry.Box,
	heightRatio, minRatio float64) bool {

	if !m1.Empty() && !m2.Empty() && m1.W == m2.W && m1.H == m2.H {
		strip1 := m1.BottomStrip(b1, heightRatio)
		strip2 := m2.BottomStrip(b2, heightRatio)

		inter := strip1.IntersectCount(strip2)
		if inter == 0 {
			return false
		}

		minArea := strip1.Area()
		if a := strip2.Area(); a < minArea {
			minArea = a
		}
		if minArea == 0 {
			return false
		}

		return float64(inter)/float64(minArea) >= minRatio
	}

	strip1 := b1.BottomStrip(heightRatio)
	strip2 := b2.BottomStrip(heightRatio)

	if !strip1.Intersects(strip2) {
		return false
	}

	inter := strip1.IntersectionArea(strip2)
	minArea := strip1.Area()
	if a := strip2.Area(); a < minArea {
		minArea = a
	}
	if minArea == 0 {
		return false
	}

	return inter/minArea >= minRatio
}

// legacyMaskStrategy judges contact from the whole object silhouette the
// way the first field deployments did: smoothed mask overlap ratios with a
// perspective filter, falling back to box intersection when masks are
// missing or degenerate.  Center proximity and IoU also count as candidate
// signals on this path
type legacyMaskStrategy struct {
	cfg *Config
}

func (s *legacyMaskStrategy) evaluate(pc *pairContext) contactResult {
	res := contactResult{
		overlap: geometry.IoUBoxMask(pc.box1, pc.box2, pc.mask1, pc.mask2),
	}

	if !pc.mask1.Empty() && !pc.mask2.Empty() {
		res.contact = s.maskContact(pc)
	} else {
		res.contact = pc.box1.Intersects(pc.box2) &&
			pc.box1.IoU(pc.box2) >= s.cfg.MinBoxIoU
	}

	// vehicles can touch before boxes overlap; proximity and IoU serve
	// as fallback candidate signals
	if !res.contact {
		near := pc.dist < s.cfg.MinDistThreshold*pc.scale
		contact := res.overlap >= s.cfg.IoUThreshold
		res.contact = near || contact
	}

	return res
}

// maskContact runs the smoothed-mask overlap test, falling back to box
// intersection when mask geometry fails
func (s *legacyMaskStrategy) maskContact(pc *pairContext) bool {
	m1, err := pc.mask1.Smooth()
	if err != nil {
		return pc.box1.Intersects(pc.box2)
	}
	m2, err := pc.mask2.Smooth()
	if err != nil {
		return pc.box1.Intersects(pc.box2)
	}

	inter := m1.IntersectCount(m2)
	if inter == 0 {
		return false
	}

	area1 := m1.Area()
	area2 := m2.Area()
	minArea := area1
	if area2 < minArea {
		minArea = area2
	}
	if minArea == 0 {
		return false
	}

	if float64(inter)/float64(minArea) < s.cfg.MinOverlapRatio {
		return false
	}

	union := area1 + area2 - inter
	if union <= 0 {
		return false
	}
	if float64(inter)/float64(union) < s.cfg.MinMaskIoU {
		return false
	}

	// a moving vehicle is never perspective-suppressed: masking a real
	// impact is worse than a false positive between parked cars
	if s.cfg.EnablePerspectiveFilter &&
		pc.state1 == Parked && pc.state2 == Parked {
		if isPerspectiveOverlap(pc, float64(inter), float64(area1), float64(area2), s.cfg) {
			return false
		}
	}

	return true
}

// isPerspectiveOverlap classifies a visual overlap between two parked
// vehicles as camera projection rather than physical contact.  Any one of
// the geometric cues suffices, but a fast mutual approach on the previous
// frame overrides them all
func isPerspectiveOverlap(pc *pairContext, interArea, area1, area2 float64,
	cfg *Config) bool {

	// approach override first: a pair closing faster than the threshold
	// fraction of its previous distance is treated as a real approach
	if pc.hasPrevDist && pc.prevDist > 0 {
		approachRate := -(pc.dist - pc.prevDist) / pc.prevDist
		if approachRate > cfg.ApproachRateThreshold {
			return false
		}
		if pc.dist > pc.prevDist*cfg.DistanceIncreaseThreshold {
			return true
		}
	}

	size1 := pc.box1.Area()
	size2 := pc.box2.Area()
	maxSize := size1
	if size2 > maxSize {
		maxSize = size2
	}
	sizeRatio := 0.0
	if maxSize > 0 {
		minSize := size1
		if size2 < minSize {
			minSize = size2
		}
		sizeRatio = minSize / maxSize
	}

	// (a) strongly imbalanced sizes read as different camera depths
	if sizeRatio < cfg.SizeRatioThreshold {
		return true
	}

	_, cy1 := pc.box1.Center()
	_, cy2 := pc.box2.Center()
	yDiff := cy2 - cy1
	if yDiff < 0 {
		yDiff = -yDiff
	}
	avgHeight := (pc.box1.Height() + pc.box2.Height()) / 2

	// (b) vertical offset plus moderate size imbalance
	if yDiff > cfg.YPositionThreshold*avgHeight && sizeRatio < 0.7 {
		return true
	}

	// (c) thin intersection relative to the union
	totalArea := area1 + area2 - interArea
	if totalArea > 0 && interArea/totalArea < cfg.IntersectionRatioThreshold {
		return true
	}

	// (d) horizontally aligned but vertically displaced, one behind the
	// other along the camera axis
	cx1, _ := pc.box1.Center()
	cx2, _ := pc.box2.Center()
	xDiff := cx2 - cx1
	if xDiff < 0 {
		xDiff = -xDiff
	}
	avgWidth := (pc.box1.Width() + pc.box2.Width()) / 2

	if xDiff < avgWidth*0.3 && yDiff > avgHeight*0.2 {
		return true
	}

	return false
}
