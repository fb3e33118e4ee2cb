package collision

import (
	"testing"

	"github.com/studentepercaso/ai-parking-collision-and-safety/geometry"
)

func groundPoint(cfg *Config) *groundPointStrategy {
	return &groundPointStrategy{cfg: cfg}
}

func TestGroundPointStrategyVeryClose(t *testing.T) {
	cfg := DefaultConfig() // threshold 50px

	// ground points 20px apart: below half the threshold, contact even
	// without strip overlap
	pc := &pairContext{
		box1:  geometry.NewBox(100, 100, 160, 160), // gp (130,160)
		box2:  geometry.NewBox(120, 100, 180, 160), // gp (150,160)
		scale: 1.0,
	}
	pc.dist = geometry.CenterDistance(pc.box1, pc.box2)

	res := groundPoint(&cfg).evaluate(pc)
	if !res.contact {
		t.Error("ground points 20px apart should be contact")
	}
}

func TestGroundPointStrategyWithinThresholdNeedsStrip(t *testing.T) {
	cfg := DefaultConfig()

	// 40px apart: inside the threshold but over half of it, so the
	// bottom strips must also overlap.  These boxes share their bottom
	// 15% rows and overlap horizontally
	pc := &pairContext{
		box1:  geometry.NewBox(100, 100, 160, 160),
		box2:  geometry.NewBox(140, 100, 200, 160),
		scale: 1.0,
	}
	res := groundPoint(&cfg).evaluate(pc)
	if !res.contact {
		t.Error("close ground points with strip overlap should be contact")
	}

	// same distance but boxes horizontally disjoint: strips cannot touch
	pc2 := &pairContext{
		box1:  geometry.NewBox(100, 100, 130, 160),
		box2:  geometry.NewBox(140, 100, 170, 160), // gp 40px apart, no x overlap
		scale: 1.0,
	}
	res = groundPoint(&cfg).evaluate(pc2)
	if res.contact {
		t.Error("disjoint strips at 40px should not be contact")
	}
}

func TestGroundPointStrategySteadyDistanceNoContact(t *testing.T) {
	// ground-point distance steady at 80px against the nominal 50px
	// threshold at scale 1.0: never a contact
	cfg := DefaultConfig()

	pc := &pairContext{
		box1:  geometry.NewBox(100, 100, 160, 160),
		box2:  geometry.NewBox(180, 100, 240, 160), // gp (210,160) vs (130,160): 80px
		scale: 1.0,
	}

	for i := 0; i < 10; i++ {
		if res := groundPoint(&cfg).evaluate(pc); res.contact {
			t.Fatalf("frame %d: contact at 80px ground distance", i)
		}
	}
}

func TestGroundPointStrategyResolutionScaling(t *testing.T) {
	cfg := DefaultConfig()

	// narrow boxes 40px apart with disjoint bottom strips: at scale 1.0
	// the pair misses the very-close cutoff (25px) and has no strip
	// overlap, at scale 2.0 the cutoff doubles to 50px and fires
	pc := &pairContext{
		box1:  geometry.NewBox(100, 100, 130, 160), // gp (115,160)
		box2:  geometry.NewBox(140, 100, 170, 160), // gp (155,160)
		scale: 1.0,
	}

	if res := groundPoint(&cfg).evaluate(pc); res.contact {
		t.Error("40px at scale 1.0 should not be contact")
	}

	pc.scale = 2.0
	if res := groundPoint(&cfg).evaluate(pc); !res.contact {
		t.Error("doubled scale should double the distance thresholds")
	}
}

func TestBottomStripOverlapWithMasks(t *testing.T) {
	b1 := geometry.NewBox(0, 0, 10, 20)
	b2 := geometry.NewBox(5, 0, 15, 20)

	m1 := geometry.GridFromBox(b1, 32, 32)
	m2 := geometry.GridFromBox(b2, 32, 32)

	if !bottomStripOverlap(m1, m2, b1, b2, 0.15, 0.01) {
		t.Error("overlapping mask strips should report overlap")
	}

	// masks of different sizes fall back to box strips
	m3 := geometry.GridFromBox(b2, 64, 64)
	if !bottomStripOverlap(m1, m3, b1, b2, 0.15, 0.01) {
		t.Error("mismatched masks should fall back to box strips")
	}
}

func TestLegacyStrategyMaskContact(t *testing.T) {
	cfg := DefaultConfig()
	s := &legacyMaskStrategy{cfg: &cfg}

	// two vehicles with solid masks sharing a deep 10x20 overlap: overlap
	// ratio 0.5 and mask IoU 0.33, far above both minima.  The overlap is
	// too substantial for any perspective cue, contact even with both
	// vehicles parked
	b1 := geometry.NewBox(0, 0, 20, 20)
	b2 := geometry.NewBox(10, 0, 30, 20)
	pc := &pairContext{
		box1: b1, box2: b2,
		mask1: geometry.GridFromBox(b1, 64, 64),
		mask2: geometry.GridFromBox(b2, 64, 64),
		state1: Parked, state2: Parked,
		dist:  geometry.CenterDistance(b1, b2),
		scale: 1.0,
	}

	res := s.evaluate(pc)
	if !res.contact {
		t.Error("deep mask overlap should be contact")
	}
	if !almostEqual(res.overlap, 200.0/600.0, 1e-9) {
		t.Errorf("overlap=%v, want mask IoU 1/3", res.overlap)
	}
}

// cornerTouchContext builds two large parked vehicles whose masks share a
// thin 150px corner: overlap ratio 0.015 and mask IoU 0.0076 clear the mask
// minima, but the intersection is thin against the union and the centers sit
// beyond the proximity fallback
func cornerTouchContext() *pairContext {
	b1 := geometry.NewBox(0, 0, 100, 100)
	b2 := geometry.NewBox(85, 90, 185, 190)

	return &pairContext{
		box1: b1, box2: b2,
		mask1: geometry.GridFromBox(b1, 200, 200),
		mask2: geometry.GridFromBox(b2, 200, 200),
		state1: Parked, state2: Parked,
		dist:  geometry.CenterDistance(b1, b2), // ~123.8px
		scale: 1.0,
	}
}

func TestLegacyStrategyPerspectiveSuppression(t *testing.T) {
	cfg := DefaultConfig()
	s := &legacyMaskStrategy{cfg: &cfg}

	// both parked: the thin-intersection cue reads the corner touch as
	// camera projection
	pc := cornerTouchContext()
	if res := s.evaluate(pc); res.contact {
		t.Error("thin parked-pair overlap should be suppressed")
	}

	// the same geometry with one vehicle moving is never suppressed
	pc = cornerTouchContext()
	pc.state1 = Moving
	if res := s.evaluate(pc); !res.contact {
		t.Error("moving vehicle must not be perspective-suppressed")
	}
}

func TestLegacyStrategyMalformedMaskFallsBackToBoxes(t *testing.T) {
	cfg := DefaultConfig()
	s := &legacyMaskStrategy{cfg: &cfg}

	// mask buffers shorter than their declared size cannot be smoothed,
	// the strategy falls back to plain box intersection
	b1 := geometry.NewBox(0, 0, 100, 100)
	b2 := geometry.NewBox(50, 0, 150, 100)
	pc := &pairContext{
		box1: b1, box2: b2,
		mask1: &geometry.Grid{W: 10, H: 10, Pix: make([]uint8, 5)},
		mask2: &geometry.Grid{W: 10, H: 10, Pix: make([]uint8, 5)},
		state1: Moving, state2: Parked,
		dist:  geometry.CenterDistance(b1, b2),
		scale: 1.0,
	}

	res := s.evaluate(pc)
	if !res.contact {
		t.Error("intersecting boxes should be contact when masks are unusable")
	}
}

func TestLegacyStrategyBoxFallback(t *testing.T) {
	cfg := DefaultConfig()
	s := &legacyMaskStrategy{cfg: &cfg}

	// no masks: box intersection with IoU above the minimum
	pc := &pairContext{
		box1:   geometry.NewBox(0, 0, 100, 100),
		box2:   geometry.NewBox(50, 0, 150, 100),
		state1: Moving, state2: Parked,
		dist:  geometry.CenterDistance(geometry.NewBox(0, 0, 100, 100), geometry.NewBox(50, 0, 150, 100)),
		scale: 1.0,
	}

	res := s.evaluate(pc)
	if !res.contact {
		t.Error("intersecting boxes should be a candidate contact")
	}
	if res.overlap <= 0 {
		t.Error("overlap metric should be positive")
	}
}

func TestLegacyStrategyNearFallback(t *testing.T) {
	cfg := DefaultConfig() // MIN_DIST_THRESHOLD 100

	s := &legacyMaskStrategy{cfg: &cfg}

	// disjoint boxes but centers 60px apart: the proximity signal fires
	pc := &pairContext{
		box1:  geometry.NewBox(0, 0, 40, 40),
		box2:  geometry.NewBox(60, 0, 100, 40),
		dist:  60,
		scale: 1.0,
	}

	res := s.evaluate(pc)
	if !res.contact {
		t.Error("near vehicles should be a candidate contact on the legacy path")
	}
}

func TestPerspectiveOverlapCues(t *testing.T) {
	cfg := DefaultConfig()

	base := func() *pairContext {
		return &pairContext{
			box1:   geometry.NewBox(100, 100, 200, 160),
			box2:   geometry.NewBox(150, 100, 250, 160),
			state1: Parked, state2: Parked,
			scale: 1.0,
		}
	}

	// (a) size imbalance reads as different depths
	pc := base()
	pc.box2 = geometry.NewBox(150, 100, 190, 124) // much smaller box
	if !isPerspectiveOverlap(pc, 500, 6000, 960, &cfg) {
		t.Error("strong size imbalance should classify as perspective")
	}

	// (c) thin intersection relative to the union
	pc = base()
	if !isPerspectiveOverlap(pc, 100, 6000, 6000, &cfg) {
		t.Error("thin intersection should classify as perspective")
	}

	// balanced boxes with substantial overlap: a real contact candidate
	pc = base()
	if isPerspectiveOverlap(pc, 3000, 6000, 6000, &cfg) {
		t.Error("balanced deep overlap should not classify as perspective")
	}
}

func TestPerspectiveApproachOverride(t *testing.T) {
	cfg := DefaultConfig()

	// a pair that would normally be filtered by size imbalance, but the
	// previous frame shows a fast approach: never suppress
	pc := &pairContext{
		box1:        geometry.NewBox(100, 100, 200, 160),
		box2:        geometry.NewBox(150, 100, 190, 124),
		state1:      Parked, state2: Parked,
		dist:        50,
		prevDist:    70, // closed 20/70 = 28% in one frame
		hasPrevDist: true,
		scale:       1.0,
	}

	if isPerspectiveOverlap(pc, 500, 6000, 960, &cfg) {
		t.Error("fast approach must override the perspective cues")
	}

	// moving apart beyond the increase threshold classifies as perspective
	pc.dist = 80
	pc.prevDist = 70
	if !isPerspectiveOverlap(pc, 3000, 6000, 6000, &cfg) {
		t.Error("separating pair should classify as perspective")
	}
}
