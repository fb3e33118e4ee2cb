package collision

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/studentepercaso/ai-parking-collision-and-safety/geometry"
)

// MotionState is the discrete classification of a vehicle's movement,
// derived from smoothed speed with hysteresis
type MotionState string

const (
	Moving MotionState = "MOVING"
	Parked MotionState = "PARKED"
)

// position is one history sample of an object's center
type position struct {
	t, x, y float64
}

// vehicleState is the per-track kinematic state of one vehicle.  Position
// history is capacity-bounded, the oldest sample is dropped when full
type vehicleState struct {
	cx, cy  float64
	hasPrev bool

	// exponentially smoothed speed in px/frame, blend 0.7 old / 0.3 new
	speed float64
	state MotionState

	history          []position
	stationaryFrames int
	lastSeen         float64
}

// stateStore keeps the vehicle states of one camera, indexed by track id.
// States are created lazily on first sighting and evicted after a silence
// period so long-running streams with track churn stay bounded
type stateStore struct {
	movingThresh float64
	parkedThresh float64
	historyCap   int
	parkedAfter  int

	tracks map[int64]*vehicleState
}

func newStateStore(cfg *Config) *stateStore {
	return &stateStore{
		movingThresh: cfg.SpeedMovingThreshold,
		parkedThresh: cfg.SpeedParkedThreshold,
		historyCap:   cfg.HistoryFrames,
		parkedAfter:  cfg.ParkingStationaryFrames,
		tracks:       make(map[int64]*vehicleState),
	}
}

// update advances a track's kinematic state with the box seen at time t
// and returns the updated state
func (s *stateStore) update(trackID int64, box geometry.Box, t float64) *vehicleState {
	cx, cy := box.Center()

	vs, ok := s.tracks[trackID]
	if !ok {
		vs = &vehicleState{state: Parked}
		s.tracks[trackID] = vs
	}

	instSpeed := 0.0
	if vs.hasPrev {
		instSpeed = math.Hypot(cx-vs.cx, cy-vs.cy)
	}
	vs.speed = 0.7*vs.speed + 0.3*instSpeed

	// hysteresis: speeds strictly between the two thresholds leave the
	// state unchanged
	switch {
	case vs.speed >= s.movingThresh:
		vs.state = Moving
	case vs.speed <= s.parkedThresh || !ok:
		vs.state = Parked
	}

	if instSpeed <= s.parkedThresh {
		vs.stationaryFrames++
	} else {
		vs.stationaryFrames = 0
	}

	// a vehicle standing still long enough is parked regardless of how
	// much smoothed speed it still carries from its approach
	if vs.stationaryFrames >= s.parkedAfter {
		vs.state = Parked
	}

	vs.cx, vs.cy = cx, cy
	vs.hasPrev = true
	vs.lastSeen = t

	vs.history = append(vs.history, position{t: t, x: cx, y: cy})
	if len(vs.history) > s.historyCap {
		vs.history = vs.history[1:]
	}

	return vs
}

// get returns the state of a track, nil when never seen
func (s *stateStore) get(trackID int64) *vehicleState {
	return s.tracks[trackID]
}

// evictSilent drops every track not seen since the silence cutoff and
// returns the evicted ids so derived pair state can be dropped with them
func (s *stateStore) evictSilent(now, silenceSeconds float64) []int64 {
	var evicted []int64
	for id, vs := range s.tracks {
		if now-vs.lastSeen > silenceSeconds {
			delete(s.tracks, id)
			evicted = append(evicted, id)
		}
	}
	return evicted
}

// beforeAfterSpeedAndDir splits a position history at its midpoint and
// returns the average step speed of each half plus the change in net
// direction between them in degrees.  Histories shorter than 3 samples
// carry no usable signal
func beforeAfterSpeedAndDir(hist []position) (vBefore, vAfter, dirChange float64) {
	if len(hist) < 3 {
		return 0, 0, 0
	}

	mid := len(hist) / 2
	first := hist[:mid]
	second := hist[mid:]

	vBefore = avgStepSpeed(first)
	vAfter = avgStepSpeed(second)

	dx1, dy1 := netDisplacement(first)
	dx2, dy2 := netDisplacement(second)

	if (dx1 == 0 && dy1 == 0) || (dx2 == 0 && dy2 == 0) {
		return vBefore, vAfter, 0
	}

	a1 := math.Atan2(dy1, dx1) * 180 / math.Pi
	a2 := math.Atan2(dy2, dx2) * 180 / math.Pi

	diff := math.Abs(a2 - a1)
	if diff > 180 {
		diff = 360 - diff
	}

	return vBefore, vAfter, diff
}

// avgStepSpeed returns the mean distance between consecutive samples
func avgStepSpeed(part []position) float64 {
	if len(part) < 2 {
		return 0
	}

	steps := make([]float64, 0, len(part)-1)
	for i := 1; i < len(part); i++ {
		steps = append(steps,
			math.Hypot(part[i].x-part[i-1].x, part[i].y-part[i-1].y))
	}

	return stat.Mean(steps, nil)
}

// netDisplacement returns the vector from the first to the last sample
func netDisplacement(part []position) (dx, dy float64) {
	if len(part) < 2 {
		return 0, 0
	}
	return part[len(part)-1].x - part[0].x, part[len(part)-1].y - part[0].y
}

// totalDisplacement returns the straight-line distance between the first
// and last history samples
func totalDisplacement(hist []position) float64 {
	if len(hist) < 2 {
		return 0
	}
	dx, dy := netDisplacement(hist)
	return math.Hypot(dx, dy)
}

// recentDisplacement returns the distance covered over the most recent
// window samples
func recentDisplacement(hist []position, window int) float64 {
	if len(hist) < window {
		return 0
	}
	first := hist[len(hist)-window]
	last := hist[len(hist)-1]
	return math.Hypot(last.x-first.x, last.y-first.y)
}
