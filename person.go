package collision

import (
	"math"

	"github.com/studentepercaso/ai-parking-collision-and-safety/geometry"
)

// posture is the discrete state of a tracked person
type posture string

const (
	standing posture = "STANDING"
	fallen   posture = "FALLEN"
)

// personState is the per-track state of one person: a time-bounded center
// history sized to the loitering window, the last box, posture and whether
// the current loitering interval already fired
type personState struct {
	history      []position
	lastBox      geometry.Box
	state        posture
	loiterActive bool
	lastSeen     float64
}

// personMonitor detects loitering and falls from per-person position
// history.  It runs in parallel to the vehicle pipeline on the same frame
type personMonitor struct {
	cfg        *Config
	historyCap int
}

func newPersonMonitor(cfg *Config) *personMonitor {
	return &personMonitor{cfg: cfg, historyCap: cfg.personHistoryCap()}
}

// observe advances one person's state and returns any events it produced
func (m *personMonitor) observe(ps *personState, personID int64,
	cameraID string, box geometry.Box, t, scale float64) []Event {

	cx, cy := box.Center()
	w := math.Max(1, box.Width())
	h := math.Max(1, box.Height())

	ps.history = append(ps.history, position{t: t, x: cx, y: cy})
	if len(ps.history) > m.historyCap {
		ps.history = ps.history[1:]
	}
	ps.lastSeen = t

	var events []Event

	if m.cfg.EnablePersonLoitering {
		if ev, ok := m.checkLoitering(ps, personID, cameraID, t, scale); ok {
			events = append(events, ev)
		}
	}

	if m.cfg.EnablePersonFall {
		if ev, ok := m.checkFall(ps, personID, cameraID, w, h, t); ok {
			events = append(events, ev)
		}
	}

	ps.lastBox = box
	return events
}

// checkLoitering fires once per continuous qualifying interval: the span
// of recorded centers stayed inside the loiter radius for the full
// observation window.  The trigger re-arms when the person moves on
func (m *personMonitor) checkLoitering(ps *personState, personID int64,
	cameraID string, t, scale float64) (Event, bool) {

	hist := ps.history
	if len(hist) < 2 {
		return Event{}, false
	}

	minX, maxX := hist[0].x, hist[0].x
	minY, maxY := hist[0].y, hist[0].y
	for _, p := range hist[1:] {
		minX = math.Min(minX, p.x)
		maxX = math.Max(maxX, p.x)
		minY = math.Min(minY, p.y)
		maxY = math.Max(maxY, p.y)
	}

	span := math.Hypot(maxX-minX, maxY-minY)
	duration := hist[len(hist)-1].t - hist[0].t
	radius := m.cfg.LoiterRadius * scale

	qualifying := duration >= m.cfg.LoiterSeconds && span <= radius
	if !qualifying {
		ps.loiterActive = false
		return Event{}, false
	}

	if ps.loiterActive {
		return Event{}, false
	}
	ps.loiterActive = true

	ev := newEvent(EventPersonLoitering, cameraID, t)
	ev.PersonID = personID
	ev.Details = map[string]float64{
		"duration_s": duration,
		"span_px":    span,
		"radius_px":  radius,
	}
	return ev, true
}

// checkFall fires when the box flattens into a fallen aspect while the
// vertical motion collapses, once per fall until the posture resets
func (m *personMonitor) checkFall(ps *personState, personID int64,
	cameraID string, w, h, t float64) (Event, bool) {

	aspect := w / h
	fallShape := aspect >= m.cfg.FallAspectRatio && h >= m.cfg.FallMinHeight

	speedDrop := false
	hist := ps.history
	if len(hist) >= 3 {
		last := hist[len(hist)-1]
		prev := hist[len(hist)-2]
		prev2 := hist[len(hist)-3]

		dt := math.Max(1e-3, last.t-prev.t)
		vLatest := math.Abs(last.y-prev.y) / dt

		dt2 := math.Max(1e-3, prev.t-prev2.t)
		vPrior := math.Abs(prev.y-prev2.y) / dt2

		speedDrop = vPrior > 0 && vLatest < vPrior*m.cfg.FallSpeedDrop
	}

	if fallShape && speedDrop && ps.state != fallen {
		ps.state = fallen

		ev := newEvent(EventPersonFall, cameraID, t)
		ev.PersonID = personID
		ev.Details = map[string]float64{
			"aspect":    aspect,
			"height_px": h,
		}
		return ev, true
	}

	// reset only once the box is clearly upright again
	if aspect < m.cfg.FallAspectRatio*0.8 {
		ps.state = standing
	}

	return Event{}, false
}
