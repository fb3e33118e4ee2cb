package collision

import (
	"log"
	"sync"

	"github.com/studentepercaso/ai-parking-collision-and-safety/geometry"
	"github.com/studentepercaso/ai-parking-collision-and-safety/zones"
)

// Class is the coarse object class the engine cares about
type Class int

const (
	ClassVehicle Class = iota + 1
	ClassPerson
)

// ClassFromCOCO maps the COCO class ids emitted by the usual detection
// models to engine classes, zero for classes the engine ignores
func ClassFromCOCO(classID int) Class {
	switch classID {
	case 0:
		return ClassPerson
	case 2, 5, 7: // car, bus, truck
		return ClassVehicle
	}
	return 0
}

// TrackedObject is one tracked detection on the current frame.  Mask is
// the optional occupancy grid aligned to the frame resolution
type TrackedObject struct {
	TrackID int64
	Class   Class
	Box     geometry.Box
	Mask    *geometry.Grid
}

// FrameShape is the frame resolution, used to scale pixel thresholds
// against the 720p baseline
type FrameShape struct {
	Height, Width int
}

// scaleFactor returns the linear threshold scale for the frame, 1.0 when
// the shape is unknown.  The baseline is a 720p frame, 1280 px on its
// longest side
func (s *FrameShape) scaleFactor() float64 {
	if s == nil {
		return 1.0
	}
	longest := s.Width
	if s.Height > longest {
		longest = s.Height
	}
	if longest <= 0 {
		return 1.0
	}
	return float64(longest) / 1280.0
}

// cameraState is one camera's partition of engine state.  Each partition
// owns its lock, so a shared Detector can be driven by one goroutine per
// camera without external serialisation
type cameraState struct {
	mu sync.Mutex

	vehicles *stateStore
	persons  map[int64]*personState
	ledger   *pairLedger

	frameCounter  int
	lastTimestamp float64
	lastEvict     float64
}

// Detector is the event detection engine.  One ProcessFrame call performs
// all geometry for one camera and frame synchronously and returns the new
// events
type Detector struct {
	cfg      Config
	strategy contactStrategy
	monitor  *personMonitor
	zoneSet  *zones.Cache

	logger  *log.Logger
	debug   bool
	onEvent func(Event)

	mu      sync.Mutex
	cameras map[string]*cameraState
	events  []Event
}

// Option configures a Detector at construction
type Option func(*Detector)

// WithEventFunc registers a callback invoked synchronously for every
// emitted event, in addition to the pull-style Events list
func WithEventFunc(fn func(Event)) Option {
	return func(d *Detector) { d.onEvent = fn }
}

// WithLogger directs diagnostics to the given logger, nil keeps the
// engine silent
func WithLogger(l *log.Logger) Option {
	return func(d *Detector) { d.logger = l }
}

// WithDebug enables verbose per-pair diagnostics on the logger
func WithDebug(debug bool) Option {
	return func(d *Detector) { d.debug = debug }
}

// WithZoneProvider supplies the per-camera obstacle zone definitions
func WithZoneProvider(p zones.Provider) Option {
	return func(d *Detector) { d.zoneSet = zones.NewCache(p) }
}

// NewDetector validates the configuration and builds an engine.  The
// contact strategy is chosen here, once
func NewDetector(cfg Config, opts ...Option) (*Detector, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Detector{
		cfg:     cfg,
		monitor: newPersonMonitor(&cfg),
		cameras: make(map[string]*cameraState),
	}

	if cfg.UseGroundPointMethod {
		d.strategy = &groundPointStrategy{cfg: &d.cfg}
	} else {
		d.strategy = &legacyMaskStrategy{cfg: &d.cfg}
	}

	for _, opt := range opts {
		opt(d)
	}

	return d, nil
}

// Events returns a copy of every event emitted so far across all cameras
func (d *Detector) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]Event, len(d.events))
	copy(out, d.events)
	return out
}

// logf writes a diagnostic line when a logger is attached
func (d *Detector) logf(format string, args ...any) {
	if d.logger != nil {
		d.logger.Printf(format, args...)
	}
}

// debugf writes a verbose diagnostic line when debug mode is on
func (d *Detector) debugf(format string, args ...any) {
	if d.debug && d.logger != nil {
		d.logger.Printf(format, args...)
	}
}

// camera returns the state partition for a camera, creating it lazily
func (d *Detector) camera(cameraID string) *cameraState {
	d.mu.Lock()
	defer d.mu.Unlock()

	cam, ok := d.cameras[cameraID]
	if !ok {
		cam = &cameraState{
			vehicles: newStateStore(&d.cfg),
			persons:  make(map[int64]*personState),
			ledger:   newPairLedger(&d.cfg),
		}
		d.cameras[cameraID] = cam
	}
	return cam
}

// emit records an event on the pull list and pushes it to the callback
func (d *Detector) emit(ev Event) {
	d.mu.Lock()
	d.events = append(d.events, ev)
	d.mu.Unlock()

	if d.onEvent != nil {
		d.onEvent(ev)
	}
}

// vehicleSnapshot is the per-frame view of one vehicle after its state
// update
type vehicleSnapshot struct {
	id    int64
	box   geometry.Box
	mask  *geometry.Grid
	state *vehicleState
}

// ProcessFrame runs event detection for one camera and frame.  Objects
// with malformed geometry are skipped with a diagnostic, never aborting
// the frame.  Timestamps must increase monotonically per camera.  The
// returned slice holds the events newly detected on this frame
func (d *Detector) ProcessFrame(cameraID string, objects []TrackedObject,
	timestamp float64, frameShape *FrameShape) []Event {

	cam := d.camera(cameraID)

	cam.mu.Lock()
	defer cam.mu.Unlock()

	if timestamp < cam.lastTimestamp {
		d.logf("camera %s: timestamp %v went backwards (last %v)",
			cameraID, timestamp, cam.lastTimestamp)
	}
	cam.lastTimestamp = timestamp
	cam.frameCounter++

	scale := frameShape.scaleFactor()

	var events []Event
	collect := func(ev Event) {
		d.emit(ev)
		events = append(events, ev)
	}

	var vehicles []vehicleSnapshot
	var persons []TrackedObject

	for _, obj := range objects {
		if !obj.Box.Valid() {
			d.logf("camera %s track %d: malformed bbox %+v skipped",
				cameraID, obj.TrackID, obj.Box)
			continue
		}

		switch obj.Class {
		case ClassVehicle:
			vs := cam.vehicles.update(obj.TrackID, obj.Box, timestamp)
			vehicles = append(vehicles, vehicleSnapshot{
				id:    obj.TrackID,
				box:   obj.Box,
				mask:  obj.Mask,
				state: vs,
			})
		case ClassPerson:
			persons = append(persons, obj)
		}
	}

	if d.cfg.EnablePersonSafety {
		d.analyzePersons(cam, cameraID, persons, timestamp, scale, collect)
	}

	d.analyzeVehiclePairs(cam, cameraID, vehicles, timestamp, scale, collect)

	if frameShape != nil && cam.frameCounter%d.cfg.ObstacleCheckInterval == 0 {
		d.checkObstacles(cam, cameraID, vehicles, timestamp, frameShape, collect)
	}

	// evict silent tracks about once per second of stream time
	if timestamp-cam.lastEvict >= 1.0 {
		d.evictSilent(cam, cameraID, timestamp)
		cam.lastEvict = timestamp
	}

	return events
}

// analyzePersons runs the person safety monitor over this frame's people
func (d *Detector) analyzePersons(cam *cameraState, cameraID string,
	persons []TrackedObject, timestamp, scale float64, collect func(Event)) {

	for _, p := range persons {
		ps, ok := cam.persons[p.TrackID]
		if !ok {
			ps = &personState{state: standing}
			cam.persons[p.TrackID] = ps
		}

		for _, ev := range d.monitor.observe(ps, p.TrackID, cameraID,
			p.Box, timestamp, scale) {
			d.debugf("camera %s person %d: %s", cameraID, p.TrackID, ev.Type)
			collect(ev)
		}
	}
}

// analyzeVehiclePairs runs candidate contact detection, confirmation,
// debouncing and severity classification over every vehicle pair
func (d *Detector) analyzeVehiclePairs(cam *cameraState, cameraID string,
	vehicles []vehicleSnapshot, timestamp, scale float64, collect func(Event)) {

	if len(vehicles) < 2 {
		return
	}

	maxDist := d.cfg.MaxCollisionDistance * scale

	for i := 0; i < len(vehicles); i++ {
		for j := i + 1; j < len(vehicles); j++ {
			v1, v2 := vehicles[i], vehicles[j]
			key := makePairKey(v1.id, v2.id)

			dist := geometry.CenterDistance(v1.box, v2.box)
			prevDist, hasPrev := cam.ledger.prevDist(key)
			cam.ledger.setPrevDist(key, dist)

			// cheap rejection before any mask geometry runs
			if dist > maxDist {
				continue
			}

			pc := &pairContext{
				box1: v1.box, box2: v2.box,
				mask1: v1.mask, mask2: v2.mask,
				state1: v1.state.state, state2: v2.state.state,
				dist:     dist,
				prevDist: prevDist, hasPrevDist: hasPrev,
				scale: scale,
			}

			res := d.strategy.evaluate(pc)
			if !res.contact {
				continue
			}

			if !cam.ledger.recordContact(key, timestamp) {
				d.debugf("camera %s pair %d-%d: contact awaiting confirmation",
					cameraID, key.id1, key.id2)
				continue
			}

			hist1, hist2 := v1.state.history, v2.state.history
			speed1, speed2 := v1.state.speed, v2.state.speed
			state1, state2 := v1.state.state, v2.state.state

			// two parked cars standing close are not an event unless one
			// of them was actually displaced
			if state1 == Parked && state2 == Parked {
				pushed := nudgeEvidence(hist1, speed1,
					d.cfg.NudgeDistance, d.cfg.SpeedParkedThreshold) ||
					nudgeEvidence(hist2, speed2,
						d.cfg.NudgeDistance, d.cfg.SpeedParkedThreshold)
				if !pushed {
					d.debugf("camera %s pair %d-%d: both parked, suppressed",
						cameraID, key.id1, key.id2)
					continue
				}
			}

			if cam.ledger.debounced(key, timestamp) {
				d.debugf("camera %s pair %d-%d: debounced",
					cameraID, key.id1, key.id2)
				continue
			}

			k := computePairKinematics(hist1, hist2)

			typ := classifySeverity(k, state1, state2, hist1, hist2,
				speed1, speed2, &d.cfg)
			if state1 == Parked && state2 == Parked {
				// confirmed displacement of a parked car reads as a nudge
				typ = EventCollisionMinor
			}

			ev := newEvent(typ, cameraID, timestamp)
			ev.VehicleIDs = []int64{v1.id, v2.id}
			ev.Details = map[string]float64{
				"distance":    dist,
				"overlap":     res.overlap,
				"moving1":     motionFlag(state1),
				"moving2":     motionFlag(state2),
				"v1_before":   k.v1Before,
				"v1_after":    k.v1After,
				"v2_before":   k.v2Before,
				"v2_after":    k.v2After,
				"dir1_change": k.dir1Change,
				"dir2_change": k.dir2Change,
			}

			cam.ledger.registerEvent(key, timestamp)
			d.logf("camera %s: %s vehicles %d-%d dist=%.1f overlap=%.4f",
				cameraID, typ, key.id1, key.id2, dist, res.overlap)
			collect(ev)
		}
	}
}

// motionFlag encodes a motion state for the numeric details map
func motionFlag(s MotionState) float64 {
	if s == Moving {
		return 1
	}
	return 0
}

// evictSilent drops per-track state not refreshed within the silence
// period, including derived pair state
func (d *Detector) evictSilent(cam *cameraState, cameraID string, now float64) {
	silence := d.cfg.TrackSilenceSeconds

	for _, id := range cam.vehicles.evictSilent(now, silence) {
		cam.ledger.evictTrack(id)
		d.debugf("camera %s: evicted vehicle track %d", cameraID, id)
	}

	for id, ps := range cam.persons {
		if now-ps.lastSeen > silence {
			delete(cam.persons, id)
			d.debugf("camera %s: evicted person track %d", cameraID, id)
		}
	}
}
