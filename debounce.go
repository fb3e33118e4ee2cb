package collision

// pairKey identifies a vehicle pair within one camera, order-independent
type pairKey struct {
	id1, id2 int64
}

// makePairKey builds the canonical key with the smaller id first
func makePairKey(a, b int64) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{id1: a, id2: b}
}

// obstacleKey identifies a vehicle/obstacle combination within one camera
type obstacleKey struct {
	vehicleID int64
	obstacle  string
}

// pairLedger holds the per-camera contact confirmation buffers and the
// long-window duplicate suppression state.
//
// Candidate contacts are noisy: a single frame of geometric overlap must
// not produce an event.  Each positive sample is appended to a short
// sliding buffer and the signal is trusted only once minSamples sightings
// land inside the window.  A confirmed pair is then silenced for the
// debounce period so one physical contact emits one event
type pairLedger struct {
	window     float64 // confirmation window in seconds
	minSamples int
	debounce   float64 // seconds between events for the same key

	confirm      map[pairKey][]float64
	lastEvent    map[pairKey]float64
	prevDistance map[pairKey]float64
	obstacleLast map[obstacleKey]float64
}

func newPairLedger(cfg *Config) *pairLedger {
	return &pairLedger{
		window:       cfg.confirmWindowSeconds(),
		minSamples:   cfg.MinConsecutiveFrames,
		debounce:     cfg.EventDebounceSeconds,
		confirm:      make(map[pairKey][]float64),
		lastEvent:    make(map[pairKey]float64),
		prevDistance: make(map[pairKey]float64),
		obstacleLast: make(map[obstacleKey]float64),
	}
}

// recordContact appends a candidate contact at time t, prunes samples that
// slid out of the window and reports whether enough remain to confirm
func (l *pairLedger) recordContact(key pairKey, t float64) bool {
	buf := append(l.confirm[key], t)

	cutoff := t - l.window
	kept := buf[:0]
	for _, ts := range buf {
		if ts >= cutoff {
			kept = append(kept, ts)
		}
	}
	l.confirm[key] = kept

	return len(kept) >= l.minSamples
}

// debounced reports whether the pair is still inside its debounce window
func (l *pairLedger) debounced(key pairKey, t float64) bool {
	last, ok := l.lastEvent[key]
	return ok && t-last < l.debounce
}

// registerEvent stamps the pair's last confirmed event
func (l *pairLedger) registerEvent(key pairKey, t float64) {
	l.lastEvent[key] = t
}

// obstacleDebounced reports whether the vehicle/obstacle combination is
// still inside its debounce window
func (l *pairLedger) obstacleDebounced(key obstacleKey, t float64) bool {
	last, ok := l.obstacleLast[key]
	return ok && t-last < l.debounce
}

// registerObstacleEvent stamps the combination's last confirmed event
func (l *pairLedger) registerObstacleEvent(key obstacleKey, t float64) {
	l.obstacleLast[key] = t
}

// prevDist returns the inter-center distance seen for the pair on the
// previous frame
func (l *pairLedger) prevDist(key pairKey) (float64, bool) {
	d, ok := l.prevDistance[key]
	return d, ok
}

// setPrevDist records the pair's inter-center distance for the next frame
func (l *pairLedger) setPrevDist(key pairKey, d float64) {
	l.prevDistance[key] = d
}

// evictTrack drops confirmation, distance and debounce state involving a
// track id that was evicted from the state store
func (l *pairLedger) evictTrack(id int64) {
	for k := range l.confirm {
		if k.id1 == id || k.id2 == id {
			delete(l.confirm, k)
		}
	}
	for k := range l.lastEvent {
		if k.id1 == id || k.id2 == id {
			delete(l.lastEvent, k)
		}
	}
	for k := range l.prevDistance {
		if k.id1 == id || k.id2 == id {
			delete(l.prevDistance, k)
		}
	}
	for k := range l.obstacleLast {
		if k.vehicleID == id {
			delete(l.obstacleLast, k)
		}
	}
}
