package collision

// pairKinematics is the split-history evidence used to grade a confirmed
// contact
type pairKinematics struct {
	v1Before, v1After, dir1Change float64
	v2Before, v2After, dir2Change float64
}

// computePairKinematics derives before/after speeds and direction deltas
// for both vehicles from their retained histories
func computePairKinematics(hist1, hist2 []position) pairKinematics {
	var k pairKinematics
	k.v1Before, k.v1After, k.dir1Change = beforeAfterSpeedAndDir(hist1)
	k.v2Before, k.v2After, k.dir2Change = beforeAfterSpeedAndDir(hist2)
	return k
}

// isMajorCollision reports a hard impact: at least one vehicle was moving
// before contact and either vehicle lost most of its speed or swerved by
// more than 45 degrees
func isMajorCollision(k pairKinematics, movingThreshold, dropFactor float64) bool {
	if k.v1Before < movingThreshold && k.v2Before < movingThreshold {
		return false
	}

	return (k.v1Before > 0 && k.v1After < dropFactor*k.v1Before) ||
		(k.v2Before > 0 && k.v2After < dropFactor*k.v2Before) ||
		k.dir1Change > 45.0 ||
		k.dir2Change > 45.0
}

// nudgeEvidence reports whether a nominally parked vehicle's own history
// shows it was pushed: total displacement at nudge scale, recent movement
// over the last samples, or smoothed speed well above the parked band
func nudgeEvidence(hist []position, smoothedSpeed, nudgeDistance, parkedThreshold float64) bool {
	if len(hist) < 2 {
		return false
	}

	if totalDisplacement(hist) >= nudgeDistance {
		return true
	}

	if len(hist) >= 3 && recentDisplacement(hist, 3) >= nudgeDistance*0.5 {
		return true
	}

	return smoothedSpeed > parkedThreshold*2
}

// isMinorCollision reports a nudge: exactly one vehicle moving against one
// parked, with the parked vehicle showing displacement evidence
func isMinorCollision(state1, state2 MotionState, hist1, hist2 []position,
	speed1, speed2, nudgeDistance, parkedThreshold float64) bool {

	movingParked := (state1 == Moving && state2 == Parked) ||
		(state2 == Moving && state1 == Parked)
	if !movingParked {
		return false
	}

	parkedHist := hist1
	parkedSpeed := speed1
	if state2 == Parked {
		parkedHist = hist2
		parkedSpeed = speed2
	}

	return nudgeEvidence(parkedHist, parkedSpeed, nudgeDistance, parkedThreshold)
}

// classifySeverity grades a confirmed, non-debounced contact
func classifySeverity(k pairKinematics, state1, state2 MotionState,
	hist1, hist2 []position, speed1, speed2 float64, cfg *Config) EventType {

	if isMajorCollision(k, cfg.SpeedMovingThreshold, cfg.SpeedDropFactor) {
		return EventCollisionMajor
	}

	if isMinorCollision(state1, state2, hist1, hist2, speed1, speed2,
		cfg.NudgeDistance, cfg.SpeedParkedThreshold) {
		return EventCollisionMinor
	}

	return EventCollisionBase
}
