package collision

import (
	"testing"
)

func TestIsMajorCollision(t *testing.T) {
	tests := []struct {
		name string
		k    pairKinematics
		want bool
	}{
		{
			"speed drop on vehicle 1",
			pairKinematics{v1Before: 5, v1After: 1, v2Before: 0, v2After: 0},
			true,
		},
		{
			"direction change over 45 degrees",
			pairKinematics{v1Before: 3, v1After: 3, dir1Change: 60},
			true,
		},
		{
			"nobody moving before",
			pairKinematics{v1Before: 1, v1After: 0.1, v2Before: 1, v2After: 0.1},
			false,
		},
		{
			"moving but no drop and no swerve",
			pairKinematics{v1Before: 5, v1After: 5, v2Before: 0, v2After: 0},
			false,
		},
		{
			"other vehicle absorbs the hit",
			pairKinematics{v1Before: 4, v1After: 4, v2Before: 3, v2After: 0.5},
			true,
		},
	}

	for _, tt := range tests {
		got := isMajorCollision(tt.k, 2.0, 0.7)
		if got != tt.want {
			t.Errorf("%s: isMajorCollision=%v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestIsMinorCollision(t *testing.T) {
	still := []position{{0, 100, 100}, {1, 100, 100}, {2, 100, 100}}
	nudged := []position{{0, 100, 100}, {1, 100, 100}, {2, 103, 100}}
	movingHist := []position{{0, 0, 0}, {1, 5, 0}, {2, 10, 0}}

	// moving vehicle against a displaced parked one
	if !isMinorCollision(Moving, Parked, movingHist, nudged, 5, 0.1, 2.0, 0.5) {
		t.Error("displaced parked vehicle should read as minor")
	}

	// parked vehicle did not move
	if isMinorCollision(Moving, Parked, movingHist, still, 5, 0.1, 2.0, 0.5) {
		t.Error("undisturbed parked vehicle should not read as minor")
	}

	// parked vehicle speed well above the parked band counts as evidence
	if !isMinorCollision(Moving, Parked, movingHist, still, 5, 1.2, 2.0, 0.5) {
		t.Error("raised parked speed should read as minor")
	}

	// both moving is never minor
	if isMinorCollision(Moving, Moving, movingHist, movingHist, 5, 5, 2.0, 0.5) {
		t.Error("two moving vehicles cannot be a minor nudge")
	}
}

func TestNudgeEvidenceRecentMovement(t *testing.T) {
	// total displacement below the nudge distance but the last samples
	// cover half of it
	hist := []position{
		{0, 100, 100}, {1, 100, 100}, {2, 100, 100},
		{3, 100.5, 100}, {4, 101.2, 100},
	}

	if !nudgeEvidence(hist, 0.1, 2.0, 0.5) {
		t.Error("recent displacement at half nudge scale should count")
	}

	if nudgeEvidence(hist[:2], 0.1, 2.0, 0.5) {
		t.Error("flat short history carries no evidence")
	}
}

func TestClassifySeverity(t *testing.T) {
	cfg := DefaultConfig()

	major := pairKinematics{v1Before: 5, v1After: 1}
	hist := []position{{0, 0, 0}, {1, 5, 0}, {2, 10, 0}}
	still := []position{{0, 100, 100}, {1, 100, 100}, {2, 100, 100}}

	if got := classifySeverity(major, Moving, Parked, hist, still, 5, 0, &cfg); got != EventCollisionMajor {
		t.Errorf("classifySeverity=%v, want major", got)
	}

	calm := pairKinematics{v1Before: 3, v1After: 3}
	if got := classifySeverity(calm, Moving, Parked, hist, still, 3, 0, &cfg); got != EventCollisionBase {
		t.Errorf("classifySeverity=%v, want base", got)
	}

	nudged := []position{{0, 100, 100}, {1, 101, 100}, {2, 103, 100}}
	if got := classifySeverity(calm, Moving, Parked, hist, nudged, 3, 0, &cfg); got != EventCollisionMinor {
		t.Errorf("classifySeverity=%v, want minor", got)
	}
}
