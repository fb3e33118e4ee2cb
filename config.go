package collision

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config holds every tunable of the detection engine.  Field names mirror
// the keys of the flat JSON configuration file so recorded site configs
// load unchanged.  Thresholds expressed in pixels are calibrated against a
// 720p frame and scaled linearly when the frame resolution is known
type Config struct {
	// vehicle kinematics
	SpeedMovingThreshold float64 `json:"SPEED_MOVING_THRESHOLD"`
	SpeedParkedThreshold float64 `json:"SPEED_PARKED_THRESHOLD"`
	SpeedDropFactor      float64 `json:"SPEED_DROP_FACTOR"`
	NudgeDistance        float64 `json:"NUDGE_DISTANCE"`
	HistoryFrames        int     `json:"HISTORY_FRAMES"`
	// consecutive stationary frames after which a vehicle is parked no
	// matter its smoothed speed
	ParkingStationaryFrames int `json:"parking_stationary_frames"`

	// pair gating
	MaxCollisionDistance float64 `json:"MAX_COLLISION_DISTANCE"`
	MinDistThreshold     float64 `json:"MIN_DIST_THRESHOLD"`
	IoUThreshold         float64 `json:"IOU_THRESHOLD"`
	MinConsecutiveFrames int     `json:"min_consecutive_frames"`
	EventDebounceSeconds float64 `json:"EVENT_DEBOUNCE_SECONDS"`
	FPSApproximation     float64 `json:"fps_approximation"`

	// contact strategy selection and ground-point tuning
	UseGroundPointMethod         bool    `json:"use_ground_point_method"`
	GroundPointDistanceThreshold float64 `json:"ground_point_distance_threshold"`
	BottomStripHeightRatio       float64 `json:"bottom_strip_height_ratio"`
	BottomStripOverlapRatio      float64 `json:"bottom_strip_overlap_ratio"`

	// legacy whole-object strategy tuning
	MinOverlapRatio float64 `json:"min_overlap_ratio"`
	MinMaskIoU      float64 `json:"min_mask_iou"`
	MinBoxIoU       float64 `json:"min_bbox_iou"`

	// perspective filter
	EnablePerspectiveFilter    bool    `json:"enable_perspective_filter"`
	SizeRatioThreshold         float64 `json:"size_ratio_threshold"`
	YPositionThreshold         float64 `json:"y_position_threshold"`
	IntersectionRatioThreshold float64 `json:"intersection_ratio_threshold"`
	ApproachRateThreshold      float64 `json:"approach_rate_threshold"`
	DistanceIncreaseThreshold  float64 `json:"distance_increase_threshold"`

	// person safety
	EnablePersonSafety    bool    `json:"enable_person_safety"`
	EnablePersonLoitering bool    `json:"enable_person_loitering"`
	EnablePersonFall      bool    `json:"enable_person_fall"`
	LoiterSeconds         float64 `json:"LOITER_SECONDS"`
	LoiterRadius          float64 `json:"LOITER_RADIUS"`
	FallAspectRatio       float64 `json:"FALL_ASPECT_RATIO"`
	FallSpeedDrop         float64 `json:"FALL_SPEED_DROP"`
	FallMinHeight         float64 `json:"FALL_MIN_HEIGHT"`

	// obstacle contact
	ObstacleCheckInterval   int `json:"obstacle_check_interval"`
	ObstacleIntersectPixels int `json:"obstacle_intersect_pixels"`

	// per-track state is dropped after this long without a sighting
	TrackSilenceSeconds float64 `json:"track_silence_seconds"`
}

// DefaultConfig returns the configuration tuned for parking lots and low
// approach speeds
func DefaultConfig() Config {
	return Config{
		SpeedMovingThreshold:    2.0,
		SpeedParkedThreshold:    0.5,
		SpeedDropFactor:         0.7,
		NudgeDistance:           2.0,
		HistoryFrames:           5,
		ParkingStationaryFrames: 5,

		MaxCollisionDistance: 100.0,
		MinDistThreshold:     100.0,
		IoUThreshold:         0.01,
		MinConsecutiveFrames: 2,
		EventDebounceSeconds: 3.0,
		FPSApproximation:     30.0,

		UseGroundPointMethod:         true,
		GroundPointDistanceThreshold: 50.0,
		BottomStripHeightRatio:       0.15,
		BottomStripOverlapRatio:      0.01,

		MinOverlapRatio: 0.01,
		MinMaskIoU:      0.005,
		MinBoxIoU:       0.01,

		EnablePerspectiveFilter:    true,
		SizeRatioThreshold:         0.5,
		YPositionThreshold:         0.3,
		IntersectionRatioThreshold: 0.15,
		ApproachRateThreshold:      0.12,
		DistanceIncreaseThreshold:  1.02,

		EnablePersonSafety:    true,
		EnablePersonLoitering: true,
		EnablePersonFall:      true,
		LoiterSeconds:         20.0,
		LoiterRadius:          120.0,
		FallAspectRatio:       0.55,
		FallSpeedDrop:         0.45,
		FallMinHeight:         40.0,

		ObstacleCheckInterval:   3,
		ObstacleIntersectPixels: 10,

		TrackSilenceSeconds: 30.0,
	}
}

// LoadConfig reads a flat JSON configuration file on top of the defaults,
// so partial files only override the keys they name
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks threshold consistency.  A config that passes here cannot
// produce undefined behaviour in the engine
func (c Config) Validate() error {
	if c.SpeedMovingThreshold <= 0 {
		return fmt.Errorf("SPEED_MOVING_THRESHOLD must be positive, got %v",
			c.SpeedMovingThreshold)
	}
	if c.SpeedParkedThreshold < 0 {
		return fmt.Errorf("SPEED_PARKED_THRESHOLD must not be negative, got %v",
			c.SpeedParkedThreshold)
	}
	if c.SpeedParkedThreshold >= c.SpeedMovingThreshold {
		return fmt.Errorf("SPEED_PARKED_THRESHOLD (%v) must stay below SPEED_MOVING_THRESHOLD (%v) to keep the hysteresis band",
			c.SpeedParkedThreshold, c.SpeedMovingThreshold)
	}
	if c.SpeedDropFactor <= 0 || c.SpeedDropFactor >= 1 {
		return fmt.Errorf("SPEED_DROP_FACTOR must be in (0, 1), got %v",
			c.SpeedDropFactor)
	}
	if c.HistoryFrames < 3 {
		return fmt.Errorf("HISTORY_FRAMES must be at least 3, got %d",
			c.HistoryFrames)
	}
	if c.ParkingStationaryFrames < 1 {
		return fmt.Errorf("parking_stationary_frames must be at least 1, got %d",
			c.ParkingStationaryFrames)
	}
	if c.MinConsecutiveFrames < 1 {
		return fmt.Errorf("min_consecutive_frames must be at least 1, got %d",
			c.MinConsecutiveFrames)
	}
	if c.EventDebounceSeconds < 0 {
		return fmt.Errorf("EVENT_DEBOUNCE_SECONDS must not be negative, got %v",
			c.EventDebounceSeconds)
	}
	if c.FPSApproximation <= 0 {
		return fmt.Errorf("fps_approximation must be positive, got %v",
			c.FPSApproximation)
	}
	if c.BottomStripHeightRatio <= 0 || c.BottomStripHeightRatio > 1 {
		return fmt.Errorf("bottom_strip_height_ratio must be in (0, 1], got %v",
			c.BottomStripHeightRatio)
	}
	if c.MaxCollisionDistance <= 0 {
		return fmt.Errorf("MAX_COLLISION_DISTANCE must be positive, got %v",
			c.MaxCollisionDistance)
	}
	if c.LoiterSeconds <= 0 || c.LoiterRadius <= 0 {
		return fmt.Errorf("loiter thresholds must be positive, got %v s / %v px",
			c.LoiterSeconds, c.LoiterRadius)
	}
	if c.ObstacleCheckInterval < 1 {
		return fmt.Errorf("obstacle_check_interval must be at least 1, got %d",
			c.ObstacleCheckInterval)
	}
	if c.TrackSilenceSeconds <= 0 {
		return fmt.Errorf("track_silence_seconds must be positive, got %v",
			c.TrackSilenceSeconds)
	}
	return nil
}

// confirmWindowSeconds is the sliding confirmation window, roughly ten
// frames at the nominal frame rate
func (c Config) confirmWindowSeconds() float64 {
	return 10.0 / c.FPSApproximation
}

// personHistoryCap bounds each person's position history to the loitering
// observation window.  n samples span (n-1)/fps seconds, so one extra
// sample lets the retained history reach LOITER_SECONDS at the nominal rate
func (c Config) personHistoryCap() int {
	n := int(c.FPSApproximation*c.LoiterSeconds) + 1
	if n < 2 {
		n = 2
	}
	return n
}
