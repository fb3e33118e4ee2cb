package collision

import (
	"github.com/google/uuid"
)

// EventType identifies the kind of safety event detected
type EventType string

const (
	// vehicle hit vehicle with a clear speed drop or direction change
	EventCollisionMajor EventType = "collision_auto_auto_major"
	// moving vehicle nudged a parked one hard enough to displace it
	EventCollisionMinor EventType = "collision_auto_auto_minor"
	// confirmed contact without further kinematic evidence
	EventCollisionBase EventType = "collision_auto_auto_base"
	// vehicle touched a configured static obstacle
	EventCollisionObstacle EventType = "collision_auto_ostacolo"
	// person stayed within a small radius for too long
	EventPersonLoitering EventType = "person_loitering"
	// person transitioned to a fallen posture
	EventPersonFall EventType = "person_fall"
)

// Event is one detected safety event.  Details carries the numeric
// measurements that triggered it, keyed by measurement name
type Event struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	CameraID  string    `json:"camera_id"`
	Timestamp float64   `json:"timestamp"`

	// involved entities, filled according to Type.  PersonID has no
	// omitempty: track id 0 is legitimate tracker output
	VehicleIDs   []int64 `json:"vehicle_ids,omitempty"`
	PersonID     int64   `json:"person_id"`
	ObstacleName string  `json:"obstacle_name,omitempty"`

	Details map[string]float64 `json:"details,omitempty"`
}

// newEvent stamps a fresh event with a unique id
func newEvent(typ EventType, cameraID string, timestamp float64) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      typ,
		CameraID:  cameraID,
		Timestamp: timestamp,
	}
}
