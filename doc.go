/*
Package collision detects discrete safety events from per-frame object
tracking output: vehicle-vehicle collisions graded by severity,
vehicle-obstacle contacts, person loitering and person falls.

The engine is a pure synchronous transform.  Feed it the tracked objects of
one camera frame and it returns the events detected on that frame:

	det, err := collision.NewDetector(collision.DefaultConfig(),
		collision.WithEventFunc(onEvent))
	if err != nil {
		log.Fatal(err)
	}
	events := det.ProcessFrame(cameraID, objects, timestamp, &shape)

Detection, tracking and video handling are external collaborators: objects
arrive with stable track ids and bounding boxes already assigned, optionally
with per-pixel occupancy masks from a segmentation model.

State is partitioned per camera.  A single Detector can serve several
camera streams concurrently as long as each camera is driven by one
goroutine at a time.
*/
package collision
