package collision

import (
	"github.com/studentepercaso/ai-parking-collision-and-safety/geometry"
)

// checkObstacles tests every vehicle against the camera's configured
// static obstacles.  Grid obstacles count intersecting pixels, polygon
// obstacles measure the overlap area of the vehicle box outline.  Runs
// every Nth frame only, gated per (vehicle, obstacle) by the debounce
// ledger
func (d *Detector) checkObstacles(cam *cameraState, cameraID string,
	vehicles []vehicleSnapshot, timestamp float64, frameShape *FrameShape,
	collect func(Event)) {

	if d.zoneSet == nil || len(vehicles) == 0 {
		return
	}

	rz, err := d.zoneSet.Resolve(cameraID, frameShape.Width, frameShape.Height)
	if err != nil {
		d.logf("camera %s: obstacle zones unavailable: %v", cameraID, err)
		return
	}
	if rz == nil {
		return
	}

	threshold := float64(d.cfg.ObstacleIntersectPixels)

	for _, v := range vehicles {
		mask := v.mask
		if !mask.Empty() && (mask.W != frameShape.Width || mask.H != frameShape.Height) {
			resized, err := mask.Resize(frameShape.Width, frameShape.Height)
			if err != nil {
				d.logf("camera %s track %d: mask resize failed: %v",
					cameraID, v.id, err)
				mask = nil
			} else {
				mask = resized
			}
		}
		if mask.Empty() {
			// vehicles without a native mask get a synthesized
			// rectangular one from their box
			mask = geometry.GridFromBox(v.box, frameShape.Width, frameShape.Height)
		}

		for name, obsGrid := range rz.Grids {
			inter := float64(mask.IntersectCount(obsGrid))
			if inter <= threshold {
				continue
			}
			d.emitObstacleEvent(cam, cameraID, v.id, name, inter, timestamp, collect)
		}

		outline := geometry.BoxPolygon(v.box)
		for name, poly := range rz.Polygons {
			area := geometry.PolygonIntersectionArea(outline, poly)
			if area <= threshold {
				continue
			}
			d.emitObstacleEvent(cam, cameraID, v.id, name, area, timestamp, collect)
		}
	}
}

// emitObstacleEvent emits one vehicle/obstacle contact unless the
// combination is still debounced
func (d *Detector) emitObstacleEvent(cam *cameraState, cameraID string,
	vehicleID int64, obstacle string, intersection, timestamp float64,
	collect func(Event)) {

	key := obstacleKey{vehicleID: vehicleID, obstacle: obstacle}
	if cam.ledger.obstacleDebounced(key, timestamp) {
		d.debugf("camera %s vehicle %d obstacle %s: debounced",
			cameraID, vehicleID, obstacle)
		return
	}

	ev := newEvent(EventCollisionObstacle, cameraID, timestamp)
	ev.VehicleIDs = []int64{vehicleID}
	ev.ObstacleName = obstacle
	ev.Details = map[string]float64{
		"intersection_pixels": intersection,
	}

	cam.ledger.registerObstacleEvent(key, timestamp)
	d.logf("camera %s: %s vehicle %d obstacle %s px=%.0f",
		cameraID, EventCollisionObstacle, vehicleID, obstacle, intersection)
	collect(ev)
}
