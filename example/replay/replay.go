/*
replay runs the collision detection engine over a recorded tracking log.

The input is a JSON-lines file with one frame per line:

	{"camera_id": "cam1", "timestamp": 0.033, "frame_shape": [720, 1280],
	 "objects": [{"track_id": 7, "class_id": 2, "bbox": [100, 200, 260, 300]}]}

Every detected event is printed to stdout as JSON.
*/
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	collision "github.com/studentepercaso/ai-parking-collision-and-safety"
	"github.com/studentepercaso/ai-parking-collision-and-safety/geometry"
	"github.com/studentepercaso/ai-parking-collision-and-safety/zones"
)

// frameRecord is one line of the tracking log
type frameRecord struct {
	CameraID   string         `json:"camera_id"`
	Timestamp  float64        `json:"timestamp"`
	FrameShape []int          `json:"frame_shape"`
	Objects    []objectRecord `json:"objects"`
}

// objectRecord is one tracked object inside a frame record
type objectRecord struct {
	TrackID int64     `json:"track_id"`
	ClassID int       `json:"class_id"`
	BBox    []float64 `json:"bbox"`
}

func main() {
	logFile := flag.String("i", "tracking.jsonl", "Tracking log to replay (JSON lines)")
	configFile := flag.String("c", "", "Collision config JSON, defaults when empty")
	zonesFile := flag.String("z", "", "Zones config JSON with obstacle definitions")
	debug := flag.Bool("d", false, "Enable debug diagnostics")
	flag.Parse()

	err := run(*logFile, *configFile, *zonesFile, *debug)
	if err != nil {
		log.Fatal("Error: ", err)
	}
}

func run(logFile, configFile, zonesFile string, debug bool) error {

	cfg := collision.DefaultConfig()

	if configFile != "" {
		var err error
		cfg, err = collision.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	opts := []collision.Option{
		collision.WithLogger(log.New(os.Stderr, "", log.LstdFlags)),
		collision.WithDebug(debug),
	}

	if zonesFile != "" {
		provider, err := zones.NewFileProvider(zonesFile)
		if err != nil {
			return fmt.Errorf("load zones: %w", err)
		}
		opts = append(opts, collision.WithZoneProvider(provider))
	}

	det, err := collision.NewDetector(cfg, opts...)
	if err != nil {
		return fmt.Errorf("create detector: %w", err)
	}

	file, err := os.Open(logFile)
	if err != nil {
		return fmt.Errorf("open tracking log: %w", err)
	}
	defer file.Close()

	enc := json.NewEncoder(os.Stdout)

	frames := 0
	total := 0

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec frameRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			log.Printf("skipping malformed frame record: %v", err)
			continue
		}

		var shape *collision.FrameShape
		if len(rec.FrameShape) == 2 {
			shape = &collision.FrameShape{
				Height: rec.FrameShape[0],
				Width:  rec.FrameShape[1],
			}
		}

		objects := make([]collision.TrackedObject, 0, len(rec.Objects))
		for _, o := range rec.Objects {
			if len(o.BBox) != 4 {
				continue
			}
			cls := collision.ClassFromCOCO(o.ClassID)
			if cls == 0 {
				continue
			}
			objects = append(objects, collision.TrackedObject{
				TrackID: o.TrackID,
				Class:   cls,
				Box:     geometry.NewBox(o.BBox[0], o.BBox[1], o.BBox[2], o.BBox[3]),
			})
		}

		events := det.ProcessFrame(rec.CameraID, objects, rec.Timestamp, shape)
		for _, ev := range events {
			if err := enc.Encode(ev); err != nil {
				return fmt.Errorf("encode event: %w", err)
			}
		}

		frames++
		total += len(events)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read tracking log: %w", err)
	}

	log.Printf("replayed %d frames, %d events", frames, total)
	return nil
}
