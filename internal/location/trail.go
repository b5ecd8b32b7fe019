package location

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/tracklet/internal/models"
)

// TrailHeader is the column order of a trail file. The header row is optional.
var TrailHeader = []string{"lat", "lon", "alt", "accuracy", "speed", "timestamp"}

// ReadTrailFile reads a CSV trail from path.
func ReadTrailFile(path string) ([]models.LocationSample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trail: %w", err)
	}
	defer f.Close()
	return ReadTrail(f)
}

// ReadTrail parses lat,lon,alt,accuracy,speed,timestamp rows. Timestamps are
// RFC 3339.
func ReadTrail(r io.Reader) ([]models.LocationSample, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(TrailHeader)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'

	var samples []models.LocationSample
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read trail: %w", err)
		}
		if line == 1 && strings.EqualFold(rec[0], TrailHeader[0]) {
			continue
		}
		s, err := parseSample(rec)
		if err != nil {
			return nil, fmt.Errorf("trail line %d: %w", line, err)
		}
		samples = append(samples, s)
	}
	return samples, nil
}

func parseSample(rec []string) (models.LocationSample, error) {
	var nums [5]float64
	for i := range nums {
		v, err := strconv.ParseFloat(rec[i], 64)
		if err != nil {
			return models.LocationSample{}, fmt.Errorf("%s: %w", TrailHeader[i], err)
		}
		nums[i] = v
	}
	ts, err := time.Parse(time.RFC3339, rec[5])
	if err != nil {
		return models.LocationSample{}, fmt.Errorf("timestamp: %w", err)
	}
	return models.LocationSample{
		Latitude:  nums[0],
		Longitude: nums[1],
		Altitude:  nums[2],
		Accuracy:  nums[3],
		Speed:     nums[4],
		Timestamp: ts,
	}, nil
}
