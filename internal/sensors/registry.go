package sensors

import (
	"time"

	"github.com/Mosical/pico-venti/internal/ui"
	"github.com/Mosical/pico-venti/internal/util"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// Registry aggregates all configured temperature sources and polls each
// of them exactly once per control cycle. A fault on one source never
// prevents polling of the others.
type Registry struct {
	sensors    []Sensor
	records    map[string]*sourceRecord
	windowSize int

	// published holds the latest reading per source for concurrent
	// consumers (api, statistics, display); the control loop itself
	// only touches records.
	published cmap.ConcurrentMap[string, Reading]
}

// resettable is implemented by sensors whose device supports a soft
// reset, used as a recovery attempt on persistent faults.
type resettable interface {
	Reset() error
}

// faultsBeforeReset is the consecutive-fault count after which a
// resettable sensor gets one soft reset attempt per streak.
const faultsBeforeReset = 3

// sourceRecord is the bounded per-source history: the latest reading
// plus the one prior good reading needed for fault holds.
type sourceRecord struct {
	latest      Reading
	lastGood    Reading
	everGood    bool
	faultStreak int
}

func NewRegistry(sensorList []Sensor, windowSize int) *Registry {
	if windowSize < 1 {
		windowSize = 1
	}
	records := map[string]*sourceRecord{}
	for _, sensor := range sensorList {
		records[sensor.GetId()] = &sourceRecord{}
	}
	return &Registry{
		sensors:    sensorList,
		records:    records,
		windowSize: windowSize,
		published:  cmap.New[Reading](),
	}
}

func (r *Registry) Sensors() []Sensor {
	return r.sensors
}

// PollAll polls every configured source once and returns the readings
// in configuration order.
func (r *Registry) PollAll() []Reading {
	readings := make([]Reading, 0, len(r.sensors))
	for _, sensor := range r.sensors {
		reading := r.poll(sensor)
		readings = append(readings, reading)
		r.published.Set(reading.SourceID, reading)
	}
	return readings
}

func (r *Registry) poll(sensor Sensor) Reading {
	id := sensor.GetId()
	record := r.records[id]

	measurement, err := sensor.Measure()
	now := time.Now()

	if err != nil {
		record.faultStreak++
		if record.faultStreak == faultsBeforeReset {
			if device, ok := sensor.(resettable); ok {
				ui.Warning("Sensor %s keeps faulting, attempting a soft reset", id)
				if resetErr := device.Reset(); resetErr != nil {
					ui.Warning("Soft reset of sensor %s failed: %v", id, resetErr)
				}
			}
		}
		reading := Reading{
			SourceID:  id,
			Timestamp: now,
			Status:    StatusFault,
		}
		if record.everGood {
			// hold the previous good value, a transient fault must not
			// look like a sudden drop to 0° downstream
			reading.Status = StatusStale
			reading.Celsius = record.lastGood.Celsius
			reading.Humidity = record.lastGood.Humidity
			reading.HasHumidity = record.lastGood.HasHumidity
		}
		ui.Warning("Error polling sensor %s: %v", id, err)
		record.latest = reading
		return reading
	}

	reading := Reading{
		SourceID:    id,
		Celsius:     measurement.Celsius,
		Humidity:    measurement.Humidity,
		HasHumidity: measurement.HasHumidity,
		Timestamp:   now,
		Status:      StatusOk,
	}

	if record.everGood {
		sensor.SetMovingAvg(util.UpdateSimpleMovingAvg(sensor.GetMovingAvg(), r.windowSize, measurement.Celsius))
	} else {
		sensor.SetMovingAvg(measurement.Celsius)
	}

	record.latest = reading
	record.lastGood = reading
	record.everGood = true
	record.faultStreak = 0
	return reading
}

// Latest returns the most recent reading of the given source.
func (r *Registry) Latest(id string) (Reading, bool) {
	record, ok := r.records[id]
	if !ok {
		return Reading{}, false
	}
	return record.latest, true
}

// HasGoodReading reports whether the source ever produced a valid value.
func (r *Registry) HasGoodReading(id string) bool {
	record, ok := r.records[id]
	return ok && record.everGood
}

// FaultStreak returns the number of consecutive faulted polls.
func (r *Registry) FaultStreak(id string) int {
	record, ok := r.records[id]
	if !ok {
		return 0
	}
	return record.faultStreak
}

// Published returns the concurrent view of the latest readings,
// safe for consumers outside the control loop.
func (r *Registry) Published() cmap.ConcurrentMap[string, Reading] {
	return r.published
}

// Snapshot returns a copy of the latest readings keyed by source id.
func (r *Registry) Snapshot() map[string]Reading {
	result := make(map[string]Reading, len(r.records))
	for id, record := range r.records {
		result[id] = record.latest
	}
	return result
}
