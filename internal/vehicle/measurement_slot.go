package vehicle

import (
	"sync"
	"time"

	"github.com/Speshl/gorrc_tracker/internal/models"
)

// MeasurementSlot hands the newest Measurement from the sensing task to the control task.
// The last writer wins; readers always get a whole value.
type MeasurementSlot struct {
	lock sync.RWMutex

	measurement models.Measurement
	storedAt    time.Time
	hasValue    bool
}

func NewMeasurementSlot() *MeasurementSlot {
	return &MeasurementSlot{}
}

func (s *MeasurementSlot) Store(measurement models.Measurement, now time.Time) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.hasValue && measurement.Timestamp < s.measurement.Timestamp {
		return
	}
	s.measurement = measurement
	s.storedAt = now
	s.hasValue = true
}

// Load returns the latest measurement. Anything older than maxAge, or nothing at all, comes
// back as an invalid measurement so the control task always has a defined input.
func (s *MeasurementSlot) Load(now time.Time, maxAge time.Duration) models.Measurement {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if !s.hasValue {
		return models.InvalidMeasurement(0, now)
	}
	if maxAge > 0 && now.Sub(s.storedAt) > maxAge {
		return models.InvalidMeasurement(s.measurement.Timestamp, s.measurement.Captured)
	}
	return s.measurement
}

func (s *MeasurementSlot) Clear() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.measurement = models.Measurement{}
	s.storedAt = time.Time{}
	s.hasValue = false
}
