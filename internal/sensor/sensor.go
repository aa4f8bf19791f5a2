// Package sensor provides the detector feeds the sensing task polls.
package sensor

import (
	"sync"

	"github.com/Speshl/gorrc_tracker/internal/models"
)

// Source returns the newest detector frame without blocking. The bool is false when
// nothing new arrived since the last call.
type Source interface {
	Latest() (models.Frame, bool)
}

// DetectionFeed holds the latest frame pushed by an external vision process.
type DetectionFeed struct {
	lock  sync.Mutex
	frame models.Frame
	fresh bool

	received uint64
	dropped  uint64
}

func NewDetectionFeed() *DetectionFeed {
	return &DetectionFeed{}
}

// Push replaces any unread frame.
func (f *DetectionFeed) Push(frame models.Frame) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if f.fresh {
		f.dropped++
	}
	f.frame = frame
	f.fresh = true
	f.received++
}

func (f *DetectionFeed) Latest() (models.Frame, bool) {
	f.lock.Lock()
	defer f.lock.Unlock()
	if !f.fresh {
		return models.Frame{}, false
	}
	f.fresh = false
	return f.frame, true
}

// Stats reports frames received and frames replaced before they were read.
func (f *DetectionFeed) Stats() (uint64, uint64) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.received, f.dropped
}
