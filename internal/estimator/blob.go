package estimator

import (
	"github.com/Speshl/gorrc_tracker/internal/models"
)

// BlobEstimator follows the largest blob above a minimum area.
type BlobEstimator struct {
	minArea float64
	vote    *ColorVote
	jitter  *JitterFilter
}

// NewBlobEstimator builds a blob estimator. A voteSize below 1 disables the color vote.
func NewBlobEstimator(minArea float64, voteSize int, jitterDeadZone float64) *BlobEstimator {
	estimator := &BlobEstimator{
		minArea: minArea,
		jitter:  NewJitterFilter(jitterDeadZone),
	}
	if voteSize > 0 {
		estimator.vote = NewColorVote(voteSize)
	}
	return estimator
}

func (e *BlobEstimator) Estimate(frame models.Frame, tick models.Tick) models.Measurement {
	best, ok := Largest(frame.Blobs, e.minArea)
	if !ok {
		e.jitter.Reset()
		return models.InvalidMeasurement(tick, frame.Captured)
	}

	x, y := best.Center()
	label := best.Label
	if e.vote != nil {
		label = e.vote.Add(best.Label)
	}

	return models.Measurement{
		X:          e.jitter.Filter(x),
		Y:          y,
		Area:       best.Area,
		Confidence: best.Area,
		Valid:      true,
		Timestamp:  tick,
		Captured:   frame.Captured,
		Label:      label,
	}
}

func (e *BlobEstimator) Reset() {
	e.jitter.Reset()
	if e.vote != nil {
		e.vote.Reset()
	}
}

// Largest returns the blob with the largest area strictly above minArea. Ties go to the first seen.
func Largest(blobs []models.Blob, minArea float64) (models.Blob, bool) {
	found := false
	best := models.Blob{}
	for _, blob := range blobs {
		if blob.Area <= minArea {
			continue
		}
		if !found || blob.Area > best.Area {
			best = blob
			found = true
		}
	}
	return best, found
}

// ColorVote debounces color labels. Once the buffer is full it is cleared and the label commits
// only if every sample agreed; otherwise the previously committed label is kept.
type ColorVote struct {
	size      int
	samples   []string
	committed string
}

func NewColorVote(size int) *ColorVote {
	return &ColorVote{
		size:    size,
		samples: make([]string, 0, size),
	}
}

func (v *ColorVote) Add(label string) string {
	v.samples = append(v.samples, label)
	if len(v.samples) < v.size {
		return v.committed
	}

	agreed := true
	for _, sample := range v.samples[1:] {
		if sample != v.samples[0] {
			agreed = false
			break
		}
	}
	if agreed {
		v.committed = v.samples[0]
	}
	v.samples = v.samples[:0]
	return v.committed
}

func (v *ColorVote) Committed() string {
	return v.committed
}

func (v *ColorVote) Reset() {
	v.samples = v.samples[:0]
	v.committed = ""
}
