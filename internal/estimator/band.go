package estimator

import (
	"errors"
	"fmt"
	"math"

	"github.com/Speshl/gorrc_tracker/internal/models"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const weightTolerance = 1e-6

var ErrInvalidWeights = errors.New("invalid band weights")

// BandEstimator fuses the line centroids of horizontal image bands. Band 0 is the farthest
// from the robot.
type BandEstimator struct {
	weights []float64
	jitter  *JitterFilter
}

func NewBandEstimator(weights []float64, jitterDeadZone float64) (*BandEstimator, error) {
	if len(weights) == 0 {
		return nil, fmt.Errorf("%w: no weights", ErrInvalidWeights)
	}
	sum := 0.0
	for _, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("%w: negative weight %.3f", ErrInvalidWeights, w)
		}
		sum += w
	}
	if math.Abs(sum-1) > weightTolerance {
		return nil, fmt.Errorf("%w: weights sum to %.3f", ErrInvalidWeights, sum)
	}

	return &BandEstimator{
		weights: append([]float64(nil), weights...),
		jitter:  NewJitterFilter(jitterDeadZone),
	}, nil
}

func (e *BandEstimator) Estimate(frame models.Frame, tick models.Tick) models.Measurement {
	xs := make([]float64, 0, len(e.weights))
	ys := make([]float64, 0, len(e.weights))
	ws := make([]float64, 0, len(e.weights))
	lead := -1.0
	leadIndex := len(e.weights)

	for _, band := range frame.Bands {
		if band.CentroidX == nil || band.Index < 0 || band.Index >= len(e.weights) {
			continue
		}
		xs = append(xs, *band.CentroidX)
		ys = append(ys, band.CentroidY)
		ws = append(ws, e.weights[band.Index])
		if band.Index < leadIndex {
			leadIndex = band.Index
			lead = *band.CentroidX
		}
	}

	if len(xs) == 0 || floats.Sum(ws) == 0 {
		e.jitter.Reset()
		return models.InvalidMeasurement(tick, frame.Captured)
	}

	return models.Measurement{
		X:          e.jitter.Filter(stat.Mean(xs, ws)),
		Y:          stat.Mean(ys, ws),
		Confidence: float64(len(xs)),
		Valid:      true,
		Timestamp:  tick,
		Captured:   frame.Captured,
		Lead:       lead,
		HasLead:    true,
	}
}

func (e *BandEstimator) Reset() {
	e.jitter.Reset()
}
