// Package estimator reduces one detector frame to a single target Measurement.
package estimator

import (
	"fmt"

	"github.com/Speshl/gorrc_tracker/internal/config"
	"github.com/Speshl/gorrc_tracker/internal/models"
)

type Estimator interface {
	Estimate(frame models.Frame, tick models.Tick) models.Measurement
	Reset()
}

func New(cfg config.EstimatorConfig, mode string) (Estimator, error) {
	switch mode {
	case config.ModeLine:
		return NewBandEstimator(cfg.BandWeights, cfg.JitterDeadZone)
	case config.ModeBlob:
		return NewBlobEstimator(cfg.MinContourArea, cfg.VoteSize, cfg.JitterDeadZone), nil
	case config.ModeFace:
		// faces carry no color label, so no vote
		return NewBlobEstimator(cfg.MinContourArea, 0, cfg.JitterDeadZone), nil
	case config.ModeInfrared:
		return NewInfraredEstimator(cfg.InfraredSpeed), nil
	default:
		return nil, fmt.Errorf("unsupported estimator mode: %s", mode)
	}
}
