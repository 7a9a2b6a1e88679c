package scan

import (
	"context"
	"fmt"
	"log"

	"github.com/pablonification/compfest-spartans-sub000/internal/brand"
	"github.com/pablonification/compfest-spartans-sub000/internal/measure"
)

// Measurer runs geometry measurement on raw image bytes.
type Measurer interface {
	Measure(data []byte) (*measure.Measurement, error)
}

// Classifier fetches brand predictions for an image.
type Classifier interface {
	Predict(ctx context.Context, imageData []byte) ([]brand.Prediction, error)
}

// LidActuator opens the physical bin lid.
type LidActuator interface {
	Open(ctx context.Context) error
}

// ServiceOptions configures the scan orchestration.
type ServiceOptions struct {
	// Fallback is substituted when measurement fails, keeping the
	// user-facing flow responsive. The default confidence sits below the
	// lowest payout tier, so a fallback scan is rejected rather than paid.
	Fallback measure.Measurement `mapstructure:"fallback"`
}

// DefaultServiceOptions returns the conservative fallback measurement.
func DefaultServiceOptions() ServiceOptions {
	conf := 40.0
	return ServiceOptions{
		Fallback: measure.Measurement{
			DiameterMM:        65,
			HeightMM:          230,
			VolumeML:          600,
			Classification:    "600ml",
			ConfidencePercent: &conf,
		},
	}
}

// Service runs the full scan flow: measure, classify brand, validate, and
// actuate the lid on acceptance. The classifier and actuator are optional.
type Service struct {
	opts       ServiceOptions
	measurer   Measurer
	classifier Classifier
	validator  *Validator
	lid        LidActuator
}

// NewService wires the scan flow. classifier and lid may be nil.
func NewService(opts ServiceOptions, measurer Measurer, classifier Classifier, validator *Validator, lid LidActuator) *Service {
	return &Service{
		opts:       opts,
		measurer:   measurer,
		classifier: classifier,
		validator:  validator,
		lid:        lid,
	}
}

// ProcessScan runs one scan end to end. A measurement failure is replaced by
// the configured fallback measurement; any other error aborts the scan.
func (s *Service) ProcessScan(ctx context.Context, imageData []byte, cleanliness, capCondition string) (*Result, error) {
	m, err := s.measurer.Measure(imageData)
	if err != nil {
		me, ok := measure.AsError(err)
		if !ok {
			return nil, fmt.Errorf("measure scan image: %w", err)
		}
		log.Printf("measurement failed (%s), using fallback: %v", me.Kind, me)
		fallback := s.opts.Fallback
		m = &fallback
	}

	var preds []brand.Prediction
	if s.classifier != nil {
		preds, err = s.classifier.Predict(ctx, imageData)
		if err != nil {
			// Brand evidence is optional; an unreachable classifier
			// degrades to the unknown-brand payout path.
			log.Printf("brand classification failed: %v", err)
			preds = nil
		}
	}

	res := s.validator.Validate(m, preds, cleanliness, capCondition)

	if res.IsValid && s.lid != nil {
		if err := s.lid.Open(ctx); err != nil {
			// Acceptance is not revoked on actuation failure
			log.Printf("lid actuation failed: %v", err)
		}
	}
	return &res, nil
}
