// Package scan contains the top-level accept/reject policy for a bottle scan
// and the service that orchestrates measurement, brand classification,
// validation and lid actuation.
package scan

import (
	"github.com/pablonification/compfest-spartans-sub000/internal/brand"
	"github.com/pablonification/compfest-spartans-sub000/internal/measure"
	"github.com/pablonification/compfest-spartans-sub000/internal/payout"
)

// Machine-readable rejection reason codes.
const (
	ReasonSizeOutOfRange           = "SIZE_OUT_OF_RANGE"
	ReasonLowMeasurementConfidence = "LOW_MEASUREMENT_CONFIDENCE"
)

// ValidatorOptions configures the physical sanity band for bottle height.
// Bounds are inclusive.
type ValidatorOptions struct {
	MinHeightMM float64 `mapstructure:"min_height_mm"`
	MaxHeightMM float64 `mapstructure:"max_height_mm"`
}

// DefaultValidatorOptions returns the default acceptable height band.
func DefaultValidatorOptions() ValidatorOptions {
	return ValidatorOptions{MinHeightMM: 100, MaxHeightMM: 350}
}

// Result is the final decision for one scan. PointsAwarded is always zero when
// IsValid is false.
type Result struct {
	IsValid bool   `json:"is_valid"`
	Reason  string `json:"reason,omitempty"`
	// Brand and Confidence surface the top prediction for observability,
	// regardless of final validity.
	Brand         *string              `json:"brand"`
	Confidence    *float64             `json:"confidence"`
	Measurement   *measure.Measurement `json:"measurement"`
	Payout        *payout.Result       `json:"payout,omitempty"`
	PointsAwarded int                  `json:"points_awarded"`
}

// Validator applies the two-stage decision: size gate, then payout gate.
// Failures here are terminal decisions, not transient errors; nothing retries.
type Validator struct {
	opts ValidatorOptions
	calc *payout.Calculator
}

// NewValidator creates a validator using the given payout calculator.
func NewValidator(opts ValidatorOptions, calc *payout.Calculator) *Validator {
	return &Validator{opts: opts, calc: calc}
}

// Validate decides whether the scan earns a reward. Cleanliness and cap
// condition are caller-supplied payout inputs.
func (v *Validator) Validate(m *measure.Measurement, preds []brand.Prediction, cleanliness, capCondition string) Result {
	// A bottle that is physically too small or too large is rejected before
	// payout computation, regardless of brand or cleanliness.
	if m.HeightMM < v.opts.MinHeightMM || m.HeightMM > v.opts.MaxHeightMM {
		return Result{
			Reason:      ReasonSizeOutOfRange,
			Measurement: m,
		}
	}

	res := Result{Measurement: m}
	if top := brand.Top(preds); top != nil {
		res.Brand = &top.Brand
		res.Confidence = &top.Confidence
	}

	pay := v.calc.Compute(m, preds, cleanliness, capCondition)
	res.Payout = &pay
	if pay.PayoutRP == nil {
		res.Reason = ReasonLowMeasurementConfidence
		return res
	}

	res.IsValid = true
	res.PointsAwarded = *pay.PayoutRP
	return res
}
