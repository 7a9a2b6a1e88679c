package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pablonification/compfest-spartans-sub000/internal/brand"
	"github.com/pablonification/compfest-spartans-sub000/internal/measure"
	"github.com/pablonification/compfest-spartans-sub000/internal/payout"
)

type stubMeasurer struct {
	m   *measure.Measurement
	err error
}

func (s *stubMeasurer) Measure([]byte) (*measure.Measurement, error) { return s.m, s.err }

type stubClassifier struct {
	preds []brand.Prediction
	err   error
}

func (s *stubClassifier) Predict(context.Context, []byte) ([]brand.Prediction, error) {
	return s.preds, s.err
}

type stubLid struct {
	opened bool
}

func (s *stubLid) Open(context.Context) error {
	s.opened = true
	return nil
}

func newTestService(m Measurer, c Classifier, lid LidActuator) *Service {
	validator := NewValidator(DefaultValidatorOptions(), payout.NewCalculator(payout.DefaultOptions()))
	return NewService(DefaultServiceOptions(), m, c, validator, lid)
}

func TestProcessScanAcceptedOpensLid(t *testing.T) {
	lid := &stubLid{}
	svc := newTestService(
		&stubMeasurer{m: measurementWithHeight(150, 95)},
		&stubClassifier{preds: []brand.Prediction{{Brand: "aqua", Confidence: 0.95}}},
		lid,
	)

	res, err := svc.ProcessScan(context.Background(), []byte("img"), "clean_dry", "mixed")

	require.NoError(t, err)
	assert.True(t, res.IsValid)
	assert.Equal(t, 59, res.PointsAwarded)
	assert.True(t, lid.opened)
}

func TestProcessScanRejectedKeepsLidClosed(t *testing.T) {
	lid := &stubLid{}
	svc := newTestService(&stubMeasurer{m: measurementWithHeight(50, 95)}, nil, lid)

	res, err := svc.ProcessScan(context.Background(), []byte("img"), "clean_dry", "mixed")

	require.NoError(t, err)
	assert.False(t, res.IsValid)
	assert.False(t, lid.opened)
}

func TestProcessScanSubstitutesFallbackOnMeasurementError(t *testing.T) {
	svc := newTestService(
		&stubMeasurer{err: &measure.Error{Kind: measure.ErrBottleNotFound, Msg: "Bottle not found in ROI."}},
		nil, nil,
	)

	res, err := svc.ProcessScan(context.Background(), []byte("img"), "clean_dry", "mixed")

	require.NoError(t, err)
	// The conservative fallback measurement lands in the low-confidence
	// rejection path rather than earning a payout.
	assert.False(t, res.IsValid)
	assert.Equal(t, ReasonLowMeasurementConfidence, res.Reason)
	assert.Equal(t, DefaultServiceOptions().Fallback.VolumeML, res.Measurement.VolumeML)
}

func TestProcessScanPropagatesUnexpectedErrors(t *testing.T) {
	svc := newTestService(&stubMeasurer{err: errors.New("disk on fire")}, nil, nil)

	_, err := svc.ProcessScan(context.Background(), []byte("img"), "clean_dry", "mixed")

	assert.Error(t, err)
}

func TestProcessScanToleratesClassifierFailure(t *testing.T) {
	svc := newTestService(
		&stubMeasurer{m: measurementWithHeight(150, 95)},
		&stubClassifier{err: errors.New("classifier down")},
		nil,
	)

	res, err := svc.ProcessScan(context.Background(), []byte("img"), "clean_dry", "mixed")

	require.NoError(t, err)
	// Degrades to the unknown-brand payout path
	assert.True(t, res.IsValid)
	assert.Nil(t, res.Brand)
	require.NotNil(t, res.Payout)
	assert.Equal(t, 0.96, res.Payout.KBrand)
}
