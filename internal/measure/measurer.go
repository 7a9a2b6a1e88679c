// Package measure implements reference-calibrated bottle geometry measurement
// from a single image: marker calibration, silhouette detection, millimeter
// conversion, cylinder volume, and size classification.
package measure

import (
	"image"
	"math"

	"gocv.io/x/gocv"
)

// MeasurerOptions configures the full measurement pipeline.
type MeasurerOptions struct {
	Calibrator CalibratorOptions `mapstructure:"calibrator"`
	Detector   DetectorOptions   `mapstructure:"detector"`
	Classifier ClassifierOptions `mapstructure:"classifier"`
	// MinContourAreaCM2 is the real-world area a contour must cover to be
	// considered, converted to pixels via the scale factor. It is a
	// sensitivity versus noise-rejection trade-off, tunable per deployment.
	MinContourAreaCM2 float64 `mapstructure:"min_contour_area_cm2"`
	// ClassifySize controls whether the measurement carries a size label.
	ClassifySize bool `mapstructure:"classify_size"`
}

// DefaultMeasurerOptions returns the canonical pipeline configuration.
func DefaultMeasurerOptions() MeasurerOptions {
	return MeasurerOptions{
		Calibrator:        DefaultCalibratorOptions(),
		Detector:          DefaultDetectorOptions(),
		Classifier:        DefaultClassifierOptions(),
		MinContourAreaCM2: 4,
		ClassifySize:      true,
	}
}

// Measurement is the durable output of geometry measurement. Linear values and
// volume are rounded to 2 decimal places.
type Measurement struct {
	DiameterMM float64 `json:"diameter_mm"`
	HeightMM   float64 `json:"height_mm"`
	VolumeML   float64 `json:"volume_ml"`
	// Classification is empty when size classification is disabled.
	Classification    string   `json:"classification,omitempty"`
	ConfidencePercent *float64 `json:"confidence_percent,omitempty"`
}

// GeometryMeasurer orchestrates calibration, silhouette detection and unit
// conversion. It is stateless apart from read-only options and safe to share
// across concurrent calls.
type GeometryMeasurer struct {
	opts       MeasurerOptions
	calibrator *ReferenceCalibrator
	detector   *BottleShapeDetector
	classifier *SizeClassifier
}

// NewGeometryMeasurer creates a measurer with the given options.
func NewGeometryMeasurer(opts MeasurerOptions) *GeometryMeasurer {
	return &GeometryMeasurer{
		opts:       opts,
		calibrator: NewReferenceCalibrator(opts.Calibrator),
		detector:   NewBottleShapeDetector(opts.Detector),
		classifier: NewSizeClassifier(opts.Classifier),
	}
}

// Measure runs the pipeline on raw image bytes.
func (m *GeometryMeasurer) Measure(data []byte) (*Measurement, error) {
	meas, _, err := m.measure(data, false)
	return meas, err
}

// MeasureWithDebug additionally returns a JPEG-encoded annotated image showing
// the reference box, bottle contour, oriented box and measurement labels.
func (m *GeometryMeasurer) MeasureWithDebug(data []byte) (*Measurement, []byte, error) {
	return m.measure(data, true)
}

func (m *GeometryMeasurer) measure(data []byte, debug bool) (*Measurement, []byte, error) {
	img, err := decodeImage(data)
	if err != nil {
		return nil, nil, err
	}
	defer img.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(img, &hsv, gocv.ColorBGRToHSV)

	cal, err := m.calibrator.Calibrate(hsv)
	if err != nil {
		return nil, nil, err
	}

	// The marker sits at the bottom of frame; the bottle stands above it.
	if cal.Marker.Y <= 0 {
		return nil, nil, newError(ErrEmptyROI, "No image area above the reference object.")
	}
	roi := img.Region(image.Rect(0, 0, img.Cols(), cal.Marker.Y))
	defer roi.Close()

	minAreaPx := math.Pow(10/cal.Scale, 2) * m.opts.MinContourAreaCM2
	cand, err := m.detector.Detect(roi, minAreaPx)
	if err != nil {
		return nil, nil, err
	}

	diameterMM := cand.PixelWidth * cal.Scale
	heightMM := cand.PixelHeight * cal.Scale
	volumeML := math.Pi * math.Pow(diameterMM/20, 2) * (heightMM / 10)

	meas := &Measurement{
		DiameterMM: round2(diameterMM),
		HeightMM:   round2(heightMM),
		VolumeML:   round2(volumeML),
	}
	if m.opts.ClassifySize {
		label, conf := m.classifier.Classify(meas.VolumeML)
		meas.Classification = label
		conf = round2(conf)
		meas.ConfidencePercent = &conf
	}

	if !debug {
		return meas, nil, nil
	}

	overlay, err := renderOverlay(img, cal, cand, meas)
	if err != nil {
		return nil, nil, err
	}
	return meas, overlay, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
