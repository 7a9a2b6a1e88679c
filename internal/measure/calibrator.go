package measure

import (
	"image"

	"gocv.io/x/gocv"

	"github.com/pablonification/compfest-spartans-sub000/pkg/geometry"
)

// HSV holds one end of an HSV color range.
type HSV struct {
	H float64 `mapstructure:"h"`
	S float64 `mapstructure:"s"`
	V float64 `mapstructure:"v"`
}

func (c HSV) scalar() gocv.Scalar {
	return gocv.NewScalar(c.H, c.S, c.V, 0)
}

// CalibratorOptions configures reference marker detection.
type CalibratorOptions struct {
	// Lower and Upper bound the marker color in HSV space. The defaults
	// match a near-black marker.
	Lower HSV `mapstructure:"lower"`
	Upper HSV `mapstructure:"upper"`
	// RealHeightMM is the marker's physical height. Height, not width, is
	// the calibration axis: a tall narrow marker gives a more stable height
	// reading than width.
	RealHeightMM float64 `mapstructure:"real_height_mm"`
	// MinMarkerPx is the minimum bounding box side below which a match is
	// treated as noise rather than a real marker.
	MinMarkerPx int `mapstructure:"min_marker_px"`
}

// DefaultCalibratorOptions returns calibration defaults for a black 80 mm marker.
func DefaultCalibratorOptions() CalibratorOptions {
	return CalibratorOptions{
		Lower:        HSV{H: 0, S: 0, V: 0},
		Upper:        HSV{H: 180, S: 255, V: 50},
		RealHeightMM: 80,
		MinMarkerPx:  10,
	}
}

// Calibration is the result of locating the reference marker.
type Calibration struct {
	// Scale is millimeters per pixel.
	Scale float64
	// Marker is the marker bounding box in image coordinates.
	Marker geometry.RectInt
}

// ReferenceCalibrator locates a known-color reference marker and derives the
// millimeters-per-pixel scale from its pixel height.
type ReferenceCalibrator struct {
	opts CalibratorOptions
}

// NewReferenceCalibrator creates a calibrator with the given options.
func NewReferenceCalibrator(opts CalibratorOptions) *ReferenceCalibrator {
	return &ReferenceCalibrator{opts: opts}
}

// Calibrate finds the largest contour within the configured HSV range of the
// HSV-converted image and derives the scale factor from its pixel height.
func (c *ReferenceCalibrator) Calibrate(hsvImg gocv.Mat) (Calibration, error) {
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.InRangeWithScalar(hsvImg, c.opts.Lower.scalar(), c.opts.Upper.scalar(), &mask)

	// Close to merge fragmented marker blobs
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(5, 5))
	defer kernel.Close()
	gocv.MorphologyExWithParams(mask, &mask, gocv.MorphClose, kernel, 2, gocv.BorderConstant)

	contours := gocv.FindContours(mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	bestArea := 0.0
	bestIdx := -1
	for i := 0; i < contours.Size(); i++ {
		area := gocv.ContourArea(contours.At(i))
		if area > bestArea {
			bestArea = area
			bestIdx = i
		}
	}
	if bestIdx < 0 {
		return Calibration{}, newError(ErrReferenceNotFound, "Reference object not found in image.")
	}

	rect := gocv.BoundingRect(contours.At(bestIdx))
	if rect.Dx() < c.opts.MinMarkerPx || rect.Dy() < c.opts.MinMarkerPx {
		return Calibration{}, newError(ErrReferenceTooSmall, "Reference object too small to calibrate against.")
	}

	return Calibration{
		Scale:  c.opts.RealHeightMM / float64(rect.Dy()),
		Marker: geometry.FromImageRect(rect),
	}, nil
}
