package measure

import (
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/pablonification/compfest-spartans-sub000/pkg/geometry"
)

// DetectorOptions configures bottle silhouette detection.
type DetectorOptions struct {
	// MinAspectRatio is the minimum visual height / visual width. Bottles
	// are tall, not squat.
	MinAspectRatio float64 `mapstructure:"min_aspect_ratio"`
	// MaxTiltDeg is the tolerance for the upright-orientation check.
	MaxTiltDeg float64 `mapstructure:"max_tilt_deg"`
	// CannyLow and CannyHigh are the edge detection thresholds.
	CannyLow  float64 `mapstructure:"canny_low"`
	CannyHigh float64 `mapstructure:"canny_high"`
}

// DefaultDetectorOptions returns default silhouette filter settings.
func DefaultDetectorOptions() DetectorOptions {
	return DetectorOptions{
		MinAspectRatio: 1.2,
		MaxTiltDeg:     20,
		CannyLow:       40,
		CannyHigh:      120,
	}
}

// Candidate describes the best-scoring bottle-shaped contour.
type Candidate struct {
	// PixelWidth and PixelHeight are orientation-normalized: PixelHeight is
	// always the longer side of the oriented bounding box.
	PixelWidth  float64
	PixelHeight float64
	Contour     []geometry.PointInt
	Box         []geometry.Point2D
}

// BottleShapeDetector finds an upright bottle silhouette in a region of
// interest via edge detection and contour analysis.
type BottleShapeDetector struct {
	opts DetectorOptions
}

// NewBottleShapeDetector creates a detector with the given options.
func NewBottleShapeDetector(opts DetectorOptions) *BottleShapeDetector {
	return &BottleShapeDetector{opts: opts}
}

// Detect searches the ROI for contours that pass the area, aspect-ratio and
// upright filters and returns the largest surviving candidate.
func (d *BottleShapeDetector) Detect(roi gocv.Mat, minAreaPx float64) (Candidate, error) {
	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(roi, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, float32(d.opts.CannyLow), float32(d.opts.CannyHigh))

	// Close to merge edge fragments into closed contours
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(5, 5))
	defer kernel.Close()
	gocv.MorphologyExWithParams(edges, &edges, gocv.MorphClose, kernel, 1, gocv.BorderConstant)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var best Candidate
	bestArea := 0.0
	found := false

	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if area < minAreaPx {
			continue
		}

		rot := gocv.MinAreaRect(contour)
		rawW := float64(rot.Width)
		rawH := float64(rot.Height)

		visualH := math.Max(rawW, rawH)
		visualW := math.Min(rawW, rawH)
		if visualW == 0 {
			continue
		}
		if visualH/visualW < d.opts.MinAspectRatio {
			continue
		}
		if !d.upright(rawW, rawH, float64(rot.Angle)) {
			continue
		}

		// Largest area wins, favoring the most prominent shape over
		// spurious small edges
		if area > bestArea {
			bestArea = area
			best = Candidate{
				PixelWidth:  visualW,
				PixelHeight: visualH,
				Contour:     geometry.FromImagePoints(contour.ToPoints()),
				Box:         boxCorners(rot.Points),
			}
			found = true
		}
	}

	if !found {
		return Candidate{}, newError(ErrBottleNotFound, "Bottle not found in ROI.")
	}
	return best, nil
}

// upright reports whether the rotated rect is standing within the tilt
// tolerance. OpenCV can report the angle relative to either axis depending on
// which side of the rect is width-dominant, so both conventions are handled.
func (d *BottleShapeDetector) upright(rawW, rawH, angleDeg float64) bool {
	abs := math.Abs(angleDeg)
	if rawH >= rawW {
		return abs < d.opts.MaxTiltDeg
	}
	return math.Abs(90-abs) < d.opts.MaxTiltDeg
}

func boxCorners(pts []image.Point) []geometry.Point2D {
	out := make([]geometry.Point2D, len(pts))
	for i, pt := range pts {
		out[i] = geometry.NewPoint2D(float64(pt.X), float64(pt.Y))
	}
	return out
}
