package measure

import (
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/pablonification/compfest-spartans-sub000/pkg/geometry"
)

var (
	overlayGreen = color.RGBA{G: 255, A: 255}
	overlayRed   = color.RGBA{R: 255, A: 255}
	overlayBlue  = color.RGBA{B: 255, A: 255}
)

// renderOverlay draws the calibration box, bottle contour and oriented box on
// a copy of the source image and encodes it as JPEG.
func renderOverlay(img gocv.Mat, cal Calibration, cand Candidate, meas *Measurement) ([]byte, error) {
	annotated := img.Clone()
	defer annotated.Close()

	gocv.Rectangle(&annotated, cal.Marker.ToImageRect(), overlayGreen, 2)
	gocv.PutText(&annotated, fmt.Sprintf("ref %.2f mm/px", cal.Scale),
		image.Pt(cal.Marker.X, cal.Marker.Y+cal.Marker.Height+20),
		gocv.FontHersheySimplex, 0.5, overlayGreen, 1)

	contour := gocv.NewPointsVectorFromPoints([][]image.Point{geometry.ToImagePoints(cand.Contour)})
	defer contour.Close()
	gocv.DrawContours(&annotated, contour, 0, overlayRed, 2)

	for i := range cand.Box {
		next := cand.Box[(i+1)%len(cand.Box)]
		gocv.Line(&annotated, cand.Box[i].ToImagePoint(), next.ToImagePoint(), overlayBlue, 2)
	}

	label := fmt.Sprintf("%.1f x %.1f mm  %.1f mL", meas.DiameterMM, meas.HeightMM, meas.VolumeML)
	textOrigin := geometry.Centroid(cand.Box).ToImagePoint()
	textOrigin.Y -= int(cand.PixelHeight/2) + 10
	if textOrigin.Y < 20 {
		textOrigin.Y = 20
	}
	gocv.PutText(&annotated, label, textOrigin, gocv.FontHersheySimplex, 0.6, overlayBlue, 2)
	if meas.Classification != "" {
		gocv.PutText(&annotated, meas.Classification,
			image.Pt(textOrigin.X, textOrigin.Y+22), gocv.FontHersheySimplex, 0.6, overlayBlue, 2)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, annotated)
	if err != nil {
		return nil, fmt.Errorf("encode debug overlay: %w", err)
	}
	defer buf.Close()
	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
