package measure

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
	"golang.org/x/image/bmp"
)

// syntheticScan renders a white frame with a black reference marker at the
// bottom and a gray bottle silhouette above it, PNG-encoded. With an 80 px
// marker and the default 80 mm real height the scale is exactly 1 mm/px.
func syntheticScan(t *testing.T, markerHeightPx int, withBottle bool) []byte {
	t.Helper()

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 700, 400, gocv.MatTypeCV8UC3)
	defer img.Close()

	gocv.Rectangle(&img, image.Rect(170, 680-markerHeightPx, 230, 680), color.RGBA{A: 255}, -1)
	if withBottle {
		// 65 x 180 px silhouette, fully inside the ROI above the marker
		gocv.Rectangle(&img, image.Rect(168, 330, 233, 510), color.RGBA{R: 120, G: 120, B: 120, A: 255}, -1)
	}

	return encodePNG(t, img)
}

func TestMeasureSyntheticBottle(t *testing.T) {
	m := NewGeometryMeasurer(DefaultMeasurerOptions())

	meas, err := m.Measure(syntheticScan(t, 80, true))
	require.NoError(t, err)

	assert.InDelta(t, 65, meas.DiameterMM, 5)
	assert.InDelta(t, 180, meas.HeightMM, 5)
	// cylinder approximation of 65 x 180 mm is just under 600 mL
	assert.InDelta(t, 597, meas.VolumeML, 90)
	assert.Equal(t, "600ml", meas.Classification)
	require.NotNil(t, meas.ConfidencePercent)
	assert.Greater(t, *meas.ConfidencePercent, 70.0)
}

func TestMeasureIsDeterministic(t *testing.T) {
	m := NewGeometryMeasurer(DefaultMeasurerOptions())
	data := syntheticScan(t, 80, true)

	first, err := m.Measure(data)
	require.NoError(t, err)
	second, err := m.Measure(data)
	require.NoError(t, err)

	assert.Equal(t, *first, *second)
}

func TestMeasureScaleTracksMarkerHeight(t *testing.T) {
	m := NewGeometryMeasurer(DefaultMeasurerOptions())

	unit, err := m.Measure(syntheticScan(t, 80, true))
	require.NoError(t, err)

	// Half the marker pixel height doubles the scale and every derived
	// millimeter value with it.
	doubled, err := m.Measure(syntheticScan(t, 40, true))
	require.NoError(t, err)

	assert.InDelta(t, 2*unit.DiameterMM, doubled.DiameterMM, 8)
	assert.InDelta(t, 2*unit.HeightMM, doubled.HeightMM, 8)
}

func TestMeasureWithDebugReturnsJPEG(t *testing.T) {
	m := NewGeometryMeasurer(DefaultMeasurerOptions())

	meas, overlay, err := m.MeasureWithDebug(syntheticScan(t, 80, true))
	require.NoError(t, err)
	require.NotNil(t, meas)

	require.NotEmpty(t, overlay)
	// JPEG SOI marker
	assert.Equal(t, []byte{0xff, 0xd8}, overlay[:2])
}

func TestMeasureInvalidImageData(t *testing.T) {
	m := NewGeometryMeasurer(DefaultMeasurerOptions())

	_, err := m.Measure([]byte("not an image"))

	me, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrDecode, me.Kind)
}

func TestMeasureMissingReferenceMarker(t *testing.T) {
	m := NewGeometryMeasurer(DefaultMeasurerOptions())

	blank := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 700, 400, gocv.MatTypeCV8UC3)
	defer blank.Close()

	_, err := m.Measure(encodePNG(t, blank))

	me, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrReferenceNotFound, me.Kind)
}

func TestMeasureBottleAbsent(t *testing.T) {
	m := NewGeometryMeasurer(DefaultMeasurerOptions())

	_, err := m.Measure(syntheticScan(t, 80, false))

	me, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrBottleNotFound, me.Kind)
}

func encodePNG(t *testing.T, img gocv.Mat) []byte {
	t.Helper()

	buf, err := gocv.IMEncode(gocv.PNGFileExt, img)
	require.NoError(t, err)
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out
}

func TestMeasureReferenceMarkerTooSmall(t *testing.T) {
	m := NewGeometryMeasurer(DefaultMeasurerOptions())

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 700, 400, gocv.MatTypeCV8UC3)
	defer img.Close()
	// An 8 px speck is below the noise floor for a usable marker
	gocv.Rectangle(&img, image.Rect(196, 672, 204, 680), color.RGBA{A: 255}, -1)

	_, err := m.Measure(encodePNG(t, img))

	me, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrReferenceTooSmall, me.Kind)
}

func TestMeasureRejectsSquatShape(t *testing.T) {
	m := NewGeometryMeasurer(DefaultMeasurerOptions())

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 700, 400, gocv.MatTypeCV8UC3)
	defer img.Close()
	gocv.Rectangle(&img, image.Rect(170, 600, 230, 680), color.RGBA{A: 255}, -1)
	// A near-square blob fails the aspect-ratio filter
	gocv.Rectangle(&img, image.Rect(160, 350, 235, 425), color.RGBA{R: 120, G: 120, B: 120, A: 255}, -1)

	_, err := m.Measure(encodePNG(t, img))

	me, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrBottleNotFound, me.Kind)
}

func TestMeasureRejectsTiltedShape(t *testing.T) {
	m := NewGeometryMeasurer(DefaultMeasurerOptions())

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 700, 400, gocv.MatTypeCV8UC3)
	defer img.Close()
	gocv.Rectangle(&img, image.Rect(170, 600, 230, 680), color.RGBA{A: 255}, -1)
	// A thick diagonal stroke is tall and bottle-proportioned but lies at
	// roughly 45 degrees, well past the upright tolerance
	gocv.Line(&img, image.Pt(120, 320), image.Pt(280, 480), color.RGBA{R: 120, G: 120, B: 120, A: 255}, 40)

	_, err := m.Measure(encodePNG(t, img))

	me, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrBottleNotFound, me.Kind)
}

func TestMeasureBMPFallbackKeepsChannelOrder(t *testing.T) {
	// A colored marker tells the channel orders apart: a blue marker decoded
	// into the wrong order reads as red and calibration fails.
	img := image.NewRGBA(image.Rect(0, 0, 400, 700))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(170, 600, 230, 680), image.NewUniform(color.RGBA{B: 255, A: 255}), image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(168, 330, 233, 510), image.NewUniform(color.RGBA{R: 120, G: 120, B: 120, A: 255}), image.Point{}, draw.Src)

	var buf bytes.Buffer
	require.NoError(t, bmp.Encode(&buf, img))

	opts := DefaultMeasurerOptions()
	opts.Calibrator.Lower = HSV{H: 100, S: 150, V: 50}
	opts.Calibrator.Upper = HSV{H: 140, S: 255, V: 255}
	m := NewGeometryMeasurer(opts)

	meas, err := m.Measure(buf.Bytes())
	require.NoError(t, err)
	assert.InDelta(t, 65, meas.DiameterMM, 5)
	assert.InDelta(t, 180, meas.HeightMM, 5)
}

func TestMeasureEmptyROIAboveMarker(t *testing.T) {
	m := NewGeometryMeasurer(DefaultMeasurerOptions())

	img := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(255, 255, 255, 0), 700, 400, gocv.MatTypeCV8UC3)
	defer img.Close()
	// Marker flush with the top edge leaves nothing to measure above it
	gocv.Rectangle(&img, image.Rect(170, 0, 230, 80), color.RGBA{A: 255}, -1)

	_, err := m.Measure(encodePNG(t, img))

	me, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, ErrEmptyROI, me.Kind)
}
