package measure

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"gocv.io/x/gocv"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// decodeImage decodes raw image bytes into a BGR Mat. JPEG and PNG go through
// OpenCV directly; other camera upload formats (TIFF, BMP, WebP) fall back to
// the Go image decoders registered above.
func decodeImage(data []byte) (gocv.Mat, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err == nil && !mat.Empty() {
		return mat, nil
	}
	if err == nil {
		mat.Close()
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return gocv.Mat{}, newError(ErrDecode, "Invalid image data provided.")
	}
	mat, err = gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, newError(ErrDecode, "Invalid image data provided.")
	}
	// The fallback decodes in RGB order while the rest of the pipeline
	// expects BGR. The swap is symmetric.
	gocv.CvtColor(mat, &mat, gocv.ColorBGRToRGB)
	return mat, nil
}
