// Command tuner is a desktop calibration viewer: it runs the measurer on an
// image and displays the annotated overlay, for tuning HSV bounds and area
// thresholds on site.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"

	"github.com/pablonification/compfest-spartans-sub000/internal/config"
	"github.com/pablonification/compfest-spartans-sub000/internal/measure"
)

func main() {
	imagePath := flag.String("image", "", "Path to scan image")
	configPath := flag.String("config", "", "Path to YAML config (optional)")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: tuner -image <path> [-config cfg.yaml]")
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}

	measurer := measure.NewGeometryMeasurer(cfg.Measure)
	meas, overlay, err := measurer.MeasureWithDebug(data)

	var status string
	display := data
	if err != nil {
		status = fmt.Sprintf("Measurement failed: %v", err)
	} else {
		status = fmt.Sprintf("%.2f x %.2f mm  |  %.2f mL  |  %s",
			meas.DiameterMM, meas.HeightMM, meas.VolumeML, meas.Classification)
		if meas.ConfidencePercent != nil {
			status += fmt.Sprintf("  (%.1f%%)", *meas.ConfidencePercent)
		}
		display = overlay
	}

	img, _, err := image.Decode(bytes.NewReader(display))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to decode display image: %v\n", err)
		os.Exit(1)
	}

	a := app.New()
	w := a.NewWindow("Scan Tuner")

	view := canvas.NewImageFromImage(img)
	view.FillMode = canvas.ImageFillContain

	label := widget.NewLabel(status)
	label.Alignment = fyne.TextAlignCenter

	w.SetContent(container.NewBorder(nil, label, nil, nil, view))
	w.Resize(fyne.NewSize(900, 700))
	w.ShowAndRun()
}
