// Command scantest runs the bottle scan pipeline on an image and prints the
// measurement, payout breakdown and final decision.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/pablonification/compfest-spartans-sub000/internal/actuator"
	"github.com/pablonification/compfest-spartans-sub000/internal/brand"
	"github.com/pablonification/compfest-spartans-sub000/internal/config"
	"github.com/pablonification/compfest-spartans-sub000/internal/measure"
	"github.com/pablonification/compfest-spartans-sub000/internal/payout"
	"github.com/pablonification/compfest-spartans-sub000/internal/scan"
	"github.com/pablonification/compfest-spartans-sub000/internal/version"
)

func main() {
	imagePath := flag.String("image", "", "Path to scan image (JPEG, PNG, TIFF, or BMP)")
	configPath := flag.String("config", "", "Path to YAML config (optional)")
	debugPath := flag.String("debug", "", "Write annotated debug image to this path")
	classifierURL := flag.String("classifier-url", "", "Brand classifier endpoint (optional)")
	serialPort := flag.String("serial-port", "", "Lid controller serial port (optional)")
	cleanliness := flag.String("clean", "clean_dry", "Cleanliness label key")
	capCondition := flag.String("cap", "mixed", "Cap condition label key")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: scantest -image <path> [-config cfg.yaml] [-debug out.jpg] [-classifier-url URL] [-serial-port /dev/ttyUSB0]")
		os.Exit(1)
	}
	fmt.Printf("scantest %s\n", version.Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *classifierURL != "" {
		cfg.Brand.URL = *classifierURL
	}
	if *serialPort != "" {
		cfg.Actuator.Port = *serialPort
	}

	data, err := os.ReadFile(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}

	measurer := measure.NewGeometryMeasurer(cfg.Measure)
	if *debugPath != "" {
		_, overlay, err := measurer.MeasureWithDebug(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Measurement failed: %v\n", err)
		} else if err := os.WriteFile(*debugPath, overlay, 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write debug image: %v\n", err)
		}
	}

	var classifier scan.Classifier
	if cfg.Brand.URL != "" {
		classifier = brand.NewClient(cfg.Brand)
	}
	var lid scan.LidActuator
	if cfg.Actuator.Port != "" {
		l, err := actuator.Connect(cfg.Actuator)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to connect lid controller: %v\n", err)
			os.Exit(1)
		}
		defer l.Close()
		lid = l
	}

	validator := scan.NewValidator(cfg.Validator, payout.NewCalculator(cfg.Payout))
	svc := scan.NewService(cfg.Service, measurer, classifier, validator, lid)

	res, err := svc.ProcessScan(context.Background(), data, *cleanliness, *capCondition)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Scan failed: %v\n", err)
		os.Exit(1)
	}
	printResult(res)
}

func printMeasurement(m *measure.Measurement) {
	fmt.Printf("Measured: %.2f x %.2f mm, %.2f mL", m.DiameterMM, m.HeightMM, m.VolumeML)
	if m.Classification != "" {
		fmt.Printf(" (%s", m.Classification)
		if m.ConfidencePercent != nil {
			fmt.Printf(", %.1f%%", *m.ConfidencePercent)
		}
		fmt.Print(")")
	}
	fmt.Println()
}

func printResult(res *scan.Result) {
	printMeasurement(res.Measurement)
	if res.Brand != nil {
		fmt.Printf("Brand: %s (%.2f)\n", *res.Brand, *res.Confidence)
	} else {
		fmt.Println("Brand: not detected")
	}
	if p := res.Payout; p != nil {
		fmt.Printf("Payout: size=%s weight=%gg base=%.2f k_brand=%.2f k_clean=%.2f k_cap=%.2f",
			p.SizeKey, p.WeightGUsed, p.BaseRP, p.KBrand, p.KClean, p.KCap)
		if p.KConf != nil {
			fmt.Printf(" k_conf=%.2f", *p.KConf)
		}
		fmt.Println()
	}
	if res.IsValid {
		fmt.Printf("ACCEPTED: %d points\n", res.PointsAwarded)
	} else {
		fmt.Printf("REJECTED: %s\n", res.Reason)
	}
}
