package measure

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// ClassifierOptions configures volume classification.
type ClassifierOptions struct {
	// Specs maps a size label to its nominal volume in mL.
	Specs map[string]float64 `mapstructure:"specs"`
	// TolerancePercent is the maximum relative deviation for a label match.
	TolerancePercent float64 `mapstructure:"tolerance_percent"`
}

// DefaultClassifierOptions returns the canonical size spec table.
func DefaultClassifierOptions() ClassifierOptions {
	return ClassifierOptions{
		Specs: map[string]float64{
			"330ml":  330,
			"600ml":  600,
			"750ml":  750,
			"1000ml": 1000,
			"1500ml": 1500,
		},
		TolerancePercent: 30,
	}
}

// SizeClassifier maps a measured volume to the nearest known bottle size.
type SizeClassifier struct {
	labels  []string
	targets []float64
	tol     float64
}

// NewSizeClassifier creates a classifier from a spec table.
func NewSizeClassifier(opts ClassifierOptions) *SizeClassifier {
	labels := make([]string, 0, len(opts.Specs))
	for label := range opts.Specs {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	targets := make([]float64, len(labels))
	for i, label := range labels {
		targets[i] = opts.Specs[label]
	}
	return &SizeClassifier{labels: labels, targets: targets, tol: opts.TolerancePercent}
}

// Classify returns the closest size label and a confidence percentage. Outside
// the tolerance the label embeds the measured volume for traceability and the
// confidence degrades gracefully without going negative.
func (c *SizeClassifier) Classify(volumeML float64) (string, float64) {
	if len(c.targets) == 0 {
		return fmt.Sprintf("Other (%gmL)", volumeML), 0
	}

	diffs := make([]float64, len(c.targets))
	for i, target := range c.targets {
		diffs[i] = math.Abs(volumeML-target) / target * 100
	}
	idx := floats.MinIdx(diffs)
	diff := diffs[idx]

	if diff <= c.tol {
		return c.labels[idx], 100 - diff
	}
	return fmt.Sprintf("Other (%gmL)", volumeML), math.Max(0, 100-diff)
}
