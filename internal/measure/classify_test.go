package measure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyNearestSpecWithinTolerance(t *testing.T) {
	c := NewSizeClassifier(ClassifierOptions{
		Specs:            map[string]float64{"600mL": 600, "1000mL": 1000},
		TolerancePercent: 30,
	})

	label, conf := c.Classify(620)

	assert.Equal(t, "600mL", label)
	assert.InDelta(t, 96.67, conf, 0.01)
}

func TestClassifyOutsideToleranceFallsBackToOther(t *testing.T) {
	c := NewSizeClassifier(ClassifierOptions{
		Specs:            map[string]float64{"200mL": 200, "500mL": 500, "1000mL": 1000},
		TolerancePercent: 30,
	})

	label, conf := c.Classify(1500)

	assert.Equal(t, "Other (1500mL)", label)
	assert.InDelta(t, 66.67, conf, 0.01)
}

func TestClassifyConfidenceNeverNegative(t *testing.T) {
	c := NewSizeClassifier(ClassifierOptions{
		Specs:            map[string]float64{"330ml": 330},
		TolerancePercent: 30,
	})

	label, conf := c.Classify(10000)

	assert.Equal(t, "Other (10000mL)", label)
	assert.Equal(t, 0.0, conf)
}

func TestClassifyIdempotent(t *testing.T) {
	c := NewSizeClassifier(DefaultClassifierOptions())

	label1, conf1 := c.Classify(745)
	label2, conf2 := c.Classify(745)

	assert.Equal(t, label1, label2)
	assert.Equal(t, conf1, conf2)
	assert.Equal(t, "750ml", label1)
}

func TestClassifySelectsClosestNotFirst(t *testing.T) {
	c := NewSizeClassifier(DefaultClassifierOptions())

	label, _ := c.Classify(1480)

	assert.Equal(t, "1500ml", label)
}
