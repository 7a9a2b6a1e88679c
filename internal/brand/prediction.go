// Package brand holds the external brand-prediction types and the HTTP client
// for the remote classification model. The model is an opaque oracle: the
// pipeline only relies on each prediction carrying a brand string and a
// confidence in [0,1].
package brand

import (
	"strings"
	"unicode"

	"github.com/pablonification/compfest-spartans-sub000/pkg/geometry"
)

// Prediction is one brand guess from the external classifier. Read-only
// evidence; never mutated by the pipeline.
type Prediction struct {
	Brand      string            `json:"brand"`
	Confidence float64           `json:"confidence"`
	Box        *geometry.RectInt `json:"box,omitempty"`
}

// Top returns the highest-confidence prediction, or nil when none were supplied.
func Top(preds []Prediction) *Prediction {
	var best *Prediction
	for i := range preds {
		if best == nil || preds[i].Confidence > best.Confidence {
			best = &preds[i]
		}
	}
	return best
}

// NormalizeKey uppercases a brand name and strips everything that is not a
// letter or digit, so "Le Minerale" and "le-minerale" key identically.
func NormalizeKey(name string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
