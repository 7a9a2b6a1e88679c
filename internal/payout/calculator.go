// Package payout converts a bottle measurement plus brand, cleanliness and
// cap-condition evidence into a Rupiah payout. The computation is pure and
// deterministic; the only externally visible branch is the hard rejection on
// low measurement confidence.
package payout

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"

	"github.com/pablonification/compfest-spartans-sub000/internal/brand"
	"github.com/pablonification/compfest-spartans-sub000/internal/measure"
)

// RoundingMode selects how the final payout is rounded to whole Rupiah.
type RoundingMode string

const (
	RoundNearest RoundingMode = "round"
	RoundCeil    RoundingMode = "ceil"
	RoundFloor   RoundingMode = "floor"
)

// ConfidenceTier maps a minimum confidence to a payout coefficient. Tiers are
// evaluated in descending threshold order; a confidence below every threshold
// is the hard rejection signal.
type ConfidenceTier struct {
	Threshold   float64 `mapstructure:"threshold"`
	Coefficient float64 `mapstructure:"coefficient"`
}

// Options is the payout coefficient and weight configuration.
type Options struct {
	// SizesML is the canonical size bucket set for the weight tables. It is
	// independent of the size classifier's spec table.
	SizesML []float64 `mapstructure:"sizes_ml"`
	// DefaultWeightsG maps a size key ("600") to the default bottle weight
	// in grams.
	DefaultWeightsG map[string]float64 `mapstructure:"default_weights_g"`
	// BrandWeightsG overrides the default weight per normalized brand and
	// size, keyed "AQUA_600".
	BrandWeightsG map[string]float64 `mapstructure:"brand_weights_g"`
	// KnownBrands lists brands that earn the full brand coefficient.
	KnownBrands []string `mapstructure:"known_brands"`
	// UnknownBrandK is the per-size discount applied when the top brand is
	// missing or unrecognized.
	UnknownBrandK   map[string]float64 `mapstructure:"unknown_brand_k"`
	PricePerKG      float64            `mapstructure:"price_per_kg"`
	ConfidenceTiers []ConfidenceTier   `mapstructure:"confidence_tiers"`
	CleanlinessK    map[string]float64 `mapstructure:"cleanliness_k"`
	CapK            map[string]float64 `mapstructure:"cap_k"`
	Rounding        RoundingMode       `mapstructure:"rounding"`
}

// DefaultOptions returns the production coefficient tables.
func DefaultOptions() Options {
	return Options{
		SizesML: []float64{330, 600, 750, 1500},
		DefaultWeightsG: map[string]float64{
			"330":  13,
			"600":  16,
			"750":  19,
			"1500": 29,
		},
		BrandWeightsG: map[string]float64{},
		KnownBrands:   []string{"AQUA", "LEMINERALE", "CLEO", "VIT", "CLUB", "PRISTINE"},
		UnknownBrandK: map[string]float64{
			"330":  0.97,
			"600":  0.96,
			"750":  0.95,
			"1500": 0.93,
		},
		PricePerKG: 3700,
		ConfidenceTiers: []ConfidenceTier{
			{Threshold: 0.85, Coefficient: 1.00},
			{Threshold: 0.70, Coefficient: 0.97},
			{Threshold: 0.50, Coefficient: 0.93},
		},
		CleanlinessK: map[string]float64{
			"clean_dry": 1.00,
			"clean_wet": 0.95,
			"dirty":     0.85,
		},
		CapK: map[string]float64{
			"with_cap": 1.00,
			"no_cap":   0.97,
			"mixed":    1.00,
		},
		Rounding: RoundNearest,
	}
}

// Result is the payout breakdown. PayoutRP == nil signals hard rejection on
// low measurement confidence; all other fields stay populated for audit
// transparency even on rejection.
type Result struct {
	PayoutRP     *int     `json:"payout_rp"`
	KBrand       float64  `json:"k_brand"`
	KConf        *float64 `json:"k_conf"`
	KClean       float64  `json:"k_clean"`
	KCap         float64  `json:"k_cap"`
	SizeKey      string   `json:"size_key"`
	WeightGUsed  float64  `json:"weight_g_used"`
	PricePerKG   float64  `json:"price_per_kg"`
	BrandKeyUsed *string  `json:"brand_key_used"`
	BaseRP       float64  `json:"base_rp"`
}

// Calculator computes payouts from immutable coefficient tables. Safe to share
// across concurrent calls.
type Calculator struct {
	opts       Options
	knownBrand map[string]bool
}

// NewCalculator creates a calculator with the given tables.
func NewCalculator(opts Options) *Calculator {
	// An empty bucket set has no nearest size; fall back to the canonical
	// buckets rather than panic on the first scan
	if len(opts.SizesML) == 0 {
		opts.SizesML = DefaultOptions().SizesML
	}
	known := make(map[string]bool, len(opts.KnownBrands))
	for _, name := range opts.KnownBrands {
		known[brand.NormalizeKey(name)] = true
	}
	// Viper lowercases nested map keys, so normalize the override table the
	// same way lookup keys are built
	overrides := make(map[string]float64, len(opts.BrandWeightsG))
	for key, weight := range opts.BrandWeightsG {
		overrides[strings.ToUpper(key)] = weight
	}
	opts.BrandWeightsG = overrides
	// Tier matching walks thresholds in descending order
	tiers := make([]ConfidenceTier, len(opts.ConfidenceTiers))
	copy(tiers, opts.ConfidenceTiers)
	sort.Slice(tiers, func(i, j int) bool { return tiers[i].Threshold > tiers[j].Threshold })
	opts.ConfidenceTiers = tiers
	return &Calculator{opts: opts, knownBrand: known}
}

// Compute derives the payout for a measurement and its brand evidence.
// Cleanliness and cap condition are caller-supplied label keys; unrecognized
// keys fall back to a neutral coefficient of 1.
func (c *Calculator) Compute(m *measure.Measurement, preds []brand.Prediction, cleanliness, capCondition string) Result {
	sizeKey, target := c.bucketSize(m.VolumeML)

	conf := c.confidence(m, target)
	kConf := c.confidenceCoefficient(conf)

	var brandKey *string
	if top := brand.Top(preds); top != nil {
		key := brand.NormalizeKey(top.Brand)
		brandKey = &key
	}

	weightG := c.opts.DefaultWeightsG[sizeKey]
	kBrand := c.unknownBrandCoefficient(sizeKey)
	if brandKey != nil {
		if override, ok := c.opts.BrandWeightsG[*brandKey+"_"+sizeKey]; ok {
			weightG = override
		}
		if c.knownBrand[*brandKey] {
			kBrand = 1.0
		}
	}

	kClean := coefficientOrNeutral(c.opts.CleanlinessK, cleanliness)
	kCap := coefficientOrNeutral(c.opts.CapK, capCondition)
	baseRP := weightG / 1000 * c.opts.PricePerKG

	res := Result{
		KBrand:       kBrand,
		KConf:        kConf,
		KClean:       kClean,
		KCap:         kCap,
		SizeKey:      sizeKey,
		WeightGUsed:  weightG,
		PricePerKG:   c.opts.PricePerKG,
		BrandKeyUsed: brandKey,
		BaseRP:       baseRP,
	}
	if kConf == nil {
		return res
	}

	total := baseRP * kBrand * *kConf * kClean * kCap
	payout := c.roundRP(total)
	res.PayoutRP = &payout
	return res
}

// bucketSize selects the nearest canonical size by absolute difference.
func (c *Calculator) bucketSize(volumeML float64) (string, float64) {
	diffs := make([]float64, len(c.opts.SizesML))
	for i, size := range c.opts.SizesML {
		diffs[i] = math.Abs(volumeML - size)
	}
	target := c.opts.SizesML[floats.MinIdx(diffs)]
	return strconv.Itoa(int(target)), target
}

// confidence normalizes the measurement confidence to [0,1], deriving a
// conservative value from volume closeness when the measurement carries none.
func (c *Calculator) confidence(m *measure.Measurement, target float64) float64 {
	if m.ConfidencePercent != nil {
		return clamp01(*m.ConfidencePercent / 100)
	}
	return clamp01(1 - math.Abs(m.VolumeML-target)/target)
}

// confidenceCoefficient buckets the confidence into a tier coefficient. No
// matching tier means rejection, expressed as nil rather than a NaN sentinel.
func (c *Calculator) confidenceCoefficient(conf float64) *float64 {
	for _, tier := range c.opts.ConfidenceTiers {
		if conf >= tier.Threshold {
			k := tier.Coefficient
			return &k
		}
	}
	return nil
}

func (c *Calculator) unknownBrandCoefficient(sizeKey string) float64 {
	if k, ok := c.opts.UnknownBrandK[sizeKey]; ok {
		return k
	}
	return 0.95
}

func (c *Calculator) roundRP(total float64) int {
	switch c.opts.Rounding {
	case RoundCeil:
		return int(math.Ceil(total))
	case RoundFloor:
		return int(math.Floor(total))
	default:
		return int(math.Round(total))
	}
}

func coefficientOrNeutral(table map[string]float64, key string) float64 {
	if k, ok := table[key]; ok {
		return k
	}
	return 1.0
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}
