package fusion

import "fmt"

// Normalizer maps a raw similarity score onto [0, 1].
type Normalizer func(raw float64) float64

// Normalizer names accepted in configuration.
const (
	NormalizerCosine = "cosine"
	NormalizerUnit   = "unit"
)

// Cosine maps cosine similarity in [-1, 1] to (s+1)/2.
func Cosine(raw float64) float64 { return clamp01((raw + 1) / 2) }

// Unit treats raw as already in [0, 1] and only clamps it.
func Unit(raw float64) float64 { return clamp01(raw) }

// NormalizerByName resolves a configured normalizer.
func NormalizerByName(name string) (Normalizer, error) {
	switch name {
	case "", NormalizerCosine:
		return Cosine, nil
	case NormalizerUnit:
		return Unit, nil
	default:
		return nil, fmt.Errorf("unknown normalizer %q", name)
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
