package fuzzy

import (
	"math"
	"strconv"
	"strings"

	"github.com/graphsim/fuzzygraph/pkg/errors"
)

// TNorm identifies a fuzzy conjunction operator.
// The string values are the identifiers the analysis service expects.
type TNorm string

// Supported t-norms.
const (
	Minimum     TNorm = "min"
	Lukasiewicz TNorm = "luk"
	Product     TNorm = "prod"
	Drastic     TNorm = "drast"
)

// All lists the supported t-norms in display order.
var All = []TNorm{Minimum, Lukasiewicz, Product, Drastic}

var displayNames = map[TNorm]string{
	Minimum:     "minimum",
	Lukasiewicz: "Łukasiewicz",
	Product:     "product",
	Drastic:     "drastic product",
}

// Valid reports whether t is one of the supported identifiers.
func (t TNorm) Valid() bool {
	_, ok := displayNames[t]
	return ok
}

// DisplayName returns the human-readable operator name.
func (t TNorm) DisplayName() string {
	if name, ok := displayNames[t]; ok {
		return name
	}
	return string(t)
}

// Next returns the t-norm following t in [All], wrapping around.
func (t TNorm) Next() TNorm {
	for i, v := range All {
		if v == t {
			return All[(i+1)%len(All)]
		}
	}
	return All[0]
}

// ParseTNorm converts an identifier (min, luk, prod, drast) to a TNorm.
// Matching ignores case and surrounding whitespace.
func ParseTNorm(s string) (TNorm, error) {
	t := TNorm(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", errors.New(errors.ErrCodeInvalidArgument, "unknown t-norm %q (want min, luk, prod or drast)", s)
	}
	return t, nil
}

// Eval computes T(x, y). Inputs are clamped into [0,1] first.
// An unknown t-norm is a programming error and yields INVALID_ARGUMENT;
// no operator is assumed by default.
func Eval(t TNorm, x, y float64) (float64, error) {
	x, y = ClampUnit(x), ClampUnit(y)
	switch t {
	case Minimum:
		return math.Min(x, y), nil
	case Lukasiewicz:
		return math.Max(x+y-1, 0), nil
	case Product:
		return x * y, nil
	case Drastic:
		if math.Max(x, y) == 1 {
			return math.Min(x, y), nil
		}
		return 0, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidArgument, "unknown t-norm %q", string(t))
	}
}

// Clamp limits v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampUnit limits v to the membership range [0,1].
func ClampUnit(v float64) float64 { return Clamp(v, 0, 1) }

// ParseMembership parses a user-entered degree and clamps it into [0,1].
// Out-of-range numbers are corrected; text that is not a number is rejected.
func ParseMembership(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) {
		return 0, errors.New(errors.ErrCodeInvalidArgument, "membership %q is not a number", s)
	}
	return ClampUnit(v), nil
}

// Round4 rounds v to four decimal places, the precision used for display.
func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
