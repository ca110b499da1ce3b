package analysis

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/graphsim/fuzzygraph/pkg/fuzzy"
)

// UndefinedMarker is how the service and the UI spell "not computable".
const UndefinedMarker = "X"

// Value is a numeric analysis result that may be undefined.
// The zero Value is undefined.
type Value struct {
	v       float64
	defined bool
}

// Undefined is the "X" result.
var Undefined = Value{}

// Number returns a value rounded to four decimal places. NaN and the
// infinities have no numeric reading and yield Undefined.
func Number(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined
	}
	if r := fuzzy.Round4(v); !math.IsInf(r, 0) {
		v = r
	}
	return Value{v: v, defined: true}
}

// Defined reports whether v holds a number.
func (v Value) Defined() bool { return v.defined }

// Float returns the number and whether it is defined.
func (v Value) Float() (float64, bool) { return v.v, v.defined }

// String formats the value for display: up to four decimals, or "X".
func (v Value) String() string {
	if !v.defined {
		return UndefinedMarker
	}
	return strconv.FormatFloat(v.v, 'f', -1, 64)
}

// MarshalJSON encodes a number, or the string "X" when undefined.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.defined {
		return []byte(`"` + UndefinedMarker + `"`), nil
	}
	return json.Marshal(v.v)
}

// UnmarshalJSON accepts a number, a numeric string, "X" or null.
// Anything without a finite numeric reading, "NaN" and "Infinity"
// included, decodes as undefined.
func (v *Value) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*v = Undefined
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		*v = Number(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*v = Number(f)
		}
	}
	return nil
}
