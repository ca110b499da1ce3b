package analysis

import (
	"encoding/json"
	"math"
	"testing"
)

func TestValueUnmarshal(t *testing.T) {
	tests := []struct {
		in      string
		defined bool
		want    float64
	}{
		{`2`, true, 2},
		{`0.123456`, true, 0.1235},
		{`"X"`, false, 0},
		{`null`, false, 0},
		{`"0.5"`, true, 0.5},
		{`"n/a"`, false, 0},
		{`[1]`, false, 0},
		{`"NaN"`, false, 0},
		{`"Infinity"`, false, 0},
		{`"-Inf"`, false, 0},
		{`1e308`, true, 1e308},
	}
	for _, tt := range tests {
		var v Value
		if err := json.Unmarshal([]byte(tt.in), &v); err != nil {
			t.Errorf("Unmarshal(%s): %v", tt.in, err)
			continue
		}
		got, ok := v.Float()
		if ok != tt.defined || got != tt.want {
			t.Errorf("Unmarshal(%s) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.defined)
		}
	}
}

func TestValueMissingFieldIsUndefined(t *testing.T) {
	var resp similarityResponse
	if err := json.Unmarshal([]byte(`{}`), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Similarity.Defined() {
		t.Error("absent similarity should be undefined")
	}
}

func TestNumberRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		v := Number(f)
		if v.Defined() {
			t.Errorf("Number(%v) should be undefined", f)
		}
		data, err := json.Marshal(v)
		if err != nil {
			t.Fatalf("Marshal(Number(%v)): %v", f, err)
		}
		if string(data) != `"X"` {
			t.Errorf("Marshal(Number(%v)) = %s, want \"X\"", f, data)
		}
	}
}

// A non-finite similarity from the service still encodes as JSON.
func TestNonFiniteResponseReencodes(t *testing.T) {
	var resp similarityResponse
	if err := json.Unmarshal([]byte(`{"similarity":"NaN"}`), &resp); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(resp.Similarity)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != `"X"` {
		t.Errorf("Marshal = %s, want \"X\"", data)
	}
}

func TestValueMarshalAndString(t *testing.T) {
	tests := []struct {
		v        Value
		wantJSON string
		wantStr  string
	}{
		{Number(1.0 / 3.0), `0.3333`, "0.3333"},
		{Number(2), `2`, "2"},
		{Undefined, `"X"`, "X"},
	}
	for _, tt := range tests {
		data, err := json.Marshal(tt.v)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != tt.wantJSON {
			t.Errorf("Marshal = %s, want %s", data, tt.wantJSON)
		}
		if tt.v.String() != tt.wantStr {
			t.Errorf("String() = %q, want %q", tt.v.String(), tt.wantStr)
		}
	}
}
