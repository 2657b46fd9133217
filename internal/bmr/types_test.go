package bmr

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseGender(t *testing.T) {
	tests := []struct {
		in   string
		want Gender
	}{
		{in: "man", want: Male},
		{in: "male", want: Male},
		{in: " Woman ", want: Female},
		{in: "female", want: Female},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseGender(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestParseGenderRejectsUnknownValue(t *testing.T) {
	_, err := ParseGender("other")
	if !errors.Is(err, ErrUnknownGender) {
		t.Fatalf("expected ErrUnknownGender, got %v", err)
	}
}

func TestPayloadWireFormat(t *testing.T) {
	p := Payload{Gender: Male, Age: 30, Height: 170, Weight: 65, ExerciseIntensity: 1.5}

	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("encoding payload: %v", err)
	}

	want := `{"gender":"man","age":30,"height":170,"weight":65,"exerciseIntensity":1.5}`
	if string(raw) != want {
		t.Fatalf("expected %s, got %s", want, raw)
	}
}

func TestFormatBMR(t *testing.T) {
	tests := map[float64]string{
		1650:      "1650.00",
		1432.456:  "1432.46",
		0:         "0.00",
		1499.9999: "1500.00",
	}

	for in, want := range tests {
		if got := FormatBMR(in); got != want {
			t.Fatalf("FormatBMR(%g): expected %q, got %q", in, want, got)
		}
	}
}

func TestOutcomeBMROnlyOnSuccess(t *testing.T) {
	if _, ok := Failed().BMR(); ok {
		t.Fatal("did not expect a BMR on failure")
	}
	if _, ok := InFlight().BMR(); ok {
		t.Fatal("did not expect a BMR while pending")
	}

	v, ok := Succeeded(Result{BMR: 1650}).BMR()
	if !ok || v != 1650 {
		t.Fatalf("expected 1650, got %g (ok=%t)", v, ok)
	}
}
