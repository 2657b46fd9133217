package form

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"bmr-form/internal/bmr"
)

var (
	ErrUnknownField         = errors.New("unknown form field")
	ErrValidationIncomplete = errors.New("all fields are required")
)

// Field names a form input. The values double as HTML input names and API
// path segments.
type Field string

const (
	FieldGender         Field = "gender"
	FieldAge            Field = "age"
	FieldHeight         Field = "height"
	FieldWeight         Field = "weight"
	FieldActivityFactor Field = "activityFactor"
)

// Fields lists every input in display order.
var Fields = []Field{FieldGender, FieldAge, FieldHeight, FieldWeight, FieldActivityFactor}

// ParseField accepts the field names plus "exerciseIntensity", the payload
// name of the activity factor.
func ParseField(s string) (Field, error) {
	switch s {
	case string(FieldGender), string(FieldAge), string(FieldHeight), string(FieldWeight), string(FieldActivityFactor):
		return Field(s), nil
	case "exerciseIntensity":
		return FieldActivityFactor, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
}

// Number is an optional numeric input. The zero value is absent.
type Number struct {
	Value   float64
	Present bool
}

func Absent() Number {
	return Number{}
}

func Of(v float64) Number {
	return Number{Value: v, Present: true}
}

// ParseNumber mirrors a permissive number input: an empty string is absent,
// anything else is stored as parsed. Unparsable text becomes NaN and values
// are never clamped.
func ParseNumber(raw string) Number {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Absent()
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return Of(math.NaN())
	}
	return Of(v)
}

// String renders the value for an input element; absent renders empty.
func (n Number) String() string {
	if !n.Present {
		return ""
	}
	return strconv.FormatFloat(n.Value, 'f', -1, 64)
}

// State holds the five form inputs.
type State struct {
	Gender         bmr.Gender
	Age            Number
	Height         Number
	Weight         Number
	ActivityFactor Number
}

// NewState returns the mount-time state: default gender, all numbers absent.
func NewState() State {
	return State{Gender: bmr.Male}
}

// Missing returns the absent fields in display order.
func (s State) Missing() []Field {
	var missing []Field
	if s.Gender == "" {
		missing = append(missing, FieldGender)
	}
	for _, f := range []struct {
		field Field
		n     Number
	}{
		{FieldAge, s.Age},
		{FieldHeight, s.Height},
		{FieldWeight, s.Weight},
		{FieldActivityFactor, s.ActivityFactor},
	} {
		if !f.n.Present {
			missing = append(missing, f.field)
		}
	}
	return missing
}

// Complete reports whether a payload can be built.
func (s State) Complete() bool {
	return len(s.Missing()) == 0
}

// Payload projects a complete state onto the request body. It is the
// validation gate: any absent field yields ErrValidationIncomplete.
func (s State) Payload() (bmr.Payload, error) {
	if missing := s.Missing(); len(missing) > 0 {
		return bmr.Payload{}, fmt.Errorf("%w: missing %v", ErrValidationIncomplete, missing)
	}

	return bmr.Payload{
		Gender:            s.Gender,
		Age:               s.Age.Value,
		Height:            s.Height.Value,
		Weight:            s.Weight.Value,
		ExerciseIntensity: s.ActivityFactor.Value,
	}, nil
}

// Value returns the display value of field f.
func (s State) Value(f Field) string {
	switch f {
	case FieldGender:
		return string(s.Gender)
	case FieldAge:
		return s.Age.String()
	case FieldHeight:
		return s.Height.String()
	case FieldWeight:
		return s.Weight.String()
	case FieldActivityFactor:
		return s.ActivityFactor.String()
	default:
		return ""
	}
}

// set applies a raw input value to field f.
func (s *State) set(f Field, raw string) error {
	switch f {
	case FieldGender:
		g, err := bmr.ParseGender(raw)
		if err != nil {
			return err
		}
		s.Gender = g
	case FieldAge:
		s.Age = ParseNumber(raw)
	case FieldHeight:
		s.Height = ParseNumber(raw)
	case FieldWeight:
		s.Weight = ParseNumber(raw)
	case FieldActivityFactor:
		s.ActivityFactor = ParseNumber(raw)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, f)
	}
	return nil
}
