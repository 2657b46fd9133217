package bmr

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownGender is returned by ParseGender for values outside the form's select options.
var ErrUnknownGender = errors.New("unknown gender")

// Gender is the wire value sent to the calculation service.
type Gender string

const (
	Male   Gender = "man"
	Female Gender = "woman"
)

// ParseGender accepts the wire values and their "male"/"female" aliases.
func ParseGender(s string) (Gender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "man", "male":
		return Male, nil
	case "woman", "female":
		return Female, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownGender, s)
	}
}

// Payload is the JSON body for POST <base>/calculate.
type Payload struct {
	Gender            Gender  `json:"gender"`
	Age               float64 `json:"age"`
	Height            float64 `json:"height"`
	Weight            float64 `json:"weight"`
	ExerciseIntensity float64 `json:"exerciseIntensity"`
}

// Result is the JSON response of the calculation endpoint.
type Result struct {
	BMR float64 `json:"bmr"`
}

// Display renders the BMR with two decimals, e.g. "1650.00".
func (r Result) Display() string {
	return FormatBMR(r.BMR)
}

func FormatBMR(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
