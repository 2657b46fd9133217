package web

import (
	"bmr-form/internal/bmr"
	"bmr-form/internal/form"

	"github.com/dustin/go-humanize"
)

// FieldRequest is the JSON body for PUT /api/forms/{id}/fields/{field}.
type FieldRequest struct {
	Value string `json:"value"`
}

// FormResponse is the JSON view of a mounted form. Field values are the raw
// display strings; absent fields are empty.
type FormResponse struct {
	ID                 string            `json:"id"`
	Fields             map[string]string `json:"fields"`
	Missing            []string          `json:"missing"`
	Outcome            string            `json:"outcome"`
	BMR                *float64          `json:"bmr,omitempty"`
	BMRDisplay         string            `json:"bmr_display,omitempty"`
	AccessCount        int64             `json:"access_count"`
	AccessCountDisplay string            `json:"access_count_display"`
}

func newFormResponse(id string, snap form.Snapshot) FormResponse {
	resp := FormResponse{
		ID:                 id,
		Fields:             make(map[string]string, len(form.Fields)),
		Missing:            []string{},
		Outcome:            snap.Outcome.State.String(),
		AccessCount:        snap.AccessCount,
		AccessCountDisplay: humanize.Comma(snap.AccessCount),
	}

	for _, f := range form.Fields {
		resp.Fields[string(f)] = snap.State.Value(f)
	}
	for _, f := range snap.State.Missing() {
		resp.Missing = append(resp.Missing, string(f))
	}

	if v, ok := snap.Outcome.BMR(); ok {
		resp.BMR = &v
		resp.BMRDisplay = bmr.FormatBMR(v)
	}

	return resp
}

// inputView is one numeric input on the calculator page.
type inputView struct {
	Name  string
	Label string
	Value string
	Hint  string
}

// calculatorView feeds the "calculator" template.
type calculatorView struct {
	Gender      string
	Inputs      []inputView
	Loading     bool
	Failed      bool
	BMR         string
	AccessCount string
	// Notice explains why a form post was rejected.
	Notice string
}

var inputLabels = map[form.Field]struct{ label, hint string }{
	form.FieldAge:            {label: "Age"},
	form.FieldHeight:         {label: "Height (cm)"},
	form.FieldWeight:         {label: "Weight (kg)"},
	form.FieldActivityFactor: {label: "Activity level (multiplier)", hint: "Enter the multiplier from the activity table closest to your daily routine."},
}

func newCalculatorView(snap form.Snapshot) calculatorView {
	v := calculatorView{
		Gender:      string(snap.State.Gender),
		Loading:     snap.Outcome.State == bmr.Pending,
		Failed:      snap.Outcome.State == bmr.Failure,
		AccessCount: humanize.Comma(snap.AccessCount),
	}

	for _, f := range form.Fields {
		meta, ok := inputLabels[f]
		if !ok {
			continue
		}
		v.Inputs = append(v.Inputs, inputView{
			Name:  string(f),
			Label: meta.label,
			Value: snap.State.Value(f),
			Hint:  meta.hint,
		})
	}

	if bmrValue, ok := snap.Outcome.BMR(); ok {
		v.BMR = bmr.FormatBMR(bmrValue)
	}

	return v
}
