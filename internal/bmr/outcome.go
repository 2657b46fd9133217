package bmr

// State classifies one submission attempt.
type State int

const (
	// Idle is the state before the first submission.
	Idle State = iota
	Pending
	Success
	Failure
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of a submission. Result is only meaningful
// when State is Success.
type Outcome struct {
	State  State
	Result Result
}

func Succeeded(r Result) Outcome {
	return Outcome{State: Success, Result: r}
}

func Failed() Outcome {
	return Outcome{State: Failure}
}

func InFlight() Outcome {
	return Outcome{State: Pending}
}

// BMR returns the calculated value and whether the outcome carries one.
func (o Outcome) BMR() (float64, bool) {
	if o.State != Success {
		return 0, false
	}
	return o.Result.BMR, true
}
