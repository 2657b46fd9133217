package form

import (
	"context"
	"errors"
	"sync"
	"testing"

	"bmr-form/internal/bmr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"pgregory.net/rapid"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	outcome  bmr.Outcome
	payloads []bmr.Payload

	// started, when set, is closed on the first call; the call then blocks on release.
	started chan struct{}
	release chan struct{}
	panics  bool
}

func (d *fakeDispatcher) Dispatch(ctx context.Context, p bmr.Payload) bmr.Outcome {
	d.mu.Lock()
	d.payloads = append(d.payloads, p)
	started, release := d.started, d.release
	d.started = nil
	d.mu.Unlock()

	if started != nil {
		close(started)
		<-release
	}
	if d.panics {
		panic("dispatcher exploded")
	}
	return d.outcome
}

func (d *fakeDispatcher) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.payloads)
}

type fakeCounter struct {
	count int64
	err   error
	calls int
}

func (c *fakeCounter) FetchAccessCount(ctx context.Context) (int64, error) {
	c.calls++
	return c.count, c.err
}

// tb is satisfied by both *testing.T and *rapid.T.
type tb interface {
	require.TestingT
	Helper()
}

func fillForm(t tb, c *Controller) {
	t.Helper()
	for f, v := range map[Field]string{
		FieldGender:         "man",
		FieldAge:            "30",
		FieldHeight:         "170",
		FieldWeight:         "65",
		FieldActivityFactor: "1.5",
	} {
		require.NoError(t, c.UpdateField(f, v))
	}
}

func TestSubmitSuccess(t *testing.T) {
	d := &fakeDispatcher{outcome: bmr.Succeeded(bmr.Result{BMR: 1650})}
	c := NewController(d, nil)
	fillForm(t, c)

	outcome, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, bmr.Success, outcome.State)
	assert.Equal(t, "1650.00", outcome.Result.Display())
	assert.Equal(t, outcome, c.Snapshot().Outcome)

	require.Len(t, d.payloads, 1)
	assert.Equal(t, bmr.Payload{Gender: bmr.Male, Age: 30, Height: 170, Weight: 65, ExerciseIntensity: 1.5}, d.payloads[0])
}

func TestSubmitFailure(t *testing.T) {
	d := &fakeDispatcher{outcome: bmr.Failed()}
	c := NewController(d, nil)
	fillForm(t, c)

	outcome, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, bmr.Failure, outcome.State)
	assert.Equal(t, bmr.Failure, c.Snapshot().Outcome.State)
}

func TestSubmitTreatsNonTerminalDispatchResultAsFailure(t *testing.T) {
	d := &fakeDispatcher{outcome: bmr.InFlight()}
	c := NewController(d, nil)
	fillForm(t, c)

	outcome, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrRequestFailed)
	assert.Equal(t, bmr.Failure, outcome.State)
}

func TestSubmitIncompleteLeavesOutcomeUnchanged(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := &fakeDispatcher{outcome: bmr.Succeeded(bmr.Result{BMR: 1})}
		c := NewController(d, nil)

		numeric := []Field{FieldAge, FieldHeight, FieldWeight, FieldActivityFactor}
		present := rapid.SliceOfN(rapid.Bool(), len(numeric), len(numeric)).Draw(rt, "present")
		present[rapid.IntRange(0, len(numeric)-1).Draw(rt, "absent")] = false

		for i, f := range numeric {
			raw := ""
			if present[i] {
				raw = rapid.StringMatching(`[0-9]{1,3}(\.[0-9]{1,2})?`).Draw(rt, string(f))
			}
			if err := c.UpdateField(f, raw); err != nil {
				rt.Fatalf("update %s: %v", f, err)
			}
		}

		before := c.Snapshot().Outcome

		_, err := c.Submit(context.Background())
		if !errors.Is(err, ErrValidationIncomplete) {
			rt.Fatalf("expected ErrValidationIncomplete, got %v", err)
		}
		if got := c.Snapshot().Outcome; got != before {
			rt.Fatalf("outcome changed from %v to %v", before, got)
		}
		if d.calls() != 0 {
			rt.Fatalf("expected no dispatch, got %d", d.calls())
		}
	})
}

func TestSubmitCompleteAlwaysLeavesPending(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		succeed := rapid.Bool().Draw(rt, "succeed")
		outcome := bmr.Failed()
		if succeed {
			outcome = bmr.Succeeded(bmr.Result{BMR: rapid.Float64Range(0, 5000).Draw(rt, "bmr")})
		}

		c := NewController(&fakeDispatcher{outcome: outcome}, nil)
		fillForm(rt, c)

		got, _ := c.Submit(context.Background())
		if got.State != bmr.Success && got.State != bmr.Failure {
			rt.Fatalf("expected terminal state, got %v", got.State)
		}
		if s := c.Snapshot().Outcome.State; s == bmr.Pending {
			rt.Fatal("controller still pending after submit returned")
		}
	})
}

func TestSubmitIsPendingWhileDispatchingAndRejectsReentry(t *testing.T) {
	d := &fakeDispatcher{
		outcome: bmr.Succeeded(bmr.Result{BMR: 1500}),
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	started := d.started
	c := NewController(d, nil)
	fillForm(t, c)

	done := make(chan error, 1)
	go func() {
		_, err := c.Submit(context.Background())
		done <- err
	}()

	<-started
	assert.Equal(t, bmr.Pending, c.Snapshot().Outcome.State)

	outcome, err := c.Submit(context.Background())
	assert.ErrorIs(t, err, ErrSubmissionInFlight)
	assert.Equal(t, bmr.Pending, outcome.State)

	close(d.release)
	require.NoError(t, <-done)

	assert.Equal(t, bmr.Success, c.Snapshot().Outcome.State)
	assert.Equal(t, 1, d.calls())
}

func TestSubmitIgnoresCallerCancellation(t *testing.T) {
	d := &fakeDispatcher{outcome: bmr.Succeeded(bmr.Result{BMR: 1400})}
	c := NewController(d, nil)
	fillForm(t, c)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	outcome, err := c.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, bmr.Success, outcome.State)
}

func TestSubmitClearsPendingWhenDispatcherPanics(t *testing.T) {
	c := NewController(&fakeDispatcher{panics: true}, nil)
	fillForm(t, c)

	assert.Panics(t, func() {
		_, _ = c.Submit(context.Background())
	})
	assert.Equal(t, bmr.Failure, c.Snapshot().Outcome.State)
}

// useMetricReader points the form instruments at a manual reader for the
// duration of the test.
func useMetricReader(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, InitMetrics())

	t.Cleanup(func() {
		otel.SetMeterProvider(noop.NewMeterProvider())
		_ = InitMetrics()
	})
	return reader
}

func submissionCount(t *testing.T, reader *sdkmetric.ManualReader, outcome string) int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "bmrform.submissions.total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				if v, ok := dp.Attributes.Value("outcome"); ok && v.AsString() == outcome {
					return dp.Value
				}
			}
		}
	}
	return 0
}

func TestSubmitCountsOutcomes(t *testing.T) {
	reader := useMetricReader(t)

	d := &fakeDispatcher{outcome: bmr.Succeeded(bmr.Result{BMR: 1650})}
	c := NewController(d, nil)
	fillForm(t, c)

	_, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(1), submissionCount(t, reader, "success"))
	assert.Equal(t, int64(0), submissionCount(t, reader, "failure"))
}

func TestSubmitCountsFailureWhenDispatcherPanics(t *testing.T) {
	reader := useMetricReader(t)

	c := NewController(&fakeDispatcher{panics: true}, nil)
	fillForm(t, c)

	assert.Panics(t, func() {
		_, _ = c.Submit(context.Background())
	})

	assert.Equal(t, bmr.Failure, c.Snapshot().Outcome.State)
	assert.Equal(t, int64(1), submissionCount(t, reader, "failure"))
}

func TestSubmitReplacesPreviousOutcome(t *testing.T) {
	d := &fakeDispatcher{outcome: bmr.Failed()}
	c := NewController(d, nil)
	fillForm(t, c)

	_, err := c.Submit(context.Background())
	require.ErrorIs(t, err, ErrRequestFailed)

	d.outcome = bmr.Succeeded(bmr.Result{BMR: 1650})
	outcome, err := c.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, bmr.Success, outcome.State)
	assert.Equal(t, bmr.Success, c.Snapshot().Outcome.State)
}

func TestRepeatedSubmissionIsIdempotent(t *testing.T) {
	d := &fakeDispatcher{outcome: bmr.Succeeded(bmr.Result{BMR: 1650})}
	c := NewController(d, nil)
	fillForm(t, c)

	first, err := c.Submit(context.Background())
	require.NoError(t, err)
	second, err := c.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, d.payloads, 2)
	assert.Equal(t, d.payloads[0], d.payloads[1])
}

func TestUpdateFieldErrors(t *testing.T) {
	c := NewController(&fakeDispatcher{}, nil)

	assert.ErrorIs(t, c.UpdateField("bmi", "22"), ErrUnknownField)
	assert.ErrorIs(t, c.UpdateField(FieldGender, "robot"), bmr.ErrUnknownGender)
	assert.Equal(t, bmr.Male, c.Snapshot().State.Gender)

	require.NoError(t, c.UpdateField(FieldGender, "female"))
	assert.Equal(t, bmr.Female, c.Snapshot().State.Gender)
}

func TestUpdateFieldEmptyClearsValue(t *testing.T) {
	c := NewController(&fakeDispatcher{}, nil)

	require.NoError(t, c.UpdateField(FieldWeight, "65"))
	assert.True(t, c.Snapshot().State.Weight.Present)

	require.NoError(t, c.UpdateField(FieldWeight, ""))
	assert.False(t, c.Snapshot().State.Weight.Present)
}

func TestMountFetchesCounterOnce(t *testing.T) {
	counter := &fakeCounter{count: 42}
	c := NewController(&fakeDispatcher{}, counter)

	c.Mount(context.Background())
	c.Mount(context.Background())

	assert.Equal(t, int64(42), c.Snapshot().AccessCount)
	assert.Equal(t, 1, counter.calls)
}

func TestMountKeepsZeroOnCounterFailure(t *testing.T) {
	counter := &fakeCounter{count: 99, err: errors.New("boom")}
	c := NewController(&fakeDispatcher{}, counter)

	c.Mount(context.Background())

	assert.Equal(t, int64(0), c.Snapshot().AccessCount)
}

func TestMountWithoutCounterSource(t *testing.T) {
	c := NewController(&fakeDispatcher{}, nil)
	c.Mount(context.Background())
	assert.Equal(t, int64(0), c.Snapshot().AccessCount)
}

func TestMountedClosesAfterFirstMount(t *testing.T) {
	c := NewController(&fakeDispatcher{}, &fakeCounter{count: 7})

	select {
	case <-c.Mounted():
		t.Fatal("Mounted closed before Mount ran")
	default:
	}

	c.Mount(context.Background())
	c.Mount(context.Background())

	select {
	case <-c.Mounted():
	default:
		t.Fatal("Mounted still open after Mount")
	}
	assert.Equal(t, int64(7), c.Snapshot().AccessCount)
}
