package form

import (
	"context"
	"errors"
	"sync"

	"bmr-form/internal/bmr"
	"bmr-form/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var (
	ErrSubmissionInFlight = errors.New("a submission is already pending")
	ErrRequestFailed      = errors.New("calculation request failed")
)

var tracer = otel.Tracer("form")

// Dispatcher sends a validated payload and classifies the response.
type Dispatcher interface {
	Dispatch(ctx context.Context, p bmr.Payload) bmr.Outcome
}

// CounterSource reads the access counter shown in the page footer.
type CounterSource interface {
	FetchAccessCount(ctx context.Context) (int64, error)
}

// Snapshot is a consistent copy of a controller for rendering.
type Snapshot struct {
	State       State
	Outcome     bmr.Outcome
	AccessCount int64
}

// Controller owns one mounted form: its inputs, the outcome of the latest
// submission and the access counter fetched on mount.
type Controller struct {
	dispatcher Dispatcher
	counter    CounterSource

	mountOnce sync.Once
	mounted   chan struct{}

	mu          sync.Mutex
	state       State
	outcome     bmr.Outcome
	accessCount int64
}

// NewController returns an unmounted controller. counter may be nil, in which
// case the access counter stays at 0.
func NewController(d Dispatcher, counter CounterSource) *Controller {
	return &Controller{
		dispatcher: d,
		counter:    counter,
		mounted:    make(chan struct{}),
		state:      NewState(),
	}
}

// Mount fetches the access counter. Only the first call does any work; on
// failure the previous value is kept. Mount may run concurrently with
// UpdateField and Submit.
func (c *Controller) Mount(ctx context.Context) {
	c.mountOnce.Do(func() {
		defer close(c.mounted)

		if c.counter == nil {
			return
		}

		count, err := c.counter.FetchAccessCount(ctx)
		if err != nil {
			c.mu.Lock()
			prev := c.accessCount
			c.mu.Unlock()

			observability.LoggerWithTrace(ctx).Warn("access count unavailable, keeping previous value",
				zap.Error(err),
				zap.Int64("access_count", prev),
			)
			return
		}

		c.mu.Lock()
		c.accessCount = count
		c.mu.Unlock()
	})
}

// Mounted is closed once the first Mount call has finished, whether or not
// the counter could be read.
func (c *Controller) Mounted() <-chan struct{} {
	return c.mounted
}

// UpdateField stores raw for field f. Numeric fields never fail; gender and
// unknown field names can.
func (c *Controller) UpdateField(f Field, raw string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state.set(f, raw)
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Snapshot{
		State:       c.state,
		Outcome:     c.outcome,
		AccessCount: c.accessCount,
	}
}

// Submit validates the form and dispatches one calculation request.
//
// An incomplete form returns ErrValidationIncomplete and leaves the outcome
// untouched. A second call while one is pending returns
// ErrSubmissionInFlight. Otherwise the outcome goes to Pending and then to
// exactly one of Success or Failure; a failure also returns ErrRequestFailed.
// The request is detached from ctx cancellation and always runs to completion.
func (c *Controller) Submit(ctx context.Context) (bmr.Outcome, error) {
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "form.submit",
		trace.WithAttributes(attribute.String("request.id", requestID)),
	)
	defer span.End()

	c.mu.Lock()
	if c.outcome.State == bmr.Pending {
		c.mu.Unlock()

		submissionCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "rejected")))
		span.SetStatus(codes.Error, "submission already pending")
		logger.Info("submission rejected while pending", zap.String("request_id", requestID))
		return bmr.InFlight(), ErrSubmissionInFlight
	}

	payload, err := c.state.Payload()
	if err != nil {
		prev := c.outcome
		missing := c.state.Missing()
		c.mu.Unlock()

		validationCounter.Add(ctx, 1)
		span.SetStatus(codes.Error, "incomplete form")
		logger.Info("submission aborted",
			zap.Error(err),
			zap.Int("missing_fields", len(missing)),
			zap.String("request_id", requestID),
		)
		return prev, err
	}

	c.outcome = bmr.InFlight()
	c.mu.Unlock()

	// Pending must never outlive this call, even if the dispatcher panics.
	outcome := bmr.Failed()
	returned := false
	defer func() {
		c.mu.Lock()
		c.outcome = outcome
		c.mu.Unlock()

		submissionCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome.State.String())))
		span.SetAttributes(attribute.String("form.outcome", outcome.State.String()))
		if !returned {
			span.SetStatus(codes.Error, "dispatcher panicked")
			logger.Error("submission aborted by dispatcher panic", zap.String("request_id", requestID))
		}
	}()

	outcome = c.dispatcher.Dispatch(context.WithoutCancel(ctx), payload)
	returned = true
	if outcome.State != bmr.Success {
		outcome = bmr.Failed()
	}

	if outcome.State == bmr.Failure {
		span.SetStatus(codes.Error, "calculation failed")
		logger.Warn("submission failed", zap.String("request_id", requestID))
		return outcome, ErrRequestFailed
	}

	span.SetStatus(codes.Ok, "")
	logger.Info("submission succeeded",
		zap.String("bmr", outcome.Result.Display()),
		zap.String("request_id", requestID),
	)
	return outcome, nil
}
