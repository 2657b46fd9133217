package calcservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"bmr-form/internal/bmr"
	"bmr-form/internal/observability"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("calcservice")

// calculateResponse uses a pointer so a missing "bmr" is told apart from 0.
type calculateResponse struct {
	BMR *float64 `json:"bmr"`
}

// Dispatch performs a single calculation request and classifies the result.
// The cause of a failure is logged and recorded on the span, never returned.
func (c *Client) Dispatch(ctx context.Context, p bmr.Payload) bmr.Outcome {
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "calcservice.dispatch",
		trace.WithAttributes(
			attribute.String("bmr.gender", string(p.Gender)),
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	start := time.Now()
	result, err := c.Calculate(ctx, p)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	if err != nil {
		dispatchHistogram.Record(ctx, elapsed, metric.WithAttributes(attribute.String("outcome", bmr.Failure.String())))
		errorCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", "dispatch")))

		span.RecordError(err)
		span.SetStatus(codes.Error, "calculation request failed")

		logger.Error("calculation request failed",
			zap.Error(err),
			zap.String("request_id", requestID),
			zap.Float64("duration_ms", elapsed),
		)
		return bmr.Failed()
	}

	dispatchHistogram.Record(ctx, elapsed, metric.WithAttributes(attribute.String("outcome", bmr.Success.String())))
	lastBMRGauge.Record(ctx, result.BMR)

	span.SetAttributes(attribute.Float64("bmr.result", result.BMR))
	span.SetStatus(codes.Ok, "")

	logger.Info("calculation request completed",
		zap.Float64("bmr", result.BMR),
		zap.String("request_id", requestID),
		zap.Float64("duration_ms", elapsed),
	)

	return bmr.Succeeded(result)
}

// Calculate sends p to POST <base>/calculate and decodes the response.
func (c *Client) Calculate(ctx context.Context, p bmr.Payload) (bmr.Result, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return bmr.Result{}, fmt.Errorf("encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/calculate"), bytes.NewReader(body))
	if err != nil {
		return bmr.Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return bmr.Result{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return bmr.Result{}, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var decoded calculateResponse
	if err := decodeBody(resp.Body, &decoded); err != nil {
		return bmr.Result{}, err
	}
	if decoded.BMR == nil {
		return bmr.Result{}, fmt.Errorf("%w: missing bmr", ErrMalformedResponse)
	}

	return bmr.Result{BMR: *decoded.BMR}, nil
}
