package calcservice

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"bmr-form/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// FetchAccessCount reads GET <base>/access-count, whose body is a bare JSON number.
func (c *Client) FetchAccessCount(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "calcservice.access_count")
	defer span.End()

	count, err := c.fetchAccessCount(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "access count request failed")
		counterFetchCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "failure")))

		observability.LoggerWithTrace(ctx).Warn("access count request failed", zap.Error(err))
		return 0, err
	}

	span.SetAttributes(attribute.Int64("access.count", count))
	span.SetStatus(codes.Ok, "")
	counterFetchCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", "success")))

	return count, nil
}

func (c *Client) fetchAccessCount(ctx context.Context) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint("/access-count"), nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var raw any
	if err := decodeBody(resp.Body, &raw); err != nil {
		return 0, err
	}

	num, ok := raw.(json.Number)
	if !ok {
		return 0, fmt.Errorf("%w: count is %T, not a number", ErrMalformedResponse, raw)
	}
	n, err := strconv.ParseInt(num.String(), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: count %s is not a non-negative integer", ErrMalformedResponse, num)
	}

	return n, nil
}
