package calcservice

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metric instruments, initialised once via InitMetrics().
var (
	dispatchHistogram   metric.Float64Histogram
	errorCounter        metric.Int64Counter
	lastBMRGauge        metric.Float64Gauge
	counterFetchCounter metric.Int64Counter
)

// InitMetrics registers the OTel instruments for outbound calls to the
// calculation service. Call this once at startup (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("calcservice")

	var err error

	dispatchHistogram, err = meter.Float64Histogram("bmrform.dispatch.duration",
		metric.WithDescription("Duration of calculation requests in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000),
	)
	if err != nil {
		return fmt.Errorf("creating dispatch histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("bmrform.errors.total",
		metric.WithDescription("Total number of failed calls to the calculation service"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	lastBMRGauge, err = meter.Float64Gauge("bmrform.last_bmr",
		metric.WithDescription("The last BMR returned by the calculation service"),
		metric.WithUnit("kcal"),
	)
	if err != nil {
		return fmt.Errorf("creating bmr gauge: %w", err)
	}

	counterFetchCounter, err = meter.Int64Counter("bmrform.counter_fetch.total",
		metric.WithDescription("Total number of access counter fetches"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return fmt.Errorf("creating counter fetch counter: %w", err)
	}

	return nil
}
