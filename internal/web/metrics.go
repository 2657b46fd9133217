package web

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	errorCounter   metric.Int64Counter
	sessionCounter metric.Int64UpDownCounter
)

// InitMetrics registers the web layer instruments. Call once at startup
// (after observability.InitMetrics).
func InitMetrics() error {
	meter := otel.Meter("web")

	var err error

	errorCounter, err = meter.Int64Counter("bmrform.api.errors.total",
		metric.WithDescription("Total number of rejected form requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	sessionCounter, err = meter.Int64UpDownCounter("bmrform.sessions.active",
		metric.WithDescription("Number of mounted forms held in memory"),
		metric.WithUnit("{form}"),
	)
	if err != nil {
		return fmt.Errorf("creating session counter: %w", err)
	}

	return nil
}
