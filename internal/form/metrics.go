package form

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

var (
	submissionCounter metric.Int64Counter
	validationCounter metric.Int64Counter
)

// InitMetrics registers the form instruments. Call once at startup.
func InitMetrics() error {
	meter := otel.Meter("form")

	var err error

	submissionCounter, err = meter.Int64Counter("bmrform.submissions.total",
		metric.WithDescription("Total number of form submissions by outcome"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return fmt.Errorf("creating submission counter: %w", err)
	}

	validationCounter, err = meter.Int64Counter("bmrform.validation_incomplete.total",
		metric.WithDescription("Total number of submissions aborted because a field was empty"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return fmt.Errorf("creating validation counter: %w", err)
	}

	return nil
}
