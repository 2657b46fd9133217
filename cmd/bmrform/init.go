package main

import (
	"context"

	"bmr-form/internal/calcservice"
	"bmr-form/internal/form"
	"bmr-form/internal/observability"
	"bmr-form/internal/web"
)

// initMetrics initialises the meter provider and every domain's instruments.
func initMetrics(ctx context.Context) (func(context.Context) error, error) {
	shutdown, err := observability.InitMetrics(ctx)
	if err != nil {
		return nil, err
	}

	for _, initDomain := range []func() error{
		form.InitMetrics,
		calcservice.InitMetrics,
		web.InitMetrics,
	} {
		if err := initDomain(); err != nil {
			return nil, err
		}
	}

	return shutdown, nil
}
