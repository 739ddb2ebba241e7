// Package service internal/application/service/retrieval_service.go
package service

import (
	"context"
	"time"

	domain "github.com/damon-houk/fx-threshold-checker/internal/domain/service"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/logger"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/metrics"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/middleware"
)

// RetrievalService chains currency resolution and rate conversion for a country
type RetrievalService struct {
	resolver  domain.CurrencyResolver
	converter domain.RateConverter
	metrics   *metrics.CheckMetrics
	logger    logger.Logger
}

// NewRetrievalService creates a new retrieval pipeline. m may be nil.
func NewRetrievalService(resolver domain.CurrencyResolver, converter domain.RateConverter, m *metrics.CheckMetrics, log logger.Logger) *RetrievalService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &RetrievalService{
		resolver:  resolver,
		converter: converter,
		metrics:   m,
		logger:    log,
	}
}

// GetRate returns the rate of the country's currency against the reference currency,
// together with the currency code. The first failing stage ends the pipeline and its
// error is returned as is. When resolution fails, the currency slot carries whatever
// the resolver returned alongside its error.
func (s *RetrievalService) GetRate(ctx context.Context, countryCode string) (float64, string, error) {
	requestID := middleware.GetRequestID(ctx)

	began := time.Now()
	currency, err := s.resolver.Resolve(ctx, countryCode)
	s.metrics.ObserveStage(metrics.StageResolve, began, err)
	if err != nil {
		s.logger.Debug("Currency resolution failed", map[string]interface{}{
			"request_id":   requestID,
			"country_code": countryCode,
			"partial":      currency,
			"error":        err.Error(),
		})
		return 0, currency, err
	}

	s.logger.Debug("Currency resolved", map[string]interface{}{
		"request_id":   requestID,
		"country_code": countryCode,
		"currency":     currency,
	})

	began = time.Now()
	rate, err := s.converter.Convert(ctx, currency, "")
	s.metrics.ObserveStage(metrics.StageConvert, began, err)
	if err != nil {
		return 0, currency, err
	}

	return rate, currency, nil
}
