// Package service internal/application/service/check_service.go
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/damon-houk/fx-threshold-checker/internal/domain/apperror"
	"github.com/damon-houk/fx-threshold-checker/internal/domain/entity"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/logger"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/metrics"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/middleware"
)

// RateRetriever is the retrieval pipeline as seen by the check service
type RateRetriever interface {
	GetRate(ctx context.Context, countryCode string) (float64, string, error)
}

// CheckService runs threshold checks for country codes and reports their outcome
type CheckService struct {
	retriever RateRetriever
	metrics   *metrics.CheckMetrics
	logger    logger.Logger
	now       func() time.Time
}

// NewCheckService creates a new check service. m may be nil.
func NewCheckService(retriever RateRetriever, m *metrics.CheckMetrics, log logger.Logger) *CheckService {
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &CheckService{
		retriever: retriever,
		metrics:   m,
		logger:    log,
		now:       time.Now,
	}
}

// Check retrieves the rate for one country and compares it to threshold. Failures are
// logged with their kind and returned in the result rather than dropped.
func (s *CheckService) Check(ctx context.Context, countryCode string, threshold float64) entity.CheckResult {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	runID := middleware.NewRequestID()
	ctx = middleware.WithRequestID(ctx, runID)

	result := entity.CheckResult{
		RunID:       runID,
		CountryCode: countryCode,
		Threshold:   threshold,
	}

	rate, currency, err := s.retriever.GetRate(ctx, countryCode)
	result.CheckedAt = s.now()
	result.Currency = currency

	if err != nil {
		result.Err = err
		s.metrics.RecordCheck(countryCode, currency, 0, false, err)

		fields := map[string]interface{}{
			"request_id":   runID,
			"country_code": countryCode,
			"currency":     currency,
			"error":        err.Error(),
		}
		var appErr *apperror.Error
		if errors.As(err, &appErr) {
			fields["kind"] = appErr.Kind
			if appErr.Err != nil {
				fields["cause"] = appErr.Err.Error()
			}
		}
		s.logger.Error("Rate check failed", fields)

		return result
	}

	result.Rate = rate
	result.Exceeded = MeetsThreshold(rate, threshold)
	s.metrics.RecordCheck(countryCode, currency, rate, result.Exceeded, nil)

	s.logger.Info("Rate check completed", map[string]interface{}{
		"request_id":   runID,
		"country_code": countryCode,
		"currency":     currency,
		"rate":         rate,
		"threshold":    threshold,
		"exceeded":     result.Exceeded,
	})

	return result
}

// CheckAll checks each country in order, one at a time. It stops early only when ctx is done.
func (s *CheckService) CheckAll(ctx context.Context, countryCodes []string, threshold float64) []entity.CheckResult {
	results := make([]entity.CheckResult, 0, len(countryCodes))

	for _, code := range countryCodes {
		if ctx.Err() != nil {
			break
		}
		results = append(results, s.Check(ctx, code, threshold))
	}

	return results
}
