// internal/application/service/retrieval_service_test.go
package service

import (
	"context"
	"testing"

	"github.com/damon-houk/fx-threshold-checker/internal/domain/apperror"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/logger"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/metrics"
	"github.com/damon-houk/fx-threshold-checker/internal/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestRetrievalService_GetRate(t *testing.T) {
	ctx := context.Background()

	t.Run("Resolves then converts", func(t *testing.T) {
		resolver := new(mocks.MockCurrencyResolver)
		converter := new(mocks.MockRateConverter)
		resolver.On("Resolve", mock.Anything, "GB").Return("GBP", nil).Once()
		converter.On("Convert", mock.Anything, "GBP", "").Return(1.23, nil).Once()

		svc := NewRetrievalService(resolver, converter, nil, logger.NewNopLogger())
		rate, currency, err := svc.GetRate(ctx, "GB")

		assert.NoError(t, err)
		assert.Equal(t, 1.23, rate)
		assert.Equal(t, "GBP", currency)
		resolver.AssertExpectations(t)
		converter.AssertExpectations(t)
	})

	t.Run("Resolution failure skips conversion", func(t *testing.T) {
		resolver := new(mocks.MockCurrencyResolver)
		converter := new(mocks.MockRateConverter)
		resolveErr := apperror.New(apperror.KindTransport, "failed to fetch country info", nil)
		resolver.On("Resolve", mock.Anything, "XX").Return("", resolveErr).Once()

		svc := NewRetrievalService(resolver, converter, nil, logger.NewNopLogger())
		rate, currency, err := svc.GetRate(ctx, "XX")

		assert.Same(t, resolveErr, err)
		assert.Zero(t, rate)
		assert.Empty(t, currency)
		converter.AssertNotCalled(t, "Convert", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Validation mismatch passes the rejected code through", func(t *testing.T) {
		resolver := new(mocks.MockCurrencyResolver)
		converter := new(mocks.MockRateConverter)
		mismatch := apperror.New(apperror.KindValidationMismatch, "expected GBP but got EUR", nil)
		resolver.On("Resolve", mock.Anything, "GB").Return("EUR", mismatch).Once()

		svc := NewRetrievalService(resolver, converter, nil, logger.NewNopLogger())
		rate, currency, err := svc.GetRate(ctx, "GB")

		assert.True(t, apperror.Is(err, apperror.KindValidationMismatch))
		assert.Equal(t, "expected GBP but got EUR", err.Error())
		assert.Zero(t, rate)
		assert.Equal(t, "EUR", currency)
		converter.AssertNumberOfCalls(t, "Convert", 0)
	})

	t.Run("Conversion failure keeps the currency", func(t *testing.T) {
		resolver := new(mocks.MockCurrencyResolver)
		converter := new(mocks.MockRateConverter)
		convertErr := apperror.New(apperror.KindAutomation, MsgConversionFailed, nil)
		resolver.On("Resolve", mock.Anything, "TR").Return("TRY", nil).Once()
		converter.On("Convert", mock.Anything, "TRY", "").Return(0.0, convertErr).Once()

		reg := prometheus.NewRegistry()
		m := metrics.NewCheckMetrics(reg)
		svc := NewRetrievalService(resolver, converter, m, logger.NewNopLogger())
		rate, currency, err := svc.GetRate(ctx, "TR")

		assert.Same(t, convertErr, err)
		assert.Zero(t, rate)
		assert.Equal(t, "TRY", currency)
		assert.Equal(t, 1.0, testutil.ToFloat64(
			m.StageFailuresTotal.WithLabelValues(metrics.StageConvert, string(apperror.KindAutomation))))
		assert.Equal(t, 2, testutil.CollectAndCount(m.StageDuration))
	})
}
