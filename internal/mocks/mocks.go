// internal/mocks/mocks.go
package mocks

import (
	"context"

	"github.com/damon-houk/fx-threshold-checker/internal/domain/service"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/logger"
	"github.com/stretchr/testify/mock"
)

// MockHTTPClient mocks the HTTPClient interface
type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Get(ctx context.Context, url string) (*service.HTTPResponse, error) {
	args := m.Called(ctx, url)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.HTTPResponse), args.Error(1)
}

// MockCurrencyResolver mocks the CurrencyResolver interface
type MockCurrencyResolver struct {
	mock.Mock
}

func (m *MockCurrencyResolver) Resolve(ctx context.Context, countryCode string) (string, error) {
	args := m.Called(ctx, countryCode)
	return args.String(0), args.Error(1)
}

// MockRateConverter mocks the RateConverter interface
type MockRateConverter struct {
	mock.Mock
}

func (m *MockRateConverter) Convert(ctx context.Context, from, to string) (float64, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).(float64), args.Error(1)
}

// MockRateRetriever mocks the pipeline as seen by the check service
type MockRateRetriever struct {
	mock.Mock
}

func (m *MockRateRetriever) GetRate(ctx context.Context, countryCode string) (float64, string, error) {
	args := m.Called(ctx, countryCode)
	return args.Get(0).(float64), args.String(1), args.Error(2)
}

// MockPageSession mocks the PageSession interface
type MockPageSession struct {
	mock.Mock
}

func (m *MockPageSession) Navigate(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

func (m *MockPageSession) WaitPresent(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}

func (m *MockPageSession) WaitClickable(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}

func (m *MockPageSession) Click(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}

func (m *MockPageSession) Clear(ctx context.Context, selector string) error {
	return m.Called(ctx, selector).Error(0)
}

func (m *MockPageSession) Type(ctx context.Context, selector, text string) error {
	return m.Called(ctx, selector, text).Error(0)
}

func (m *MockPageSession) Press(ctx context.Context, selector string, key service.Key) error {
	return m.Called(ctx, selector, key).Error(0)
}

func (m *MockPageSession) Value(ctx context.Context, selector string) (string, error) {
	args := m.Called(ctx, selector)
	return args.String(0), args.Error(1)
}

func (m *MockPageSession) Close() error {
	return m.Called().Error(0)
}

// MockSessionFactory mocks the SessionFactory interface
type MockSessionFactory struct {
	mock.Mock
}

func (m *MockSessionFactory) NewSession(ctx context.Context) (service.PageSession, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(service.PageSession), args.Error(1)
}

// MockLogger mocks the logger interface
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Info(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Warn(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Error(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) Fatal(msg string, fields map[string]interface{}) {
	m.Called(msg, fields)
}

func (m *MockLogger) WithField(key string, value interface{}) logger.Logger {
	args := m.Called(key, value)
	return args.Get(0).(logger.Logger)
}

func (m *MockLogger) WithFields(fields map[string]interface{}) logger.Logger {
	args := m.Called(fields)
	return args.Get(0).(logger.Logger)
}
