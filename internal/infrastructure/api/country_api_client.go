package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/damon-houk/fx-threshold-checker/internal/domain/apperror"
	"github.com/damon-houk/fx-threshold-checker/internal/domain/repository"
	"github.com/damon-houk/fx-threshold-checker/internal/domain/service"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/cache"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/logger"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/middleware"
)

const (
	// DefaultCountryAPIBaseURL is the public REST Countries endpoint
	DefaultCountryAPIBaseURL = "https://restcountries.com"
	countryPath              = "/v3.1/alpha/"
)

// Error messages returned by the resolver
const (
	MsgFetchFailed           = "failed to fetch country info"
	MsgInvalidResponseFormat = "invalid response format"
	MsgNoCurrencyData        = "no currency data found"
	MsgInvalidCurrencyCode   = "invalid currency code format"
	MsgFormatChanged         = "API response format changed"
)

// CountryAPIClient resolves the currency of a country through the country-data API
type CountryAPIClient struct {
	baseURL    string
	httpClient service.HTTPClient
	table      repository.CurrencyTable
	cache      *cache.CurrencyCache
	logger     logger.Logger
}

var _ service.CurrencyResolver = (*CountryAPIClient)(nil)

// NewCountryAPIClient creates a resolver. An empty baseURL selects the public endpoint;
// a nil cache disables caching of resolutions.
func NewCountryAPIClient(baseURL string, httpClient service.HTTPClient, table repository.CurrencyTable,
	currencyCache *cache.CurrencyCache, log logger.Logger) *CountryAPIClient {
	if baseURL == "" {
		baseURL = DefaultCountryAPIBaseURL
	}
	if log == nil {
		log = logger.GetDefaultLogger()
	}

	return &CountryAPIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		table:      table,
		cache:      currencyCache,
		logger:     log,
	}
}

// Resolve returns the currency code of a country. When the API disagrees with the
// static table, the rejected code is returned together with the mismatch error.
func (c *CountryAPIClient) Resolve(ctx context.Context, countryCode string) (string, error) {
	countryCode = strings.ToUpper(strings.TrimSpace(countryCode))
	requestID := middleware.GetRequestID(ctx)

	if c.cache != nil {
		if currency, ok := c.cache.Get(countryCode); ok {
			c.logger.Debug("Currency resolved from cache", map[string]interface{}{
				"request_id":   requestID,
				"country_code": countryCode,
				"currency":     currency,
			})
			return currency, nil
		}
	}

	reqURL := c.baseURL + countryPath + url.PathEscape(countryCode)

	resp, err := c.httpClient.Get(ctx, reqURL)
	if err != nil {
		return "", apperror.New(apperror.KindTransport, MsgFetchFailed, err)
	}

	c.logger.Debug("Country API response received", map[string]interface{}{
		"request_id":   requestID,
		"country_code": countryCode,
		"status":       resp.StatusCode,
		"body_bytes":   len(resp.Body),
	})

	currency, err := ExtractCurrency(resp.StatusCode, resp.Body)
	if err != nil {
		return "", err
	}

	if expected, ok := c.table.ExpectedCurrency(countryCode); ok && expected != currency {
		return currency, apperror.New(apperror.KindValidationMismatch,
			fmt.Sprintf("expected %s but got %s", expected, currency), nil)
	}

	if c.cache != nil {
		c.cache.Put(countryCode, currency)
	}

	return currency, nil
}

// errorResponse is the body the API sends with non-200 responses
type errorResponse struct {
	Message *string `json:"message"`
}

// ExtractCurrency reads the first currency code of the first country in a country-data
// response. Each failure maps to one stable message.
func ExtractCurrency(statusCode int, body []byte) (string, error) {
	if statusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return "", apperror.New(apperror.KindTransport, MsgInvalidResponseFormat,
				fmt.Errorf("status %d: %w", statusCode, err))
		}
		if errResp.Message == nil || *errResp.Message == "" {
			return "", apperror.New(apperror.KindTransport, MsgInvalidResponseFormat,
				fmt.Errorf("status %d without message", statusCode))
		}
		return "", apperror.New(apperror.KindTransport, *errResp.Message,
			fmt.Errorf("status %d", statusCode))
	}

	if !json.Valid(body) {
		return "", apperror.New(apperror.KindTransport, MsgInvalidResponseFormat,
			fmt.Errorf("body is not valid JSON"))
	}

	var countries []json.RawMessage
	if err := json.Unmarshal(body, &countries); err != nil {
		return "", apperror.New(apperror.KindDataShape, MsgInvalidResponseFormat, err)
	}
	if len(countries) == 0 {
		return "", apperror.New(apperror.KindDataShape, MsgInvalidResponseFormat,
			fmt.Errorf("empty country list"))
	}

	var country map[string]json.RawMessage
	if err := json.Unmarshal(countries[0], &country); err != nil || country == nil {
		return "", apperror.New(apperror.KindDataShape, MsgFormatChanged,
			fmt.Errorf("country entry is not an object"))
	}

	raw, ok := country["currencies"]
	if !ok {
		return "", apperror.New(apperror.KindDataShape, MsgNoCurrencyData, nil)
	}

	currency, err := firstCurrencyKey(raw)
	if err != nil {
		return "", err
	}

	if !isCurrencyCode(currency) {
		return "", apperror.New(apperror.KindDataShape, MsgInvalidCurrencyCode,
			fmt.Errorf("got %q", currency))
	}

	return currency, nil
}

// isCurrencyCode reports whether s is exactly three ASCII letters
func isCurrencyCode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < 'A' || c > 'Z') && (c < 'a' || c > 'z') {
			return false
		}
	}
	return true
}

// firstCurrencyKey returns the first key of the currencies object in document order.
// Empty values of any type count as missing data; other non-objects mean the format changed.
func firstCurrencyKey(raw json.RawMessage) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return "", apperror.New(apperror.KindDataShape, MsgInvalidResponseFormat, err)
	}

	switch v := tok.(type) {
	case json.Delim:
		if !dec.More() {
			return "", apperror.New(apperror.KindDataShape, MsgNoCurrencyData, nil)
		}
		if v != '{' {
			return "", apperror.New(apperror.KindDataShape, MsgFormatChanged,
				fmt.Errorf("currencies is a list"))
		}
		keyTok, err := dec.Token()
		if err != nil {
			return "", apperror.New(apperror.KindDataShape, MsgInvalidResponseFormat, err)
		}
		return keyTok.(string), nil
	case nil:
		return "", apperror.New(apperror.KindDataShape, MsgNoCurrencyData, nil)
	case bool:
		if !v {
			return "", apperror.New(apperror.KindDataShape, MsgNoCurrencyData, nil)
		}
	case float64:
		if v == 0 {
			return "", apperror.New(apperror.KindDataShape, MsgNoCurrencyData, nil)
		}
	case string:
		if v == "" {
			return "", apperror.New(apperror.KindDataShape, MsgNoCurrencyData, nil)
		}
	}

	return "", apperror.New(apperror.KindDataShape, MsgFormatChanged,
		fmt.Errorf("currencies has type %T", tok))
}
