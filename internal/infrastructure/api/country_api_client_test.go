// internal/infrastructure/api/country_api_client_test.go
package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/damon-houk/fx-threshold-checker/internal/domain/apperror"
	"github.com/damon-houk/fx-threshold-checker/internal/domain/service"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/cache"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/logger"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/middleware"
	"github.com/damon-houk/fx-threshold-checker/internal/infrastructure/table"
	"github.com/damon-houk/fx-threshold-checker/internal/mocks"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestExtractCurrency(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		currency string
		message  string
		kind     apperror.Kind
	}{
		{
			name:     "valid country",
			status:   http.StatusOK,
			body:     `[{"currencies": {"GBP": {}}}]`,
			currency: "GBP",
		},
		{
			name:     "multiple currencies keep source order",
			status:   http.StatusOK,
			body:     `[{"currencies": {"USD": {}, "EUR": {}}}]`,
			currency: "USD",
		},
		{
			name:     "source order is not alphabetical",
			status:   http.StatusOK,
			body:     `[{"currencies": {"ZAR": {"name": "South African rand"}, "BWP": {}}}]`,
			currency: "ZAR",
		},
		{
			name:    "missing currencies key",
			status:  http.StatusOK,
			body:    `[{"name": "United Kingdom"}]`,
			message: MsgNoCurrencyData,
			kind:    apperror.KindDataShape,
		},
		{
			name:    "empty currencies",
			status:  http.StatusOK,
			body:    `[{"currencies": {}}]`,
			message: MsgNoCurrencyData,
			kind:    apperror.KindDataShape,
		},
		{
			name:    "null currencies",
			status:  http.StatusOK,
			body:    `[{"currencies": null}]`,
			message: MsgNoCurrencyData,
			kind:    apperror.KindDataShape,
		},
		{
			name:    "empty currency list",
			status:  http.StatusOK,
			body:    `[{"currencies": []}]`,
			message: MsgNoCurrencyData,
			kind:    apperror.KindDataShape,
		},
		{
			name:    "empty array body",
			status:  http.StatusOK,
			body:    `[]`,
			message: MsgInvalidResponseFormat,
			kind:    apperror.KindDataShape,
		},
		{
			name:    "object instead of array",
			status:  http.StatusOK,
			body:    `{"currencies": {"GBP": {}}}`,
			message: MsgInvalidResponseFormat,
			kind:    apperror.KindDataShape,
		},
		{
			name:    "empty body",
			status:  http.StatusOK,
			body:    ``,
			message: MsgInvalidResponseFormat,
			kind:    apperror.KindTransport,
		},
		{
			name:    "country not found",
			status:  http.StatusNotFound,
			body:    `{"message": "Country not found"}`,
			message: "Country not found",
			kind:    apperror.KindTransport,
		},
		{
			name:    "non-200 without body",
			status:  http.StatusNotFound,
			body:    ``,
			message: MsgInvalidResponseFormat,
			kind:    apperror.KindTransport,
		},
		{
			name:    "non-200 without message",
			status:  http.StatusBadRequest,
			body:    `{"status": 400}`,
			message: MsgInvalidResponseFormat,
			kind:    apperror.KindTransport,
		},
		{
			name:    "non-200 with list body",
			status:  http.StatusInternalServerError,
			body:    `["oops"]`,
			message: MsgInvalidResponseFormat,
			kind:    apperror.KindTransport,
		},
		{
			name:    "malformed currency code",
			status:  http.StatusOK,
			body:    `[{"currencies": {"INVALID": {}}}]`,
			message: MsgInvalidCurrencyCode,
			kind:    apperror.KindDataShape,
		},
		{
			name:    "currency code with invalid UTF-8",
			status:  http.StatusOK,
			body:    "[{\"currencies\": {\"\xff\xfe\xfd\": {}}}]",
			message: MsgInvalidCurrencyCode,
			kind:    apperror.KindDataShape,
		},
		{
			name:    "currency code with non-ASCII letters",
			status:  http.StatusOK,
			body:    `[{"currencies": {"ÄÖÜ": {}}}]`,
			message: MsgInvalidCurrencyCode,
			kind:    apperror.KindDataShape,
		},
		{
			name:    "currency code with digits",
			status:  http.StatusOK,
			body:    `[{"currencies": {"GB1": {}}}]`,
			message: MsgInvalidCurrencyCode,
			kind:    apperror.KindDataShape,
		},
		{
			name:    "currencies as list",
			status:  http.StatusOK,
			body:    `[{"currencies": ["USD", "EUR"]}]`,
			message: MsgFormatChanged,
			kind:    apperror.KindDataShape,
		},
		{
			name:    "currencies as string",
			status:  http.StatusOK,
			body:    `[{"currencies": "GBP"}]`,
			message: MsgFormatChanged,
			kind:    apperror.KindDataShape,
		},
		{
			name:    "country entry is not an object",
			status:  http.StatusOK,
			body:    `[null]`,
			message: MsgFormatChanged,
			kind:    apperror.KindDataShape,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			currency, err := ExtractCurrency(tc.status, []byte(tc.body))

			if tc.message == "" {
				require.NoError(t, err)
				assert.Equal(t, tc.currency, currency)
				return
			}

			require.Error(t, err)
			assert.Empty(t, currency)
			assert.Equal(t, tc.message, err.Error())
			assert.True(t, apperror.Is(err, tc.kind), "expected kind %s, got %v", tc.kind, err)
		})
	}
}

// newCountryServer serves /v3.1/alpha/{code} from a fixed set of bodies
func newCountryServer(t *testing.T, bodies map[string]string, hits *atomic.Int32) *httptest.Server {
	router := mux.NewRouter()
	router.HandleFunc("/v3.1/alpha/{code}", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get(middleware.RequestIDHeader))

		body, ok := bodies[mux.Vars(r)["code"]]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"status": 404, "message": "Not Found"}`))
			return
		}
		w.Write([]byte(body))
	}).Methods(http.MethodGet)

	return httptest.NewServer(router)
}

func defaultTable() *table.StaticTable {
	return table.NewStaticTable(map[string]string{"GB": "GBP", "TR": "TRY"}, nil)
}

func TestCountryAPIClient_Resolve(t *testing.T) {
	var hits atomic.Int32
	server := newCountryServer(t, map[string]string{
		"GB": `[{"name": {"common": "United Kingdom"}, "currencies": {"GBP": {"name": "British pound", "symbol": "£"}}}]`,
		"TR": `[{"currencies": {"EUR": {}}}]`,
		"US": `[{"currencies": {"USD": {}}}]`,
	}, &hits)
	defer server.Close()

	log := logger.NewNopLogger()
	client := NewCountryAPIClient(server.URL, NewHTTPClient(5*time.Second, log), defaultTable(), nil, log)
	ctx := middleware.WithRequestID(context.Background(), "run-1")

	t.Run("known country", func(t *testing.T) {
		currency, err := client.Resolve(ctx, "gb")
		assert.NoError(t, err)
		assert.Equal(t, "GBP", currency)
	})

	t.Run("table mismatch returns the rejected code", func(t *testing.T) {
		currency, err := client.Resolve(ctx, "TR")
		require.Error(t, err)
		assert.Equal(t, "expected TRY but got EUR", err.Error())
		assert.True(t, apperror.Is(err, apperror.KindValidationMismatch))
		assert.Equal(t, "EUR", currency)
	})

	t.Run("country missing from table is not cross-checked", func(t *testing.T) {
		currency, err := client.Resolve(ctx, "US")
		assert.NoError(t, err)
		assert.Equal(t, "USD", currency)
	})

	t.Run("unknown country", func(t *testing.T) {
		currency, err := client.Resolve(ctx, "ZZ")
		require.Error(t, err)
		assert.Equal(t, "Not Found", err.Error())
		assert.True(t, apperror.Is(err, apperror.KindTransport))
		assert.Empty(t, currency)
	})
}

func TestCountryAPIClient_CrossCheckEveryTableEntry(t *testing.T) {
	countries := map[string]string{"GB": "GBP", "TR": "TRY", "JP": "JPY", "CH": "CHF", "DE": "EUR"}
	tbl := table.NewStaticTable(countries, nil)

	for country, expected := range countries {
		httpClient := new(mocks.MockHTTPClient)
		httpClient.On("Get", mock.Anything, mock.MatchedBy(func(u string) bool {
			return strings.HasSuffix(u, "/v3.1/alpha/"+country)
		})).Return(&service.HTTPResponse{
			StatusCode: http.StatusOK,
			Body:       []byte(`[{"currencies": {"XAU": {}}}]`),
		}, nil).Once()

		client := NewCountryAPIClient("http://countries.test", httpClient, tbl, nil, logger.NewNopLogger())
		currency, err := client.Resolve(context.Background(), country)

		require.Error(t, err, country)
		assert.Equal(t, "expected "+expected+" but got XAU", err.Error())
		assert.True(t, apperror.Is(err, apperror.KindValidationMismatch))
		assert.Equal(t, "XAU", currency)
		httpClient.AssertExpectations(t)
	}
}

func TestCountryAPIClient_TransportFailure(t *testing.T) {
	httpClient := new(mocks.MockHTTPClient)
	cause := errors.New("dial tcp: connection refused")
	httpClient.On("Get", mock.Anything, "http://countries.test/v3.1/alpha/GB").Return(nil, cause).Once()

	client := NewCountryAPIClient("http://countries.test/", httpClient, defaultTable(), nil, logger.NewNopLogger())
	currency, err := client.Resolve(context.Background(), "GB")

	require.Error(t, err)
	assert.Empty(t, currency)
	assert.Equal(t, MsgFetchFailed, err.Error())
	assert.True(t, apperror.Is(err, apperror.KindTransport))
	assert.ErrorIs(t, err, cause)
	httpClient.AssertExpectations(t)
}

func TestCountryAPIClient_Cache(t *testing.T) {
	var hits atomic.Int32
	server := newCountryServer(t, map[string]string{
		"GB": `[{"currencies": {"GBP": {}}}]`,
		"TR": `[{"currencies": {"EUR": {}}}]`,
	}, &hits)
	defer server.Close()

	log := logger.NewNopLogger()
	currencyCache := cache.NewCurrencyCache(time.Hour)
	client := NewCountryAPIClient(server.URL, NewHTTPClient(5*time.Second, log), defaultTable(), currencyCache, log)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		currency, err := client.Resolve(ctx, "GB")
		require.NoError(t, err)
		assert.Equal(t, "GBP", currency)
	}
	assert.Equal(t, int32(1), hits.Load())

	// Rejected resolutions are not cached
	for i := 0; i < 2; i++ {
		_, err := client.Resolve(ctx, "TR")
		require.Error(t, err)
	}
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, 1, currencyCache.Size())
}

func TestHTTPClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(50 * time.Millisecond)
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	client := NewHTTPClient(5*time.Millisecond, logger.NewNopLogger())
	_, err := client.Get(context.Background(), server.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to execute request")
}
