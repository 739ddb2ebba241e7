// Package service internal/domain/service/ports.go
package service

import (
	"context"
)

// HTTPResponse is the part of an HTTP response the resolver needs
type HTTPResponse struct {
	StatusCode int
	Body       []byte
}

// HTTPClient performs plain GET requests
type HTTPClient interface {
	Get(ctx context.Context, url string) (*HTTPResponse, error)
}

// CurrencyResolver maps a country code to its currency code. On failure the returned
// string may carry a partial value (e.g. the rejected code of a validation mismatch).
type CurrencyResolver interface {
	Resolve(ctx context.Context, countryCode string) (string, error)
}

// RateConverter returns the live rate from one currency to another. An empty target
// selects the reference currency.
type RateConverter interface {
	Convert(ctx context.Context, from, to string) (float64, error)
}
