package handler

import (
	"time"

	"github.com/damon-houk/fx-threshold-checker/internal/domain/apperror"
	"github.com/damon-houk/fx-threshold-checker/internal/domain/entity"
)

// HealthResponse represents the response for the health endpoint
type HealthResponse struct {
	Status string `json:"status"`
}

// CheckResultResponse represents one country's latest check
type CheckResultResponse struct {
	RunID       string  `json:"run_id"`
	CountryCode string  `json:"country_code"`
	Currency    string  `json:"currency,omitempty"`
	Rate        float64 `json:"rate"`
	Threshold   float64 `json:"threshold"`
	Exceeded    bool    `json:"exceeded"`
	CheckedAt   string  `json:"checked_at"`
	ErrorKind   string  `json:"error_kind,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error       string `json:"error"`
	Status      int    `json:"status"`
	Description string `json:"description,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
}

func toCheckResultResponse(r entity.CheckResult) CheckResultResponse {
	resp := CheckResultResponse{
		RunID:       r.RunID,
		CountryCode: r.CountryCode,
		Currency:    r.Currency,
		Rate:        r.Rate,
		Threshold:   r.Threshold,
		Exceeded:    r.Exceeded,
		CheckedAt:   r.CheckedAt.UTC().Format(time.RFC3339),
	}
	if r.Err != nil {
		resp.Error = r.Err.Error()
		if kind, ok := apperror.KindOf(r.Err); ok {
			resp.ErrorKind = string(kind)
		}
	}
	return resp
}
