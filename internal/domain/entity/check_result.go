package entity

import (
	"time"
)

// CheckResult is the outcome of one threshold check for a country
type CheckResult struct {
	RunID       string    `json:"run_id"`
	CountryCode string    `json:"country_code"`
	Currency    string    `json:"currency,omitempty"`
	Rate        float64   `json:"rate"`
	Threshold   float64   `json:"threshold"`
	Exceeded    bool      `json:"exceeded"`
	Err         error     `json:"-"`
	CheckedAt   time.Time `json:"checked_at"`
}

// Succeeded reports whether the rate was retrieved
func (r CheckResult) Succeeded() bool {
	return r.Err == nil
}
