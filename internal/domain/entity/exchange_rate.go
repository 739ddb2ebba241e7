package entity

import (
	"time"
)

// ExchangeRate represents a live rate read from the converter page
type ExchangeRate struct {
	Base        string    `json:"base"`
	Quote       string    `json:"quote"`
	Rate        float64   `json:"rate"`
	RetrievedAt time.Time `json:"retrieved_at"`
}
