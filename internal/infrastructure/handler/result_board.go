package handler

import (
	"sort"
	"sync"

	"github.com/damon-houk/fx-threshold-checker/internal/domain/entity"
)

// ResultBoard keeps the latest check result per country. It is safe for concurrent use.
type ResultBoard struct {
	mu      sync.RWMutex
	results map[string]entity.CheckResult
}

// NewResultBoard creates an empty result board
func NewResultBoard() *ResultBoard {
	return &ResultBoard{results: make(map[string]entity.CheckResult)}
}

// Record replaces the stored result for the result's country
func (b *ResultBoard) Record(results ...entity.CheckResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, r := range results {
		b.results[r.CountryCode] = r
	}
}

// Get returns the latest result for a country
func (b *ResultBoard) Get(countryCode string) (entity.CheckResult, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	r, ok := b.results[countryCode]
	return r, ok
}

// All returns the latest results ordered by country code
func (b *ResultBoard) All() []entity.CheckResult {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]entity.CheckResult, 0, len(b.results))
	for _, r := range b.results {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CountryCode < out[j].CountryCode
	})
	return out
}
