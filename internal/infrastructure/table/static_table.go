// Package table holds the configuration-supplied reference data used to sanity-check
// country and currency lookups.
package table

import (
	"strings"

	"github.com/damon-houk/fx-threshold-checker/internal/domain/repository"
)

// StaticTable implements repository.CurrencyTable over two in-memory maps
type StaticTable struct {
	countries    map[string]string
	displayNames map[string]string
}

var _ repository.CurrencyTable = (*StaticTable)(nil)

// NewStaticTable copies the given maps, normalising every code to upper case
func NewStaticTable(countries, displayNames map[string]string) *StaticTable {
	t := &StaticTable{
		countries:    make(map[string]string, len(countries)),
		displayNames: make(map[string]string, len(displayNames)),
	}
	for country, currency := range countries {
		t.countries[strings.ToUpper(country)] = strings.ToUpper(currency)
	}
	for currency, name := range displayNames {
		t.displayNames[strings.ToUpper(currency)] = name
	}
	return t
}

// ExpectedCurrency returns the currency code expected for a country code
func (t *StaticTable) ExpectedCurrency(countryCode string) (string, bool) {
	currency, ok := t.countries[strings.ToUpper(countryCode)]
	return currency, ok
}

// DisplayName returns the converter page label for a currency code
func (t *StaticTable) DisplayName(currencyCode string) (string, bool) {
	name, ok := t.displayNames[strings.ToUpper(currencyCode)]
	return name, ok
}

// CountryCodes lists every country the table knows about
func (t *StaticTable) CountryCodes() []string {
	codes := make([]string, 0, len(t.countries))
	for code := range t.countries {
		codes = append(codes, code)
	}
	return codes
}
