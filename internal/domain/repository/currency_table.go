// Package repository internal/domain/repository/currency_table.go
package repository

// CurrencyTable is the static, externally supplied reference data the resolver and the
// scraper check their results against
type CurrencyTable interface {
	// ExpectedCurrency returns the currency code expected for a country code
	ExpectedCurrency(countryCode string) (string, bool)

	// DisplayName returns the label the converter page shows for a currency code
	DisplayName(currencyCode string) (string, bool)
}
