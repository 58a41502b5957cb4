// Package money renders rupiah amounts for API responses.
package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// Format renders amount with comma grouping, e.g. "Rp. 1,000".
func Format(amount int64) string {
	return printer.Sprintf("Rp. %d", amount)
}
