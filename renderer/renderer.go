// Package renderer turns valuation results into Markdown documents.
package renderer

import "github.com/etnz/valuation"

// signed formats m with an explicit sign, for changes.
func signed(m valuation.Money) string {
	if m.IsPositive() {
		return "+" + m.String()
	}
	return m.String()
}
