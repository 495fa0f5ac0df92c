/**
 * @description
 * Amount parsing for the billing-service. Board operators type amounts by
 * hand, so the value read off a board column arrives as free text: currency
 * symbol, French thousand separators (regular, no-break or narrow no-break
 * spaces) and a comma decimal separator are all common.
 *
 * @notes
 * - Unparsable input yields 0 rather than an error. A malformed board field
 *   must not abort the whole workflow; callers treat 0 as "no amount" and
 *   refuse to create a payment for it.
 */

package app

import (
	"math"
	"strconv"
	"strings"
)

// ParseAmountCents converts a human-entered amount string into euro cents,
// rounded to the nearest cent. Returns 0 for anything it cannot parse.
func ParseAmountCents(raw string) int64 {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '€', '$':
			return -1
		case ' ', '\u00a0', '\u202f', '\u2009':
			return -1
		}
		return r
	}, raw)

	// French decimal comma, but only when it cannot be confused with a
	// thousands separator ("1,250.00" stays dot-decimal).
	if strings.Contains(cleaned, ",") && !strings.Contains(cleaned, ".") {
		cleaned = strings.Replace(cleaned, ",", ".", 1)
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	cents := int64(math.Round(value * 100))
	if cents < 0 {
		return 0
	}
	return cents
}
