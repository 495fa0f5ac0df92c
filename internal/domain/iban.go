package domain

import "strings"

// NormalizeIBAN strips all whitespace from an IBAN and uppercases it, so that
// "FR76 1695 8000 0100 0571 1982 492" and "fr7616958000010005711982492" yield
// the same credential lookup key regardless of how the source formatted it.
func NormalizeIBAN(iban string) string {
	return strings.ToUpper(strings.Join(strings.Fields(iban), ""))
}
