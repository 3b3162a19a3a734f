package utils

import (
	"regexp"
	"strconv"
	"strings"
)

// currencyRe matches the first comma-grouped digit run following a currency
// marker, e.g. "$1,234" or "€ 89.50 nightly".
var currencyRe = regexp.MustCompile(`[$€£]\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)

// distanceRe matches the trailing distance annotation some location sub-lines
// carry, e.g. "New York, US - 5385.12 mi away".
var distanceRe = regexp.MustCompile(`\s*-\s*[0-9]+(?:\.[0-9]+)?\s*mi\s+away\s*$`)

// ParseCurrency extracts the first currency amount from raw page text. The
// second return is false when no amount is present — callers must treat that
// as "no price", never as zero.
func ParseCurrency(text string) (float64, bool) {
	m := currencyRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseCurrencyPtr is ParseCurrency for callers carrying nullable prices.
func ParseCurrencyPtr(text string) *float64 {
	v, ok := ParseCurrency(text)
	if !ok {
		return nil
	}
	return &v
}

// CleanLocation strips the distance suffix from a location sub-line and trims
// whitespace. Idempotent: already-clean input passes through unchanged.
func CleanLocation(raw string) string {
	return strings.TrimSpace(distanceRe.ReplaceAllString(raw, ""))
}

// NormalizeName lowercases and collapses runs of whitespace, the form both
// sides of a fuzzy name comparison are reduced to first.
func NormalizeName(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
