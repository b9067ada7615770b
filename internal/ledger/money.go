package ledger

import (
	"errors"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var ErrInvalidAmount = errors.New("invalid amount")

// ParseCents reads a decimal money amount such as "1.234,56", "1234.56" or
// "-12,5". A comma is always the decimal separator; without a comma a dot
// followed by at most two digits is decimal, otherwise grouping.
func ParseCents(value string) (int64, error) {
	value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "€"))
	if value == "" {
		return 0, ErrInvalidAmount
	}

	negative := false
	switch value[0] {
	case '-':
		negative = true
		value = value[1:]
	case '+':
		value = value[1:]
	}

	integerPart, fractionPart := value, ""
	if comma := strings.LastIndex(value, ","); comma >= 0 {
		integerPart, fractionPart = value[:comma], value[comma+1:]
		integerPart = strings.ReplaceAll(integerPart, ".", "")
	} else if dot := strings.LastIndex(value, "."); dot >= 0 && len(value)-dot-1 <= 2 && strings.Count(value, ".") == 1 {
		integerPart, fractionPart = value[:dot], value[dot+1:]
	} else {
		integerPart = strings.ReplaceAll(value, ".", "")
	}

	if integerPart == "" {
		integerPart = "0"
	}
	if !digitsOnly(integerPart) || !digitsOnly(fractionPart) {
		return 0, ErrInvalidAmount
	}

	whole, err := strconv.ParseInt(integerPart, 10, 64)
	if err != nil || whole > (1<<63-1)/100 {
		return 0, ErrInvalidAmount
	}

	var fraction int64
	if len(fractionPart) > 0 {
		fraction = int64(fractionPart[0]-'0') * 10
	}
	if len(fractionPart) > 1 {
		fraction += int64(fractionPart[1] - '0')
	}
	if len(fractionPart) > 2 && fractionPart[2] >= '5' {
		fraction++
	}

	cents := whole*100 + fraction
	if negative {
		cents = -cents
	}
	return cents, nil
}

func digitsOnly(value string) bool {
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// FormatCents renders cents as euros using the grouping and decimal
// separators of locale, e.g. "1.234,56 €" for German.
func FormatCents(cents int64, locale language.Tag) string {
	printer := message.NewPrinter(locale)
	return printer.Sprintf("%.2f €", float64(cents)/100)
}

// ParseLocale falls back to German for unknown or empty tags.
func ParseLocale(value string) language.Tag {
	tag, err := language.Parse(value)
	if err != nil {
		return language.German
	}
	return tag
}
