// Package validation implements the input checks for payment instruments.
package validation

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var cardSeparators = regexp.MustCompile(`[\s-]`)

// NormalizeCardNumber strips spaces and dashes from a card number.
func NormalizeCardNumber(number string) string {
	return cardSeparators.ReplaceAllString(number, "")
}

// LuhnCheck validates a card number checksum. Numbers must be 13-19
// digits after normalization.
func LuhnCheck(number string) bool {
	digits := NormalizeCardNumber(number)
	if len(digits) < 13 || len(digits) > 19 {
		return false
	}

	total := 0
	for i := 0; i < len(digits); i++ {
		ch := digits[len(digits)-1-i]
		if ch < '0' || ch > '9' {
			return false
		}
		value := int(ch - '0')
		if i%2 == 1 {
			value *= 2
			if value > 9 {
				value -= 9
			}
		}
		total += value
	}
	return total%10 == 0
}

// DetectCardNetwork derives the network from the card number prefix.
func DetectCardNetwork(number string) string {
	digits := NormalizeCardNumber(number)
	switch {
	case strings.HasPrefix(digits, "4"):
		return "visa"
	case hasPrefixInRange(digits, 51, 55):
		return "mastercard"
	case strings.HasPrefix(digits, "34"), strings.HasPrefix(digits, "37"):
		return "amex"
	case strings.HasPrefix(digits, "60"), strings.HasPrefix(digits, "65"), hasPrefixInRange(digits, 81, 89):
		return "rupay"
	default:
		return "unknown"
	}
}

func hasPrefixInRange(digits string, lo, hi int) bool {
	for p := lo; p <= hi; p++ {
		if strings.HasPrefix(digits, strconv.Itoa(p)) {
			return true
		}
	}
	return false
}

// ValidateExpiry reports whether the expiry month/year is current or in
// the future. Two-digit years are interpreted as 20YY.
func ValidateExpiry(month, year string, now time.Time) bool {
	m, err := strconv.Atoi(month)
	if err != nil || m < 1 || m > 12 {
		return false
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return false
	}
	if len(year) == 2 {
		y += 2000
	}
	return y > now.Year() || (y == now.Year() && m >= int(now.Month()))
}
