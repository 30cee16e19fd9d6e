package util

import (
	"strings"
	"unicode"
)

const (
	minIBANLength = 15
	maxIBANLength = 34
)

// NormalizeIBAN drops whitespace and upper-cases the rest, which is the
// form account numbers are stored in.
func NormalizeIBAN(value string) string {
	return strings.ToUpper(strings.Join(strings.FieldsFunc(value, unicode.IsSpace), ""))
}

// ValidIBAN reports whether value, once normalized, has the IBAN shape
// (country letters, check digits, alphanumeric account part) and passes the
// mod-97 checksum.
func ValidIBAN(value string) bool {
	iban := NormalizeIBAN(value)
	if len(iban) < minIBANLength || len(iban) > maxIBANLength {
		return false
	}
	for i := 0; i < len(iban); i++ {
		ch := iban[i]
		switch {
		case i < 2 && !isUpper(ch):
			return false
		case i >= 2 && i < 4 && !isDigit(ch):
			return false
		case i >= 4 && !isUpper(ch) && !isDigit(ch):
			return false
		}
	}
	return ibanMod97(iban[4:]+iban[:4]) == 1
}

// ibanMod97 folds the digits of s, letters expanded to 10..35, modulo 97.
func ibanMod97(s string) int {
	remainder := 0
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if isDigit(ch) {
			remainder = (remainder*10 + int(ch-'0')) % 97
			continue
		}
		remainder = (remainder*100 + int(ch-'A') + 10) % 97
	}
	return remainder
}

func isUpper(ch byte) bool { return ch >= 'A' && ch <= 'Z' }
func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }
