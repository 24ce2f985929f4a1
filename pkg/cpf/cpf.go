// Package cpf validates and normalizes Brazilian individual taxpayer numbers.
package cpf

import "strings"

const length = 11

// Normalize keeps only the ASCII digits of s.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

// IsValid reports whether s, after Normalize, is an 11 digit CPF whose two
// check digits are correct. Sequences of one repeated digit are rejected.
func IsValid(s string) bool {
	d := Normalize(s)
	if len(d) != length || repeated(d) {
		return false
	}
	return checkDigit(d[:9]) == d[9] && checkDigit(d[:10]) == d[10]
}

// Format renders a valid CPF as ###.###.###-##; anything else is returned normalized.
func Format(s string) string {
	d := Normalize(s)
	if len(d) != length {
		return d
	}
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
}

func repeated(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}

// checkDigit computes the mod-11 digit over prefix with weights len+1 down to 2.
func checkDigit(prefix string) byte {
	sum := 0
	weight := len(prefix) + 1
	for i := 0; i < len(prefix); i++ {
		sum += int(prefix[i]-'0') * weight
		weight--
	}
	rem := sum % 11
	if rem < 2 {
		return '0'
	}
	return byte('0' + 11 - rem)
}
