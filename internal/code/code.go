// Package code generates and checks the short numeric codes sent over Telegram.
package code

import "math/rand/v2"

// Generator returns a numeric code of n digits.
type Generator func(n int) string

// Numeric draws n uniform digits. Not cryptographically strong; codes only need
// to resist casual guessing within their short lifetime.
func Numeric(n int) string {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte('0' + rand.IntN(10))
	}
	return string(buf)
}

// IsNumeric reports whether s is exactly n ASCII digits.
func IsNumeric(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
