package decoder

import (
	"math"
	"strconv"
)

// numericPrefix finds the longest prefix of s that strtol(3) with base 0 would
// consume: optional whitespace and sign, then 0x/0X for hex, a leading 0 for octal,
// decimal otherwise.
func numericPrefix(s string) (neg bool, digits string, base int) {
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}

	base = 10
	switch {
	case i+2 < len(s) && s[i] == '0' && (s[i+1] == 'x' || s[i+1] == 'X') && digitValue(s[i+2]) < 16:
		base = 16
		i += 2
	case i < len(s) && s[i] == '0':
		base = 8
	}

	j := i
	for j < len(s) && digitValue(s[j]) < base {
		j++
	}
	return neg, s[i:j], base
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return 99
}

// parseInt converts permissively: trailing garbage is ignored, a value without
// digits is 0 and out-of-range values saturate.
func parseInt(s string) int64 {
	neg, digits, base := numericPrefix(s)
	if digits == "" {
		return 0
	}
	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		u = math.MaxUint64
	}
	if neg {
		if u >= 1<<63 {
			return math.MinInt64
		}
		return -int64(u)
	}
	if u > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(u)
}

// parseUint follows strtoul(3): a leading minus negates in unsigned arithmetic
// and overflow saturates to the maximum value.
func parseUint(s string) uint64 {
	neg, digits, base := numericPrefix(s)
	if digits == "" {
		return 0
	}
	u, err := strconv.ParseUint(digits, base, 64)
	if err != nil {
		return math.MaxUint64
	}
	if neg {
		return -u
	}
	return u
}
