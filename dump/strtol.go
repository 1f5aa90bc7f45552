// Copyright 2017-18 Daniel Swarbrick. All rights reserved.
// Use of this source code is governed by a GPL license that can be found in the LICENSE file.

package dump

import (
	"strings"
)

// ParseNumber parses the longest numeric prefix of s, in the manner of strtol(3): leading
// whitespace and a sign are allowed. With base 0, a 0x prefix selects hex and a leading 0 selects
// octal, otherwise the number is decimal. ok is false if s has no numeric prefix at all.
func ParseNumber(s string, base int) (v int64, ok bool) {
	s = strings.TrimLeft(s, " \t\n\v\f\r")

	neg := false
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}

	b := int64(base)

	switch {
	case (base == 0 || base == 16) && len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') && digitVal(s[2]) < 16:
		b = 16
		s = s[2:]
	case base == 0 && len(s) > 0 && s[0] == '0':
		// The leading 0 is itself a valid octal number
		b = 8
		s = s[1:]
		ok = true
	case base == 0:
		b = 10
	}

	for i := 0; i < len(s); i++ {
		d := digitVal(s[i])
		if d >= b {
			break
		}
		v = v*b + d
		ok = true
	}

	if neg {
		v = -v
	}

	return v, ok
}

// ParseInt parses s like strtol(s, NULL, 0). Unparseable input yields 0.
func ParseInt(s string) int64 {
	v, _ := ParseNumber(s, 0)
	return v
}

// Atoi parses s like atoi(3): decimal only, ignoring anything after the leading digits.
// Unparseable input yields 0.
func Atoi(s string) int64 {
	v, _ := ParseNumber(s, 10)
	return v
}

func digitVal(c byte) int64 {
	switch {
	case c >= '0' && c <= '9':
		return int64(c - '0')
	case c >= 'a' && c <= 'f':
		return int64(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int64(c-'A') + 10
	}

	return 99
}
