// Package fixedpoint handles one-decimal measurements stored as integer tenths.
package fixedpoint

import "strconv"

// Parse converts text such as "-3.2" or "41.9" into tenths (-32, 419).
// The input must hold an optional '-', digits, '.', and exactly one
// fractional digit; anything else yields an unspecified value.
func Parse(b []byte) int64 {
	var v int64
	neg := false
	for _, c := range b {
		switch {
		case c == '-':
			neg = true
		case c >= '0' && c <= '9':
			v = v*10 + int64(c-'0')
		}
	}
	if neg {
		return -v
	}
	return v
}

// Format renders tenths with exactly one fractional digit.
func Format(t int64) string {
	return string(AppendFormat(make([]byte, 0, 8), t))
}

// AppendFormat appends the rendering of t to dst.
func AppendFormat(dst []byte, t int64) []byte {
	u := uint64(t)
	if t < 0 {
		dst = append(dst, '-')
		u = uint64(-t)
	}
	dst = strconv.AppendUint(dst, u/10, 10)
	dst = append(dst, '.')
	return append(dst, byte('0'+u%10))
}

// Mean returns sum/count in tenths, rounded half-up toward positive
// infinity. count must be > 0.
func Mean(sum int64, count uint64) int64 {
	c := int64(count)
	return floorDiv(2*sum+c, 2*c)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
