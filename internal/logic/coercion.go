// internal/logic/coercion.go
package logic

import (
	"math"
	"strconv"
	"strings"
)

// parseDecimal converts raw answer text to float64 for numeric operators.
// Surrounding whitespace is ignored. Whitespace-only strings, NaN and
// infinities are rejected so comparisons against them are always false.
func parseDecimal(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
