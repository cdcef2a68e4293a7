// Package units converts known imperial attribute values to metric.
package units

import (
	"math"
	"strconv"
	"strings"
)

const (
	ozToMl = 29.5735
	lbToKg = 0.453592
)

// Converted is the structured replacement for a recognized unit value.
// Source keeps the original string for display and audit purposes.
type Converted struct {
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	Source string  `json:"source"`
}

// Convert normalizes the value for the given attribute key. Capacity and
// volume values expressed in ounces become milliliters, weights in
// pounds become kilograms. Anything else, including values whose numeric
// prefix fails to parse, is returned unchanged. Convert never fails.
func Convert(key string, value any) any {
	s, ok := value.(string)
	if !ok {
		return value
	}
	lower := strings.ToLower(s)
	switch {
	case (key == "capacity" || key == "volume") && strings.Contains(lower, "oz"):
		ounces, err := numericPrefix(lower, "oz")
		if err != nil {
			return value
		}
		return Converted{Value: round2(ounces * ozToMl), Unit: "ml", Source: s}
	case key == "weight" && strings.Contains(lower, "lb"):
		pounds, err := numericPrefix(lower, "lb")
		if err != nil {
			return value
		}
		return Converted{Value: round2(pounds * lbToKg), Unit: "kg", Source: s}
	}
	return value
}

func numericPrefix(lower, unit string) (float64, error) {
	prefix := strings.TrimSpace(strings.SplitN(lower, unit, 2)[0])
	return strconv.ParseFloat(prefix, 64)
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
