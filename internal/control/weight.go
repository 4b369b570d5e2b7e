package control

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	maxAbsoluteWeight = 256
	maxRelativeWeight = 100
)

// Weight is a server weight rendered in the form expected by "set weight".
// Build one with Absolute or Relative.
type Weight struct {
	value string
}

// Absolute returns a weight on HAProxy's absolute scale, 0 to 256.
// Larger values are clamped to 256.
func Absolute(value uint16) Weight {
	if value > maxAbsoluteWeight {
		value = maxAbsoluteWeight
	}
	return Weight{value: strconv.FormatUint(uint64(value), 10)}
}

// Relative returns a weight expressed as a percentage of the server's
// configured weight, 0 to 100. Larger values are clamped to 100%.
func Relative(value uint8) Weight {
	if value > maxRelativeWeight {
		value = maxRelativeWeight
	}
	return Weight{value: strconv.FormatUint(uint64(value), 10) + "%"}
}

// String returns the wire token
func (w Weight) String() string {
	if w.value == "" {
		return "0"
	}
	return w.value
}

// ParseWeight reads "N" as an absolute weight and "N%" as a relative one.
// Out-of-range values are clamped like Absolute and Relative do.
func ParseWeight(s string) (Weight, error) {
	relative := strings.HasSuffix(s, "%")
	n, err := strconv.ParseUint(strings.TrimSuffix(s, "%"), 10, 64)
	if err != nil {
		return Weight{}, fmt.Errorf("invalid weight %q: %w", s, err)
	}
	if relative {
		if n > maxRelativeWeight {
			n = maxRelativeWeight
		}
		return Relative(uint8(n)), nil
	}
	if n > maxAbsoluteWeight {
		n = maxAbsoluteWeight
	}
	return Absolute(uint16(n)), nil
}
