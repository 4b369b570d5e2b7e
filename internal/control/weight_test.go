package control

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAbsoluteWeight(t *testing.T) {
	for v := 0; v <= 256; v++ {
		assert.Equal(t, strconv.Itoa(v), Absolute(uint16(v)).String())
	}
	for _, v := range []uint16{257, 300, 1000, 65535} {
		assert.Equal(t, "256", Absolute(v).String(), "value %d should clamp", v)
	}
}

func TestRelativeWeight(t *testing.T) {
	for v := 0; v <= 100; v++ {
		assert.Equal(t, strconv.Itoa(v)+"%", Relative(uint8(v)).String())
	}
	for _, v := range []uint8{101, 150, 255} {
		assert.Equal(t, "100%", Relative(v).String(), "value %d should clamp", v)
	}
}

func TestZeroWeight(t *testing.T) {
	var w Weight
	assert.Equal(t, "0", w.String())
}

func TestParseWeight(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0"},
		{"42", "42"},
		{"1000", "256"},
		{"50%", "50%"},
		{"250%", "100%"},
		{"99999999999%", "100%"},
	}
	for _, tt := range tests {
		w, err := ParseWeight(tt.in)
		if assert.NoError(t, err, tt.in) {
			assert.Equal(t, tt.want, w.String())
		}
	}

	for _, in := range []string{"", "%", "-5", "fifty", "5%%"} {
		_, err := ParseWeight(in)
		assert.Error(t, err, in)
	}
}
