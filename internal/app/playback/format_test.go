package playback

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatTime(t *testing.T) {
	tests := []struct {
		name     string
		seconds  float64
		expected string
	}{
		{name: "zero", seconds: 0, expected: "0:00"},
		{name: "one minute five", seconds: 65, expected: "1:05"},
		{name: "fraction is floored", seconds: 59.99, expected: "0:59"},
		{name: "long track", seconds: 212.4, expected: "3:32"},
		{name: "over an hour", seconds: 3725, expected: "62:05"},
		{name: "NaN", seconds: math.NaN(), expected: "0:00"},
		{name: "positive infinity", seconds: math.Inf(1), expected: "0:00"},
		{name: "negative", seconds: -3, expected: "0:00"},
		{name: "beyond int64", seconds: 1e19, expected: "0:00"},
		{name: "max float", seconds: math.MaxFloat64, expected: "0:00"},
		{name: "largest representable", seconds: 9.2e18, expected: "153333333333333333:20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatTime(tt.seconds))
		})
	}
}
