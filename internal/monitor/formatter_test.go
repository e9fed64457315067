package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatRate(t *testing.T) {
	assert.Equal(t, "45.7/min", FormatRate(45.66))
	assert.Equal(t, "0.0/min", FormatRate(0))
}

func TestFormatLatency(t *testing.T) {
	tests := map[string]struct {
		seconds float64
		want    string
	}{
		"loopback":     {0.000250, "250µs"},
		"zero":         {0, "0µs"},
		"milliseconds": {0.0123, "12.3ms"},
		"seconds":      {1.234, "1.23s"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatLatency(tt.seconds))
		})
	}
}

func TestFormatPercentage(t *testing.T) {
	assert.Equal(t, " 98%", FormatPercentage(0.98))
	assert.Equal(t, "  0%", FormatPercentage(-1))
	assert.Equal(t, "100%", FormatPercentage(1.5))
}

func TestFormatMemory(t *testing.T) {
	assert.Equal(t, "24.5 MiB", FormatMemory(24.5))
	assert.Equal(t, "0.0 MiB", FormatMemory(0))
	assert.Equal(t, "1.50 GiB", FormatMemory(1536))
}

func TestFormatUptime(t *testing.T) {
	tests := map[string]struct {
		seconds int64
		want    string
	}{
		"seconds":    {42, "42s"},
		"negative":   {-5, "0s"},
		"minutes":    {900, "15m"},
		"hours":      {8100, "2h 15m"},
		"days":       {3*86400 + 4*3600 + 59, "3d 4h"},
		"exact hour": {7200, "2h 0m"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatUptime(tt.seconds))
		})
	}
}
