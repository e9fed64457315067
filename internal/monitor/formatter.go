package monitor

import (
	"fmt"
	"time"
)

// FormatRate renders a per-minute rate.
func FormatRate(perMinute float64) string {
	return fmt.Sprintf("%.1f/min", perMinute)
}

// FormatLatency renders a probe latency given in seconds. Loopback probes
// are usually sub-millisecond, so those are shown in microseconds.
func FormatLatency(seconds float64) string {
	d := time.Duration(seconds * float64(time.Second))
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%.1fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// FormatPercentage renders a 0-1 ratio as a whole percentage.
func FormatPercentage(ratio float64) string {
	return fmt.Sprintf("%3.0f%%", clamp(ratio)*100)
}

// FormatMemory renders a resident set size given in megabytes.
func FormatMemory(mb float64) string {
	if mb >= 1024 {
		return fmt.Sprintf("%.2f GiB", mb/1024)
	}
	return fmt.Sprintf("%.1f MiB", mb)
}

// FormatUptime renders seconds since process start.
func FormatUptime(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", max(seconds, 0))
	}
	days := seconds / 86400
	hours := seconds % 86400 / 3600
	minutes := seconds % 3600 / 60
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	default:
		return fmt.Sprintf("%dm", minutes)
	}
}
