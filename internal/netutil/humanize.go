package netutil

import (
	"fmt"
	"math"
	"time"
)

var byteUnits = [...]string{"B", "KiB", "MiB", "GiB", "TiB"}

// HumanizeBytes renders a byte count the way the frontend displays WireGuard
// transfer counters, e.g. "1.50 KiB".
func HumanizeBytes(bytes uint64) string {
	if bytes == 0 {
		return "0 B"
	}

	k := 1024.0
	i := int(math.Floor(math.Log(float64(bytes)) / math.Log(k)))
	if i >= len(byteUnits) {
		i = len(byteUnits) - 1
	}
	if i < 0 {
		i = 0
	}

	if i == 0 {
		return fmt.Sprintf("%d %s", bytes, byteUnits[i])
	}
	value := float64(bytes) / math.Pow(k, float64(i))
	return fmt.Sprintf("%.2f %s", value, byteUnits[i])
}

// HumanizeHandshake renders a WireGuard latest-handshake UNIX timestamp as a
// relative human string, or "" if there has been no handshake yet.
func HumanizeHandshake(unixSeconds int64) string {
	if unixSeconds == 0 {
		return ""
	}

	handshake := time.Unix(unixSeconds, 0)
	elapsed := time.Since(handshake)

	if elapsed < 0 {
		return "in the future"
	}

	seconds := int64(elapsed.Seconds())
	if seconds < 60 {
		return pluralize(seconds, "second")
	}
	minutes := seconds / 60
	if minutes < 60 {
		return pluralize(minutes, "minute")
	}
	hours := minutes / 60
	if hours < 24 {
		return pluralize(hours, "hour")
	}
	days := hours / 24
	return pluralize(days, "day")
}

func pluralize(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s ago", n, unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}
