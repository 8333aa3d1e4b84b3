package xmlout

import (
	"fmt"
	"time"
)

// Windows FILETIME counts 100-nanosecond ticks since 1601-01-01T00:00:00Z.
const (
	windowsTick    = 10_000_000
	secToUnixEpoch = 11_644_473_600
)

// FiletimeTo8601 converts a FILETIME tick count to an ISO 8601 UTC string of
// the form 2006-01-02T15:04:05Z. A tick count of exactly 0 means no
// timestamp was recorded and yields the empty string; hives never carry a
// legitimate 1601 epoch instant.
func FiletimeTo8601(ticks int64) (string, error) {
	if ticks == 0 {
		return "", nil
	}
	secs := ticks/windowsTick - secToUnixEpoch
	t := time.Unix(secs, 0).UTC()
	if y := t.Year(); y < 0 || y > 9999 {
		return "", fmt.Errorf("xmlout: timestamp %d outside representable range (year %d)", ticks, y)
	}
	return t.Format("2006-01-02T15:04:05Z"), nil
}
