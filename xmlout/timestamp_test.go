package xmlout

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFiletimeTo8601(t *testing.T) {
	// 1970-01-01T00:00:00Z in FILETIME ticks.
	const epochTicks = 116444736000000000

	stamp, err := FiletimeTo8601(epochTicks)
	require.NoError(t, err)
	require.Equal(t, "1970-01-01T00:00:00Z", stamp)

	// One second later, sub-second ticks floored away.
	stamp, err = FiletimeTo8601(epochTicks + 10_000_000 + 123)
	require.NoError(t, err)
	require.Equal(t, "1970-01-01T00:00:01Z", stamp)

	// 2009-02-13T23:31:30Z, a round Unix timestamp (1234567890).
	stamp, err = FiletimeTo8601(epochTicks + 1234567890*10_000_000)
	require.NoError(t, err)
	require.Equal(t, "2009-02-13T23:31:30Z", stamp)
}

func TestFiletimeTo8601Unset(t *testing.T) {
	stamp, err := FiletimeTo8601(0)
	require.NoError(t, err)
	require.Empty(t, stamp)
}

func TestFiletimeTo8601OutOfRange(t *testing.T) {
	// Far enough in the future to land past year 9999.
	_, err := FiletimeTo8601(1 << 62)
	require.Error(t, err)
}
