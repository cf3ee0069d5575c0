package tool

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStartEndOfDay(t *testing.T) {
	ts := time.Date(2025, 3, 14, 15, 9, 26, 5, time.UTC)
	require.Equal(t, time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC), StartOfDay(ts))
	require.Equal(t, time.Date(2025, 3, 14, 23, 59, 59, 999000000, time.UTC), EndOfDay(ts))
}

func TestAddMonthsClamped(t *testing.T) {
	tests := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{"plain", time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC), -1, time.Date(2025, 4, 14, 10, 0, 0, 0, time.UTC)},
		{"clamp to feb", time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC), -1, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
		{"clamp leap feb", time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC), -1, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"year boundary", time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC), -1, time.Date(2024, 12, 15, 0, 0, 0, 0, time.UTC)},
		{"forward clamp", time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), 1, time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, AddMonthsClamped(tt.in, tt.n))
		})
	}
}

func TestCeilDays(t *testing.T) {
	day := 24 * time.Hour
	require.Equal(t, 10, CeilDays(10*day))
	require.Equal(t, 11, CeilDays(10*day+time.Second))
	require.Equal(t, 1, CeilDays(time.Millisecond))
	require.Equal(t, 0, CeilDays(0))
	require.Equal(t, 0, CeilDays(-time.Hour))
	require.Equal(t, -1, CeilDays(-day-time.Hour))
}
