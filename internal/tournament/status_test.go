package tournament

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from    Status
		to      Status
		allowed bool
	}{
		{StatusUpcoming, StatusLive, true},
		{StatusHot, StatusLive, true},
		{StatusUpcoming, StatusCancelled, true},
		{StatusHot, StatusCancelled, true},
		{StatusLive, StatusCancelled, true},
		{StatusLive, StatusCompleted, true},

		{StatusUpcoming, StatusCompleted, false},
		{StatusHot, StatusCompleted, false},
		{StatusCompleted, StatusLive, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusLive, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusLive, StatusUpcoming, false},
		{StatusCompleted, StatusUpcoming, false},
	}

	for _, tt := range tests {
		require.Equal(t, tt.allowed, CanTransition(tt.from, tt.to),
			"%s -> %s", tt.from, tt.to)
	}
}

func TestStatusOpen(t *testing.T) {
	require.True(t, StatusUpcoming.Open())
	require.True(t, StatusHot.Open())
	require.False(t, StatusLive.Open())
	require.False(t, StatusCompleted.Open())
	require.False(t, StatusCancelled.Open())
}

func TestStatusTerminal(t *testing.T) {
	require.True(t, StatusCompleted.Terminal())
	require.True(t, StatusCancelled.Terminal())
	require.False(t, StatusUpcoming.Terminal())
	require.False(t, StatusLive.Terminal())
}

func TestStatusValid(t *testing.T) {
	require.True(t, StatusHot.Valid())
	require.False(t, Status("paused").Valid())
}
