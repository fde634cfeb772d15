package tournament

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScaledAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount int64
		filled int
		max    int
		want   int64
	}{
		{"full tournament pays raw", 100000, 100, 100, 100000},
		{"empty tournament pays raw", 100000, 0, 100, 100000},
		{"half filled pays half", 100000, 50, 100, 50000},
		{"rounds to nearest cent", 1000, 1, 3, 333},
		{"rounds up at midpoint", 100, 1, 2, 50},
		{"two thirds rounds up", 1000, 2, 3, 667},
		{"overfilled clamps to raw", 1000, 12, 10, 1000},
		{"zero max slots pays raw", 1000, 0, 0, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, scaledAmount(tt.amount, tt.filled, tt.max))
		})
	}
}
