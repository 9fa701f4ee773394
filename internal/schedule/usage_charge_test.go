package schedule

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUsageCostRoundsUp(t *testing.T) {
	cases := []struct {
		requests int64
		cost     int
	}{
		{0, 0},
		{-10, 0},
		{1, 1},
		{999, 1},
		{1000, 1},
		{1001, 2},
		{2500, 3},
	}

	for _, tc := range cases {
		require.Equal(t, tc.cost, usageCost(tc.requests), "requests=%d", tc.requests)
	}
}
