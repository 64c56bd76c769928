package status_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webinar-impact/webinar-impact/internal/status"
)

func TestRank(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", -1},
		{"   ", -1},
		{"no-seller", 0},
		{"struggling-seller", 1},
		{"tiny-seller", 2},
		{"small-seller", 3},
		{"medium-seller", 4},
		{"large-seller", 5},
		{"top-seller", 6},
		{" TOP-SELLER ", 6},
		{"Small-Seller", 3},
		{"mega-seller", -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, status.Rank(tt.in), "Rank(%q)", tt.in)
	}
}

func TestCanonicalIsRankOrdered(t *testing.T) {
	require.Len(t, status.Canonical, 7)
	for i, s := range status.Canonical {
		assert.Equal(t, i, status.Rank(s), s)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		before, after string
		change        status.Change
		magnitude     int
	}{
		{"no-seller", "small-seller", status.Upgrade, 3},
		{"top-seller", "tiny-seller", status.Downgrade, -4},
		{"medium-seller", "medium-seller", status.Maintained, 0},
		{"", "small-seller", status.Unknown, 0},
		{"small-seller", "", status.Unknown, 0},
		{"weird", "small-seller", status.Unknown, 0},
	}

	for _, tt := range tests {
		change, magnitude := status.Classify(tt.before, tt.after)
		assert.Equal(t, tt.change, change, "Classify(%q, %q)", tt.before, tt.after)
		assert.Equal(t, tt.magnitude, magnitude, "Classify(%q, %q)", tt.before, tt.after)
	}
}

func TestIsSeller(t *testing.T) {
	assert.False(t, status.IsSeller(""))
	assert.False(t, status.IsSeller(" No-Seller "))
	assert.True(t, status.IsSeller("tiny-seller"))
}
