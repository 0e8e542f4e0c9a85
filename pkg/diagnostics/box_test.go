package diagnostics

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oxygene76/windcloud/internal/types"
	"github.com/oxygene76/windcloud/pkg/snapshot"
)

func TestParseRange(t *testing.T) {
	r, err := ParseRange("  16 112 ")
	require.NoError(t, err)
	assert.Equal(t, Range{Lo: 16, Hi: 112}, r)
	assert.Equal(t, 96, r.Len())
	assert.Equal(t, 64, r.Mid())

	for _, bad := range []string{"", "1", "1 2 3", "a 2", "1 b", "5 5", "7 3", "-1 4"} {
		_, err := ParseRange(bad)
		require.Error(t, err, bad)
		assert.True(t, errors.Is(err, types.ErrConfiguration), "%q: %v", bad, err)
	}
}

func TestParseSubBox(t *testing.T) {
	box, err := ParseSubBox("0 64", "0 128", "8 56")
	require.NoError(t, err)
	assert.Equal(t, SubBox{{0, 64}, {0, 128}, {8, 56}}, box)
	assert.Equal(t, 64*128*48, box.Cells())

	_, err = ParseSubBox("0 64", "oops", "8 56")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "box_y")
}

func TestSubBoxFits(t *testing.T) {
	shape := snapshot.Shape{64, 128, 64}
	assert.NoError(t, SubBox{{0, 64}, {0, 128}, {0, 64}}.Fits(shape))

	err := SubBox{{0, 65}, {0, 128}, {0, 64}}.Fits(shape)
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrConfiguration))
}

func TestSubBoxEachVisitsEveryCellOnce(t *testing.T) {
	shape := snapshot.Shape{4, 3, 2}
	box := SubBox{{1, 3}, {0, 3}, {1, 2}}

	seen := map[int]int{}
	box.Each(shape, func(i, j, k, n int) {
		assert.Equal(t, shape.Index(i, j, k), n)
		seen[n]++
	})
	assert.Len(t, seen, box.Cells())
	for n, c := range seen {
		assert.Equal(t, 1, c, "cell %d", n)
	}
}
