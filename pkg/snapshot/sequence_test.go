package snapshot

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceDefaultRun(t *testing.T) {
	ids := Sequence(DefaultCount, DefaultWidth)
	require.Len(t, ids, 81)

	assert.Equal(t, "0000", ids[0].Name)
	assert.Equal(t, "0007", ids[7].Name)
	assert.Equal(t, "0080", ids[80].Name)
	for i, id := range ids {
		assert.Equal(t, i, id.Index)
		n, err := strconv.Atoi(id.Name)
		require.NoError(t, err)
		assert.Equal(t, i, n)
	}
}

func TestSequenceWidth(t *testing.T) {
	tests := []struct {
		index int
		width int
		want  string
	}{
		{0, 4, "0000"},
		{9, 4, "0009"},
		{10, 4, "0010"},
		{999, 4, "0999"},
		{9999, 4, "9999"},
		{12345, 4, "12345"},
		{3, 2, "03"},
		{3, 0, "3"},
	}
	for _, tt := range tests {
		ids := Sequence(tt.index+1, tt.width)
		assert.Equal(t, tt.want, ids[tt.index].Name, "index %d width %d", tt.index, tt.width)
	}
}

func TestSequenceEmpty(t *testing.T) {
	assert.Empty(t, Sequence(0, 4))
	assert.Empty(t, Sequence(-3, 4))
}

func TestIDPath(t *testing.T) {
	id := Sequence(8, 4)[7]
	assert.Equal(t, "/runs/wc1/data.0007.dat", id.Path("/runs/wc1/", ".dat"))
	assert.Equal(t, "out/data.0007.vtk", id.Path("out/", ".vtk"))
	assert.Equal(t, "0007", id.String())
}
