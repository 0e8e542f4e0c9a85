package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTable(t *testing.T) {
	in := `# mass_number abundance ion_fraction
1   1.0      0.5

16  4.9e-4   0.25
`
	rows, err := ReadTable(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 1, 0.5}, {16, 4.9e-4, 0.25}}, rows)
	assert.Equal(t, []float64{1, 16}, Column(rows, 0))
}

func TestReadTableErrors(t *testing.T) {
	tests := map[string]string{
		"ragged":  "1 2 3\n4 5\n",
		"not num": "1 two\n",
		"empty":   "# only a comment\n\n",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadTable(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}
