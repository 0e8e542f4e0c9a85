package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVector3Arithmetic(t *testing.T) {
	a := Vector3{X: 1, Y: 2, Z: 3}
	b := NewVector3([3]float64{0.5, 0.5, 0.5})

	assert.Equal(t, Vector3{1.5, 2.5, 3.5}, a.Add(b))
	assert.Equal(t, Vector3{0.5, 1.5, 2.5}, a.Sub(b))
	assert.Equal(t, Vector3{2, 4, 6}, a.Scale(2))
	assert.InDelta(t, 3.7416573867739413, a.Magnitude(), 1e-12)
}

func TestVector3Components(t *testing.T) {
	v := Vector3{X: 7, Y: 8, Z: 9}
	assert.Equal(t, [3]float64{7, 8, 9}, v.Components())
	assert.Equal(t, v, NewVector3(v.Components()))
}
