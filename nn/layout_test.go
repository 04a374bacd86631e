package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestContiguous(t *testing.T) {
	x := tensor.New(tensor.WithShape(2, 3), tensor.WithBacking([]float32{1, 2, 3, 4, 5, 6}))
	same, err := Contiguous(x)
	require.NoError(t, err)
	assert.True(t, same == x, "packed tensors are returned as is")

	v := tensor.New(tensor.WithShape(2, 3), tensor.WithBacking([]float32{1, 2, 3, 4, 5, 6}))
	require.NoError(t, v.T())
	p, err := Contiguous(v)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2}, []int(p.Shape()))
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, p.Data())

	_, err = Contiguous(nil)
	assert.Error(t, err)
}

func TestConvolveTransposedView(t *testing.T) {
	// a [1, 2, 3, 3] input stored as [3, 3, 2, 1]
	data := make([]float32, 18)
	for i := range data {
		data[i] = float32(i)
	}
	view := tensor.New(tensor.WithShape(3, 3, 2, 1), tensor.WithBacking(data))
	require.NoError(t, view.T(3, 2, 0, 1))
	packed := tensor.New(tensor.WithShape(3, 3, 2, 1), tensor.WithBacking(append([]float32(nil), data...)))
	require.NoError(t, packed.T(3, 2, 0, 1))
	require.NoError(t, packed.Transpose())

	w := GlorotNormal(2, 2, 2, 2)
	want, err := Convolve(packed, w, nil, []int{1, 1}, []int{0, 0})
	require.NoError(t, err)
	got, err := Convolve(view, w, nil, []int{1, 1}, []int{0, 0})
	require.NoError(t, err)
	assert.Equal(t, want.Data(), got.Data())

	sum, err := Add(view, packed)
	require.NoError(t, err)
	pd := packed.Data().([]float32)
	for i, v := range sum.Data().([]float32) {
		assert.Equal(t, 2*pd[i], v)
	}
}
