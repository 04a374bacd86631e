package gif

import (
	"bytes"
	"image/gif"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func ramp(shape ...int) *tensor.Dense {
	n := tensor.Shape(shape).TotalSize()
	data := make([]float32, n)
	for i := range data {
		data[i] = 2*float32(i)/float32(n) - 1
	}
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data))
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	enc := NewGifEncoder(&buf, 3)
	require.NoError(t, enc.Encode(ramp(4, 2, 5, 16, 16), []string{"label 0", "label 3"}))
	assert.Equal(t, 4, enc.Frames())
	require.NoError(t, enc.Flush())

	g, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	require.Len(t, g.Image, 4)
	b := g.Image[0].Bounds()
	assert.Equal(t, 2*(16+2*enc.padW), b.Dx())
	assert.True(t, b.Dy() > 16)
}

func TestEncodeGray(t *testing.T) {
	var buf bytes.Buffer
	enc := NewGifEncoder(&buf, 1)
	require.NoError(t, enc.Encode(ramp(2, 1, 1, 8, 8), nil))
	require.NoError(t, enc.Encode(ramp(2, 1, 1, 8, 8), nil))
	require.NoError(t, enc.Flush())
	g, err := gif.DecodeAll(&buf)
	require.NoError(t, err)
	assert.Len(t, g.Image, 4)
}

func TestEncodeRejects(t *testing.T) {
	enc := NewGifEncoder(new(bytes.Buffer), 3)
	assert.Error(t, enc.Encode(ramp(2, 1, 1, 8, 8), nil), "too few channels")
	assert.Error(t, enc.Encode(ramp(1, 8, 8), nil), "not a clip")
	assert.Error(t, enc.Encode(ramp(2, 2, 3, 8, 8), []string{"one"}), "caption count")

	enc = NewGifEncoder(new(bytes.Buffer), 2)
	assert.Error(t, enc.Encode(ramp(2, 1, 3, 8, 8), nil))
}

func TestLevel(t *testing.T) {
	assert.Equal(t, uint8(0), level(-1.5))
	assert.Equal(t, uint8(0), level(-1))
	assert.Equal(t, uint8(127), level(0))
	assert.Equal(t, uint8(255), level(1))
}

func TestEncodeView(t *testing.T) {
	// [B, T, C, H, W] transposed into a [T, B, C, H, W] view
	clip := ramp(2, 3, 3, 8, 8)
	view := clip.Clone().(*tensor.Dense)
	require.NoError(t, view.T(1, 0, 2, 3, 4))
	packed := clip.Clone().(*tensor.Dense)
	require.NoError(t, packed.T(1, 0, 2, 3, 4))
	require.NoError(t, packed.Transpose())

	var a, b bytes.Buffer
	ea, eb := NewGifEncoder(&a, 3), NewGifEncoder(&b, 3)
	require.NoError(t, ea.Encode(view, nil))
	require.NoError(t, eb.Encode(packed, nil))
	require.NoError(t, ea.Flush())
	require.NoError(t, eb.Flush())
	assert.Equal(t, b.Bytes(), a.Bytes())
}
