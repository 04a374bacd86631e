package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchNormTraining(t *testing.T) {
	x := Uniform(3, 4, 2, 5, 5)
	bn := NewBatchNorm(2, 2e-5)

	y, err := bn.Fwd(x)
	require.NoError(t, err)
	data := y.Data().([]float32)
	for ch := 0; ch < 2; ch++ {
		mean, variance := moments(data, 4, 2, ch, 25)
		assert.InDelta(t, 0, mean, 1e-4, "channel %d", ch)
		assert.InDelta(t, 1, variance, 1e-3, "channel %d", ch)
	}

	// running statistics are left alone
	assert.Equal(t, []float32{0, 0}, bn.Mean.Data())
	assert.Equal(t, []float32{1, 1}, bn.Var.Data())
}

func TestBatchNormTesting(t *testing.T) {
	x := Uniform(3, 2, 3, 2, 2)
	bn := NewBatchNorm(3, 2e-5)
	bn.SetTesting()

	y, err := bn.Fwd(x)
	require.NoError(t, err)
	xd, yd := x.Data().([]float32), y.Data().([]float32)
	for i := range xd {
		assert.InDelta(t, xd[i], yd[i], 1e-4)
	}
}

func TestBatchNormChannelMismatch(t *testing.T) {
	bn := NewBatchNorm(3, 2e-5)
	if _, err := bn.Fwd(Ones(2, 4, 2, 2)); err == nil {
		t.Error("expected a channel mismatch")
	}
}

func TestActivations(t *testing.T) {
	x := Uniform(10, 64)
	Tanh(x)
	for _, v := range x.Data().([]float32) {
		assert.True(t, v >= -1 && v <= 1)
	}

	y := Ones(4)
	d := y.Data().([]float32)
	d[0], d[1] = -2, 3
	LeakyRectify(y, 0.2)
	assert.InDeltaSlice(t, []float32{-0.4, 3, 1, 1}, y.Data(), 1e-6)

	Rectify(y)
	assert.Equal(t, []float32{0, 3, 1, 1}, y.Data())
}

func TestAdd(t *testing.T) {
	x, y := Ones(2, 2), Ones(2, 2)
	z, err := Add(x, y)
	require.NoError(t, err)
	assert.Equal(t, []float32{2, 2, 2, 2}, z.Data())
	assert.Equal(t, []float32{1, 1, 1, 1}, x.Data(), "Add must not touch its operands")

	if _, err = Add(x, Ones(4)); err == nil {
		t.Error("expected a shape mismatch")
	}
}
