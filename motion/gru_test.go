package motion

import (
	"math"
	"testing"

	"github.com/gorgonia/mocogan/nn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func fixedNoise(steps, batch, dim int) []*tensor.Dense {
	retVal := make([]*tensor.Dense, steps)
	for i := range retVal {
		retVal[i] = nn.Gaussian(0.33, batch, dim)
	}
	return retVal
}

func TestUnrollShape(t *testing.T) {
	for _, batch := range []int{1, 3} {
		c := New(10, 10)
		h0 := nn.Gaussian(0.33, batch, 10)
		zm, err := c.Unroll(h0, fixedNoise(16, batch, 10))
		require.NoError(t, err, "batch %d", batch)
		assert.Equal(t, []int{16, batch, 10}, []int(zm.Shape()))
	}
}

func TestUnrollDeterministic(t *testing.T) {
	c := New(4, 6)
	h0 := nn.Gaussian(0.33, 2, 6)
	noise := fixedNoise(5, 2, 4)

	a, err := c.Unroll(h0, noise)
	require.NoError(t, err)
	b, err := c.Unroll(h0, noise)
	require.NoError(t, err)
	assert.Equal(t, a.Data(), b.Data())
}

// Unrolling must agree with threading Step by hand.
func TestUnrollMatchesStep(t *testing.T) {
	c := New(3, 5)
	h0 := nn.Gaussian(0.33, 2, 5)
	noise := fixedNoise(3, 2, 3)

	zm, err := c.Unroll(h0, noise)
	require.NoError(t, err)
	all := zm.Data().([]float32)

	h := h0
	for i, e := range noise {
		h, err = c.Step(h, e)
		require.NoError(t, err)
		assert.Equal(t, []int{2, 5}, []int(h.Shape()))
		assert.InDeltaSlice(t, all[i*10:(i+1)*10], h.Data(), 1e-5, "step %d", i+1)
	}
}

// Changing the first input must change every later state: the steps are
// not independent.
func TestUnrollIsRecurrent(t *testing.T) {
	c := New(4, 4)
	h0 := nn.Gaussian(0.33, 1, 4)
	noise := fixedNoise(3, 1, 4)

	a, err := c.Unroll(h0, noise)
	require.NoError(t, err)

	perturbed := append([]*tensor.Dense{nn.Gaussian(1, 1, 4)}, noise[1:]...)
	b, err := c.Unroll(h0, perturbed)
	require.NoError(t, err)

	ad, bd := a.Data().([]float32), b.Data().([]float32)
	assert.NotEqual(t, ad[8:12], bd[8:12], "last state should depend on the first input")
}

func TestUnrollLeavesInputsAlone(t *testing.T) {
	c := New(2, 2)
	h0 := nn.Gaussian(0.33, 2, 2)
	before := h0.Clone().(*tensor.Dense)
	_, err := c.Unroll(h0, fixedNoise(4, 2, 2))
	require.NoError(t, err)
	assert.Equal(t, before.Data(), h0.Data())
}

func TestGenerate(t *testing.T) {
	c := New(10, 10)
	calls := 0
	noise := func(batch, dim int) *tensor.Dense {
		calls++
		return nn.Gaussian(0.33, batch, dim)
	}
	zm, err := c.Generate(nn.Gaussian(0.33, 4, 10), 16, noise)
	require.NoError(t, err)
	assert.Equal(t, 16, calls, "one fresh draw per step")
	assert.Equal(t, []int{16, 4, 10}, []int(zm.Shape()))

	if _, err = c.Generate(nn.Gaussian(0.33, 4, 10), 0, noise); err == nil {
		t.Error("expected zero steps to fail")
	}
}

func TestUnrollRejectsBadShapes(t *testing.T) {
	c := New(3, 5)
	if _, err := c.Unroll(nn.Gaussian(1, 2, 4), fixedNoise(1, 2, 3)); err == nil {
		t.Error("expected a state width mismatch")
	}
	if _, err := c.Unroll(nn.Gaussian(1, 2, 5), fixedNoise(1, 3, 3)); err == nil {
		t.Error("expected a batch mismatch")
	}
}

func TestParams(t *testing.T) {
	c := New(3, 5)
	ps := c.Params("g0")
	assert.Len(t, ps, 12)
	assert.Equal(t, "g0/W_r/W", ps[0].Name)
	assert.Equal(t, []int{3, 5}, []int(ps[0].Value.Shape()))
	assert.Equal(t, []int{5, 5}, []int(ps[2].Value.Shape()))
}

// affine computes x·W + b for one row x.
func affine(x []float64, l linear) []float64 {
	w, b := l.W.Data().([]float32), l.B.Data().([]float32)
	out := len(b)
	retVal := make([]float64, out)
	for j := range retVal {
		retVal[j] = float64(b[j])
		for i, v := range x {
			retVal[j] += v * float64(w[i*out+j])
		}
	}
	return retVal
}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

// referenceStep is the cell written out element by element.
func referenceStep(c *GRU, h, e []float64) []float64 {
	er, hr := affine(e, c.wr), affine(h, c.ur)
	ez, hz := affine(e, c.wz), affine(h, c.uz)
	r, z := make([]float64, c.Out), make([]float64, c.Out)
	rh := make([]float64, c.Out)
	for j := range r {
		r[j] = sigmoid(er[j] + hr[j])
		z[j] = sigmoid(ez[j] + hz[j])
		rh[j] = r[j] * h[j]
	}
	ew, uh := affine(e, c.w), affine(rh, c.u)
	retVal := make([]float64, c.Out)
	for j := range retVal {
		candidate := math.Tanh(ew[j] + uh[j])
		retVal[j] = z[j]*candidate + (1-z[j])*h[j]
	}
	return retVal
}

func TestStepMatchesGateEquations(t *testing.T) {
	c := New(3, 4)
	// non zero biases so every term shows up
	for _, l := range []*linear{&c.wr, &c.ur, &c.wz, &c.uz, &c.w, &c.u} {
		l.B = nn.Gaussian(0.5, 1, 4)
	}
	h := nn.Gaussian(0.5, 2, 4)
	e := nn.Gaussian(0.5, 2, 3)

	got, err := c.Step(h, e)
	require.NoError(t, err)
	gd := got.Data().([]float32)
	hd, ed := h.Data().([]float32), e.Data().([]float32)
	for b := 0; b < 2; b++ {
		hb, eb := make([]float64, 4), make([]float64, 3)
		for i := range hb {
			hb[i] = float64(hd[b*4+i])
		}
		for i := range eb {
			eb[i] = float64(ed[b*3+i])
		}
		want := referenceStep(c, hb, eb)
		for j, v := range want {
			assert.InDelta(t, v, float64(gd[b*4+j]), 1e-5, "sample %d, unit %d", b, j)
		}
	}
}

func TestUnrollRejectsFloat64(t *testing.T) {
	c := New(2, 2)
	h0 := tensor.New(tensor.WithShape(1, 2), tensor.Of(tensor.Float64))
	if _, err := c.Unroll(h0, fixedNoise(1, 1, 2)); err == nil {
		t.Error("expected a float64 state to be rejected")
	}
	assert.Equal(t, tensor.Float32, dtype)
}
