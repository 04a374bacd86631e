// Package motion implements the recurrent motion latent: a stateless gated
// recurrent unit unrolled over time.
package motion

import (
	"fmt"
	"math"

	"github.com/gorgonia/mocogan/nn"
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

var dtype = G.Float32

// linear is x·W + b with W [in, out] and b [1, out].
type linear struct {
	W, B *tensor.Dense
}

func newLinear(in, out int) linear {
	return linear{
		W: nn.Gaussian(math.Sqrt(1/float64(in)), in, out),
		B: nn.Zeros(1, out),
	}
}

// GRU is a gated recurrent unit that keeps no state of its own. Each step
// maps (h, e) to
//	r  = σ(e·Wr + h·Ur)
//	z  = σ(e·Wz + h·Uz)
//	h̄  = tanh(e·W + (r⊙h)·U)
//	h' = z⊙h̄ + (1−z)⊙h
// and the caller threads h through time.
type GRU struct {
	In, Out int

	wr, ur linear
	wz, uz linear
	w, u   linear
}

// New creates a GRU taking inputs of size in and carrying a state of size out.
func New(in, out int) *GRU {
	return &GRU{
		In:  in,
		Out: out,
		wr:  newLinear(in, out),
		ur:  newLinear(out, out),
		wz:  newLinear(in, out),
		uz:  newLinear(out, out),
		w:   newLinear(in, out),
		u:   newLinear(out, out),
	}
}

// Params lists the weights of the cell, prefixed by name.
func (c *GRU) Params(name string) []nn.Param {
	var retVal []nn.Param
	for _, l := range []struct {
		n string
		l linear
	}{
		{"W_r", c.wr}, {"U_r", c.ur},
		{"W_z", c.wz}, {"U_z", c.uz},
		{"W", c.w}, {"U", c.u},
	} {
		retVal = append(retVal,
			nn.Param{Name: fmt.Sprintf("%s/%s/W", name, l.n), Value: l.l.W},
			nn.Param{Name: fmt.Sprintf("%s/%s/b", name, l.n), Value: l.l.B},
		)
	}
	return retVal
}

// Step applies the cell once: h [B, Out], e [B, In] -> h' [B, Out].
func (c *GRU) Step(h, e *tensor.Dense) (*tensor.Dense, error) {
	hs, err := c.Unroll(h, []*tensor.Dense{e})
	if err != nil {
		return nil, err
	}
	if err = hs.Reshape(h.Shape()...); err != nil {
		return nil, errors.WithStack(err)
	}
	return hs, nil
}

// Noise draws the [batch, dim] input of one step.
type Noise func(batch, dim int) *tensor.Dense

// Generate unrolls the cell for steps steps from seed, drawing a fresh input
// for every step. It returns [steps, B, Out].
func (c *GRU) Generate(seed *tensor.Dense, steps int, noise Noise) (*tensor.Dense, error) {
	if steps < 1 {
		return nil, errors.Errorf("cannot unroll %d steps", steps)
	}
	if seed.Dims() != 2 {
		return nil, errors.Errorf("expected a [batch, %d] seed. Got %v", c.Out, seed.Shape())
	}
	batch := seed.Shape()[0]
	inputs := make([]*tensor.Dense, steps)
	for i := range inputs {
		inputs[i] = noise(batch, c.In)
	}
	return c.Unroll(seed, inputs)
}

// Unroll feeds inputs through the cell in order, starting from h0. Step t
// consumes the state produced by step t−1, so the loop is strictly sequential.
// The returned tensor stacks h_1..h_T as [T, B, Out]; h0 itself is not part
// of it.
func (c *GRU) Unroll(h0 *tensor.Dense, inputs []*tensor.Dense) (*tensor.Dense, error) {
	if len(inputs) == 0 {
		return nil, errors.New("nothing to unroll")
	}
	hs := h0.Shape()
	if hs.Dims() != 2 || hs[1] != c.Out {
		return nil, errors.Errorf("expected a [batch, %d] state. Got %v", c.Out, hs)
	}
	if h0.Dtype() != dtype {
		return nil, errors.Errorf("expected a %v state. Got %v", dtype, h0.Dtype())
	}
	batch := hs[0]
	for t, e := range inputs {
		if es := e.Shape(); es.Dims() != 2 || es[0] != batch || es[1] != c.In || e.Dtype() != dtype {
			return nil, errors.Errorf("input %d: expected a [%d, %d] %v tensor. Got %v %v", t, batch, c.In, dtype, es, e.Dtype())
		}
	}

	h0, err := nn.Contiguous(h0)
	if err != nil {
		return nil, err
	}
	packed := make([]*tensor.Dense, len(inputs))
	for t, e := range inputs {
		if packed[t], err = nn.Contiguous(e); err != nil {
			return nil, err
		}
	}

	g := G.NewGraph()
	var m maebe
	p := c.bind(g)
	h := constant(g, h0, "h0")
	steps := make(G.Nodes, 0, len(inputs))
	for t, e := range packed {
		h = m.step(p, h, constant(g, e, fmt.Sprintf("e%d", t+1)))
		steps = append(steps, m.reshape(h, tensor.Shape{1, batch, c.Out}))
	}
	out := steps[0]
	if len(steps) > 1 {
		out = m.do(func() (*G.Node, error) { return G.Concat(0, steps...) })
	}
	if m.err != nil {
		return nil, m.err
	}

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	if err = vm.RunAll(); err != nil {
		return nil, errors.WithStack(err)
	}
	retVal, ok := out.Value().(*tensor.Dense)
	if !ok {
		return nil, errors.Errorf("unexpected motion value %T", out.Value())
	}
	return retVal.Clone().(*tensor.Dense), nil
}

type boundLinear struct {
	w, b *G.Node
}

type params struct {
	wr, ur, wz, uz, w, u boundLinear
}

func (c *GRU) bind(g *G.ExprGraph) params {
	b := func(l linear, name string) boundLinear {
		return boundLinear{
			w: constant(g, l.W, name+"_W"),
			b: constant(g, l.B, name+"_b"),
		}
	}
	return params{
		wr: b(c.wr, "W_r"), ur: b(c.ur, "U_r"),
		wz: b(c.wz, "W_z"), uz: b(c.uz, "U_z"),
		w: b(c.w, "W"), u: b(c.u, "U"),
	}
}

// constant puts a copy of t into g so that the graph never writes to the
// caller's (or the cell's) tensors.
func constant(g *G.ExprGraph, t *tensor.Dense, name string) *G.Node {
	return G.NewMatrix(g, dtype, G.WithShape(t.Shape()...), G.WithName(name), G.WithValue(t.Clone()))
}
