package motion

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

type maebe struct {
	err error
}

func (m *maebe) do(f func() (*G.Node, error)) (retVal *G.Node) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = f(); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

func (m *maebe) linear(x *G.Node, l boundLinear) *G.Node {
	xw := m.do(func() (*G.Node, error) { return G.Mul(x, l.w) })
	return m.do(func() (*G.Node, error) { return G.BroadcastAdd(xw, l.b, nil, []byte{0}) })
}

func (m *maebe) add(a, b *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Add(a, b) })
}

func (m *maebe) sigmoid(a *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Sigmoid(a) })
}

func (m *maebe) tanh(a *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Tanh(a) })
}

func (m *maebe) hadamard(a, b *G.Node) *G.Node {
	return m.do(func() (*G.Node, error) { return G.HadamardProd(a, b) })
}

func (m *maebe) reshape(input *G.Node, to tensor.Shape) *G.Node {
	return m.do(func() (*G.Node, error) { return G.Reshape(input, to) })
}

// step is one application of the cell.
func (m *maebe) step(p params, h, e *G.Node) *G.Node {
	r := m.sigmoid(m.add(m.linear(e, p.wr), m.linear(h, p.ur)))
	z := m.sigmoid(m.add(m.linear(e, p.wz), m.linear(h, p.uz)))
	candidate := m.tanh(m.add(m.linear(e, p.w), m.linear(m.hadamard(r, h), p.u)))

	one := G.NewConstant(float32(1))
	keep := m.do(func() (*G.Node, error) { return G.Sub(one, z) })
	return m.add(m.hadamard(z, candidate), m.hadamard(keep, h))
}
