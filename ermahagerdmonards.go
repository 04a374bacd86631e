package mocogan

import (
	"github.com/gorgonia/mocogan/nn"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

type maebe struct {
	err error
}

type layer interface {
	Fwd(x *tensor.Dense) (*tensor.Dense, error)
}

type batchNormOp interface {
	SetTraining()
	SetTesting()
}

func (m *maebe) do(f func() (*tensor.Dense, error)) (retVal *tensor.Dense) {
	if m.err != nil {
		return nil
	}
	if retVal, m.err = f(); m.err != nil {
		m.err = errors.WithStack(m.err)
	}
	return
}

func (m *maebe) fwd(l layer, x *tensor.Dense) *tensor.Dense {
	return m.do(func() (*tensor.Dense, error) { return l.Fwd(x) })
}

func (m *maebe) shuffle(x *tensor.Dense, r int) *tensor.Dense {
	return m.do(func() (*tensor.Dense, error) { return nn.PixelShuffle(x, r) })
}

func (m *maebe) add(x, y *tensor.Dense) *tensor.Dense {
	return m.do(func() (*tensor.Dense, error) { return nn.Add(x, y) })
}

func (m *maebe) activate(x *tensor.Dense, act activation) *tensor.Dense {
	if m.err != nil {
		return nil
	}
	switch act {
	case relu:
		return nn.Rectify(x)
	case leaky:
		return nn.LeakyRectify(x, leakSlope)
	case tanh:
		return nn.Tanh(x)
	}
	return x
}

func (m *maebe) reshape(x *tensor.Dense, to ...int) *tensor.Dense {
	if m.err != nil {
		return nil
	}
	if m.err = x.Reshape(to...); m.err != nil {
		m.err = errors.WithStack(m.err)
		return nil
	}
	return x
}
