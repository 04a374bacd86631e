package mocogan

import (
	"fmt"

	"github.com/gorgonia/mocogan/nn"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

const leakSlope = 0.2

type activation byte

const (
	identity activation = iota
	relu
	leaky
	tanh
)

// block is one stage of a pyramid: optional instance noise, a convolution,
// an optional pixel shuffle, an optional batch norm and an activation.
type block struct {
	name    string // conv name; the batch norm is "bn" plus its stage number
	stage   int
	conv    *nn.Conv
	shuffle int
	bn      *nn.BatchNorm
	act     activation
	noisy   bool
}

// pyramid is a stack of blocks evaluated in order. Decoders and encoders of
// every flavor are pyramids; they differ only in the blocks they hold.
type pyramid struct {
	scope  string
	blocks []block

	sampler Sampler
	sigma   float64
	noise   bool // instance noise enabled
	testing bool

	tracer Tracer
}

func (p *pyramid) fwd(x *tensor.Dense) (*tensor.Dense, error) {
	var m maebe
	for i := range p.blocks {
		b := &p.blocks[i]
		in := x
		if b.noisy && p.noise && !p.testing {
			x = m.add(x, p.sampler.Normal(p.sigma, x.Shape()...))
		}
		x = m.fwd(b.conv, x)
		if b.shuffle > 1 {
			x = m.shuffle(x, b.shuffle)
		}
		if b.bn != nil {
			x = m.fwd(b.bn, x)
		}
		x = m.activate(x, b.act)
		if m.err != nil {
			return nil, errors.Wrapf(m.err, "%s/%s", p.scope, b.name)
		}
		p.tracer.Record(p.scope+"/"+b.name, in, x)
	}
	return x, nil
}

// inChannels is the channel count the first block consumes.
func (p *pyramid) inChannels() int { return p.blocks[0].conv.InChannels() }

func (p *pyramid) SetTraining() {
	p.testing = false
	for _, op := range p.ops() {
		op.SetTraining()
	}
}

func (p *pyramid) SetTesting() {
	p.testing = true
	for _, op := range p.ops() {
		op.SetTesting()
	}
}

func (p *pyramid) ops() []batchNormOp {
	var retVal []batchNormOp
	for _, b := range p.blocks {
		if b.bn != nil {
			retVal = append(retVal, b.bn)
		}
	}
	return retVal
}

func (p *pyramid) params() []nn.Param {
	var retVal []nn.Param
	for _, b := range p.blocks {
		retVal = append(retVal, nn.Param{Name: b.name + "/W", Value: b.conv.W})
		if b.conv.B != nil {
			retVal = append(retVal, nn.Param{Name: b.name + "/b", Value: b.conv.B})
		}
	}
	for _, b := range p.blocks {
		if b.bn == nil {
			continue
		}
		name := fmt.Sprintf("bn%d", b.stage)
		retVal = append(retVal,
			nn.Param{Name: name + "/gamma", Value: b.bn.Gamma},
			nn.Param{Name: name + "/beta", Value: b.bn.Beta},
			nn.Param{Name: name + "/avg_mean", Value: b.bn.Mean},
			nn.Param{Name: name + "/avg_var", Value: b.bn.Var},
		)
	}
	return retVal
}
