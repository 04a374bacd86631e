package mocogan

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// composer assembles the decoder input of a clip from its content, motion
// and label codes.
type composer struct {
	label     bool // one-hot label code in the latent
	labelMaps bool // label repeated as constant feature maps on the output frames
	dimZl     int
}

func newComposer(f Flavor, c Config) composer {
	return composer{label: f.labelled(), labelMaps: f.labelMaps(), dimZl: c.DimZl}
}

// compose concatenates content [B, dim_zc], motion [T, B, dim_zm] and, when
// the composer carries labels, the one-hot code of labels on the channel
// axis. Content and labels are repeated over all T frames. The result is
// [T·B, C, 1, 1], frame major.
func (c composer) compose(motion, content *tensor.Dense, labels []int) (*tensor.Dense, error) {
	steps, batch := motion.Shape()[0], motion.Shape()[1]
	zc, err := tile(content, steps)
	if err != nil {
		return nil, err
	}
	parts := []*tensor.Dense{motion}
	if c.label {
		zl, err := tile(oneHot(labels, c.dimZl), steps)
		if err != nil {
			return nil, err
		}
		parts = append(parts, zl)
	}
	retVal, err := zc.Concat(2, parts...)
	if err != nil {
		return nil, errors.Wrap(err, "composing latent")
	}
	hidden := retVal.Shape()[2]
	if err = retVal.Reshape(steps*batch, hidden, 1, 1); err != nil {
		return nil, errors.WithStack(err)
	}
	return retVal, nil
}

// maps returns the [T, B, dim_zl, 64, 64] label maps of labels: −1
// everywhere except +1 on each sample's own label channel.
func (c composer) maps(steps int, labels []int) *tensor.Dense {
	const area = FrameSize * FrameSize
	batch := len(labels)
	data := make([]float32, steps*batch*c.dimZl*area)
	for i := range data {
		data[i] = -1
	}
	for t := 0; t < steps; t++ {
		for b, l := range labels {
			start := ((t*batch+b)*c.dimZl + l) * area
			plane := data[start : start+area]
			for i := range plane {
				plane[i] = 1
			}
		}
	}
	return tensor.New(tensor.WithShape(steps, batch, c.dimZl, FrameSize, FrameSize), tensor.WithBacking(data))
}

// oneHot returns the [len(labels), n] one-hot code of labels.
func oneHot(labels []int, n int) *tensor.Dense {
	data := make([]float32, len(labels)*n)
	for i, l := range labels {
		data[i*n+l] = 1
	}
	return tensor.New(tensor.WithShape(len(labels), n), tensor.WithBacking(data))
}

// tile repeats x [B, D] n times into [n, B, D]. x is left untouched.
func tile(x *tensor.Dense, n int) (*tensor.Dense, error) {
	shape := append(tensor.Shape{1}, x.Shape()...)
	x = x.Clone().(*tensor.Dense)
	if err := x.Reshape(shape...); err != nil {
		return nil, errors.WithStack(err)
	}
	if n == 1 {
		return x, nil
	}
	t, err := x.Repeat(0, n)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	retVal, ok := t.(*tensor.Dense)
	if !ok {
		return nil, errors.Errorf("unexpected tiled tensor %T", t)
	}
	return retVal, nil
}
