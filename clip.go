package mocogan

import (
	"github.com/gorgonia/mocogan/nn"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// VideoLayout converts a generated clip [T, B, C, H, W] into the
// [B, C, T, H, W] layout video discriminators score. clip is not modified.
func VideoLayout(clip *tensor.Dense) (*tensor.Dense, error) {
	if clip == nil || clip.Dims() != 5 {
		return nil, shapeErr("expected a [T, B, C, H, W] clip. Got %v", shapeOf(clip))
	}
	retVal, err := packed(clip)
	if err != nil {
		return nil, err
	}
	if err := retVal.T(1, 2, 0, 3, 4); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := retVal.Transpose(); err != nil {
		return nil, errors.WithStack(err)
	}
	return retVal, nil
}

// Frames flattens a generated clip [T, B, C, H, W] into a frame batch
// [T·B, C, H, W] for image discriminators. clip is not modified.
func Frames(clip *tensor.Dense) (*tensor.Dense, error) {
	if clip == nil || clip.Dims() != 5 {
		return nil, shapeErr("expected a [T, B, C, H, W] clip. Got %v", shapeOf(clip))
	}
	s := clip.Shape()
	retVal, err := packed(clip)
	if err != nil {
		return nil, err
	}
	if err := retVal.Reshape(s[0]*s[1], s[2], s[3], s[4]); err != nil {
		return nil, errors.WithStack(err)
	}
	return retVal, nil
}

// packed returns a contiguous copy of x.
func packed(x *tensor.Dense) (*tensor.Dense, error) {
	p, err := nn.Contiguous(x)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if p == x {
		p = x.Clone().(*tensor.Dense)
	}
	return p, nil
}
