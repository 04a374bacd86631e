package nn

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Contiguous returns t when its backing data is laid out in row major order
// of its shape. Transposed or sliced views are packed into a new tensor; t is
// left as is.
func Contiguous(t *tensor.Dense) (*tensor.Dense, error) {
	if t == nil {
		return nil, errors.New("nil tensor")
	}
	if !t.RequiresIterator() && !t.IsMaterializable() {
		return t, nil
	}
	retVal, ok := t.Materialize().(*tensor.Dense)
	if !ok {
		return nil, errors.Errorf("cannot pack a view of shape %v", t.Shape())
	}
	return retVal, nil
}
