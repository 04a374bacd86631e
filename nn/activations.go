package nn

import (
	"github.com/chewxy/math32"
	"gorgonia.org/tensor"
	"gorgonia.org/vecf32"
)

// The activations below overwrite their argument and return it.

func Rectify(x *tensor.Dense) *tensor.Dense {
	data := x.Data().([]float32)
	for i, v := range data {
		if v < 0 {
			data[i] = 0
		}
	}
	return x
}

func LeakyRectify(x *tensor.Dense, slope float32) *tensor.Dense {
	data := x.Data().([]float32)
	for i, v := range data {
		if v < 0 {
			data[i] = v * slope
		}
	}
	return x
}

func Tanh(x *tensor.Dense) *tensor.Dense {
	data := x.Data().([]float32)
	for i, v := range data {
		data[i] = math32.Tanh(v)
	}
	return x
}

// Add returns a new tensor holding x+y. Both must have the same shape.
func Add(x, y *tensor.Dense) (*tensor.Dense, error) {
	if !x.Shape().Eq(y.Shape()) {
		return nil, errShape("add", x.Shape(), y.Shape())
	}
	xd, err := floats(x)
	if err != nil {
		return nil, err
	}
	yd, err := floats(y)
	if err != nil {
		return nil, err
	}
	data := make([]float32, len(xd))
	copy(data, xd)
	vecf32.Add(data, yd)
	return tensor.New(tensor.WithShape(x.Shape().Clone()...), tensor.WithBacking(data)), nil
}
