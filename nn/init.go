package nn

import (
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Param is a named weight tensor.
type Param struct {
	Name  string
	Value *tensor.Dense
}

// GlorotNormal draws a tensor from the Glorot (Xavier) normal distribution,
// std = sqrt(2 / (fan_in + fan_out)), with the receptive field taken from
// the trailing axes.
func GlorotNormal(shape ...int) *tensor.Dense {
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(G.GlorotN(1.0)(tensor.Float32, shape...)))
}

// Uniform draws a tensor from U(−scale, scale).
func Uniform(scale float64, shape ...int) *tensor.Dense {
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(G.Uniform(-scale, scale)(tensor.Float32, shape...)))
}

// Gaussian draws a tensor from N(0, std²).
func Gaussian(std float64, shape ...int) *tensor.Dense {
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(G.Gaussian(0, std)(tensor.Float32, shape...)))
}

func Zeros(shape ...int) *tensor.Dense {
	return tensor.New(tensor.WithShape(shape...), tensor.Of(tensor.Float32))
}

func Ones(shape ...int) *tensor.Dense {
	data := make([]float32, tensor.Shape(shape).TotalSize())
	for i := range data {
		data[i] = 1
	}
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data))
}
