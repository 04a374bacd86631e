package mocogan

import (
	"sync"
	"time"

	rng "github.com/leesper/go_rng"
	"gorgonia.org/tensor"
)

// Sampler is the source of every random tensor a forward pass consumes:
// latent draws, recurrence inputs, labels and instance noise.
type Sampler interface {
	// Normal draws a float32 tensor of the given shape from N(0, std²).
	Normal(std float64, shape ...int) *tensor.Dense

	// Intn draws an integer in [0, n).
	Intn(n int) int
}

type rngSampler struct {
	sync.Mutex
	gaussian func(mean, stddev float64) float64
	int32n   func(n int32) int32
}

// NewSampler returns a Sampler seeded with seed. Two samplers with the same
// seed produce the same draws. It is safe for concurrent use.
func NewSampler(seed int64) Sampler {
	return &rngSampler{
		gaussian: rng.NewGaussianGenerator(seed).Gaussian,
		int32n:   rng.NewUniformGenerator(seed).Int32n,
	}
}

func defaultSampler() Sampler { return NewSampler(time.Now().UnixNano()) }

func (s *rngSampler) Normal(std float64, shape ...int) *tensor.Dense {
	data := make([]float32, tensor.Shape(shape).TotalSize())
	s.Lock()
	for i := range data {
		data[i] = float32(s.gaussian(0, std))
	}
	s.Unlock()
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data))
}

func (s *rngSampler) Intn(n int) int {
	s.Lock()
	defer s.Unlock()
	return int(s.int32n(int32(n)))
}
