package nn

import (
	"github.com/chewxy/math32"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// BatchNorm normalizes every channel (axis 1) of its input over all the other
// axes, then scales by Gamma and shifts by Beta.
//
// In training mode the statistics are computed from the batch. In testing
// mode the running statistics Mean and Var are used instead. Fwd never
// writes to any of the four tensors.
type BatchNorm struct {
	Gamma, Beta *tensor.Dense
	Mean, Var   *tensor.Dense
	Eps         float32

	testing bool
}

// NewBatchNorm creates a batch norm over c channels with unit scale, zero
// shift, zero running mean and unit running variance.
func NewBatchNorm(c int, eps float32) *BatchNorm {
	return &BatchNorm{
		Gamma: Ones(c),
		Beta:  Zeros(c),
		Mean:  Zeros(c),
		Var:   Ones(c),
		Eps:   eps,
	}
}

func (bn *BatchNorm) SetTraining() { bn.testing = false }
func (bn *BatchNorm) SetTesting()  { bn.testing = true }

// Channels is the number of normalized channels.
func (bn *BatchNorm) Channels() int { return bn.Gamma.Shape().TotalSize() }

// Fwd normalizes x.
func (bn *BatchNorm) Fwd(x *tensor.Dense) (*tensor.Dense, error) {
	s := x.Shape()
	if s.Dims() < 2 || s[1] != bn.Channels() {
		return nil, errors.Errorf("batch norm over %d channels cannot take %v", bn.Channels(), s)
	}
	xd, err := floats(x)
	if err != nil {
		return nil, err
	}
	gamma, _ := floats(bn.Gamma)
	beta, _ := floats(bn.Beta)
	mean, _ := floats(bn.Mean)
	variance, _ := floats(bn.Var)

	n, c := s[0], s[1]
	size := volume(s[2:])
	ret := make([]float32, len(xd))
	for ch := 0; ch < c; ch++ {
		mu, v := mean[ch], variance[ch]
		if !bn.testing {
			mu, v = moments(xd, n, c, ch, size)
		}
		scale := gamma[ch] / math32.Sqrt(v+bn.Eps)
		for i := 0; i < n; i++ {
			off := (i*c + ch) * size
			src, dst := xd[off:off+size], ret[off:off+size]
			for j, x := range src {
				dst[j] = (x-mu)*scale + beta[ch]
			}
		}
	}
	return tensor.New(tensor.WithShape(s.Clone()...), tensor.WithBacking(ret)), nil
}

// moments returns the mean and the biased variance of one channel.
func moments(data []float32, n, c, ch, size int) (mean, variance float32) {
	var sum, sq float64
	for i := 0; i < n; i++ {
		off := (i*c + ch) * size
		for _, x := range data[off : off+size] {
			sum += float64(x)
		}
	}
	count := float64(n * size)
	mu := sum / count
	for i := 0; i < n; i++ {
		off := (i*c + ch) * size
		for _, x := range data[off : off+size] {
			d := float64(x) - mu
			sq += d * d
		}
	}
	return float32(mu), float32(sq / count)
}
