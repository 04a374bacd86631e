package mocogan

import (
	"fmt"

	"github.com/gorgonia/mocogan/nn"
)

const (
	decodeStages   = 5
	encodeStages   = 5
	subPixelStages = 6

	kernelSize         = 4
	subPixelKernelSize = 3

	// the four strided video stages each consume kernelSize−1 frames and the
	// head needs at least one more.
	minVideoLen = (encodeStages-1)*(kernelSize-1) + 1
)

// newConv builds a convolution (or a transposed one) from in to out channels.
//
// Plain networks draw Glorot normal weights and carry a zero bias. Label aware
// flavors draw from U(±1/(scale·k)), k the kernel volume, and have no bias.
func newConv(f Flavor, transposed bool, in, out, scale int, kernel, stride, pad []int) *nn.Conv {
	shape := append([]int{out, in}, kernel...)
	if transposed {
		shape = append([]int{in, out}, kernel...)
	}
	l := &nn.Conv{Stride: stride, Pad: pad, Transposed: transposed}
	if f == Plain {
		l.W = nn.GlorotNormal(shape...)
		l.B = nn.Zeros(out)
		return l
	}
	area := 1
	for _, k := range kernel {
		area *= k
	}
	l.W = nn.Uniform(1/float64(scale*area), shape...)
	return l
}

// newDeconvDecoder takes [N, hidden, 1, 1] latents to [N, out, 64, 64]
// frames with five transposed convolutions. The first turns the 1x1 latent
// into a 4x4 map, every later one doubles the resolution.
func newDeconvDecoder(f Flavor, c Config, scope string) *pyramid {
	nf := c.NFilters
	chans := []int{c.Hidden(f), nf * 8, nf * 4, nf * 2, nf, c.OutChannels}
	p := &pyramid{scope: scope}
	for i := 0; i < decodeStages; i++ {
		stride, pad := 2, 1
		if i == 0 {
			stride, pad = 1, 0
		}
		b := block{
			name:  fmt.Sprintf("dc%d", i+1),
			stage: i + 1,
			conv:  newConv(f, true, chans[i], chans[i+1], chans[i], square(kernelSize), square(stride), square(pad)),
			act:   relu,
		}
		if i == decodeStages-1 {
			b.act = tanh
		} else {
			b.bn = nn.NewBatchNorm(chans[i+1], float32(c.Eps))
		}
		p.blocks = append(p.blocks, b)
	}
	return p
}

// newSubPixelDecoder replaces every transposed convolution by a 3x3
// convolution to r² times the target channels followed by a pixel shuffle.
// Six stages take the 1x1 latent to 64x64; stage i emits out·(r²)^(6−i)
// channels before the shuffle. Sub-pixel weights are scaled by the
// convolution's output channels.
func newSubPixelDecoder(f Flavor, c Config, scope string) *pyramid {
	r := c.Ratio
	r2 := r * r
	in := c.Hidden(f)
	p := &pyramid{scope: scope}
	for i := 0; i < subPixelStages; i++ {
		out := c.OutChannels * pow(r2, subPixelStages-i)
		b := block{
			name:    fmt.Sprintf("cn%d", i+1),
			stage:   i + 1,
			conv:    newConv(f, false, in, out, out, square(subPixelKernelSize), square(1), square(1)),
			shuffle: r,
			act:     relu,
		}
		if i == subPixelStages-1 {
			b.act = tanh
		} else {
			b.bn = nn.NewBatchNorm(out/r2, float32(c.Eps))
		}
		p.blocks = append(p.blocks, b)
		in = out / r2
	}
	return p
}

// newImageEncoder scores [N, in, 64, 64] frames with four strided 4x4
// convolutions halving the resolution and a 4x4 head down to 1x1.
func newImageEncoder(f Flavor, c Config, scope string) *pyramid {
	nf := c.NFilters
	chans := []int{c.InChannels, nf, nf * 2, nf * 4, nf * 8, c.logits(f)}
	p := &pyramid{scope: scope}
	for i := 0; i < encodeStages; i++ {
		stride, pad := square(2), square(1)
		if i == encodeStages-1 {
			stride, pad = square(1), square(0)
		}
		p.blocks = append(p.blocks, encodeBlock(f, c, i, chans, square(kernelSize), stride, pad))
	}
	return p
}

// newVideoEncoder scores [N, in, T, 64, 64] clips with 4x4x4 convolutions
// that stride and pad only the spatial axes. The head's temporal extent is
// whatever depth is left (T−12), so every clip collapses to one logit.
func newVideoEncoder(f Flavor, c Config, scope string) *pyramid {
	nf := c.NFilters
	chans := []int{c.InChannels, nf, nf * 2, nf * 4, nf * 8, c.logits(f)}
	p := &pyramid{scope: scope}
	for i := 0; i < encodeStages; i++ {
		kernel := []int{kernelSize, kernelSize, kernelSize}
		stride, pad := []int{1, 2, 2}, []int{0, 1, 1}
		if i == encodeStages-1 {
			kernel = []int{c.VideoLen - (encodeStages-1)*(kernelSize-1), kernelSize, kernelSize}
			stride, pad = []int{1, 1, 1}, []int{0, 0, 0}
		}
		p.blocks = append(p.blocks, encodeBlock(f, c, i, chans, kernel, stride, pad))
	}
	return p
}

// encodeBlock is stage i of an encoder: noise, conv, batch norm on the inner
// stages, leaky ReLU on all but the head.
func encodeBlock(f Flavor, c Config, i int, chans, kernel, stride, pad []int) block {
	b := block{
		name:  fmt.Sprintf("dc%d", i+1),
		stage: i + 1,
		conv:  newConv(f, false, chans[i], chans[i+1], chans[i], kernel, stride, pad),
		act:   leaky,
		noisy: true,
	}
	switch i {
	case 0:
	case encodeStages - 1:
		b.act = identity
	default:
		b.bn = nn.NewBatchNorm(chans[i+1], float32(c.Eps))
	}
	return b
}

// logits is the number of outputs per sample of a discriminator.
func (c Config) logits(f Flavor) int {
	if f == Plain {
		return 1
	}
	return c.DisOutChannels
}

func square(v int) []int { return []int{v, v} }
