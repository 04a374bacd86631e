package nn

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// PixelShuffle rearranges x [N, C·r², H, W] into [N, C, H·r, W·r]:
//	out[n, c, h·r+i, w·r+j] = x[n, c·r²+i·r+j, h, w]
func PixelShuffle(x *tensor.Dense, r int) (*tensor.Dense, error) {
	s := x.Shape()
	if s.Dims() != 4 || r < 1 || s[1]%(r*r) != 0 {
		return nil, errors.Errorf("cannot pixel shuffle %v by %d", s, r)
	}
	n, c, h, w := s[0], s[1]/(r*r), s[2], s[3]
	src, err := floats(x)
	if err != nil {
		return nil, err
	}
	dst := make([]float32, len(src))
	shuffle(src, dst, n, c, h, w, r, false)
	return tensor.New(tensor.WithShape(n, c, h*r, w*r), tensor.WithBacking(dst)), nil
}

// PixelUnshuffle is the inverse of PixelShuffle: it takes [N, C, H·r, W·r]
// back to [N, C·r², H, W].
func PixelUnshuffle(x *tensor.Dense, r int) (*tensor.Dense, error) {
	s := x.Shape()
	if s.Dims() != 4 || r < 1 || s[2]%r != 0 || s[3]%r != 0 {
		return nil, errors.Errorf("cannot pixel unshuffle %v by %d", s, r)
	}
	n, c, h, w := s[0], s[1], s[2]/r, s[3]/r
	src, err := floats(x)
	if err != nil {
		return nil, err
	}
	dst := make([]float32, len(src))
	shuffle(dst, src, n, c, h, w, r, true)
	return tensor.New(tensor.WithShape(n, c*r*r, h, w), tensor.WithBacking(dst)), nil
}

// shuffle walks the packed layout; it copies packed→spatial, or spatial→packed
// when inverse is set.
func shuffle(packed, spatial []float32, n, c, h, w, r int, inverse bool) {
	r2 := r * r
	for b := 0; b < n; b++ {
		for ch := 0; ch < c; ch++ {
			for i := 0; i < r; i++ {
				for j := 0; j < r; j++ {
					plane := ((b*c+ch)*r2 + i*r + j) * h * w
					for y := 0; y < h; y++ {
						for x := 0; x < w; x++ {
							p := plane + y*w + x
							q := ((b*c+ch)*h*r+y*r+i)*w*r + x*r + j
							if inverse {
								packed[p] = spatial[q]
							} else {
								spatial[q] = packed[p]
							}
						}
					}
				}
			}
		}
	}
}

func errShape(op string, a, b tensor.Shape) error {
	return errors.Errorf("%s: shapes %v and %v differ", op, a, b)
}
