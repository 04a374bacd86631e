package nn

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gorgonia.org/tensor"
)

// Conv is a convolution over the trailing spatial axes of a
// [batch, channels, spatial...] tensor.
//
// W is laid out [out, in, kernel...]. When Transposed is set the layer is the
// fractionally strided (transposed) convolution instead and W is laid out
// [in, out, kernel...]. B is an optional per output channel bias.
type Conv struct {
	W, B       *tensor.Dense
	Stride     []int
	Pad        []int
	Transposed bool
}

// Kernel returns the spatial extent of the kernel.
func (l *Conv) Kernel() []int { return l.W.Shape()[2:] }

// InChannels is the channel count the layer consumes.
func (l *Conv) InChannels() int {
	if l.Transposed {
		return l.W.Shape()[0]
	}
	return l.W.Shape()[1]
}

// OutChannels is the channel count the layer produces.
func (l *Conv) OutChannels() int {
	if l.Transposed {
		return l.W.Shape()[1]
	}
	return l.W.Shape()[0]
}

// Fwd applies the layer to x.
func (l *Conv) Fwd(x *tensor.Dense) (*tensor.Dense, error) {
	if l.Transposed {
		return Deconvolve(x, l.W, l.B, l.Stride, l.Pad)
	}
	return Convolve(x, l.W, l.B, l.Stride, l.Pad)
}

// Convolve computes the cross-correlation of x [N, C, spatial...] with the
// kernel w [O, C, kernel...]. b may be nil.
//
// Each sample is unfolded into a [C·k, out] column matrix and multiplied by
// the [O, C·k] kernel matrix.
func Convolve(x, w, b *tensor.Dense, stride, pad []int) (*tensor.Dense, error) {
	xs, ws := x.Shape(), w.Shape()
	rank := len(xs) - 2
	if rank < 1 || len(ws) != rank+2 {
		return nil, errors.Errorf("cannot convolve %v with kernel %v", xs, ws)
	}
	n, c, o := xs[0], xs[1], ws[0]
	if ws[1] != c {
		return nil, errors.Errorf("input %v has %d channels, kernel %v expects %d", xs, c, ws, ws[1])
	}
	in, kernel := []int(xs[2:]), []int(ws[2:])
	table, out, err := window(in, kernel, stride, pad)
	if err != nil {
		return nil, err
	}
	xd, err := floats(x)
	if err != nil {
		return nil, err
	}
	wd, err := floats(w)
	if err != nil {
		return nil, err
	}

	inSize, outSize, kSize := volume(in), volume(out), volume(kernel)
	col := borrowFloats(c * kSize * outSize)
	defer returnFloats(col)
	ret := make([]float32, n*o*outSize)
	for i := 0; i < n; i++ {
		im2col(xd[i*c*inSize:(i+1)*c*inSize], col, table, c, inSize, kSize, outSize)
		gemm(false, o, outSize, c*kSize, wd, col, ret[i*o*outSize:(i+1)*o*outSize])
	}
	if err = addBias(ret, b, n, o, outSize); err != nil {
		return nil, err
	}

	shape := append([]int{n, o}, out...)
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(ret)), nil
}

// Deconvolve computes the transposed convolution of x [N, C, spatial...] with
// the kernel w [C, O, kernel...]. Every output axis has size
// stride·(in−1) + kernel − 2·pad. b may be nil.
//
// Deconvolve(·, w) is the adjoint of Convolve(·, w) for the same stride and
// padding.
func Deconvolve(x, w, b *tensor.Dense, stride, pad []int) (*tensor.Dense, error) {
	xs, ws := x.Shape(), w.Shape()
	rank := len(xs) - 2
	if rank < 1 || len(ws) != rank+2 || len(stride) != rank || len(pad) != rank {
		return nil, errors.Errorf("cannot deconvolve %v with kernel %v (stride %v, padding %v)", xs, ws, stride, pad)
	}
	n, c, o := xs[0], xs[1], ws[1]
	if ws[0] != c {
		return nil, errors.Errorf("input %v has %d channels, kernel %v expects %d", xs, c, ws, ws[0])
	}
	in, kernel := []int(xs[2:]), []int(ws[2:])
	out := make([]int, rank)
	for d := range out {
		if out[d] = stride[d]*(in[d]-1) + kernel[d] - 2*pad[d]; out[d] < 1 {
			return nil, errors.Errorf("deconvolving %v with kernel %v (stride %v, padding %v) leaves no output", xs, ws, stride, pad)
		}
	}
	table, back, err := window(out, kernel, stride, pad)
	if err != nil {
		return nil, err
	}
	for d := range back {
		if back[d] != in[d] {
			return nil, errors.Errorf("deconvolution of %v with kernel %v is not invertible at stride %v, padding %v", xs, ws, stride, pad)
		}
	}
	xd, err := floats(x)
	if err != nil {
		return nil, err
	}
	wd, err := floats(w)
	if err != nil {
		return nil, err
	}

	inSize, outSize, kSize := volume(in), volume(out), volume(kernel)
	col := borrowFloats(o * kSize * inSize)
	defer returnFloats(col)
	ret := make([]float32, n*o*outSize)
	for i := 0; i < n; i++ {
		gemm(true, o*kSize, inSize, c, wd, xd[i*c*inSize:(i+1)*c*inSize], col)
		col2im(col, ret[i*o*outSize:(i+1)*o*outSize], table, o, outSize, kSize, inSize)
	}
	if err = addBias(ret, b, n, o, outSize); err != nil {
		return nil, err
	}

	shape := append([]int{n, o}, out...)
	return tensor.New(tensor.WithShape(shape...), tensor.WithBacking(ret)), nil
}

// im2col unfolds one sample into col, a [c·kSize, outSize] matrix.
func im2col(src, col []float32, table []int, c, inSize, kSize, outSize int) {
	for ch := 0; ch < c; ch++ {
		plane := src[ch*inSize : (ch+1)*inSize]
		for k := 0; k < kSize; k++ {
			row := col[(ch*kSize+k)*outSize : (ch*kSize+k+1)*outSize]
			for i, j := range table[k*outSize : (k+1)*outSize] {
				if j < 0 {
					row[i] = 0
					continue
				}
				row[i] = plane[j]
			}
		}
	}
}

// col2im folds a [c·kSize, colSize] matrix back onto one sample, summing
// overlapping windows.
func col2im(col, dst []float32, table []int, c, dstSize, kSize, colSize int) {
	for ch := 0; ch < c; ch++ {
		plane := dst[ch*dstSize : (ch+1)*dstSize]
		for k := 0; k < kSize; k++ {
			row := col[(ch*kSize+k)*colSize : (ch*kSize+k+1)*colSize]
			for i, j := range table[k*colSize : (k+1)*colSize] {
				if j >= 0 {
					plane[j] += row[i]
				}
			}
		}
	}
}

// gemm computes c = op(a)·b, where op(a) is [m, k], b is [k, n] and c is
// [m, n]. When transA is set, a is stored as [k, m].
func gemm(transA bool, m, n, k int, a, b, c []float32) {
	tA := blas.NoTrans
	ga := blas32.General{Rows: m, Cols: k, Stride: k, Data: a}
	if transA {
		tA = blas.Trans
		ga = blas32.General{Rows: k, Cols: m, Stride: m, Data: a}
	}
	gb := blas32.General{Rows: k, Cols: n, Stride: n, Data: b}
	gc := blas32.General{Rows: m, Cols: n, Stride: n, Data: c}
	blas32.Gemm(tA, blas.NoTrans, 1, ga, gb, 0, gc)
}

func addBias(data []float32, b *tensor.Dense, n, c, size int) error {
	if b == nil {
		return nil
	}
	bd, err := floats(b)
	if err != nil {
		return err
	}
	if len(bd) != c {
		return errors.Errorf("bias %v does not match %d channels", b.Shape(), c)
	}
	for i := 0; i < n; i++ {
		for ch, v := range bd {
			plane := data[(i*c+ch)*size : (i*c+ch+1)*size]
			for j := range plane {
				plane[j] += v
			}
		}
	}
	return nil
}

// floats returns the data of a float32 tensor in row major order of its
// shape. Views are packed first.
func floats(t *tensor.Dense) ([]float32, error) {
	t, err := Contiguous(t)
	if err != nil {
		return nil, err
	}
	data, ok := t.Data().([]float32)
	if !ok {
		return nil, errors.Errorf("expected a float32 tensor. Got %v", t.Dtype())
	}
	return data, nil
}
