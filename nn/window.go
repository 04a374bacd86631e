package nn

import "github.com/pkg/errors"

// window maps every (kernel offset, output position) pair of a strided,
// zero padded sliding window to the flat spatial index it reads in the input,
// or -1 where the window lies in padding. The table is kernel major:
// table[k*volume(out)+o].
func window(in, kernel, stride, pad []int) (table []int, out []int, err error) {
	rank := len(in)
	if len(kernel) != rank || len(stride) != rank || len(pad) != rank {
		return nil, nil, errors.Errorf("window over %v needs %d-d kernel, stride and padding. Got %v, %v, %v", in, rank, kernel, stride, pad)
	}
	out = make([]int, rank)
	for d := range in {
		span := in[d] + 2*pad[d] - kernel[d]
		if span < 0 || stride[d] < 1 {
			return nil, nil, errors.Errorf("kernel %v (stride %v, padding %v) does not fit %v", kernel, stride, pad, in)
		}
		out[d] = span/stride[d] + 1
	}

	kSize, oSize := volume(kernel), volume(out)
	table = make([]int, kSize*oSize)
	kIdx := make([]int, rank)
	oIdx := make([]int, rank)
	for k := 0; k < kSize; k++ {
		unravel(k, kernel, kIdx)
		row := table[k*oSize : (k+1)*oSize]
		for o := range row {
			unravel(o, out, oIdx)
			flat := 0
			for d := 0; d < rank; d++ {
				i := oIdx[d]*stride[d] - pad[d] + kIdx[d]
				if i < 0 || i >= in[d] {
					flat = -1
					break
				}
				flat = flat*in[d] + i
			}
			row[o] = flat
		}
	}
	return table, out, nil
}

func unravel(i int, dims, idx []int) {
	for d := len(dims) - 1; d >= 0; d-- {
		idx[d] = i % dims[d]
		i /= dims[d]
	}
}

func volume(dims []int) int {
	retVal := 1
	for _, d := range dims {
		retVal *= d
	}
	return retVal
}
