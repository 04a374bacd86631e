package nn

import "sync"

var scratch = struct {
	sync.Mutex
	pools map[int]*sync.Pool
}{pools: make(map[int]*sync.Pool)}

// borrowFloats returns a scratch buffer of length n. Its contents are
// undefined; callers overwrite every element before reading it.
func borrowFloats(n int) []float32 {
	scratch.Lock()
	p, ok := scratch.pools[n]
	if !ok {
		p = &sync.Pool{New: func() interface{} { return make([]float32, n) }}
		scratch.pools[n] = p
	}
	scratch.Unlock()
	return p.Get().([]float32)
}

// returnFloats hands a buffer obtained from borrowFloats back.
func returnFloats(buf []float32) {
	scratch.Lock()
	p, ok := scratch.pools[len(buf)]
	scratch.Unlock()
	if ok {
		p.Put(buf)
	}
}
