// Package trace records what every named block of a network sees and
// produces, for inspecting a forward pass after the fact.
package trace

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gorgonia.org/tensor"
)

// Stats summarizes the values of a tensor.
type Stats struct {
	Mean, Std float64
	Min, Max  float64
}

// Block is everything recorded about one named block.
type Block struct {
	Name     string
	Calls    int
	In, Out  tensor.Shape // shapes seen on the last call
	InStats  Stats
	OutStats Stats
}

// Recorder is a tracing hook that keeps per block activation statistics.
// It is safe for concurrent use.
type Recorder struct {
	sync.Mutex
	ID uuid.UUID

	order  []string
	blocks map[string]*Block
	edges  map[[2]string]struct{}
	last   map[string]string // scope -> last block recorded in it

	logger zerolog.Logger
}

// New creates a Recorder with a fresh run ID.
func New() *Recorder {
	id := uuid.New()
	return &Recorder{
		ID:     id,
		blocks: make(map[string]*Block),
		edges:  make(map[[2]string]struct{}),
		last:   make(map[string]string),
		logger: log.With().Str("run", id.String()).Logger(),
	}
}

// Record implements the tracing hook. Neither tensor is modified.
func (r *Recorder) Record(name string, in, out *tensor.Dense) {
	inStats, outStats := summarize(in), summarize(out)

	r.Lock()
	defer r.Unlock()
	b, ok := r.blocks[name]
	if !ok {
		b = &Block{Name: name}
		r.blocks[name] = b
		r.order = append(r.order, name)
	}
	b.Calls++
	b.In, b.Out = shapeOf(in), shapeOf(out)
	b.InStats, b.OutStats = inStats, outStats

	scope := scopeOf(name)
	if prev, ok := r.last[scope]; ok && prev != name {
		r.edges[[2]string{prev, name}] = struct{}{}
	}
	r.last[scope] = name

	r.logger.Debug().
		Str("block", name).
		Interface("in", b.In).
		Interface("out", b.Out).
		Float64("mean", outStats.Mean).
		Float64("std", outStats.Std).
		Msg("forward")
}

// Blocks returns a copy of every block in the order they were first recorded.
func (r *Recorder) Blocks() []Block {
	r.Lock()
	defer r.Unlock()
	retVal := make([]Block, 0, len(r.order))
	for _, n := range r.order {
		retVal = append(retVal, *r.blocks[n])
	}
	return retVal
}

// Reset forgets everything recorded so far. The run ID is kept.
func (r *Recorder) Reset() {
	r.Lock()
	r.order = r.order[:0]
	r.blocks = make(map[string]*Block)
	r.edges = make(map[[2]string]struct{})
	r.last = make(map[string]string)
	r.Unlock()
}

func summarize(t *tensor.Dense) Stats {
	if t == nil {
		return Stats{}
	}
	data, ok := t.Data().([]float32)
	if !ok || len(data) == 0 {
		return Stats{}
	}
	xs := make([]float64, len(data))
	for i, v := range data {
		xs[i] = float64(v)
	}
	var s Stats
	s.Mean, s.Std = stat.MeanStdDev(xs, nil)
	s.Min, s.Max = floats.Min(xs), floats.Max(xs)
	return s
}

func shapeOf(t *tensor.Dense) tensor.Shape {
	if t == nil {
		return nil
	}
	return t.Shape().Clone()
}

// scopeOf is everything before the last path separator.
func scopeOf(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	return ""
}
