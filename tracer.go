package mocogan

import "gorgonia.org/tensor"

// Tracer is told about every named block a network evaluates, under a path
// like "conditional_igen/dc3". Implementations must not modify the tensors.
type Tracer interface {
	Record(name string, in, out *tensor.Dense)
}

type nopTracer struct{}

func (nopTracer) Record(string, *tensor.Dense, *tensor.Dense) {}

// Option configures a network at construction.
type Option func(*options)

type options struct {
	sampler Sampler
	tracer  Tracer
}

// WithSampler sets the source of randomness. The default is seeded from the
// clock.
func WithSampler(s Sampler) Option { return func(o *options) { o.sampler = s } }

// WithTracer installs a tracing hook. Tracing never changes a network's output.
func WithTracer(t Tracer) Option { return func(o *options) { o.tracer = t } }

func makeOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sampler == nil {
		o.sampler = defaultSampler()
	}
	if o.tracer == nil {
		o.tracer = nopTracer{}
	}
	return o
}
