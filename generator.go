package mocogan

import (
	"github.com/gorgonia/mocogan/motion"
	"github.com/gorgonia/mocogan/nn"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Generator turns a motion seed, a content code and (for label aware
// flavors) labels into a clip of VideoLen frames.
type Generator struct {
	Config
	Flavor Flavor

	scope    string
	gru      *motion.GRU
	composer composer
	decoder  *pyramid

	sampler Sampler
	tracer  Tracer
}

// NewGenerator builds a generator of flavor f. The configuration is validated
// before any weight is allocated.
func NewGenerator(f Flavor, conf Config, opts ...Option) (*Generator, error) {
	if err := conf.Validate(f); err != nil {
		return nil, err
	}
	o := makeOptions(opts)
	scope := f.generatorScope()

	var dec *pyramid
	if f == InfoSubPixel {
		dec = newSubPixelDecoder(f, conf, scope)
	} else {
		dec = newDeconvDecoder(f, conf, scope)
	}
	dec.sampler, dec.tracer = o.sampler, o.tracer

	return &Generator{
		Flavor:   f,
		Config:   conf,
		scope:    scope,
		gru:      motion.New(conf.DimZm, conf.DimZm),
		composer: newComposer(f, conf),
		decoder:  dec,
		sampler:  o.sampler,
		tracer:   o.tracer,
	}, nil
}

// MakeH0 draws the initial motion state of a batch, [batch, DimZm].
func (g *Generator) MakeH0(batch int) *tensor.Dense {
	return g.sampler.Normal(latentStd, batch, g.DimZm)
}

// Step applies the motion cell once.
func (g *Generator) Step(h, e *tensor.Dense) (*tensor.Dense, error) {
	if err := g.checkState(h); err != nil {
		return nil, err
	}
	if err := checkShape("motion input", e, h.Shape()[0], g.DimZm); err != nil {
		return nil, err
	}
	return g.gru.Step(h, e)
}

// Motion unrolls the motion cell from h0 over VideoLen steps with fresh
// N(0, 0.33²) inputs. It returns [VideoLen, B, DimZm].
func (g *Generator) Motion(h0 *tensor.Dense) (*tensor.Dense, error) {
	if err := g.checkState(h0); err != nil {
		return nil, err
	}
	noise := func(batch, dim int) *tensor.Dense { return g.sampler.Normal(latentStd, batch, dim) }
	zm, err := g.gru.Generate(h0, g.VideoLen, noise)
	if err != nil {
		return nil, errors.Wrapf(err, "%s/g0", g.scope)
	}
	g.tracer.Record(g.scope+"/g0", h0, zm)
	return zm, nil
}

// Generate produces a clip [VideoLen, B, FrameChannels, 64, 64] from the
// motion seed h0 [B, DimZm].
//
// zc [B, DimZc] is the content code; when nil one is drawn per clip. Label
// aware flavors take one label in [0, DimZl) per sample, or draw them when
// labels is nil, and return the labels used. Plain generators take no labels
// and return none.
func (g *Generator) Generate(h0, zc *tensor.Dense, labels []int) (clip *tensor.Dense, used []int, err error) {
	if err = g.checkState(h0); err != nil {
		return nil, nil, err
	}
	batch := h0.Shape()[0]
	if zc == nil {
		zc = g.sampler.Normal(latentStd, batch, g.DimZc)
	} else if err = checkShape("content code", zc, batch, g.DimZc); err != nil {
		return nil, nil, err
	}
	if used, err = g.labels(batch, labels); err != nil {
		return nil, nil, err
	}
	if h0, err = nn.Contiguous(h0); err != nil {
		return nil, nil, errors.Wrap(err, g.scope)
	}
	if zc, err = nn.Contiguous(zc); err != nil {
		return nil, nil, errors.Wrap(err, g.scope)
	}

	zm, err := g.Motion(h0)
	if err != nil {
		return nil, nil, err
	}
	latent, err := g.composer.compose(zm, zc, used)
	if err != nil {
		return nil, nil, errors.Wrap(err, g.scope)
	}
	if c, want := latent.Shape()[1], g.decoder.inChannels(); c != want {
		return nil, nil, shapeErr("%s: composed latent has %d channels, decoder expects %d", g.scope, c, want)
	}
	g.tracer.Record(g.scope+"/latent", zm, latent)

	if clip, err = g.decoder.fwd(latent); err != nil {
		return nil, nil, err
	}
	if err = clip.Reshape(g.VideoLen, batch, g.OutChannels, FrameSize, FrameSize); err != nil {
		return nil, nil, errors.WithStack(err)
	}
	if g.composer.labelMaps {
		if clip, err = clip.Concat(2, g.composer.maps(g.VideoLen, used)); err != nil {
			return nil, nil, errors.Wrapf(err, "%s: appending label maps", g.scope)
		}
	}
	return clip, used, nil
}

// labels validates the labels of a batch, or draws them.
func (g *Generator) labels(batch int, labels []int) ([]int, error) {
	if !g.Flavor.labelled() {
		if labels != nil {
			return nil, errors.Wrapf(ErrInvalidLabel, "%v generators take no labels", g.Flavor)
		}
		return nil, nil
	}
	if labels == nil {
		retVal := make([]int, batch)
		for i := range retVal {
			retVal[i] = g.sampler.Intn(g.DimZl)
		}
		return retVal, nil
	}
	if len(labels) != batch {
		return nil, errors.Wrapf(ErrInvalidLabel, "expected %d labels. Got %d", batch, len(labels))
	}
	for i, l := range labels {
		if l < 0 || l >= g.DimZl {
			return nil, errors.Wrapf(ErrInvalidLabel, "label %d of sample %d is outside [0, %d)", l, i, g.DimZl)
		}
	}
	return append([]int(nil), labels...), nil
}

func (g *Generator) checkState(h *tensor.Dense) error {
	if h == nil || h.Dims() != 2 {
		return shapeErr("expected a [batch, %d] motion state. Got %v", g.DimZm, shapeOf(h))
	}
	return checkShape("motion state", h, h.Shape()[0], g.DimZm)
}

func (g *Generator) SetTraining() { g.decoder.SetTraining() }
func (g *Generator) SetTesting()  { g.decoder.SetTesting() }

// Params lists every weight of the generator under its path name.
func (g *Generator) Params() []nn.Param {
	retVal := g.gru.Params(g.scope + "/g0")
	for _, p := range g.decoder.params() {
		p.Name = g.scope + "/" + p.Name
		retVal = append(retVal, p)
	}
	return retVal
}

// checkShape checks that x is a float32 tensor of exactly the given shape.
func checkShape(what string, x *tensor.Dense, shape ...int) error {
	if x == nil || !x.Shape().Eq(tensor.Shape(shape)) {
		return shapeErr("expected a %v %s. Got %v", tensor.Shape(shape), what, shapeOf(x))
	}
	if x.Dtype() != tensor.Float32 {
		return shapeErr("expected a float32 %s. Got %v", what, x.Dtype())
	}
	return nil
}

func shapeOf(x *tensor.Dense) tensor.Shape {
	if x == nil {
		return nil
	}
	return x.Shape()
}
