package mocogan

import (
	"github.com/gorgonia/mocogan/nn"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Discriminator scores frames or clips. Image discriminators take
// [B, InChannels, 64, 64] frames; video discriminators take
// [B, InChannels, VideoLen, 64, 64] clips (see VideoLayout).
type Discriminator struct {
	Config
	Flavor Flavor

	video   bool
	encoder *pyramid
}

// NewImageDiscriminator builds a per frame discriminator of flavor f.
func NewImageDiscriminator(f Flavor, conf Config, opts ...Option) (*Discriminator, error) {
	return newDiscriminator(f, conf, false, opts)
}

// NewVideoDiscriminator builds a per clip discriminator of flavor f. It needs
// at least 13 frames per clip.
func NewVideoDiscriminator(f Flavor, conf Config, opts ...Option) (*Discriminator, error) {
	return newDiscriminator(f, conf, true, opts)
}

func newDiscriminator(f Flavor, conf Config, video bool, opts []Option) (*Discriminator, error) {
	conf = conf.derive(f)
	if err := conf.validateDiscriminator(f, video); err != nil {
		return nil, err
	}
	o := makeOptions(opts)
	scope := f.discriminatorScope(video)

	var enc *pyramid
	if video {
		enc = newVideoEncoder(f, conf, scope)
	} else {
		enc = newImageEncoder(f, conf, scope)
	}
	enc.sampler, enc.tracer = o.sampler, o.tracer
	enc.sigma, enc.noise = conf.NoiseSigma, conf.UseNoise

	return &Discriminator{
		Config:  conf,
		Flavor:  f,
		video:   video,
		encoder: enc,
	}, nil
}

// Video reports whether d scores whole clips.
func (d *Discriminator) Video() bool { return d.video }

// Score returns the [B, outputs] logits of x. Plain discriminators have one
// output, label aware ones DisOutChannels. x is read in the order of its
// logical shape, so transposed views are scored like their packed copies.
// x is not modified.
func (d *Discriminator) Score(x *tensor.Dense) (*tensor.Dense, error) {
	if err := d.checkLayout(x); err != nil {
		return nil, err
	}
	x, err := nn.Contiguous(x)
	if err != nil {
		return nil, errors.Wrap(err, d.encoder.scope)
	}
	batch := x.Shape()[0]
	retVal, err := d.encoder.fwd(x)
	if err != nil {
		return nil, err
	}
	if err = retVal.Reshape(batch, d.logits(d.Flavor)); err != nil {
		return nil, errors.WithStack(err)
	}
	return retVal, nil
}

func (d *Discriminator) checkLayout(x *tensor.Dense) error {
	want := tensor.Shape{0, d.InChannels, FrameSize, FrameSize}
	if d.video {
		want = tensor.Shape{0, d.InChannels, d.VideoLen, FrameSize, FrameSize}
	}
	if x == nil || x.Dims() != len(want) || x.Shape()[0] < 1 {
		return shapeErr("%s: expected %v input with any positive batch. Got %v", d.encoder.scope, want[1:], shapeOf(x))
	}
	want[0] = x.Shape()[0]
	return checkShape(d.encoder.scope+" input", x, want...)
}

func (d *Discriminator) SetTraining() { d.encoder.SetTraining() }
func (d *Discriminator) SetTesting()  { d.encoder.SetTesting() }

// Params lists every weight of the discriminator under its path name.
func (d *Discriminator) Params() []nn.Param {
	retVal := d.encoder.params()
	for i := range retVal {
		retVal[i].Name = d.encoder.scope + "/" + retVal[i].Name
	}
	return retVal
}
