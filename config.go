package mocogan

// FrameSize is the height and width of every generated or scored frame.
const FrameSize = 64

// latentStd is the standard deviation of every latent draw.
const latentStd = 0.33

// Config configures the networks. A generator and the discriminators judging
// it (and any weights shared between them) must agree on every field.
type Config struct {
	OutChannels int `yaml:"out_channels"` // channels of a generated frame, before label maps
	NFilters    int `yaml:"n_filters"`    // filters of the widest-resolution conv stage
	VideoLen    int `yaml:"video_len"`    // frames per clip

	DimZc int `yaml:"dim_zc"` // content latent width
	DimZm int `yaml:"dim_zm"` // motion latent width
	DimZl int `yaml:"dim_zl"` // label cardinality, label aware flavors only

	InChannels     int     `yaml:"in_channels"`      // channels a discriminator consumes; 0 means FrameChannels
	DisOutChannels int     `yaml:"dis_out_channels"` // logits per sample of a label aware discriminator
	UseNoise       bool    `yaml:"use_noise"`        // instance noise in discriminators
	NoiseSigma     float64 `yaml:"noise_sigma"`

	Ratio int     `yaml:"ratio"` // pixel shuffle upscale factor
	Eps   float64 `yaml:"eps"`   // batch norm epsilon
}

// DefaultConfig returns the default configuration of a flavor.
func DefaultConfig(f Flavor) Config {
	conf := Config{
		OutChannels: 3,
		NFilters:    64,
		VideoLen:    16,

		DimZc: 50,
		DimZm: 10,

		DisOutChannels: 1,
		NoiseSigma:     0.2,

		Ratio: 2,
		Eps:   2e-5,
	}
	if f.labelled() {
		conf.DimZl = 6
		conf.NoiseSigma = 0.1
	}
	return conf
}

// FrameChannels is the channel count of the frames a generator of flavor f
// emits: OutChannels, plus one label map per class for Conditional.
func (c Config) FrameChannels(f Flavor) int {
	if f.labelMaps() {
		return c.OutChannels + c.DimZl
	}
	return c.OutChannels
}

// Hidden is the channel count of the composed latent of flavor f.
func (c Config) Hidden(f Flavor) int {
	if f.labelled() {
		return c.DimZc + c.DimZm + c.DimZl
	}
	return c.DimZc + c.DimZm
}

// Validate checks the fields every network of flavor f depends on.
func (c Config) Validate(f Flavor) error {
	switch {
	case f >= maxFlavor:
		return configErr("unknown flavor %d", f)
	case c.OutChannels < 1:
		return configErr("out_channels must be positive. Got %d", c.OutChannels)
	case c.NFilters < 1:
		return configErr("n_filters must be positive. Got %d", c.NFilters)
	case c.VideoLen < 1:
		return configErr("video_len must be positive. Got %d", c.VideoLen)
	case c.DimZc < 1 || c.DimZm < 1:
		return configErr("latent widths must be positive. Got dim_zc %d, dim_zm %d", c.DimZc, c.DimZm)
	case f.labelled() && c.DimZl < 1:
		return configErr("flavor %v needs at least one label. Got dim_zl %d", f, c.DimZl)
	case c.NoiseSigma < 0:
		return configErr("noise_sigma must not be negative. Got %v", c.NoiseSigma)
	case c.Eps <= 0:
		return configErr("eps must be positive. Got %v", c.Eps)
	}
	if f == InfoSubPixel {
		if c.Ratio < 2 {
			return configErr("pixel shuffle ratio must be at least 2. Got %d", c.Ratio)
		}
		if r2 := c.Ratio * c.Ratio; c.NFilters%r2 != 0 {
			return configErr("n_filters %d is not divisible by r² = %d", c.NFilters, r2)
		}
		if pow(c.Ratio, subPixelStages) != FrameSize {
			return configErr("%d sub-pixel stages at ratio %d do not reach %dx%d frames", subPixelStages, c.Ratio, FrameSize, FrameSize)
		}
	}
	return nil
}

// derive fills the fields left at zero that follow from the others.
func (c Config) derive(f Flavor) Config {
	if c.InChannels == 0 {
		c.InChannels = c.FrameChannels(f)
	}
	return c
}

// validateDiscriminator checks the discriminator-only fields on top of Validate.
func (c Config) validateDiscriminator(f Flavor, video bool) error {
	if err := c.Validate(f); err != nil {
		return err
	}
	switch {
	case c.InChannels < 1:
		return configErr("in_channels must be positive. Got %d", c.InChannels)
	case f.labelled() && c.DisOutChannels < 1:
		return configErr("dis_out_channels must be positive. Got %d", c.DisOutChannels)
	case video && c.VideoLen < minVideoLen:
		return configErr("video discriminators need at least %d frames. Got %d", minVideoLen, c.VideoLen)
	}
	return nil
}

func pow(a, b int) int {
	retVal := 1
	for i := 0; i < b; i++ {
		retVal *= a
	}
	return retVal
}
