package mocogan

import (
	"strings"

	"github.com/pkg/errors"
)

// Flavor selects how a network treats the label stream.
type Flavor byte

const (
	Plain        Flavor = iota // content and motion only
	Categorical                // one-hot label in the latent
	Conditional                // label in the latent and as constant feature maps on the frames
	Info                       // info-GAN: label in the latent, recovered by the discriminator
	InfoSubPixel               // Info with a sub-pixel convolution decoder

	maxFlavor
)

var flavorNames = [...]string{"plain", "categorical", "conditional", "info", "info-subpixel"}

func (f Flavor) String() string {
	if f >= maxFlavor {
		return "unknown"
	}
	return flavorNames[f]
}

// ParseFlavor is the inverse of Flavor.String.
func ParseFlavor(s string) (Flavor, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, n := range flavorNames {
		if n == s {
			return Flavor(i), nil
		}
	}
	return 0, errors.Wrapf(ErrInvalidConfig, "unknown flavor %q", s)
}

// labelled reports whether the flavor carries a label stream.
func (f Flavor) labelled() bool { return f != Plain }

// labelMaps reports whether generated frames carry the label as extra channels.
func (f Flavor) labelMaps() bool { return f == Conditional }

func (f Flavor) generatorScope() string {
	switch f {
	case Plain:
		return "image_gen"
	case InfoSubPixel:
		return "ps_info_igen"
	}
	return f.String() + "_igen"
}

func (f Flavor) discriminatorScope(video bool) string {
	if f == InfoSubPixel {
		f = Info
	}
	suffix := "_idis"
	if video {
		suffix = "_vdis"
	}
	if f == Plain {
		if video {
			return "video_dis"
		}
		return "image_dis"
	}
	return f.String() + suffix
}
