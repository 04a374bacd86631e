// Package gif renders generated clips as animated GIFs.
package gif

import (
	"fmt"
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"math"

	"github.com/golang/freetype/truetype"
	"github.com/gorgonia/mocogan/nn"
	"github.com/pkg/errors"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/math/fixed"
	"gorgonia.org/tensor"
)

var regular *truetype.Font

const (
	dpi        = 72.0
	fontsize   = 10.0
	lineheight = 1.2
)

func init() {
	var err error
	if regular, err = truetype.Parse(gomono.TTF); err != nil {
		panic(err)
	}
}

// Encoder renders [T, B, C, H, W] clips with values in [−1, 1] into an
// animated GIF, one GIF frame per clip frame with the B samples side by side.
// Each sample may carry a caption drawn beneath it.
type Encoder struct {
	Channels int // leading channels holding the picture: 1 (gray) or 3 (RGB)
	Delay    int // per frame, in 100ths of a second
	font.Drawer

	out *gif.GIF
	io.Writer

	padH, padW int
}

// NewGifEncoder creates an encoder writing to w on Flush.
func NewGifEncoder(w io.Writer, channels int) *Encoder {
	face := truetype.NewFace(regular, &truetype.Options{
		Size:    fontsize,
		DPI:     dpi,
		Hinting: font.HintingFull,
	})
	return &Encoder{
		Channels: channels,
		Delay:    10,
		Drawer: font.Drawer{
			Src:  image.Black,
			Face: face,
		},
		out:    &gif.GIF{LoopCount: 0},
		Writer: w,
		padH:   4,
		padW:   4,
	}
}

// Encode appends every frame of clip. captions, if not nil, has one entry per
// sample.
func (enc *Encoder) Encode(clip *tensor.Dense, captions []string) error {
	if enc.Channels != 1 && enc.Channels != 3 {
		return errors.Errorf("cannot render %d channels", enc.Channels)
	}
	s := clip.Shape()
	if s.Dims() != 5 || s[2] < enc.Channels {
		return errors.Errorf("expected a [T, B, C≥%d, H, W] clip. Got %v", enc.Channels, s)
	}
	if captions != nil && len(captions) != s[1] {
		return errors.Errorf("expected %d captions. Got %d", s[1], len(captions))
	}
	clip, err := nn.Contiguous(clip)
	if err != nil {
		return err
	}
	data, ok := clip.Data().([]float32)
	if !ok {
		return errors.Errorf("expected a float32 clip. Got %v", clip.Dtype())
	}

	steps, batch, c, h, w := s[0], s[1], s[2], s[3], s[4]
	dy := int(math.Ceil(fontsize * lineheight * dpi / 72))
	tileW := w + 2*enc.padW
	height := h + 2*enc.padH + 2*dy
	bounds := image.Rect(0, 0, batch*tileW, height)

	for t := 0; t < steps; t++ {
		rgba := image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, image.White, image.Point{}, draw.Src)
		for b := 0; b < batch; b++ {
			sample := data[(t*batch+b)*c*h*w:]
			x0 := b*tileW + enc.padW
			for y := 0; y < h; y++ {
				for x := 0; x < w; x++ {
					rgba.Set(x0+x, enc.padH+y, enc.pixel(sample, y*w+x, h*w))
				}
			}
		}

		im := image.NewPaletted(bounds, palette.Plan9)
		draw.FloydSteinberg.Draw(im, bounds, rgba, image.Point{})
		enc.Dst = im
		y := enc.padH + h + dy
		for b := 0; b < batch; b++ {
			if captions != nil {
				enc.Dot = fixed.P(b*tileW+enc.padW, y)
				enc.DrawString(captions[b])
			}
		}
		enc.Dot = fixed.P(enc.padW, y+dy)
		enc.DrawString(fmt.Sprintf("frame %d/%d", t+1, steps))

		enc.out.Image = append(enc.out.Image, im)
		enc.out.Delay = append(enc.out.Delay, enc.Delay)
	}
	return nil
}

// pixel converts position i of a sample laid out [C, H·W] into a color.
func (enc *Encoder) pixel(sample []float32, i, area int) color.Color {
	if enc.Channels == 1 {
		return color.Gray{Y: level(sample[i])}
	}
	return color.RGBA{
		R: level(sample[i]),
		G: level(sample[area+i]),
		B: level(sample[2*area+i]),
		A: 0xff,
	}
}

// level maps [−1, 1] onto [0, 255].
func level(v float32) uint8 {
	switch {
	case v <= -1:
		return 0
	case v >= 1:
		return 0xff
	}
	return uint8((v + 1) / 2 * 0xff)
}

// Frames is the number of frames encoded so far.
func (enc *Encoder) Frames() int { return len(enc.out.Image) }

// Flush writes the gif into the writer
func (enc *Encoder) Flush() error { return errors.WithStack(gif.EncodeAll(enc.Writer, enc.out)) }
