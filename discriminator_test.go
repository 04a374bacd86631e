package mocogan

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestScore(t *testing.T) {
	cases := []struct {
		flavor  Flavor
		video   bool
		noise   bool
		outputs int
	}{
		{Plain, false, false, 1},
		{Plain, false, true, 1},
		{Plain, true, false, 1},
		{Plain, true, true, 1},
		{Categorical, false, true, 1},
		{Conditional, true, true, 1},
		{Info, false, false, 3},
		{Info, true, true, 3},
	}
	for _, c := range cases {
		conf := smallConfig(c.flavor)
		conf.VideoLen = minVideoLen
		conf.UseNoise = c.noise
		if c.outputs > 1 {
			conf.DisOutChannels = c.outputs
		}
		s := NewSampler(11)

		var d *Discriminator
		var err error
		var x *tensor.Dense
		if c.video {
			d, err = NewVideoDiscriminator(c.flavor, conf, WithSampler(s))
			require.NoError(t, err)
			x = s.Normal(0.5, 2, d.InChannels, conf.VideoLen, FrameSize, FrameSize)
		} else {
			d, err = NewImageDiscriminator(c.flavor, conf, WithSampler(s))
			require.NoError(t, err)
			x = s.Normal(0.5, 2, d.InChannels, FrameSize, FrameSize)
		}
		assert.Equal(t, c.video, d.Video())

		before := append([]float32(nil), x.Data().([]float32)...)
		y, err := d.Score(x)
		require.NoError(t, err, "%v video %t", c.flavor, c.video)
		if diff := cmp.Diff([]int{2, c.outputs}, []int(y.Shape())); diff != "" {
			t.Errorf("%v video %t: score shape (-want +got):\n%s", c.flavor, c.video, diff)
		}
		assert.Equal(t, before, x.Data(), "scoring must not modify its input")
	}
}

func TestInstanceNoise(t *testing.T) {
	conf := smallConfig(Plain)
	conf.UseNoise = true
	s := NewSampler(13)
	d, err := NewImageDiscriminator(Plain, conf, WithSampler(s))
	require.NoError(t, err)
	x := s.Normal(0.5, 2, d.InChannels, FrameSize, FrameSize)

	a, err := d.Score(x)
	require.NoError(t, err)
	b, err := d.Score(x)
	require.NoError(t, err)
	assert.NotEqual(t, a.Data(), b.Data(), "training mode draws fresh noise")

	d.SetTesting()
	a, err = d.Score(x)
	require.NoError(t, err)
	b, err = d.Score(x)
	require.NoError(t, err)
	assert.Equal(t, a.Data(), b.Data(), "testing mode is noise free")
}

func TestScoreGeneratedClip(t *testing.T) {
	conf := smallConfig(Plain)
	conf.VideoLen = minVideoLen
	s := NewSampler(17)
	g, err := NewGenerator(Plain, conf, WithSampler(s))
	require.NoError(t, err)
	clip, _, err := g.Generate(g.MakeH0(2), nil, nil)
	require.NoError(t, err)

	vd, err := NewVideoDiscriminator(Plain, conf, WithSampler(s))
	require.NoError(t, err)
	video, err := VideoLayout(clip)
	require.NoError(t, err)
	y, err := vd.Score(video)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, []int(y.Shape()))

	id, err := NewImageDiscriminator(Plain, conf, WithSampler(s))
	require.NoError(t, err)
	frames, err := Frames(clip)
	require.NoError(t, err)
	y, err = id.Score(frames)
	require.NoError(t, err)
	assert.Equal(t, []int{2 * minVideoLen, 1}, []int(y.Shape()))

	// a clip in generator layout is rejected by the video discriminator
	_, err = vd.Score(clip)
	assert.Equal(t, ErrShapeMismatch, errors.Cause(err))
}

func TestScoreTransposedView(t *testing.T) {
	conf := smallConfig(Plain)
	conf.VideoLen = minVideoLen
	s := NewSampler(31)
	g, err := NewGenerator(Plain, conf, WithSampler(s))
	require.NoError(t, err)
	clip, _, err := g.Generate(g.MakeH0(2), nil, nil)
	require.NoError(t, err)

	vd, err := NewVideoDiscriminator(Plain, conf, WithSampler(s))
	require.NoError(t, err)
	video, err := VideoLayout(clip)
	require.NoError(t, err)
	want, err := vd.Score(video)
	require.NoError(t, err)

	// same logical [B, C, T, H, W] tensor, still stored as [T, B, C, H, W]
	view := clip.Clone().(*tensor.Dense)
	require.NoError(t, view.T(1, 2, 0, 3, 4))
	got, err := vd.Score(view)
	require.NoError(t, err)
	assert.Equal(t, want.Data(), got.Data())
}

func TestScoreBadInputs(t *testing.T) {
	conf := smallConfig(Conditional)
	s := NewSampler(19)
	d, err := NewImageDiscriminator(Conditional, conf, WithSampler(s))
	require.NoError(t, err)

	for _, x := range []*tensor.Dense{
		nil,
		s.Normal(1, d.InChannels, FrameSize, FrameSize),
		s.Normal(1, 1, conf.OutChannels, FrameSize, FrameSize),
		s.Normal(1, 1, d.InChannels, 32, 32),
		tensor.New(tensor.WithShape(1, d.InChannels, FrameSize, FrameSize), tensor.Of(tensor.Float64)),
	} {
		_, err := d.Score(x)
		require.Error(t, err)
		assert.Equal(t, ErrShapeMismatch, errors.Cause(err))
	}
}

func TestDiscriminatorParams(t *testing.T) {
	d, err := NewVideoDiscriminator(Plain, smallConfig(Plain))
	if err == nil {
		t.Fatal("expected the small config to be too short for a video discriminator")
	}

	conf := smallConfig(Plain)
	conf.VideoLen = 16
	d, err = NewVideoDiscriminator(Plain, conf)
	require.NoError(t, err)
	names := paramNames(d.Params())
	assert.Contains(t, names, "video_dis/dc1/W")
	assert.Contains(t, names, "video_dis/bn2/gamma")
	assert.Contains(t, names, "video_dis/bn4/avg_mean")
	assert.NotContains(t, names, "video_dis/bn1/gamma")
	assert.NotContains(t, names, "video_dis/bn5/gamma")

	// the head consumes the frames left after four 4-frame stages
	head := d.encoder.blocks[encodeStages-1].conv
	assert.Equal(t, []int{4, 4, 4}, []int(head.Kernel()))

	id, err := NewImageDiscriminator(Info, smallConfig(Info))
	require.NoError(t, err)
	assert.Equal(t, "info_idis", id.encoder.scope)
}
