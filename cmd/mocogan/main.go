package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gorgonia/mocogan"
	"github.com/gorgonia/mocogan/encoding/gif"
	"github.com/gorgonia/mocogan/trace"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	flavorName = flag.String("flavor", "conditional", "network flavor: plain, categorical, conditional, info or info-subpixel")
	confFile   = flag.String("config", "", "YAML configuration file; defaults of the flavor are used for anything it leaves out")
	batch      = flag.Int("batch", 4, "clips per sample")
	seed       = flag.Int64("seed", 0, "sampler seed; 0 seeds from the clock")
	labels     = flag.String("labels", "", "comma separated labels, one per clip; drawn when empty")
	out        = flag.String("out", "clip.gif", "where to write the sampled clips")
	traceFile  = flag.String("trace", "", "write per block activation statistics to this CSV file")
	dotFile    = flag.String("dot", "", "write the traced blocks as a graphviz file")
	testMode   = flag.Bool("testing", false, "use running batch norm statistics instead of batch statistics")
	serve      = flag.String("serve", "", "serve clips and metrics on this address instead of writing a file")
	debug      = flag.Bool("debug", false, "debug logging")
)

func main() {
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if err := run(); err != nil {
		log.Fatal().Err(err).Msg("mocogan")
	}
}

func run() error {
	f, err := mocogan.ParseFlavor(*flavorName)
	if err != nil {
		return err
	}
	conf, err := loadConfig(*confFile, f)
	if err != nil {
		return err
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rec := trace.New()
	opts := []mocogan.Option{mocogan.WithSampler(mocogan.NewSampler(*seed))}
	if *traceFile != "" || *dotFile != "" {
		opts = append(opts, mocogan.WithTracer(rec))
	}

	start := time.Now()
	g, err := mocogan.NewGenerator(f, conf, opts...)
	if err != nil {
		return err
	}
	if *testMode {
		g.SetTesting()
	}
	log.Info().
		Str("flavor", f.String()).
		Int("params", len(g.Params())).
		Int64("seed", *seed).
		Dur("took", time.Since(start)).
		Msg("generator ready")

	if *serve != "" {
		return newServer(g).listen(*serve)
	}

	ls, err := parseLabels(*labels)
	if err != nil {
		return err
	}
	file, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer file.Close()
	if err = sample(g, gif.NewGifEncoder(file, conf.OutChannels), *batch, ls); err != nil {
		return err
	}
	log.Info().Str("file", *out).Int("clips", *batch).Int("frames", conf.VideoLen).Msg("wrote clips")

	if *traceFile != "" {
		if err = rec.Dump(*traceFile); err != nil {
			return err
		}
		log.Info().Str("file", *traceFile).Str("run", rec.ID.String()).Msg("wrote trace")
	}
	if *dotFile != "" {
		if err = os.WriteFile(*dotFile, []byte(rec.ToDot()), 0644); err != nil {
			return err
		}
	}
	return nil
}

// sample generates batch clips and renders them with enc.
func sample(g *mocogan.Generator, enc *gif.Encoder, batch int, labels []int) error {
	if labels != nil && len(labels) != batch {
		return errors.Errorf("%d labels for %d clips", len(labels), batch)
	}
	clip, used, err := g.Generate(g.MakeH0(batch), nil, labels)
	if err != nil {
		return err
	}
	var captions []string
	for _, l := range used {
		captions = append(captions, fmt.Sprintf("label %d", l))
	}
	if err = enc.Encode(clip, captions); err != nil {
		return err
	}
	return enc.Flush()
}

func parseLabels(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var retVal []int
	for _, f := range strings.Split(s, ",") {
		var l int
		if _, err := fmt.Sscanf(strings.TrimSpace(f), "%d", &l); err != nil {
			return nil, errors.Errorf("bad label %q: %v", f, err)
		}
		retVal = append(retVal, l)
	}
	return retVal, nil
}
