package main

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorgonia/mocogan"
	"github.com/gorgonia/mocogan/encoding/gif"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type server struct {
	g *mocogan.Generator

	registry *prometheus.Registry
	clips    *prometheus.CounterVec
	latency  prometheus.Histogram
}

func newServer(g *mocogan.Generator) *server {
	s := &server{
		g:        g,
		registry: prometheus.NewRegistry(),
		clips: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mocogan",
			Name:      "clips",
			Help:      "Clips served, by outcome.",
		}, []string{"flavor", "outcome"}),
		latency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "mocogan",
			Name:      "generate_seconds",
			Help:      "Time to generate and encode one clip.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
	}
	s.registry.MustRegister(s.clips, s.latency)
	return s
}

func (s *server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/clip", s.clip)
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	return mux
}

func (s *server) listen(addr string) error {
	log.Info().Str("addr", addr).Msg("serving clips on /clip, metrics on /metrics")
	return http.ListenAndServe(addr, s.handler())
}

// clip serves one generated clip as a GIF. An optional label query parameter
// picks the label of label aware flavors.
func (s *server) clip(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	flavor := s.g.Flavor.String()

	var labels []int
	if q := r.URL.Query().Get("label"); q != "" {
		l, err := strconv.Atoi(q)
		if err != nil || l < 0 || l >= s.g.DimZl {
			s.clips.WithLabelValues(flavor, "bad_request").Inc()
			http.Error(w, fmt.Sprintf("label must be an integer in [0, %d)", s.g.DimZl), http.StatusBadRequest)
			return
		}
		labels = []int{l}
	}

	w.Header().Set("Content-Type", "image/gif")
	if err := sample(s.g, gif.NewGifEncoder(w, s.g.OutChannels), 1, labels); err != nil {
		log.Error().Err(err).Str("label", r.URL.Query().Get("label")).Msg("generating clip")
		s.clips.WithLabelValues(flavor, "error").Inc()
		w.Header().Del("Content-Type")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.clips.WithLabelValues(flavor, "ok").Inc()
	s.latency.Observe(time.Since(start).Seconds())
	log.Debug().Dur("took", time.Since(start)).Msg("served clip")
}
