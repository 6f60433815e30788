package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scene2story_runs_total",
		Help: "Total number of processing runs, by final status",
	}, []string{"status"})

	ScenesDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scene2story_scenes_detected_total",
		Help: "Total number of scenes detected across all runs",
	})

	FramesExtractedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "scene2story_frames_extracted_total",
		Help: "Total number of representative frames written",
	})

	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "scene2story_stage_duration_seconds",
		Help:    "Duration of pipeline stages",
		Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
	}, []string{"stage"})
)

func Handler() http.Handler {
	return promhttp.Handler()
}
