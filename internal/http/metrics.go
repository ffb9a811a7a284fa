package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	requestLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:      "request_latency_seconds",
			Subsystem: "tides",
			Help:      "HTTP request latencies in seconds.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.2, 0.4, 0.8, 1.0, 2.0, 4.0, 8.0},
		},
		[]string{"verb", "path", "code"},
	)
	predictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name:      "predictions_total",
			Subsystem: "tides",
			Help:      "Successful tide predictions by constituent source.",
		},
		[]string{"source"},
	)
)

func init() {
	prometheus.MustRegister(
		requestLatency,
		predictionsTotal,
	)
}

// ObserveRequestLatency records one request duration.
func ObserveRequestLatency(verb, path, code string, latency float64) {
	requestLatency.With(prometheus.Labels{
		"code": code,
		"verb": verb,
		"path": path,
	}).Observe(latency)
}

// ObservePrediction counts a served prediction.
func ObservePrediction(source string) {
	predictionsTotal.WithLabelValues(source).Inc()
}

// LatencyMiddleware observes request latency by route template. Panics are
// reported as 500 and re-thrown.
func LatencyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		t := time.Now()
		verb := c.Request.Method
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		defer func() {
			if err := recover(); err != nil {
				ObserveRequestLatency(verb, path, "500", time.Since(t).Seconds())
				panic(err)
			}
			ObserveRequestLatency(verb, path, strconv.Itoa(c.Writer.Status()), time.Since(t).Seconds())
		}()

		c.Next()
	}
}
