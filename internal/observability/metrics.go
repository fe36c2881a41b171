package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	DirectionEncode = "encode"
	DirectionDecode = "decode"
)

var (
	registerOnce sync.Once

	frameMessages = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fixwire",
			Subsystem: "frame",
			Name:      "messages_total",
			Help:      "Framed messages encoded or decoded.",
		},
		[]string{"direction"},
	)
	frameBytes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fixwire",
			Subsystem: "frame",
			Name:      "bytes_total",
			Help:      "Wire bytes of framed messages.",
		},
		[]string{"direction"},
	)
	frameErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fixwire",
			Subsystem: "frame",
			Name:      "errors_total",
			Help:      "Framing failures by reason.",
		},
		[]string{"direction", "reason"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(frameMessages, frameBytes, frameErrors)
	})
}

func RecordFrame(direction string, size int) {
	RegisterMetrics()
	frameMessages.WithLabelValues(direction).Inc()
	frameBytes.WithLabelValues(direction).Add(float64(size))
}

func RecordFrameError(direction, reason string) {
	RegisterMetrics()
	frameErrors.WithLabelValues(direction, reason).Inc()
}
