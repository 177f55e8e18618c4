package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the gallery API.
type Metrics struct {
	ImagesCreated     prometheus.Counter
	PagesServed       prometheus.Counter
	RequestErrors     *prometheus.CounterVec
	ListImagesLatency prometheus.Histogram
}

// New registers all gallery metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ImagesCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "gallery_images_created_total",
			Help: "Total number of image records created",
		}),
		PagesServed: factory.NewCounter(prometheus.CounterOpts{
			Name: "gallery_pages_served_total",
			Help: "Total number of feed pages served",
		}),
		RequestErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gallery_request_errors_total",
			Help: "Failed API requests by operation and status code",
		}, []string{"operation", "status"}),
		ListImagesLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gallery_list_images_duration_seconds",
			Help:    "Duration of feed page queries",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
	}
}

func (m *Metrics) IncrementImagesCreated() {
	m.ImagesCreated.Inc()
}

// ObserveListImages records a served page. Call with time.Now() taken before
// the query.
func (m *Metrics) ObserveListImages(start time.Time) {
	m.PagesServed.Inc()
	m.ListImagesLatency.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementRequestError(operation, status string) {
	m.RequestErrors.WithLabelValues(operation, status).Inc()
}
