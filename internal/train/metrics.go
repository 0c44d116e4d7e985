package train

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records training progress. A nil *Metrics records nothing.
type Metrics struct {
	examples     prometheus.Counter
	epochs       prometheus.Counter
	loss         prometheus.Gauge
	gradientNorm prometheus.Gauge
	bpIterations prometheus.Histogram
}

// NewMetrics registers the training metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		examples: f.NewCounter(prometheus.CounterOpts{
			Name: "erma_examples_total",
			Help: "Examples whose loss and gradient were evaluated",
		}),
		epochs: f.NewCounter(prometheus.CounterOpts{
			Name: "erma_epochs_total",
			Help: "Completed training epochs",
		}),
		loss: f.NewGauge(prometheus.GaugeOpts{
			Name: "erma_loss",
			Help: "Regularized training loss of the last epoch",
		}),
		gradientNorm: f.NewGauge(prometheus.GaugeOpts{
			Name: "erma_gradient_norm",
			Help: "Euclidean norm of the last epoch's gradient",
		}),
		bpIterations: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "erma_bp_iterations",
			Help:    "Belief propagation sweeps per example",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100},
		}),
	}
}

func (m *Metrics) observeExample(iterations int) {
	if m == nil {
		return
	}
	m.examples.Inc()
	m.bpIterations.Observe(float64(iterations))
}

func (m *Metrics) observeEpoch(loss, gradNorm float64) {
	if m == nil {
		return
	}
	m.epochs.Inc()
	m.loss.Set(loss)
	m.gradientNorm.Set(gradNorm)
}
