package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "exprgraph"

// PrometheusHooks implements GraphHooks and ModelHooks with Prometheus
// collectors. State IDs are not used as labels.
type PrometheusHooks struct {
	initTotal        *prometheus.CounterVec
	propagateTotal   *prometheus.CounterVec
	propagateSeconds prometheus.Histogram
	propagateVisited prometheus.Histogram
	commitTotal      prometheus.Counter
	revertTotal      prometheus.Counter
	touchedNodes     *prometheus.HistogramVec
	loadTotal        *prometheus.CounterVec
	moveTotal        *prometheus.CounterVec
	moveSeconds      *prometheus.HistogramVec
}

// NewPrometheusHooks creates the collectors and registers them with reg.
// Use a fresh prometheus.NewRegistry() in tests to avoid duplicate
// registration panics.
func NewPrometheusHooks(reg prometheus.Registerer) *PrometheusHooks {
	f := promauto.With(reg)
	return &PrometheusHooks{
		initTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "state_initializations_total",
			Help:      "State initializations by result",
		}, []string{"result"}),
		propagateTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "propagations_total",
			Help:      "Propagation passes by result",
		}, []string{"result"}),
		propagateSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "propagation_duration_seconds",
			Help:      "Propagation pass duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10), // 1µs to ~0.26s
		}),
		propagateVisited: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "propagation_visited_nodes",
			Help:      "Nodes recomputed per propagation pass",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100, 500},
		}),
		commitTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "commits_total",
			Help:      "Commits applied to states",
		}),
		revertTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "reverts_total",
			Help:      "Reverts applied to states",
		}),
		touchedNodes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "touched_nodes",
			Help:      "Nodes with pending updates per commit or revert",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}, []string{"operation"}),
		loadTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "model_loads_total",
			Help:      "Model file loads by result",
		}, []string{"result"}),
		moveTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "moves_total",
			Help:      "Scripted moves by action and result",
		}, []string{"action", "result"}),
		moveSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "move_duration_seconds",
			Help:      "Scripted move duration in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10),
		}, []string{"action"}),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func (p *PrometheusHooks) OnInitialize(_ string, _ int, _ time.Duration, err error) {
	p.initTotal.WithLabelValues(result(err)).Inc()
}

func (p *PrometheusHooks) OnPropagate(_ string, visited int, d time.Duration, err error) {
	p.propagateTotal.WithLabelValues(result(err)).Inc()
	p.propagateSeconds.Observe(d.Seconds())
	p.propagateVisited.Observe(float64(visited))
}

func (p *PrometheusHooks) OnCommit(_ string, touched int) {
	p.commitTotal.Inc()
	p.touchedNodes.WithLabelValues("commit").Observe(float64(touched))
}

func (p *PrometheusHooks) OnRevert(_ string, touched int) {
	p.revertTotal.Inc()
	p.touchedNodes.WithLabelValues("revert").Observe(float64(touched))
}

func (p *PrometheusHooks) OnLoad(_ context.Context, _ string, _ int, _ time.Duration, err error) {
	p.loadTotal.WithLabelValues(result(err)).Inc()
}

func (p *PrometheusHooks) OnMove(_ context.Context, _ string, action string, d time.Duration, err error) {
	p.moveTotal.WithLabelValues(action, result(err)).Inc()
	p.moveSeconds.WithLabelValues(action).Observe(d.Seconds())
}

var (
	_ GraphHooks = (*PrometheusHooks)(nil)
	_ ModelHooks = (*PrometheusHooks)(nil)
)
