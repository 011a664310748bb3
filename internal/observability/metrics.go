package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "crisisconnect"

// Metrics リクエスト登録・クラスタリング・HTTP のメトリクス
type Metrics struct {
	RequestsCreated *prometheus.CounterVec // labels: priority={high,medium,low}
	StoreErrors     *prometheus.CounterVec // labels: operation={create,list,health}

	// クラスタリング
	ClusterRuns      prometheus.Counter
	ClusterDuration  prometheus.Histogram
	ClustersLastSeen prometheus.Gauge

	HTTPRequests        *prometheus.CounterVec   // labels: method, route, status
	HTTPRequestDuration *prometheus.HistogramVec // labels: method, route
}

// NewMetrics メトリクスを作成し、デフォルトレジストリに登録する
func NewMetrics() *Metrics {
	m := newMetrics()
	if err := m.Register(prometheus.DefaultRegisterer); err != nil {
		panic(err)
	}
	return m
}

// NewMetricsForTesting 登録済みパニックを避けるため、どのレジストリにも登録しないメトリクスを返す
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

// Register 指定したレジストリにメトリクスを登録する
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.RequestsCreated,
		m.StoreErrors,
		m.ClusterRuns,
		m.ClusterDuration,
		m.ClustersLastSeen,
		m.HTTPRequests,
		m.HTTPRequestDuration,
	}
}

func newMetrics() *Metrics {
	return &Metrics{
		RequestsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_created_total",
			Help:      "Total crisis requests stored, by assigned priority.",
		}, []string{"priority"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Request store failures by operation.",
		}, []string{"operation"}),
		ClusterRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cluster_runs_total",
			Help:      "Total clustering runs.",
		}),
		ClusterDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "cluster_duration_seconds",
			Help:      "Duration of a clustering run over all stored requests.",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		ClustersLastSeen: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "clusters_last_count",
			Help:      "Number of clusters produced by the most recent run.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}
