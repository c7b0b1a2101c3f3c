package metrics

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	OperationsTotal    *prometheus.CounterVec
	OperationsInFlight *prometheus.GaugeVec
	OperationsDuration *prometheus.HistogramVec
	AioTotal           *prometheus.CounterVec
	AioInFlight        *prometheus.GaugeVec
	AioWorker          *prometheus.GaugeVec
	AioWorkerInFlight  *prometheus.GaugeVec
	ApiTotal           *prometheus.CounterVec
	ApiInFlight        *prometheus.GaugeVec
	NotificationsTotal *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		OperationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "operations_total",
			Help: "total number of operation lifecycle events",
		}, []string{"kind", "status"}),
		OperationsInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "operations_in_flight",
			Help: "number of in flight operation attempts",
		}, []string{"kind"}),
		OperationsDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "operations_duration_seconds",
			Help:    "duration of operation attempts from pending to terminal",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind", "status"}),
		AioTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aio_total_submissions",
			Help: "total number of aio submissions",
		}, []string{"type", "status"}),
		AioInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aio_in_flight_submissions",
			Help: "number of in flight aio submissions",
		}, []string{"type"}),
		AioWorker: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aio_worker_count",
			Help: "number of aio workers",
		}, []string{"type"}),
		AioWorkerInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aio_worker_in_flight_submissions",
			Help: "number of in flight aio submissions per worker",
		}, []string{"type", "worker"}),
		ApiTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "api_total_requests",
			Help: "total number of api requests",
		}, []string{"method", "route", "status"}),
		ApiInFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "api_in_flight_requests",
			Help: "number of in flight api requests",
		}, []string{"method", "route"}),
		NotificationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "total number of published notifications",
		}, []string{"status"}),
	}

	metrics.Enable(reg)
	return metrics
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.OperationsTotal,
		m.OperationsInFlight,
		m.OperationsDuration,
		m.AioTotal,
		m.AioInFlight,
		m.AioWorker,
		m.AioWorkerInFlight,
		m.ApiTotal,
		m.ApiInFlight,
		m.NotificationsTotal,
	}
}

func (m *Metrics) Enable(reg prometheus.Registerer) {
	for _, c := range m.collectors() {
		reg.MustRegister(c)
	}
}

func (m *Metrics) Disable(reg prometheus.Registerer) {
	for _, c := range m.collectors() {
		reg.Unregister(c)
	}
}
