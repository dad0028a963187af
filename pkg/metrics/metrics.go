package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ethtoolpro"

// Metrics ethtool 执行与快照相关的 Prometheus 指标
// 所有方法对 nil 接收者安全，未启用指标时可直接传 nil
type Metrics struct {
	CommandsTotal   *prometheus.CounterVec
	CommandDuration *prometheus.HistogramVec
	ParseFailures   *prometheus.CounterVec
	SnapshotsTotal  *prometheus.CounterVec
	PoolConnections prometheus.Gauge
}

// New 创建指标并注册到给定的 registry（建议使用 prometheus.NewRegistry()）
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CommandsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Total number of ethtool commands executed, by option and result.",
		}, []string{"option", "result"}),
		CommandDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "command_duration_seconds",
			Help:      "Duration of ethtool command round trips.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"option"}),
		ParseFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "parse_failures_total",
			Help:      "Outputs that produced no parsable fields, by record family.",
		}, []string{"family"}),
		SnapshotsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshots_total",
			Help:      "Interface snapshots taken, by status.",
		}, []string{"status"}),
		PoolConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ssh_pool_connections",
			Help:      "Open SSH connections held by the pool.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.CommandsTotal, m.CommandDuration, m.ParseFailures, m.SnapshotsTotal, m.PoolConnections)
	}
	return m
}

// NewRegistry 创建带 Go 运行时与进程指标的 registry
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 暴露 /metrics
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// RecordCommand 记录一次命令执行
func (m *Metrics) RecordCommand(option string, d time.Duration, err error) {
	if m == nil {
		return
	}
	if option == "" {
		option = "default"
	}
	result := "success"
	if err != nil {
		result = "error"
	}
	m.CommandsTotal.WithLabelValues(option, result).Inc()
	m.CommandDuration.WithLabelValues(option).Observe(d.Seconds())
}

// RecordParseFailure 记录一次空输出解析
func (m *Metrics) RecordParseFailure(family string) {
	if m == nil {
		return
	}
	m.ParseFailures.WithLabelValues(family).Inc()
}

// RecordSnapshot 记录一次快照
func (m *Metrics) RecordSnapshot(ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failed"
	}
	m.SnapshotsTotal.WithLabelValues(status).Inc()
}

// SetPoolConnections 更新连接池连接数
func (m *Metrics) SetPoolConnections(n int) {
	if m == nil {
		return
	}
	m.PoolConnections.Set(float64(n))
}
