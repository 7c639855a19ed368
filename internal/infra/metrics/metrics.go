package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics все методы безопасны для nil: в тестах сервисы создаются без метрик.
type Metrics struct {
	httpDuration   *prometheus.HistogramVec
	executions     *prometheus.CounterVec
	deductions     prometheus.Counter
	movements      *prometheus.CounterVec
	historyFailed  prometheus.Counter
	suggestions    prometheus.Counter
	restockSkipped prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "odonto",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "odonto",
			Name:      "executions_recorded_total",
			Help:      "Procedure executions recorded.",
		}, []string{"deduct"}),
		deductions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "odonto",
			Name:      "stock_deductions_total",
			Help:      "Per-material stock deductions applied by procedure executions.",
		}),
		movements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "odonto",
			Name:      "stock_movements_total",
			Help:      "Manual stock movements by kind.",
		}, []string{"kind"}),
		historyFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "odonto",
			Name:      "stock_history_write_failures_total",
			Help:      "Best-effort stock history writes that failed.",
		}),
		suggestions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "odonto",
			Name:      "restock_suggestions_added_total",
			Help:      "Shopping list entries inserted by the restock advisor.",
		}),
		restockSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "odonto",
			Name:      "restock_runs_skipped_total",
			Help:      "Restock runs skipped because another run held the lock.",
		}),
	}
	reg.MustRegister(m.httpDuration, m.executions, m.deductions, m.movements, m.historyFailed, m.suggestions, m.restockSkipped)
	return m
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

func (m *Metrics) ExecutionRecorded(deduct bool, deductions int) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(strconv.FormatBool(deduct)).Inc()
	m.deductions.Add(float64(deductions))
}

func (m *Metrics) StockMovement(kind string) {
	if m == nil {
		return
	}
	m.movements.WithLabelValues(kind).Inc()
}

func (m *Metrics) HistoryWriteFailed() {
	if m == nil {
		return
	}
	m.historyFailed.Inc()
}

func (m *Metrics) SuggestionsAdded(n int) {
	if m == nil {
		return
	}
	m.suggestions.Add(float64(n))
}

func (m *Metrics) RestockSkipped() {
	if m == nil {
		return
	}
	m.restockSkipped.Inc()
}
