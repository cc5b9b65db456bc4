// Package metrics exposes the Prometheus instruments of betledger.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "betledger"

type Metrics struct {
	gatherer prometheus.Gatherer

	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	EntriesWritten *prometheus.CounterVec
	CSVRows        *prometheus.CounterVec
	CacheLookups   *prometheus.CounterVec
	EventsOut      *prometheus.CounterVec
	SyncedEntries  *prometheus.CounterVec
}

// New registers the instruments on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "http_requests_total",
			Help: "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		EntriesWritten: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "entries_written_total",
			Help: "Financial entry contributions merged, by source.",
		}, []string{"source"}),
		CSVRows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "csv_rows_total",
			Help: "CSV import rows by outcome.",
		}, []string{"outcome"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "cache_lookups_total",
			Help: "Dashboard cache lookups by result.",
		}, []string{"result"}),
		EventsOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "events_published_total",
			Help: "Change events published, by result.",
		}, []string{"result"}),
		SyncedEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "sheets_synced_total",
			Help: "Entries mirrored to Google Sheets, by result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.EntriesWritten, m.CSVRows, m.CacheLookups, m.EventsOut, m.SyncedEntries)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) EntryWritten(source string, n int) {
	if m == nil {
		return
	}
	m.EntriesWritten.WithLabelValues(source).Add(float64(n))
}

func (m *Metrics) CSVImported(imported, skipped int) {
	if m == nil {
		return
	}
	m.CSVRows.WithLabelValues("imported").Add(float64(imported))
	m.CSVRows.WithLabelValues("skipped").Add(float64(skipped))
}

func (m *Metrics) CacheResult(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.CacheLookups.WithLabelValues("hit").Inc()
	} else {
		m.CacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) EventPublished(err error) {
	if m == nil {
		return
	}
	m.EventsOut.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) EntrySynced(err error) {
	if m == nil {
		return
	}
	m.SyncedEntries.WithLabelValues(result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
