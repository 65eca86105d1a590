// Package metrics - Prometheus метрики сервиса запросов на котировку.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SolicitationsCreated - количество созданных запросов на котировку.
	SolicitationsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rfq_solicitations_created_total",
		Help: "Количество созданных запросов на котировку",
	})

	// BidsSubmitted - попытки подачи предложений по результату.
	BidsSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rfq_bids_submitted_total",
		Help: "Количество попыток подачи предложений",
	}, []string{"result"})

	// Awards - выбор победителя по результату и использованию обхода проверки.
	Awards = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rfq_awards_total",
		Help: "Количество попыток выбора победителя",
	}, []string{"result", "override"})

	// ComparisonDuration - длительность построения сравнительного отчёта.
	ComparisonDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "rfq_comparison_duration_seconds",
		Help:    "Длительность сравнения предложений в секундах",
		Buckets: prometheus.DefBuckets,
	})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rfq_http_requests_total",
		Help: "Общее количество HTTP-запросов",
	}, []string{"method", "pattern", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rfq_http_request_duration_seconds",
		Help:    "Длительность HTTP-запросов в секундах",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "pattern"})
)

// Middleware считает HTTP-запросы по шаблону маршрута, а не по пути.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		// Pattern заполняется ServeMux после сопоставления маршрута.
		httpRequestsTotal.WithLabelValues(r.Method, r.Pattern, strconv.Itoa(wrapped.statusCode)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, r.Pattern).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}
