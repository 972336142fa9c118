package main

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// scrapeMetrics 记录 metrics 端口自身的请求情况
type scrapeMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// newScrapeMetrics 注册抓取指标；同名指标已注册时复用已有实例
func newScrapeMetrics(namespace string, reg prometheus.Registerer) *scrapeMetrics {
	labels := []string{"code", "method"}
	return &scrapeMetrics{
		requests: registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metrics_http_requests_total",
			Help:      "Total number of requests served by the metrics endpoint",
		}, labels)),
		duration: registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "metrics_http_request_duration_seconds",
			Help:      "Metrics endpoint request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, labels)),
	}
}

func registerOrReuse[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	return c
}

// instrumentHandler 包装 metrics 端口：panic 恢复、抓取计数与耗时、debug 请求日志
func instrumentHandler(next http.Handler, m *scrapeMetrics, logger *zap.Logger) http.Handler {
	safe := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered", zap.Any("error", err), zap.String("path", r.URL.Path))
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
	counted := promhttp.InstrumentHandlerDuration(m.duration,
		promhttp.InstrumentHandlerCounter(m.requests, safe))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		counted.ServeHTTP(rec, r)
		// 抓取频繁，记为 debug
		logger.Debug("metrics request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
