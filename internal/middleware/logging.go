package middleware

import (
	"log"
	"net/http"
	"time"

	"github.com/senyabanana/proposal-service/internal/metrics"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging пишет метод, путь, код ответа и длительность каждого запроса.
func Logging(logger *log.Logger, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, elapsed)
		if m != nil {
			m.ObserveRequest(r.Method, rec.status, elapsed)
		}
	})
}
