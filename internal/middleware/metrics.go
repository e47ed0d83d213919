package middleware

import "net/http"

// HTTPMetricsRecorder はHTTPレスポンスのステータスコードを記録する。
// metricsパッケージのCollectorがこれを満たす。
type HTTPMetricsRecorder interface {
	RecordHTTPStatus(statusCode int)
}

// NewMetricsMiddleware はレスポンスのステータスコードをメトリクスに記録する
// ミドルウェアを返す。
func NewMetricsMiddleware(rec HTTPMetricsRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sr := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(sr, r)

			rec.RecordHTTPStatus(sr.statusCode)
		})
	}
}
