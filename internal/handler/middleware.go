package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/todo-app/pkg/respond"
)

const (
	maxBodyBytes   = 10 << 20 // 10 MB
	maxLoggedBytes = 4 << 10
)

// LimitBody ограничивает размер тела запроса.
func LimitBody(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger пишет в zap метод, путь, статус, длительность и тело запроса (если есть).
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			fields := []zap.Field{
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Time("timestamp", start.UTC()),
			}

			if r.Body != nil && r.ContentLength != 0 {
				body, err := io.ReadAll(r.Body)
				r.Body.Close()
				// Возвращаем прочитанное обратно, чтобы хэндлер мог его декодировать
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), errReader{err}))
				if len(body) > 0 {
					if len(body) > maxLoggedBytes {
						body = body[:maxLoggedBytes]
					}
					fields = append(fields, zap.ByteString("body", body))
				}
			}

			next.ServeHTTP(ww, r)

			fields = append(fields,
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("took", time.Since(start)),
			)
			logger.Info("request", fields...)
		})
	}
}

// errReader отдает ошибку чтения (например, превышение лимита) после тела.
type errReader struct{ err error }

func (e errReader) Read(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	return 0, io.EOF
}

// Recoverer перехватывает панику и отвечает конвертом 500 вместо обрыва соединения.
func Recoverer(logger *zap.Logger, production bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.Error("panic recovered",
					zap.String("request_id", middleware.GetReqID(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)

				msg := msgInternal
				if !production {
					msg = fmt.Sprint(rec)
				}
				respond.Error(w, r, http.StatusInternalServerError, msg)
			}()

			next.ServeHTTP(w, r)
		})
	}
}
