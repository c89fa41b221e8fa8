package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iyunix/go-relay/internal/auth"
	"github.com/iyunix/go-relay/internal/ratelimit"
)

type recordingLogger struct {
	mu   sync.Mutex
	msgs []string
}

func (l *recordingLogger) add(msg string) {
	l.mu.Lock()
	l.msgs = append(l.msgs, msg)
	l.mu.Unlock()
}

func (l *recordingLogger) Info(msg string, _ ...interface{})  { l.add(msg) }
func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.add(msg) }
func (l *recordingLogger) Debug(msg string, _ ...interface{}) { l.add(msg) }
func (l *recordingLogger) Warn(msg string, _ ...interface{})  { l.add(msg) }

type codeObserver struct{ codes []string }

func (o *codeObserver) RequestServed(method, code string) { o.codes = append(o.codes, method+" "+code) }

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusTeapot)
})

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, incoming, seen)

	req.Header.Set(RequestIDHeader, "<script>")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "<script>", seen)
}

func TestLoggingMiddleware_RecordsStatusAndFlushes(t *testing.T) {
	logger := &recordingLogger{}
	obs := &codeObserver{}
	flushed := false
	h := LoggingMiddleware(logger, obs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f, ok := w.(http.Flusher)
		require.True(t, ok)
		w.WriteHeader(http.StatusCreated)
		f.Flush()
		flushed = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/threads", nil))
	assert.True(t, flushed)
	assert.True(t, rec.Flushed)
	assert.Equal(t, []string{"POST 201"}, obs.codes)
	assert.Equal(t, []string{"request"}, logger.msgs)
}

func TestRecoverPanic(t *testing.T) {
	logger := &recordingLogger{}
	h := RecoverPanic(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Something went wrong on our end.","code":"INTERNAL_ERROR"}`, rec.Body.String())
	assert.Equal(t, []string{"panic recovered"}, logger.msgs)
}

func TestRecoverPanic_AfterStreamStarted(t *testing.T) {
	h := RecoverPanic(&recordingLogger{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("data: partial\n\n"))
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "data: partial\n\n", rec.Body.String())
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.NewClientLimiter(&ratelimit.Config{RequestsPerSecond: 0.001, Burst: 1, IdleTTL: time.Minute})
	defer limiter.Close()
	h := RateLimitMiddleware(limiter, "chat", &recordingLogger{})(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/chat", nil)
	req.RemoteAddr = "192.0.2.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":"RATE_LIMIT"`)
}

func TestJWTMiddleware(t *testing.T) {
	secret := []byte("s3cret")
	var subject string
	h := NewJWTMiddleware(secret, &recordingLogger{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		subject, _ = r.Context().Value(SubjectKey).(string)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/threads", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/threads", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token, err := auth.GenerateJWT("web-client", secret, time.Hour)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "web-client", subject)
}

func TestJWTMiddleware_DisabledWithoutSecret(t *testing.T) {
	h := NewJWTMiddleware(nil, &recordingLogger{})(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestCORS(t *testing.T) {
	h := CORS("https://app.example.com")(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/chat", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
