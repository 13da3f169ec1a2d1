package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/SergeiKhy/blog-analytics/internal/metrics"
	"github.com/SergeiKhy/blog-analytics/internal/middleware"
	"github.com/SergeiKhy/blog-analytics/internal/models"
	"github.com/SergeiKhy/blog-analytics/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorderStub собирает события вместо записи в хранилище
type recorderStub struct {
	mu     sync.Mutex
	events []models.VisitEvent
}

func (r *recorderStub) Start() {}
func (r *recorderStub) Stop()  {}

func (r *recorderStub) Record(event models.VisitEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorderStub) Events() []models.VisitEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.VisitEvent(nil), r.events...)
}

func setupVisitRouter(now func() time.Time) (*gin.Engine, *recorderStub, *metrics.Metrics) {
	gin.SetMode(gin.TestMode)

	recorder := &recorderStub{}
	m := metrics.NewNop()
	window := service.NewMemoryDedupWindow(10*time.Second, service.WithClock(now))
	visits := middleware.NewVisitLogger(window, recorder, m).WithClock(now)

	router := gin.New()
	router.Use(visits.Middleware())
	router.NoRoute(func(c *gin.Context) {
		c.String(http.StatusOK, "page")
	})

	return router, recorder, m
}

// TestRateLimiter_Middleware проверяет работу rate limiter middleware
func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// 5 запросов в секунду, burst 5
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 5,
		BurstSize:         5,
	})
	defer rl.Stop()

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Первые 5 запросов должны пройти (в пределах burst лимита)
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	// Следующий запрос должен быть ограничен
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))

	// Другой клиент - своя корзина
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/test", nil)
	req.RemoteAddr = "198.51.100.9:4000"
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestVisitLogger_SameMillisecond проверяет, что два запроса в одну миллисекунду дают одну запись
func TestVisitLogger_SameMillisecond(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	router, recorder, m := setupVisitRouter(func() time.Time { return at })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/about", nil)
		router.ServeHTTP(w, req)
		// дубликат всё равно обслуживается
		assert.Equal(t, http.StatusOK, w.Code)
	}

	require.Len(t, recorder.Events(), 1)
	assert.Equal(t, "/about", recorder.Events()[0].Path)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Duplicates))
}

// TestVisitLogger_DifferentMilliseconds проверяет, что разнесённые запросы учитываются оба
func TestVisitLogger_DifferentMilliseconds(t *testing.T) {
	var (
		mu  sync.Mutex
		now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Millisecond)
		return now
	}
	router, recorder, _ := setupVisitRouter(clock)

	for i := 0; i < 3; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/about", nil))
	}

	assert.Len(t, recorder.Events(), 3)
}

// TestVisitLogger_SkipsUntracked проверяет, что статика, API и админка не пишутся
func TestVisitLogger_SkipsUntracked(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	router, recorder, m := setupVisitRouter(func() time.Time { return at })

	for _, path := range []string{"/app.js", "/style.CSS", "/api/stats", "/konsole/posts", "/favicon.ico"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	assert.Empty(t, recorder.Events())
	assert.Zero(t, testutil.ToFloat64(m.Duplicates))
}

// TestVisitLogger_ClientData проверяет извлечение IP, User-Agent и Referer
func TestVisitLogger_ClientData(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	router, recorder, _ := setupVisitRouter(func() time.Time { return at })

	req := httptest.NewRequest(http.MethodGet, "/blog/post", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	req.Header.Set("User-Agent", "curl/8.0")
	req.Header.Set("Referer", "https://example.com/")
	router.ServeHTTP(httptest.NewRecorder(), req)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.2:5555"
	router.ServeHTTP(httptest.NewRecorder(), req)

	events := recorder.Events()
	require.Len(t, events, 2)

	assert.Equal(t, "203.0.113.5", events[0].IPAddress)
	assert.Equal(t, "curl/8.0", events[0].UserAgent)
	require.NotNil(t, events[0].Referrer)
	assert.Equal(t, "https://example.com/", *events[0].Referrer)

	assert.Equal(t, "198.51.100.2", events[1].IPAddress)
	assert.Nil(t, events[1].Referrer)
}

func setupSessionRouter(t *testing.T) (*gin.Engine, service.SessionValidator) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	validator := service.NewSessionValidator("test-secret")
	gate := middleware.NewSessionGate(validator, "session", nil)

	router := gin.New()
	router.GET("/admin", gate.Require(), func(c *gin.Context) {
		session, ok := middleware.SessionFromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"login": session.Login})
	})

	return router, validator
}

// TestSessionGate проверяет доступ по cookie и Bearer токену
func TestSessionGate(t *testing.T) {
	router, validator := setupSessionRouter(t)

	token, err := validator.Issue("admin", time.Hour)
	require.NoError(t, err)

	t.Run("без сессии", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Set-Cookie"))
	})

	t.Run("cookie", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: token})
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"login":"admin"}`, w.Body.String())
	})

	t.Run("bearer", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("испорченная cookie удаляется", func(t *testing.T) {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/admin", nil)
		req.AddCookie(&http.Cookie{Name: "session", Value: `{"login":"admin"}`})
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusForbidden, w.Code)
		cookie := w.Header().Get("Set-Cookie")
		assert.Contains(t, cookie, "session=;")
		assert.Contains(t, cookie, "Max-Age=0")
	})
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.GET("/test", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(middleware.RequestIDHeader))
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	generated := w.Header().Get(middleware.RequestIDHeader)
	_, err := uuid.Parse(generated)
	assert.NoError(t, err)
	assert.Equal(t, generated, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-42")
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(middleware.RequestIDHeader))
}
