package middleware

import (
	"time"

	"github.com/SergeiKhy/blog-analytics/internal/metrics"
	"github.com/SergeiKhy/blog-analytics/internal/models"
	"github.com/SergeiKhy/blog-analytics/internal/service"
	"github.com/gin-gonic/gin"
)

// VisitLogger учитывает посещения страниц до передачи запроса дальше.
// Запись асинхронная: ответ не ждёт хранилища и не зависит от его ошибок.
type VisitLogger struct {
	window   service.DedupWindow
	recorder service.VisitRecorder
	metrics  *metrics.Metrics
	now      func() time.Time
}

func NewVisitLogger(window service.DedupWindow, recorder service.VisitRecorder, m *metrics.Metrics) *VisitLogger {
	if m == nil {
		m = metrics.NewNop()
	}
	return &VisitLogger{
		window:   window,
		recorder: recorder,
		metrics:  m,
		now:      time.Now,
	}
}

// WithClock подменяет время приёма запроса
func (v *VisitLogger) WithClock(now func() time.Time) *VisitLogger {
	v.now = now
	return v
}

func (v *VisitLogger) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path

		// статика, API и админка не попадают в окно дедупликации
		if service.IsTrackable(path) {
			admitted := v.window.Admit(c.Request.Context(), service.DedupKey(path, v.now()))
			if !admitted {
				v.metrics.Duplicates.Inc()
			}

			if service.Classify(path, !admitted).ShouldLog {
				v.recorder.Record(models.VisitEvent{
					IPAddress: service.ResolveClientIP(c.GetHeader("X-Forwarded-For"), c.Request.RemoteAddr),
					UserAgent: c.Request.UserAgent(),
					Path:      path,
					Referrer:  service.ResolveReferrer(c.Request.Referer()),
				})
			}
		}

		c.Next()
	}
}
