package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/SergeiKhy/blog-analytics/internal/service"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const sessionContextKey = "session"

// SessionGate пропускает к API админки только запросы с действующей сессией
type SessionGate struct {
	validator service.SessionValidator
	cookie    string
	logger    *zap.Logger
}

func NewSessionGate(validator service.SessionValidator, cookie string, logger *zap.Logger) *SessionGate {
	if cookie == "" {
		cookie = "session"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionGate{
		validator: validator,
		cookie:    cookie,
		logger:    logger,
	}
}

// Require прерывает запрос с 403, если сессия не подтверждена
func (g *SessionGate) Require() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !g.Check(c) {
			return
		}
		c.Next()
	}
}

// Check проверяет сессию и при отказе сам пишет ответ 403.
// Недействительная cookie удаляется, чтобы браузер не присылал её снова.
func (g *SessionGate) Check(c *gin.Context) bool {
	token, fromCookie := g.token(c)

	session, err := g.validator.Validate(token)
	if err != nil {
		if errors.Is(err, service.ErrSessionInvalid) {
			g.logger.Warn("Недействительная сессия",
				zap.String("path", c.Request.URL.Path),
				zap.String("ip", c.ClientIP()),
				zap.Error(err),
			)
			if fromCookie {
				c.SetCookie(g.cookie, "", -1, "/", "", false, true)
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "unauthorized",
			"message": "Unauthorized",
		})
		return false
	}

	c.Set(sessionContextKey, session)
	return true
}

// token берёт токен из cookie, затем из Authorization: Bearer
func (g *SessionGate) token(c *gin.Context) (string, bool) {
	if cookie, err := c.Cookie(g.cookie); err == nil && cookie != "" {
		return cookie, true
	}

	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer ")), false
	}

	return "", false
}

// SessionFromContext возвращает сессию, сохранённую SessionGate
func SessionFromContext(c *gin.Context) (*service.Session, bool) {
	value, exists := c.Get(sessionContextKey)
	if !exists {
		return nil, false
	}
	session, ok := value.(*service.Session)
	return session, ok
}
