package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrSessionMissing = errors.New("session missing")
	ErrSessionInvalid = errors.New("session invalid")
)

// Session подтверждённая сессия администратора
type Session struct {
	Login     string
	ExpiresAt time.Time
}

type sessionClaims struct {
	Login string `json:"login"`
	jwt.RegisteredClaims
}

type SessionValidator interface {
	Validate(token string) (*Session, error)
	Issue(login string, ttl time.Duration) (string, error)
}

type sessionValidator struct {
	secret []byte
	now    Clock
}

// NewSessionValidator создаёт валидатор подписанных HS256 токенов сессии
func NewSessionValidator(secret string, opts ...Option) SessionValidator {
	o := applyOptions(opts)
	return &sessionValidator{
		secret: []byte(secret),
		now:    o.now,
	}
}

// Issue выпускает токен сессии для login
func (v *sessionValidator) Issue(login string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := &sessionClaims{
		Login: login,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   login,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return token, nil
}

// Validate возвращает ErrSessionMissing для пустого токена и ErrSessionInvalid
// для любого токена, который не удалось проверить
func (v *sessionValidator) Validate(token string) (*Session, error) {
	if token == "" {
		return nil, ErrSessionMissing
	}

	parsed, err := jwt.ParseWithClaims(token, &sessionClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return v.secret, nil
	},
		jwt.WithTimeFunc(v.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionInvalid, err)
	}

	claims, ok := parsed.Claims.(*sessionClaims)
	if !ok || !parsed.Valid || claims.Login == "" {
		return nil, ErrSessionInvalid
	}

	return &Session{
		Login:     claims.Login,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
