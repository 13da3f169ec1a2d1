package service

import (
	"time"

	"go.uber.org/zap"
)

// Clock источник текущего времени, подменяется в тестах
type Clock func() time.Time

type options struct {
	now    Clock
	logger *zap.Logger
}

// Option настройка сервисов пакета
type Option func(*options)

// WithClock задаёт источник времени
func WithClock(now Clock) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithLogger задаёт логгер
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func applyOptions(opts []Option) options {
	o := options{
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	return o
}
