package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/SergeiKhy/blog-analytics/internal/repository"
	"go.uber.org/zap"
)

// DefaultDedupTTL время, в течение которого повторный ключ считается дубликатом
const DefaultDedupTTL = 10 * time.Second

// DedupWindow множество недавно принятых запросов с самоочисткой по TTL
type DedupWindow interface {
	// Admit атомарно добавляет ключ: true, если ключа не было, false для дубликата
	Admit(ctx context.Context, key string) bool
	Close()
}

// DedupKey ключ навигации: путь и время приёма с точностью до миллисекунды.
// Два разных перехода на один путь в одну миллисекунду склеятся в один.
func DedupKey(path string, at time.Time) string {
	return path + ":" + strconv.FormatInt(at.UnixMilli(), 10)
}

type dedupEntry struct {
	expiresAt time.Time
	timer     *time.Timer
}

func (e *dedupEntry) stop() {
	if e.timer != nil {
		e.timer.Stop()
	}
}

// memoryDedupWindow окно в памяти процесса. Каждый ключ сам планирует своё удаление,
// а просроченные ключи дополнительно игнорируются при обращении.
type memoryDedupWindow struct {
	ttl     time.Duration
	now     Clock
	mu      sync.Mutex
	entries map[string]*dedupEntry
	closed  bool
}

// NewMemoryDedupWindow создаёт окно дедупликации в памяти
func NewMemoryDedupWindow(ttl time.Duration, opts ...Option) DedupWindow {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	o := applyOptions(opts)
	return &memoryDedupWindow{
		ttl:     ttl,
		now:     o.now,
		entries: make(map[string]*dedupEntry),
	}
}

func (w *memoryDedupWindow) Admit(_ context.Context, key string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	if e, exists := w.entries[key]; exists {
		if now.Before(e.expiresAt) {
			return false
		}
		e.stop()
		delete(w.entries, key)
	}

	e := &dedupEntry{expiresAt: now.Add(w.ttl)}
	// после Close таймеры не заводятся, ключи истекают только лениво
	if !w.closed {
		e.timer = time.AfterFunc(w.ttl, func() { w.expire(key, e) })
	}
	w.entries[key] = e

	return true
}

// expire удаляет ключ, только если он не был принят заново
func (w *memoryDedupWindow) expire(key string, e *dedupEntry) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if current, exists := w.entries[key]; exists && current == e {
		delete(w.entries, key)
	}
}

// Len количество ключей в окне
func (w *memoryDedupWindow) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.entries)
}

// Close останавливает все отложенные таймеры и очищает окно
func (w *memoryDedupWindow) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for key, e := range w.entries {
		e.stop()
		delete(w.entries, key)
	}
	w.closed = true
}

// redisDedupWindow окно в Redis, общее для нескольких инстансов сервиса
type redisDedupWindow struct {
	repo   repository.DedupRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisDedupWindow создаёт окно на SET NX PX. Ошибка Redis пропускает запрос:
// лучше учесть лишнее посещение, чем сломать отдачу страницы.
func NewRedisDedupWindow(repo repository.DedupRepository, ttl time.Duration, opts ...Option) DedupWindow {
	if ttl <= 0 {
		ttl = DefaultDedupTTL
	}
	o := applyOptions(opts)
	return &redisDedupWindow{
		repo:   repo,
		ttl:    ttl,
		logger: o.logger,
	}
}

func (w *redisDedupWindow) Admit(ctx context.Context, key string) bool {
	ok, err := w.repo.SetIfAbsent(ctx, key, w.ttl)
	if err != nil {
		w.logger.Warn("Окно дедупликации недоступно, запрос принят",
			zap.String("key", key),
			zap.Error(err),
		)
		return true
	}
	return ok
}

// Close ничего не делает: ключи истекают на стороне Redis
func (w *redisDedupWindow) Close() {}
