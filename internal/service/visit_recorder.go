package service

import (
	"context"
	"sync"
	"time"

	"github.com/SergeiKhy/blog-analytics/internal/metrics"
	"github.com/SergeiKhy/blog-analytics/internal/models"
	"github.com/SergeiKhy/blog-analytics/internal/repository"
	"go.uber.org/zap"
)

// Константы worker pool
const (
	DefaultRecorderWorkers = 3    // Количество воркеров
	DefaultRecorderBuffer  = 1000 // Размер буфера канала
	maxRetries             = 3    // Максимальное количество попыток записи
	writeTimeout           = 5 * time.Second
	retryBackoff           = 100 * time.Millisecond
)

// VisitRecorder асинхронная запись посещений. Ошибки записи не доходят до запроса.
type VisitRecorder interface {
	Start()
	Stop()
	Record(event models.VisitEvent)
}

// RecorderConfig параметры worker pool
type RecorderConfig struct {
	Workers int
	Buffer  int
}

// visitRecorder реализация на worker pool с буферизованным каналом
type visitRecorder struct {
	repo    repository.VisitRepository
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     Clock
	events  chan models.VisitEvent
	workers int
	quit    chan struct{}
	mu      sync.RWMutex // защищает stopped от гонки Record/Stop
	stopped bool
	wg      sync.WaitGroup
	once    sync.Once
}

// NewVisitRecorder создаёт процессор записи посещений
func NewVisitRecorder(
	repo repository.VisitRepository,
	cfg RecorderConfig,
	m *metrics.Metrics,
	opts ...Option,
) VisitRecorder {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultRecorderWorkers
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = DefaultRecorderBuffer
	}
	if m == nil {
		m = metrics.NewNop()
	}
	o := applyOptions(opts)

	return &visitRecorder{
		repo:    repo,
		metrics: m,
		logger:  o.logger,
		now:     o.now,
		events:  make(chan models.VisitEvent, cfg.Buffer),
		workers: cfg.Workers,
		quit:    make(chan struct{}),
	}
}

// Start запускает воркеры
func (r *visitRecorder) Start() {
	r.logger.Info("Запуск воркеров записи посещений", zap.Int("count", r.workers))

	for i := 0; i < r.workers; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
}

// Stop перестаёт принимать события, дописывает очередь и ждёт воркеры
func (r *visitRecorder) Stop() {
	r.once.Do(func() {
		r.logger.Info("Остановка записи посещений...", zap.Int("pending", len(r.events)))

		r.mu.Lock()
		r.stopped = true
		r.mu.Unlock()

		close(r.quit)
		r.wg.Wait()

		r.logger.Info("Запись посещений остановлена")
	})
}

// Record ставит событие в очередь, не блокируя запрос
func (r *visitRecorder) Record(event models.VisitEvent) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.stopped {
		r.metrics.Dropped.Inc()
		r.logger.Warn("Запись посещений остановлена, событие потеряно", zap.String("path", event.Path))
		return
	}

	select {
	case r.events <- event:
		r.metrics.Enqueued.Inc()
		r.metrics.QueueDepth.Set(float64(len(r.events)))
	default:
		// Канал заполнен: теряем статистику, но не задерживаем ответ
		r.metrics.Dropped.Inc()
		r.logger.Warn("Буфер посещений заполнен, событие потеряно", zap.String("path", event.Path))
	}
}

func (r *visitRecorder) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("Воркер посещений запущен", zap.Int("id", id))

	for {
		select {
		case event := <-r.events:
			r.persist(event)

		case <-r.quit:
			r.drain()
			r.logger.Debug("Воркер посещений остановлен", zap.Int("id", id))
			return
		}
	}
}

// drain дописывает события, оставшиеся в канале после Stop.
// После stopped=true новых событий в канале не появится.
func (r *visitRecorder) drain() {
	for {
		select {
		case event := <-r.events:
			r.persist(event)
		default:
			return
		}
	}
}

// persist записывает одно посещение с повторными попытками
func (r *visitRecorder) persist(event models.VisitEvent) {
	defer r.metrics.QueueDepth.Set(float64(len(r.events)))

	record := &models.VisitRecord{
		IPAddress: event.IPAddress,
		UserAgent: event.UserAgent,
		Path:      event.Path,
		Referrer:  event.Referrer,
		VisitedAt: r.now(),
	}

	var err error
	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		err = r.repo.Create(ctx, record)
		cancel()

		if err == nil {
			r.metrics.Recorded.Inc()
			r.logger.Debug("Посещение записано",
				zap.String("path", record.Path),
				zap.String("ip", record.IPAddress),
			)
			return
		}

		if i < maxRetries-1 {
			r.logger.Debug("Повторная попытка записи посещения",
				zap.String("path", record.Path),
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(time.Duration(i+1) * retryBackoff)
		}
	}

	r.metrics.Failed.Inc()
	r.logger.Error("Не удалось записать посещение после всех попыток",
		zap.String("path", record.Path),
		zap.Error(err),
	)
}
