package service_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/SergeiKhy/blog-analytics/internal/service"
	"github.com/SergeiKhy/blog-analytics/internal/service/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupKey(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 123_456_789, time.UTC)

	assert.Equal(t, "/about:1709294400123", service.DedupKey("/about", at))
	// в пределах одной миллисекунды ключ совпадает
	assert.Equal(t, service.DedupKey("/about", at), service.DedupKey("/about", at.Add(500*time.Microsecond)))
	assert.NotEqual(t, service.DedupKey("/about", at), service.DedupKey("/about", at.Add(time.Millisecond)))
}

// TestMemoryDedupWindow_Admit проверяет повтор внутри окна и после истечения TTL
func TestMemoryDedupWindow_Admit(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	window := service.NewMemoryDedupWindow(10*time.Second, service.WithClock(clock.Now))
	defer window.Close()

	ctx := context.Background()

	assert.True(t, window.Admit(ctx, "k"))
	assert.False(t, window.Admit(ctx, "k"))

	clock.Advance(9 * time.Second)
	assert.False(t, window.Admit(ctx, "k"))

	clock.Advance(time.Second)
	assert.True(t, window.Admit(ctx, "k"), "ключ должен истечь ровно через TTL")
	assert.False(t, window.Admit(ctx, "k"))

	assert.True(t, window.Admit(ctx, "other"))
}

// TestMemoryDedupWindow_TimerRemovesKey проверяет самоочистку окна по таймеру
func TestMemoryDedupWindow_TimerRemovesKey(t *testing.T) {
	window := service.NewMemoryDedupWindow(100 * time.Millisecond)
	defer window.Close()

	require.True(t, window.Admit(context.Background(), "k"))
	assert.Equal(t, 1, service.DedupWindowLen(window))

	assert.Eventually(t, func() bool {
		return service.DedupWindowLen(window) == 0
	}, time.Second, 5*time.Millisecond)

	assert.True(t, window.Admit(context.Background(), "k"))
}

// TestMemoryDedupWindow_Concurrent проверяет, что из параллельных вызовов принимается ровно один
func TestMemoryDedupWindow_Concurrent(t *testing.T) {
	window := service.NewMemoryDedupWindow(time.Minute)
	defer window.Close()

	var (
		admitted atomic.Int32
		wg       sync.WaitGroup
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if window.Admit(context.Background(), "/about:1") {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), admitted.Load())
}

// TestMemoryDedupWindow_Close проверяет, что Close очищает окно и не мешает дальнейшей работе
func TestMemoryDedupWindow_Close(t *testing.T) {
	clock := newFakeClock(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	window := service.NewMemoryDedupWindow(10*time.Second, service.WithClock(clock.Now))

	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		require.True(t, window.Admit(ctx, key))
	}

	window.Close()
	assert.Equal(t, 0, service.DedupWindowLen(window))

	// после Close ключи истекают лениво
	assert.True(t, window.Admit(ctx, "a"))
	assert.False(t, window.Admit(ctx, "a"))
	clock.Advance(10 * time.Second)
	assert.True(t, window.Admit(ctx, "a"))

	window.Close()
}

func TestRedisDedupWindow_Admit(t *testing.T) {
	repo := mocks.NewMockDedupRepository()
	window := service.NewRedisDedupWindow(repo, 3*time.Second)
	defer window.Close()

	ctx := context.Background()
	assert.True(t, window.Admit(ctx, "/about:1"))
	assert.False(t, window.Admit(ctx, "/about:1"))

	ttl, ok := repo.TTL("/about:1")
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, ttl)
}

// TestRedisDedupWindow_FailOpen проверяет, что ошибка Redis не блокирует учёт
func TestRedisDedupWindow_FailOpen(t *testing.T) {
	repo := mocks.NewMockDedupRepository()
	repo.Err = errors.New("connection refused")
	window := service.NewRedisDedupWindow(repo, 0)

	assert.True(t, window.Admit(context.Background(), "/about:1"))
	assert.True(t, window.Admit(context.Background(), "/about:1"))
}
