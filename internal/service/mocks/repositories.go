package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/SergeiKhy/blog-analytics/internal/models"
	"github.com/SergeiKhy/blog-analytics/internal/repository"
)

var (
	_ repository.VisitRepository = (*MockVisitRepository)(nil)
	_ repository.PostRepository  = (*MockPostRepository)(nil)
	_ repository.DedupRepository = (*MockDedupRepository)(nil)
)

// MockVisitRepository implements repository.VisitRepository for testing
type MockVisitRepository struct {
	mu      sync.RWMutex
	records []models.VisitRecord
	nextID  int64

	// CreateErr возвращается из Create, пока FailCreates > 0
	CreateErr   error
	FailCreates int
	// Err возвращается из всех методов чтения и удаления
	Err error

	creates int
	reads   int
}

func NewMockVisitRepository() *MockVisitRepository {
	return &MockVisitRepository{nextID: 1}
}

func (m *MockVisitRepository) Create(ctx context.Context, record *models.VisitRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.creates++
	if m.FailCreates > 0 && m.CreateErr != nil {
		m.FailCreates--
		return m.CreateErr
	}

	record.ID = m.nextID
	m.nextID++
	m.records = append(m.records, *record)
	return nil
}

// Add добавляет запись напрямую, минуя счётчики
func (m *MockVisitRepository) Add(record models.VisitRecord) models.VisitRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	record.ID = m.nextID
	m.nextID++
	m.records = append(m.records, record)
	return record
}

func (m *MockVisitRepository) Find(ctx context.Context, filter models.VisitFilter, limit, offset int) ([]models.VisitRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	if m.Err != nil {
		return nil, m.Err
	}

	matched := m.filter(filter)
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].VisitedAt.Equal(matched[j].VisitedAt) {
			return matched[i].VisitedAt.After(matched[j].VisitedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	if offset >= len(matched) {
		return []models.VisitRecord{}, nil
	}
	end := min(offset+limit, len(matched))
	return matched[offset:end], nil
}

func (m *MockVisitRepository) Count(ctx context.Context, filter models.VisitFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	if m.Err != nil {
		return 0, m.Err
	}
	return int64(len(m.filter(filter))), nil
}

func (m *MockVisitRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return 0, m.Err
	}

	kept := m.records[:0]
	var deleted int64
	for _, r := range m.records {
		if r.VisitedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, r)
	}
	m.records = kept
	return deleted, nil
}

func (m *MockVisitRepository) TopPaths(ctx context.Context, limit int) ([]models.PathCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	if m.Err != nil {
		return nil, m.Err
	}

	counts := make(map[string]int64)
	for _, r := range m.records {
		counts[r.Path]++
	}

	pages := make([]models.PathCount, 0, len(counts))
	for path, n := range counts {
		pages = append(pages, models.PathCount{Path: path, Count: n})
	}
	sort.Slice(pages, func(i, j int) bool {
		if pages[i].Count != pages[j].Count {
			return pages[i].Count > pages[j].Count
		}
		return pages[i].Path < pages[j].Path
	})

	if len(pages) > limit {
		pages = pages[:limit]
	}
	return pages, nil
}

func (m *MockVisitRepository) TopReferrers(ctx context.Context, limit int) ([]models.ReferrerCount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	if m.Err != nil {
		return nil, m.Err
	}

	counts := make(map[string]int64)
	for _, r := range m.records {
		if r.Referrer != nil {
			counts[*r.Referrer]++
		}
	}

	referrers := make([]models.ReferrerCount, 0, len(counts))
	for ref, n := range counts {
		referrers = append(referrers, models.ReferrerCount{Referrer: ref, Count: n})
	}
	sort.Slice(referrers, func(i, j int) bool {
		if referrers[i].Count != referrers[j].Count {
			return referrers[i].Count > referrers[j].Count
		}
		return referrers[i].Referrer < referrers[j].Referrer
	})

	if len(referrers) > limit {
		referrers = referrers[:limit]
	}
	return referrers, nil
}

// Records копия всех записей в порядке добавления
func (m *MockVisitRepository) Records() []models.VisitRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.VisitRecord(nil), m.records...)
}

// CreateCalls количество вызовов Create, включая неудачные
func (m *MockVisitRepository) CreateCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.creates
}

// ReadCalls количество обращений на чтение
func (m *MockVisitRepository) ReadCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.reads
}

func (m *MockVisitRepository) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = nil
	m.nextID = 1
	m.creates = 0
	m.reads = 0
}

func (m *MockVisitRepository) filter(filter models.VisitFilter) []models.VisitRecord {
	matched := make([]models.VisitRecord, 0, len(m.records))
	for _, r := range m.records {
		if filter.PathContains != "" && !strings.Contains(r.Path, filter.PathContains) {
			continue
		}
		if filter.IPContains != "" && !strings.Contains(r.IPAddress, filter.IPContains) {
			continue
		}
		if filter.Since != nil && r.VisitedAt.Before(*filter.Since) {
			continue
		}
		if filter.Until != nil && r.VisitedAt.After(*filter.Until) {
			continue
		}
		if filter.Before != nil && !r.VisitedAt.Before(*filter.Before) {
			continue
		}
		matched = append(matched, r)
	}
	return matched
}

// MockPostRepository implements repository.PostRepository for testing
type MockPostRepository struct {
	mu       sync.RWMutex
	posts    []*models.Post
	nextID   int64
	searches int

	Err error
}

func NewMockPostRepository() *MockPostRepository {
	return &MockPostRepository{nextID: 1}
}

func (m *MockPostRepository) Create(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	post.ID = m.nextID
	m.nextID++
	m.posts = append(m.posts, post)
	return nil
}

func (m *MockPostRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	for _, p := range m.posts {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrPostNotFound
}

func (m *MockPostRepository) Search(ctx context.Context, term string, publishedOnly bool, limit int) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.searches++
	if m.Err != nil {
		return nil, m.Err
	}

	var found []models.Post
	for _, p := range m.posts {
		if publishedOnly && !p.Published {
			continue
		}
		if strings.Contains(p.Title, term) || strings.Contains(p.Content, term) || strings.Contains(p.Tags, term) {
			found = append(found, *p)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return found[i].CreatedAt.After(found[j].CreatedAt)
	})

	if len(found) > limit {
		found = found[:limit]
	}
	return found, nil
}

// SearchCalls количество обращений к Search
func (m *MockPostRepository) SearchCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.searches
}

// MockDedupRepository implements repository.DedupRepository for testing
type MockDedupRepository struct {
	mu   sync.Mutex
	keys map[string]time.Duration

	Err error
}

func NewMockDedupRepository() *MockDedupRepository {
	return &MockDedupRepository{keys: make(map[string]time.Duration)}
}

func (m *MockDedupRepository) SetIfAbsent(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return false, m.Err
	}
	if _, exists := m.keys[key]; exists {
		return false, nil
	}
	m.keys[key] = ttl
	return true, nil
}

// TTL время жизни, с которым был записан ключ
func (m *MockDedupRepository) TTL(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ttl, ok := m.keys[key]
	return ttl, ok
}
