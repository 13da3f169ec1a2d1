package service

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/SergeiKhy/blog-analytics/internal/models"
	"github.com/SergeiKhy/blog-analytics/internal/repository"
	"go.uber.org/zap"
)

// Параметры поиска
const (
	MinQueryLength  = 2
	SearchLimit     = 10
	excerptLength   = 100
	excerptContext  = 40
	excerptEllipsis = "..."
)

type SearchService interface {
	// Search ищет посты по подстроке. admin=false - только опубликованные.
	// Проверка сессии для admin выполняется до вызова.
	Search(ctx context.Context, query string, admin bool) ([]models.SearchResult, error)
}

type searchService struct {
	repo   repository.PostRepository
	logger *zap.Logger
}

func NewSearchService(repo repository.PostRepository, opts ...Option) SearchService {
	o := applyOptions(opts)
	return &searchService{
		repo:   repo,
		logger: o.logger,
	}
}

func (s *searchService) Search(ctx context.Context, query string, admin bool) ([]models.SearchResult, error) {
	term := strings.TrimSpace(query)
	if utf8.RuneCountInString(term) < MinQueryLength {
		return []models.SearchResult{}, nil
	}

	posts, err := s.repo.Search(ctx, term, !admin, SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}

	results := make([]models.SearchResult, 0, len(posts))
	for _, post := range posts {
		tags, err := models.DecodeTags(post.Tags)
		if err != nil {
			s.logger.Warn("Не удалось разобрать теги поста",
				zap.Int64("post_id", post.ID),
				zap.Error(err),
			)
			tags = []string{}
		}

		results = append(results, models.SearchResult{
			ID:        post.ID,
			Title:     post.Title,
			Published: post.Published,
			CreatedAt: post.CreatedAt,
			Excerpt:   Excerpt(post.Content, term),
			Tags:      tags,
		})
	}

	return results, nil
}

// Excerpt фрагмент content вокруг первого вхождения term без учёта регистра.
// Без вхождения - первые 100 символов. Позиции считаются в символах.
func Excerpt(content, term string) string {
	text := []rune(content)
	needle := []rune(term)

	i := indexFold(text, needle)
	if i < 0 {
		if len(text) > excerptLength {
			return string(text[:excerptLength]) + excerptEllipsis
		}
		return content
	}

	start := max(0, i-excerptContext)
	end := min(len(text), i+len(needle)+excerptContext)

	excerpt := string(text[start:end])
	if start > 0 {
		excerpt = excerptEllipsis + excerpt
	}
	if end < len(text) {
		excerpt += excerptEllipsis
	}
	return excerpt
}

// indexFold позиция needle в text посимвольно без учёта регистра, -1 если нет
func indexFold(text, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
outer:
	for i := 0; i+len(needle) <= len(text); i++ {
		for j, r := range needle {
			if unicode.ToLower(text[i+j]) != unicode.ToLower(r) {
				continue outer
			}
		}
		return i
	}
	return -1
}
