package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Post запись блога. Теги хранятся сериализованными в JSON.
type Post struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      string    `json:"-"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PostView пост с десериализованными тегами для ответа API
type PostView struct {
	Post
	Tags []string `json:"tags"`
}

// SearchResult элемент выдачи поиска
type SearchResult struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	Excerpt   string    `json:"excerpt"`
	Tags      []string  `json:"tags"`
}

// EncodeTags сериализует теги, сохраняя порядок и повторы
func EncodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(data), nil
}

// DecodeTags разбирает сериализованные теги. Пустая строка - пустой набор.
func DecodeTags(raw string) ([]string, error) {
	if raw == "" {
		return []string{}, nil
	}
	var tags []string
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	if tags == nil {
		tags = []string{}
	}
	return tags, nil
}
