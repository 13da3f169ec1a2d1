package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/blog-analytics/internal/models"
	"github.com/jackc/pgx/v5"
)

var ErrPostNotFound = errors.New("post not found")

// PostRepository чтение постов блога. Создание используется только для наполнения данными.
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id int64) (*models.Post, error)
	Search(ctx context.Context, term string, publishedOnly bool, limit int) ([]models.Post, error)
}

type postRepository struct {
	db *PostgresDB
}

func NewPostRepository(db *PostgresDB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	query := `
		INSERT INTO posts (title, content, tags, published, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := r.db.Pool.QueryRow(ctx, query,
		post.Title,
		post.Content,
		post.Tags,
		post.Published,
		post.CreatedAt,
		post.UpdatedAt,
	).Scan(&post.ID)

	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id int64) (*models.Post, error) {
	query := `
		SELECT id, title, content, tags, published, created_at, updated_at
		FROM posts
		WHERE id = $1
	`

	post := &models.Post{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&post.ID,
		&post.Title,
		&post.Content,
		&post.Tags,
		&post.Published,
		&post.CreatedAt,
		&post.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return post, nil
}

// Search ищет подстроку (с учётом регистра) в заголовке, тексте или сериализованных тегах
func (r *postRepository) Search(ctx context.Context, term string, publishedOnly bool, limit int) ([]models.Post, error) {
	query := `
		SELECT id, title, content, tags, published, created_at, updated_at
		FROM posts
		WHERE (strpos(title, $1) > 0 OR strpos(content, $1) > 0 OR strpos(tags, $1) > 0)
			AND (NOT $2 OR published)
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.db.Pool.Query(ctx, query, term, publishedOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.Post, 0, limit)
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(
			&p.ID,
			&p.Title,
			&p.Content,
			&p.Tags,
			&p.Published,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	return posts, nil
}
