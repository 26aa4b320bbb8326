package postgres

import (
	"context"

	"domainsentry/internal/domain"
)

// NewsStore implements ports.NewsRepository.
type NewsStore struct {
	db *DB
}

func NewNewsStore(db *DB) *NewsStore { return &NewsStore{db: db} }

func (s *NewsStore) Recent(ctx context.Context, limit int) ([]domain.NewsItem, error) {
	if limit < 1 {
		limit = 20
	}
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, title, link, description, source, author, published_at
		FROM news_items
		ORDER BY published_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.NewsItem, 0, limit)
	for rows.Next() {
		var it domain.NewsItem
		if err := rows.Scan(&it.ID, &it.Title, &it.Link, &it.Description, &it.Source, &it.Author, &it.PublishedAt); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// SaveItems inserts items that are not yet stored, deduplicated by link.
// It reports the number of newly stored items.
func (s *NewsStore) SaveItems(ctx context.Context, items []domain.NewsItem) (int, error) {
	saved := 0
	for _, it := range items {
		tag, err := s.db.Pool.Exec(ctx, `
			INSERT INTO news_items (title, link, description, source, author, published_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (link) DO NOTHING
		`, it.Title, it.Link, it.Description, it.Source, it.Author, it.PublishedAt)
		if err != nil {
			return saved, err
		}
		saved += int(tag.RowsAffected())
	}
	return saved, nil
}
