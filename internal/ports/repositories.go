package ports

import (
	"context"
	"time"

	"domainsentry/internal/domain"
)

// DomainListFilter narrows and orders a domain listing.
type DomainListFilter struct {
	Page         int
	Size         int
	Tier         string
	MinRiskScore *float64
	MaxRiskScore *float64
	SortBy       string
	SortOrder    string
}

// DomainRepository stores and aggregates monitored domains.
type DomainRepository interface {
	List(ctx context.Context, filter DomainListFilter) ([]domain.DomainRecord, int, error)
	Get(ctx context.Context, id string) (domain.DomainRecord, error)
	GetByName(ctx context.Context, name string) (domain.DomainRecord, error)
	Create(ctx context.Context, rec domain.DomainRecord) (domain.DomainRecord, error)
	UpdateRisk(ctx context.Context, id string, score float64, factors map[string]float64) error
	Stats(ctx context.Context, now time.Time) (domain.Stats, error)
	TLDDistribution(ctx context.Context, limit int) ([]domain.TLDCount, error)
	RiskTrends(ctx context.Context, days int, now time.Time) ([]domain.TimelinePoint, error)
}

// NewsRepository stores aggregated feed items, deduplicated by link.
type NewsRepository interface {
	Recent(ctx context.Context, limit int) ([]domain.NewsItem, error)
	SaveItems(ctx context.Context, items []domain.NewsItem) (int, error)
}
