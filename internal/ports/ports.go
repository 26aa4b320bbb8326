package ports

import (
	"context"
	"encoding/json"

	"domainsentry/internal/domain"
)

// Query-side contracts consumed by the view composer. The REST client
// implements all three against a running API server; tests substitute fakes.

// DomainQueries reads the monitored-domain corpus.
type DomainQueries interface {
	ListDomains(ctx context.Context, page, size int) (domain.DomainPage, error)
	GetDomain(ctx context.Context, id string) (domain.DomainRecord, error)
	GetStats(ctx context.Context) (domain.Stats, error)
	GetTLDDistribution(ctx context.Context, limit int) ([]domain.TLDCount, error)
}

// RiskQueries reads aggregate risk data. Trend and breakdown payloads come
// back raw; the series normalizer resolves their shape variants.
type RiskQueries interface {
	GetRiskTrends(ctx context.Context, days int) (json.RawMessage, error)
	GetFactorBreakdown(ctx context.Context, days int) (json.RawMessage, error)
}

// NewsQueries reads the aggregated security news feed.
type NewsQueries interface {
	ListNews(ctx context.Context, limit int) (domain.NewsPage, error)
}
