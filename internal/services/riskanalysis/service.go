// Package riskanalysis serves aggregate risk data and on-demand scoring.
package riskanalysis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"domainsentry/internal/domain"
	"domainsentry/internal/ports"
	"domainsentry/internal/risk"
)

type Service struct {
	repo   ports.DomainRepository
	engine *risk.Engine
	now    func() time.Time
}

func New(repo ports.DomainRepository, engine *risk.Engine) *Service {
	return &Service{repo: repo, engine: engine, now: time.Now}
}

// Analysis is one on-demand scoring run.
type Analysis struct {
	ScanID string `json:"scan_id"`
	risk.Result
	AnalyzedAt time.Time `json:"analyzed_at"`
}

// Analyze scores a domain name with the current weights. If the domain is
// already monitored, the stored score and factors are refreshed.
func (s *Service) Analyze(ctx context.Context, domainName string) (Analysis, error) {
	now := s.now()

	var registered *time.Time
	rec, err := s.repo.GetByName(ctx, domainName)
	switch {
	case err == nil:
		registered = rec.RegisteredDate
	case !errors.Is(err, domain.ErrNotFound):
		return Analysis{}, err
	}

	result := s.engine.Score(domainName, registered, now)
	if rec.ID != "" {
		if err := s.repo.UpdateRisk(ctx, rec.ID, result.Score, result.FactorScores()); err != nil {
			return Analysis{}, err
		}
	}
	return Analysis{
		ScanID:     uuid.NewString(),
		Result:     result,
		AnalyzedAt: now,
	}, nil
}

// Trends reports daily average scores over the trailing window in the
// canonical wrapper shape.
func (s *Service) Trends(ctx context.Context, days int) (domain.RiskTrend, error) {
	if days < 1 || days > 365 {
		days = 30
	}
	points, err := s.repo.RiskTrends(ctx, days, s.now())
	if err != nil {
		return domain.RiskTrend{}, err
	}
	if points == nil {
		points = []domain.TimelinePoint{}
	}
	return domain.RiskTrend{
		PeriodDays: days,
		Trends:     points,
		UpdatedAt:  s.now(),
	}, nil
}

// FactorBreakdown reports each factor's configured share of the total
// score, scaled to percent.
func (s *Service) FactorBreakdown(ctx context.Context, days int) (domain.FactorBreakdown, error) {
	if days < 1 || days > 365 {
		days = 30
	}
	w := s.engine.Config().Weights
	return domain.FactorBreakdown{
		PeriodDays: days,
		Breakdown: map[string]float64{
			"domain_length":   w.DomainLength * 100,
			"entropy_score":   w.EntropyScore * 100,
			"tld_risk":        w.TLDRisk * 100,
			"keyword_matches": w.KeywordMatches * 100,
			"age_days":        w.AgeDays * 100,
		},
		UpdatedAt: s.now(),
	}, nil
}

// Config exposes the active scoring configuration.
func (s *Service) Config() risk.EngineConfig {
	return s.engine.Config()
}
