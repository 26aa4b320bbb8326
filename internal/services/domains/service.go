// Package domains manages the monitored-domain corpus.
package domains

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"

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

// Normalize lowercases a domain name and splits off its public suffix.
// Inputs that carry a scheme or path are rejected upstream; this only
// handles bare names.
func Normalize(name string) (registrable, tld string, err error) {
	name = strings.ToLower(strings.TrimSpace(strings.TrimSuffix(name, ".")))
	if name == "" {
		return "", "", errors.New("empty domain name")
	}
	suffix, _ := publicsuffix.PublicSuffix(name)
	registrable, err = publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		// Not registrable under a known suffix. Keep the name as given and
		// fall back to the last label.
		registrable = name
		if i := strings.LastIndex(name, "."); i >= 0 {
			suffix = name[i+1:]
		} else {
			suffix = ""
		}
	}
	return registrable, suffix, nil
}

// Register scores a new domain and stores it. Re-registering an existing
// name returns the stored record unchanged.
func (s *Service) Register(ctx context.Context, rec domain.DomainRecord) (domain.DomainRecord, error) {
	registrable, tld, err := Normalize(rec.DomainName)
	if err != nil {
		return domain.DomainRecord{}, err
	}
	if existing, err := s.repo.GetByName(ctx, registrable); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return domain.DomainRecord{}, err
	}

	rec.DomainName = registrable
	rec.TLD = tld
	result := s.engine.Score(registrable, rec.RegisteredDate, s.now())
	rec.RiskScore = result.Score
	rec.RiskFactors = result.FactorScores()
	return s.repo.Create(ctx, rec)
}

func (s *Service) List(ctx context.Context, filter ports.DomainListFilter) (domain.DomainPage, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Size < 1 || filter.Size > 100 {
		filter.Size = 20
	}
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return domain.DomainPage{}, err
	}
	pages := total / filter.Size
	if total%filter.Size != 0 {
		pages++
	}
	return domain.DomainPage{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Size:  filter.Size,
		Pages: pages,
	}, nil
}

func (s *Service) Get(ctx context.Context, id string) (domain.DomainRecord, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) GetByName(ctx context.Context, name string) (domain.DomainRecord, error) {
	registrable, _, err := Normalize(name)
	if err != nil {
		return domain.DomainRecord{}, err
	}
	return s.repo.GetByName(ctx, registrable)
}

func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	return s.repo.Stats(ctx, s.now())
}

func (s *Service) TLDDistribution(ctx context.Context, limit int) ([]domain.TLDCount, error) {
	if limit < 1 || limit > 50 {
		limit = 10
	}
	return s.repo.TLDDistribution(ctx, limit)
}
