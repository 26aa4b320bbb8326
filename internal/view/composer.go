package view

import (
	"context"
	"errors"
	"time"

	"domainsentry/internal/domain"
	"domainsentry/internal/ports"
	"domainsentry/internal/querycache"
	"domainsentry/internal/risk"
	"domainsentry/internal/series"
)

// QueryConfig carries per-query-type freshness and retry settings. Lists
// turn stale quickly; aggregates match the server-side cache window.
type QueryConfig struct {
	ListStale        time.Duration
	AggregateStale   time.Duration
	ListTimeout      time.Duration
	AggregateTimeout time.Duration
	MaxRetries       int
	Backoff          time.Duration
	BackoffFactor    float64
}

func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		ListStale:        30 * time.Second,
		AggregateStale:   5 * time.Minute,
		ListTimeout:      10 * time.Second,
		AggregateTimeout: 15 * time.Second,
		MaxRetries:       1,
		Backoff:          500 * time.Millisecond,
		BackoffFactor:    2,
	}
}

// Composer builds page view models from the query executor and the
// query-side ports. It performs no network I/O itself.
type Composer struct {
	exec    *querycache.Executor
	domains ports.DomainQueries
	riskq   ports.RiskQueries
	news    ports.NewsQueries
	cfg     QueryConfig
	now     func() time.Time
}

func NewComposer(exec *querycache.Executor, domains ports.DomainQueries, riskq ports.RiskQueries, news ports.NewsQueries, cfg QueryConfig) *Composer {
	return &Composer{
		exec:    exec,
		domains: domains,
		riskq:   riskq,
		news:    news,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Close waits for background revalidations to settle. Call it once when the
// composer's host shuts down.
func (c *Composer) Close() { c.exec.Wait() }

// Invalidate drops every cached entry whose key starts with the given
// parts, forcing the next read to refetch.
func (c *Composer) Invalidate(parts ...any) {
	c.exec.Cache().InvalidatePrefix(querycache.MakeKey(parts...))
}

func (c *Composer) listOptions() querycache.Options {
	return querycache.Options{
		StaleAfter:    c.cfg.ListStale,
		MaxRetries:    c.cfg.MaxRetries,
		Backoff:       c.cfg.Backoff,
		BackoffFactor: c.cfg.BackoffFactor,
		Timeout:       c.cfg.ListTimeout,
		Policy:        querycache.ServeStale,
	}
}

func (c *Composer) aggregateOptions() querycache.Options {
	return querycache.Options{
		StaleAfter:    c.cfg.AggregateStale,
		MaxRetries:    c.cfg.MaxRetries,
		Backoff:       c.cfg.Backoff,
		BackoffFactor: c.cfg.BackoffFactor,
		Timeout:       c.cfg.AggregateTimeout,
		Policy:        querycache.ServeStale,
	}
}

// DomainList builds the domains table for one page.
func (c *Composer) DomainList(ctx context.Context, page, size int) DomainListView {
	key := querycache.MakeKey("domains", "list", page, size)
	v, err := c.exec.Do(ctx, key, func(ctx context.Context) (any, error) {
		return c.domains.ListDomains(ctx, page, size)
	}, c.listOptions())
	if err != nil {
		return DomainListView{Region: failed(err)}
	}
	p := v.(domain.DomainPage)
	if len(p.Items) == 0 {
		return DomainListView{
			Region: Region{State: StateEmpty},
			Page:   p.Page,
			Size:   p.Size,
		}
	}
	rows := make([]DomainRow, len(p.Items))
	for i, rec := range p.Items {
		rows[i] = DomainRow{Record: rec, Tier: risk.Classify(rec.RiskScore)}
	}
	return DomainListView{
		Region: Region{State: StateReady},
		Rows:   rows,
		Total:  p.Total,
		Page:   p.Page,
		Size:   p.Size,
		Pages:  p.Pages,
	}
}

// DomainDetail builds one domain's detail page.
func (c *Composer) DomainDetail(ctx context.Context, id string) DomainDetailView {
	key := querycache.MakeKey("domains", "detail", id)
	v, err := c.exec.Do(ctx, key, func(ctx context.Context) (any, error) {
		return c.domains.GetDomain(ctx, id)
	}, c.listOptions())
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return DomainDetailView{Region: Region{State: StateEmpty}}
		}
		return DomainDetailView{Region: failed(err)}
	}
	rec := v.(domain.DomainRecord)
	return DomainDetailView{
		Region: Region{State: StateReady},
		Record: rec,
		Tier:   risk.Classify(rec.RiskScore),
	}
}

// Overview builds the landing page. Its three regions fetch independently,
// so one failed aggregate never blanks the others.
func (c *Composer) Overview(ctx context.Context, trendDays, tldLimit int) OverviewView {
	return OverviewView{
		Stats: c.statsRegion(ctx),
		TLD:   c.tldRegion(ctx, tldLimit),
		Trend: c.trendRegion(ctx, trendDays),
	}
}

// RiskAnalysis builds the risk analysis page.
func (c *Composer) RiskAnalysis(ctx context.Context, days int) RiskAnalysisView {
	return RiskAnalysisView{
		Trend:     c.trendRegion(ctx, days),
		Breakdown: c.breakdownRegion(ctx, days),
	}
}

// News builds the aggregated security news page.
func (c *Composer) News(ctx context.Context, limit int) NewsView {
	key := querycache.MakeKey("news", "list", limit)
	v, err := c.exec.Do(ctx, key, func(ctx context.Context) (any, error) {
		return c.news.ListNews(ctx, limit)
	}, c.listOptions())
	if err != nil {
		return NewsView{Region: failed(err)}
	}
	p := v.(domain.NewsPage)
	if len(p.Items) == 0 {
		return NewsView{Region: Region{State: StateEmpty}}
	}
	return NewsView{
		Region: Region{State: StateReady},
		Items:  p.Items,
		Total:  p.Total,
	}
}

func (c *Composer) statsRegion(ctx context.Context) StatsRegion {
	key := querycache.MakeKey("domains", "stats")
	v, err := c.exec.Do(ctx, key, func(ctx context.Context) (any, error) {
		return c.domains.GetStats(ctx)
	}, c.aggregateOptions())
	if err != nil {
		return StatsRegion{Region: failed(err)}
	}
	st := v.(domain.Stats)
	if st.TotalDomains == 0 {
		return StatsRegion{Region: Region{State: StateEmpty}, Stats: st}
	}
	dist := make([]TierCount, 0, len(risk.TierLabels()))
	for _, label := range risk.TierLabels() {
		dist = append(dist, TierCount{
			Label:    label,
			StyleTag: tierForLabel(label).StyleTag(),
			Count:    st.RiskDistribution[label],
		})
	}
	return StatsRegion{
		Region:       Region{State: StateReady},
		Stats:        st,
		Distribution: dist,
	}
}

func (c *Composer) tldRegion(ctx context.Context, limit int) TLDRegion {
	key := querycache.MakeKey("domains", "tld", limit)
	v, err := c.exec.Do(ctx, key, func(ctx context.Context) (any, error) {
		counts, err := c.domains.GetTLDDistribution(ctx, limit)
		if err != nil {
			return nil, err
		}
		return series.NormalizeDistribution(counts), nil
	}, c.aggregateOptions())
	if err != nil {
		return TLDRegion{Region: failed(err)}
	}
	slices := v.([]series.Slice)
	if len(slices) == 0 {
		return TLDRegion{Region: Region{State: StateEmpty}}
	}
	return TLDRegion{Region: Region{State: StateReady}, Slices: slices}
}

func (c *Composer) trendRegion(ctx context.Context, days int) TrendRegion {
	key := querycache.MakeKey("risk", "trends", days)
	v, err := c.exec.Do(ctx, key, func(ctx context.Context) (any, error) {
		raw, err := c.riskq.GetRiskTrends(ctx, days)
		if err != nil {
			return nil, err
		}
		return series.NormalizeTrend(raw, days, c.now())
	}, c.aggregateOptions())
	if err != nil {
		return TrendRegion{Region: failed(err)}
	}
	trend := v.(domain.RiskTrend)
	if len(trend.Trends) == 0 {
		return TrendRegion{Region: Region{State: StateEmpty}, Trend: trend}
	}
	return TrendRegion{Region: Region{State: StateReady}, Trend: trend}
}

func (c *Composer) breakdownRegion(ctx context.Context, days int) BreakdownRegion {
	key := querycache.MakeKey("risk", "breakdown", days)
	v, err := c.exec.Do(ctx, key, func(ctx context.Context) (any, error) {
		raw, err := c.riskq.GetFactorBreakdown(ctx, days)
		if err != nil {
			return nil, err
		}
		return series.NormalizeBreakdown(raw, days, c.now())
	}, c.aggregateOptions())
	if err != nil {
		return BreakdownRegion{Region: failed(err)}
	}
	bd := v.(domain.FactorBreakdown)
	if len(bd.Breakdown) == 0 {
		return BreakdownRegion{Region: Region{State: StateEmpty}, Breakdown: bd}
	}
	return BreakdownRegion{Region: Region{State: StateReady}, Breakdown: bd}
}

func failed(err error) Region {
	var info *querycache.ErrorInfo
	if !errors.As(err, &info) {
		info = &querycache.ErrorInfo{Message: err.Error(), Cause: err}
	}
	return Region{State: StateError, Err: info}
}

func tierForLabel(label string) risk.Tier {
	for _, t := range []risk.Tier{risk.TierLow, risk.TierMedium, risk.TierCritical} {
		if t.Label() == label {
			return t
		}
	}
	return risk.TierLow
}
