package view

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"domainsentry/internal/domain"
	"domainsentry/internal/querycache"
	"domainsentry/internal/risk"
)

type fakeDomains struct {
	listCalls  atomic.Int64
	statsCalls atomic.Int64
	page       domain.DomainPage
	record     domain.DomainRecord
	stats      domain.Stats
	tld        []domain.TLDCount
	err        error
}

func (f *fakeDomains) ListDomains(ctx context.Context, page, size int) (domain.DomainPage, error) {
	f.listCalls.Add(1)
	return f.page, f.err
}

func (f *fakeDomains) GetDomain(ctx context.Context, id string) (domain.DomainRecord, error) {
	return f.record, f.err
}

func (f *fakeDomains) GetStats(ctx context.Context) (domain.Stats, error) {
	f.statsCalls.Add(1)
	return f.stats, f.err
}

func (f *fakeDomains) GetTLDDistribution(ctx context.Context, limit int) ([]domain.TLDCount, error) {
	return f.tld, f.err
}

type fakeRisk struct {
	trends    json.RawMessage
	breakdown json.RawMessage
	err       error
}

func (f *fakeRisk) GetRiskTrends(ctx context.Context, days int) (json.RawMessage, error) {
	return f.trends, f.err
}

func (f *fakeRisk) GetFactorBreakdown(ctx context.Context, days int) (json.RawMessage, error) {
	return f.breakdown, f.err
}

type fakeNews struct {
	page domain.NewsPage
	err  error
}

func (f *fakeNews) ListNews(ctx context.Context, limit int) (domain.NewsPage, error) {
	return f.page, f.err
}

func newComposer(d *fakeDomains, r *fakeRisk, n *fakeNews) *Composer {
	exec := querycache.NewExecutor(querycache.NewCache(), nil)
	if d == nil {
		d = &fakeDomains{}
	}
	if r == nil {
		r = &fakeRisk{trends: json.RawMessage(`[]`), breakdown: json.RawMessage(`{"breakdown":{}}`)}
	}
	if n == nil {
		n = &fakeNews{}
	}
	return NewComposer(exec, d, r, n, DefaultQueryConfig())
}

func TestDomainListReady(t *testing.T) {
	t.Parallel()

	d := &fakeDomains{page: domain.DomainPage{
		Items: []domain.DomainRecord{
			{DomainName: "paypa1-login.tk", RiskScore: 82.4},
			{DomainName: "example.com", RiskScore: 12.0},
		},
		Total: 2, Page: 1, Size: 20, Pages: 1,
	}}
	c := newComposer(d, nil, nil)
	defer c.Close()

	v := c.DomainList(context.Background(), 1, 20)
	if v.State != StateReady {
		t.Fatalf("state = %v, want ready", v.State)
	}
	if len(v.Rows) != 2 || v.Total != 2 {
		t.Fatalf("rows = %d total = %d", len(v.Rows), v.Total)
	}
	if v.Rows[0].Tier != risk.TierCritical {
		t.Errorf("tier for score 82.4 = %v, want Critical", v.Rows[0].Tier)
	}
	if v.Rows[1].Tier != risk.TierLow {
		t.Errorf("tier for score 12.0 = %v, want Low", v.Rows[1].Tier)
	}
}

func TestDomainListEmpty(t *testing.T) {
	t.Parallel()

	d := &fakeDomains{page: domain.DomainPage{Page: 1, Size: 20}}
	c := newComposer(d, nil, nil)
	defer c.Close()

	v := c.DomainList(context.Background(), 1, 20)
	if v.State != StateEmpty {
		t.Fatalf("state = %v, want empty", v.State)
	}
	if v.Err != nil {
		t.Errorf("empty view carries error %v", v.Err)
	}
}

func TestDomainListError(t *testing.T) {
	t.Parallel()

	cause := &domain.HTTPError{URL: "http://api/domains", Status: 503}
	d := &fakeDomains{err: cause}
	c := newComposer(d, nil, nil)
	defer c.Close()

	cfg := DefaultQueryConfig()
	cfg.MaxRetries = 0
	c.cfg = cfg

	v := c.DomainList(context.Background(), 1, 20)
	if v.State != StateError {
		t.Fatalf("state = %v, want error", v.State)
	}
	if v.Err == nil {
		t.Fatal("error view has nil Err")
	}
	var httpErr *domain.HTTPError
	if !errors.As(v.Err, &httpErr) || httpErr.Status != 503 {
		t.Errorf("Err does not unwrap to the HTTP cause: %v", v.Err)
	}
}

func TestDomainListCachesAcrossCalls(t *testing.T) {
	t.Parallel()

	d := &fakeDomains{page: domain.DomainPage{
		Items: []domain.DomainRecord{{DomainName: "example.com"}},
		Total: 1, Page: 1, Size: 20, Pages: 1,
	}}
	c := newComposer(d, nil, nil)
	defer c.Close()

	for i := 0; i < 3; i++ {
		c.DomainList(context.Background(), 1, 20)
	}
	if got := d.listCalls.Load(); got != 1 {
		t.Errorf("loader ran %d times for identical pages, want 1", got)
	}

	// A different page is a different key.
	c.DomainList(context.Background(), 2, 20)
	if got := d.listCalls.Load(); got != 2 {
		t.Errorf("loader ran %d times after second page, want 2", got)
	}
}

func TestDomainDetailNotFoundIsEmpty(t *testing.T) {
	t.Parallel()

	d := &fakeDomains{err: domain.ErrNotFound}
	c := newComposer(d, nil, nil)
	defer c.Close()

	v := c.DomainDetail(context.Background(), "missing-id")
	if v.State != StateEmpty {
		t.Fatalf("state = %v, want empty for a missing domain", v.State)
	}
}

func TestInvalidateForcesRefetch(t *testing.T) {
	t.Parallel()

	d := &fakeDomains{page: domain.DomainPage{
		Items: []domain.DomainRecord{{DomainName: "example.com"}},
		Total: 1, Page: 1, Size: 20, Pages: 1,
	}}
	c := newComposer(d, nil, nil)
	defer c.Close()

	c.DomainList(context.Background(), 1, 20)
	c.DomainList(context.Background(), 2, 20)
	c.Invalidate("domains", "list")
	c.DomainList(context.Background(), 1, 20)

	if got := d.listCalls.Load(); got != 3 {
		t.Errorf("loader ran %d times, want 3 (two pages then one refetch)", got)
	}
}

func TestOverviewRegionsFailIndependently(t *testing.T) {
	t.Parallel()

	d := &fakeDomains{
		stats: domain.Stats{
			TotalDomains:     10,
			RiskDistribution: map[string]int{"Low": 5, "Medium": 3, "Critical": 2},
		},
		tld: []domain.TLDCount{{TLD: "com", Count: 6}, {TLD: "tk", Count: 4}},
	}
	r := &fakeRisk{err: &domain.NetworkError{URL: "http://api/risk/trends", Err: errors.New("refused")}}
	c := newComposer(d, r, nil)
	defer c.Close()

	cfg := DefaultQueryConfig()
	cfg.MaxRetries = 0
	c.cfg = cfg

	v := c.Overview(context.Background(), 30, 10)
	if v.Stats.State != StateReady {
		t.Errorf("stats state = %v, want ready", v.Stats.State)
	}
	if v.TLD.State != StateReady {
		t.Errorf("tld state = %v, want ready", v.TLD.State)
	}
	if v.Trend.State != StateError {
		t.Errorf("trend state = %v, want error", v.Trend.State)
	}
}

func TestOverviewDistributionOrder(t *testing.T) {
	t.Parallel()

	d := &fakeDomains{stats: domain.Stats{
		TotalDomains:     6,
		RiskDistribution: map[string]int{"Critical": 1, "Low": 3, "Medium": 2},
	}}
	c := newComposer(d, nil, nil)
	defer c.Close()

	v := c.Overview(context.Background(), 30, 10)
	got := v.Stats.Distribution
	want := []TierCount{
		{Label: "Low", StyleTag: "tier-low", Count: 3},
		{Label: "Medium", StyleTag: "tier-medium", Count: 2},
		{Label: "Critical", StyleTag: "tier-critical", Count: 1},
	}
	if len(got) != len(want) {
		t.Fatalf("distribution has %d tiers, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("distribution[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestRiskAnalysisNormalizesBothShapes(t *testing.T) {
	t.Parallel()

	r := &fakeRisk{
		trends:    json.RawMessage(`[{"date":"2026-08-01","avg_risk_score":41.2,"domain_count":7}]`),
		breakdown: json.RawMessage(`{"period_days":7,"breakdown":{"entropy_score":25.0}}`),
	}
	c := newComposer(nil, r, nil)
	defer c.Close()

	v := c.RiskAnalysis(context.Background(), 7)
	if v.Trend.State != StateReady {
		t.Fatalf("trend state = %v, want ready", v.Trend.State)
	}
	if v.Trend.Trend.PeriodDays != 7 {
		t.Errorf("bare-array trend period = %d, want requested 7", v.Trend.Trend.PeriodDays)
	}
	if v.Breakdown.State != StateReady {
		t.Fatalf("breakdown state = %v, want ready", v.Breakdown.State)
	}
	if v.Breakdown.Breakdown.Breakdown["entropy_score"] != 25.0 {
		t.Errorf("breakdown lost factor values: %+v", v.Breakdown.Breakdown)
	}
}

func TestRiskAnalysisMalformedPayloadIsError(t *testing.T) {
	t.Parallel()

	r := &fakeRisk{
		trends:    json.RawMessage(`42`),
		breakdown: json.RawMessage(`{"breakdown":{}}`),
	}
	c := newComposer(nil, r, nil)
	defer c.Close()

	cfg := DefaultQueryConfig()
	cfg.MaxRetries = 0
	c.cfg = cfg

	v := c.RiskAnalysis(context.Background(), 30)
	if v.Trend.State != StateError {
		t.Fatalf("trend state = %v, want error for malformed payload", v.Trend.State)
	}
	var decodeErr *domain.DecodeError
	if !errors.As(v.Trend.Err, &decodeErr) {
		t.Errorf("trend error does not unwrap to DecodeError: %v", v.Trend.Err)
	}
}

func TestNewsEmptyAndReady(t *testing.T) {
	t.Parallel()

	n := &fakeNews{}
	c := newComposer(nil, nil, n)
	defer c.Close()

	if v := c.News(context.Background(), 20); v.State != StateEmpty {
		t.Fatalf("state = %v, want empty with no items", v.State)
	}

	n2 := &fakeNews{page: domain.NewsPage{
		Items:     []domain.NewsItem{{Title: "New phishing wave", Source: "KrebsOnSecurity"}},
		Total:     1,
		UpdatedAt: time.Now(),
	}}
	c2 := newComposer(nil, nil, n2)
	defer c2.Close()

	v := c2.News(context.Background(), 20)
	if v.State != StateReady || len(v.Items) != 1 {
		t.Fatalf("state = %v items = %d, want ready with one item", v.State, len(v.Items))
	}
}

func TestRegionStateFromSnapshot(t *testing.T) {
	t.Parallel()

	if got := RegionState(querycache.Snapshot{}, false); got != StateLoading {
		t.Errorf("unknown key state = %v, want loading", got)
	}
	if got := RegionState(querycache.Snapshot{Status: querycache.StatusSuccess}, true); got != StateReady {
		t.Errorf("success state = %v, want ready", got)
	}
	if got := RegionState(querycache.Snapshot{Status: querycache.StatusError}, true); got != StateError {
		t.Errorf("error state = %v, want error", got)
	}
}
