// Package view assembles cached, normalized, classified data into immutable
// page view models. It performs no network I/O of its own; everything flows
// through the query executor.
package view

import (
	"domainsentry/internal/domain"
	"domainsentry/internal/querycache"
	"domainsentry/internal/risk"
	"domainsentry/internal/series"
)

// State is the render state of one data region. Every region is exactly one
// of: loading placeholder, retry-eligible error, explicit no-data, or
// populated content.
type State int

const (
	StateLoading State = iota
	StateError
	StateEmpty
	StateReady
)

func (s State) String() string {
	switch s {
	case StateError:
		return "error"
	case StateEmpty:
		return "empty"
	case StateReady:
		return "ready"
	default:
		return "loading"
	}
}

// Region carries the state shared by all view models. Err is set only when
// State is StateError.
type Region struct {
	State State
	Err   *querycache.ErrorInfo
}

// RegionState maps a cache snapshot to a render state for hosts that poll
// instead of blocking on the composer.
func RegionState(snap querycache.Snapshot, known bool) State {
	if !known {
		return StateLoading
	}
	switch snap.Status {
	case querycache.StatusSuccess:
		return StateReady
	case querycache.StatusError:
		return StateError
	default:
		return StateLoading
	}
}

// DomainRow pairs a record with its display tier, recomputed from the
// current score.
type DomainRow struct {
	Record domain.DomainRecord
	Tier   risk.Tier
}

// DomainListView is the model behind the domains table.
type DomainListView struct {
	Region
	Rows  []DomainRow
	Total int
	Page  int
	Size  int
	Pages int
}

// DomainDetailView is the model behind one domain's detail page.
type DomainDetailView struct {
	Region
	Record domain.DomainRecord
	Tier   risk.Tier
}

// TierCount is one row of the risk distribution breakdown.
type TierCount struct {
	Label    string
	StyleTag string
	Count    int
}

// StatsRegion holds the overview summary cards.
type StatsRegion struct {
	Region
	Stats        domain.Stats
	Distribution []TierCount
}

// TrendRegion holds a normalized risk trend chart series.
type TrendRegion struct {
	Region
	Trend domain.RiskTrend
}

// TLDRegion holds the proportional TLD distribution.
type TLDRegion struct {
	Region
	Slices []series.Slice
}

// BreakdownRegion holds the risk factor breakdown.
type BreakdownRegion struct {
	Region
	Breakdown domain.FactorBreakdown
}

// OverviewView composes the dashboard landing page. Its regions fetch and
// fail independently.
type OverviewView struct {
	Stats StatsRegion
	TLD   TLDRegion
	Trend TrendRegion
}

// RiskAnalysisView composes the risk analysis page.
type RiskAnalysisView struct {
	Trend     TrendRegion
	Breakdown BreakdownRegion
}

// NewsView composes the news feed page.
type NewsView struct {
	Region
	Items []domain.NewsItem
	Total int
}
