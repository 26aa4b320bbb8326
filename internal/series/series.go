// Package series converts heterogeneous aggregate payloads from the backend
// into the canonical chart-ready shapes consumed by view composition.
package series

import (
	"bytes"
	"encoding/json"
	"sort"
	"time"

	"domainsentry/internal/domain"
)

// palette cycles through slice colors by position, so a given input order
// always yields the same assignment.
var palette = []string{
	"#3b82f6", "#22c55e", "#eab308", "#ef4444",
	"#8b5cf6", "#14b8a6", "#f97316", "#64748b",
}

// Slice is one proportional segment of a category distribution.
type Slice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Count int    `json:"count"`
	Color string `json:"color"`
}

// NormalizeTrend resolves the two legal wire shapes for trend data, a bare
// array of timeline points or the wrapper {period_days, trends, updated_at},
// into the canonical wrapper. Missing wrapper fields default to the
// requested window and to now. Anything matching neither shape fails closed
// with a *domain.DecodeError; an empty array is a valid empty trend, not an
// error.
func NormalizeTrend(raw json.RawMessage, requestedDays int, now time.Time) (domain.RiskTrend, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return domain.RiskTrend{}, &domain.DecodeError{Reason: "empty trend payload"}
	}

	switch trimmed[0] {
	case '[':
		var points []domain.TimelinePoint
		if err := json.Unmarshal(trimmed, &points); err != nil {
			return domain.RiskTrend{}, &domain.DecodeError{Reason: "trend array", Err: err}
		}
		trend := domain.RiskTrend{
			PeriodDays: requestedDays,
			Trends:     points,
			UpdatedAt:  now,
		}
		return finishTrend(trend, requestedDays, now)

	case '{':
		var wrapper struct {
			PeriodDays int                     `json:"period_days"`
			Trends     *[]domain.TimelinePoint `json:"trends"`
			UpdatedAt  time.Time               `json:"updated_at"`
		}
		if err := json.Unmarshal(trimmed, &wrapper); err != nil {
			return domain.RiskTrend{}, &domain.DecodeError{Reason: "trend wrapper", Err: err}
		}
		if wrapper.Trends == nil {
			return domain.RiskTrend{}, &domain.DecodeError{Reason: "trend wrapper missing trends field"}
		}
		trend := domain.RiskTrend{
			PeriodDays: wrapper.PeriodDays,
			Trends:     *wrapper.Trends,
			UpdatedAt:  wrapper.UpdatedAt,
		}
		return finishTrend(trend, requestedDays, now)

	default:
		return domain.RiskTrend{}, &domain.DecodeError{Reason: "trend payload is neither array nor object"}
	}
}

func finishTrend(trend domain.RiskTrend, requestedDays int, now time.Time) (domain.RiskTrend, error) {
	if trend.PeriodDays == 0 {
		trend.PeriodDays = requestedDays
	}
	if trend.UpdatedAt.IsZero() {
		trend.UpdatedAt = now
	}
	if trend.Trends == nil {
		trend.Trends = []domain.TimelinePoint{}
	}

	// ISO dates order lexically; sort ascending, then reject duplicates.
	sort.SliceStable(trend.Trends, func(i, j int) bool {
		return trend.Trends[i].Date < trend.Trends[j].Date
	})
	for i := 1; i < len(trend.Trends); i++ {
		if trend.Trends[i].Date == trend.Trends[i-1].Date {
			return domain.RiskTrend{}, &domain.DecodeError{
				Reason: "duplicate trend date " + trend.Trends[i].Date,
			}
		}
	}

	return trend, nil
}

// NormalizeDistribution turns TLD counts into proportional display slices
// with a deterministic color per position.
func NormalizeDistribution(counts []domain.TLDCount) []Slice {
	slices := make([]Slice, len(counts))
	for i, c := range counts {
		slices[i] = Slice{
			Name:  c.TLD,
			Value: c.Count,
			Count: c.Count,
			Color: palette[i%len(palette)],
		}
	}
	return slices
}

// NormalizeBreakdown decodes a factor-breakdown wrapper, defaulting the
// window and timestamp like NormalizeTrend. A payload without a breakdown
// mapping fails closed.
func NormalizeBreakdown(raw json.RawMessage, requestedDays int, now time.Time) (domain.FactorBreakdown, error) {
	var wrapper struct {
		PeriodDays int                 `json:"period_days"`
		Breakdown  *map[string]float64 `json:"breakdown"`
		UpdatedAt  time.Time           `json:"updated_at"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return domain.FactorBreakdown{}, &domain.DecodeError{Reason: "factor breakdown", Err: err}
	}
	if wrapper.Breakdown == nil {
		return domain.FactorBreakdown{}, &domain.DecodeError{Reason: "payload missing breakdown field"}
	}

	out := domain.FactorBreakdown{
		PeriodDays: wrapper.PeriodDays,
		Breakdown:  *wrapper.Breakdown,
		UpdatedAt:  wrapper.UpdatedAt,
	}
	if out.PeriodDays == 0 {
		out.PeriodDays = requestedDays
	}
	if out.UpdatedAt.IsZero() {
		out.UpdatedAt = now
	}
	return out, nil
}
