// Command dashboard renders the monitoring API's pages in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"domainsentry/internal/client"
	"domainsentry/internal/config"
	"domainsentry/internal/querycache"
	"domainsentry/internal/view"
)

var (
	purple = lipgloss.Color("99")
	green  = lipgloss.Color("82")
	yellow = lipgloss.Color("220")
	red    = lipgloss.Color("196")
	gray   = lipgloss.Color("245")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(purple).
			MarginBottom(1)

	dimStyle  = lipgloss.NewStyle().Foreground(gray)
	errStyle  = lipgloss.NewStyle().Foreground(red).Bold(true)
	statStyle = lipgloss.NewStyle().Bold(true)

	tierStyles = map[string]lipgloss.Style{
		"tier-low":      lipgloss.NewStyle().Foreground(green),
		"tier-medium":   lipgloss.NewStyle().Foreground(yellow),
		"tier-critical": lipgloss.NewStyle().Foreground(red).Bold(true),
	}
)

func main() {
	page := flag.String("page", "overview", "page to render: overview, domains, risk, news")
	days := flag.Int("days", 30, "trailing window for risk trends")
	limit := flag.Int("limit", 20, "rows per page")
	pageNum := flag.Int("p", 1, "page number for the domain list")
	flag.Parse()

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "dashboard"})
	cfg, err := config.Load()
	if err != nil {
		logger.Debug("config", "err", err)
	}

	api := client.New(cfg.APIBaseURL, nil, logger)
	exec := querycache.NewExecutor(querycache.NewCache(), logger)
	composer := view.NewComposer(exec, api, api, api, view.DefaultQueryConfig())
	defer composer.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch *page {
	case "overview":
		renderOverview(composer.Overview(ctx, *days, 10))
	case "domains":
		renderDomains(composer.DomainList(ctx, *pageNum, *limit))
	case "risk":
		renderRisk(composer.RiskAnalysis(ctx, *days))
	case "news":
		renderNews(composer.News(ctx, *limit))
	default:
		logger.Fatal("unknown page", "page", *page)
	}
}

func tierStyle(tag string) lipgloss.Style {
	if st, ok := tierStyles[tag]; ok {
		return st
	}
	return dimStyle
}

func renderRegion(r view.Region, render func()) {
	switch r.State {
	case view.StateError:
		fmt.Println(errStyle.Render("error: " + r.Err.Message))
	case view.StateEmpty:
		fmt.Println(dimStyle.Render("no data"))
	default:
		render()
	}
}

func renderOverview(v view.OverviewView) {
	fmt.Println(titleStyle.Render("DomainSentry Overview"))

	renderRegion(v.Stats.Region, func() {
		st := v.Stats.Stats
		fmt.Printf("%s domains monitored, %s active, avg risk %s\n",
			statStyle.Render(fmt.Sprintf("%d", st.TotalDomains)),
			statStyle.Render(fmt.Sprintf("%d", st.ActiveDomains)),
			statStyle.Render(fmt.Sprintf("%.1f", st.AverageRiskScore)))
		parts := make([]string, 0, len(v.Stats.Distribution))
		for _, tc := range v.Stats.Distribution {
			parts = append(parts, tierStyle(tc.StyleTag).Render(fmt.Sprintf("%s %d", tc.Label, tc.Count)))
		}
		fmt.Println(strings.Join(parts, dimStyle.Render("  |  ")))
	})

	fmt.Println(titleStyle.Render("TLD Distribution"))
	renderRegion(v.TLD.Region, func() {
		for _, slice := range v.TLD.Slices {
			bar := strings.Repeat("█", slice.Count)
			fmt.Printf("%-10s %s %d\n", "."+slice.Name,
				lipgloss.NewStyle().Foreground(lipgloss.Color(slice.Color)).Render(bar), slice.Count)
		}
	})

	fmt.Println(titleStyle.Render("Risk Trend"))
	renderTrend(v.Trend)
}

func renderTrend(t view.TrendRegion) {
	renderRegion(t.Region, func() {
		fmt.Println(dimStyle.Render(fmt.Sprintf("trailing %d days", t.Trend.PeriodDays)))
		for _, p := range t.Trend.Trends {
			bar := strings.Repeat("▇", int(p.AvgRiskScore/2))
			fmt.Printf("%s %6.2f %s\n", p.Date, p.AvgRiskScore, bar)
		}
	})
}

func renderDomains(v view.DomainListView) {
	fmt.Println(titleStyle.Render("Monitored Domains"))
	renderRegion(v.Region, func() {
		for _, row := range v.Rows {
			tier := tierStyle(row.Tier.StyleTag()).Render(fmt.Sprintf("%-8s", row.Tier.Label()))
			fmt.Printf("%s %6.2f  %s\n", tier, row.Record.RiskScore, row.Record.DomainName)
		}
		fmt.Println(dimStyle.Render(fmt.Sprintf("page %d/%d, %d total", v.Page, v.Pages, v.Total)))
	})
}

func renderRisk(v view.RiskAnalysisView) {
	fmt.Println(titleStyle.Render("Risk Trend"))
	renderTrend(v.Trend)

	fmt.Println(titleStyle.Render("Factor Breakdown"))
	renderRegion(v.Breakdown.Region, func() {
		factors := make([]string, 0, len(v.Breakdown.Breakdown.Breakdown))
		for factor := range v.Breakdown.Breakdown.Breakdown {
			factors = append(factors, factor)
		}
		sort.Strings(factors)
		for _, factor := range factors {
			fmt.Printf("%-18s %5.1f%%\n", factor, v.Breakdown.Breakdown.Breakdown[factor])
		}
	})
}

func renderNews(v view.NewsView) {
	fmt.Println(titleStyle.Render("Security News"))
	renderRegion(v.Region, func() {
		for _, it := range v.Items {
			fmt.Printf("%s  %s\n", dimStyle.Render(it.PublishedAt.Format("2006-01-02")), statStyle.Render(it.Title))
			if it.Description != "" {
				fmt.Println("  " + it.Description)
			}
			fmt.Println("  " + dimStyle.Render(it.Link))
		}
	})
}
