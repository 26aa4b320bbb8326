package domain

import "time"

// Core models shared by the API server and the dashboard client. Wire shapes
// match the JSON the /api/v1 endpoints produce and consume.

// DomainRecord is one monitored domain with its current risk assessment.
type DomainRecord struct {
	ID                     string             `json:"id"`
	DomainName             string             `json:"domain_name"`
	TLD                    string             `json:"tld,omitempty"`
	RiskScore              float64            `json:"risk_score"`
	RiskFactors            map[string]float64 `json:"risk_factors,omitempty"`
	IsActive               bool               `json:"is_active"`
	Registrar              string             `json:"registrar,omitempty"`
	RegistrantName         string             `json:"registrant_name,omitempty"`
	RegistrantOrganization string             `json:"registrant_organization,omitempty"`
	RegistrantCountry      string             `json:"registrant_country,omitempty"`
	RegistrantEmail        string             `json:"registrant_email,omitempty"`
	NameServers            []string           `json:"name_servers,omitempty"`
	ThreatIndicators       []string           `json:"threat_indicators,omitempty"`
	CertificateIssuer      string             `json:"certificate_issuer,omitempty"`
	CertificateSubject     string             `json:"certificate_subject,omitempty"`
	CertificateValidFrom   *time.Time         `json:"certificate_valid_from,omitempty"`
	CertificateValidTo     *time.Time         `json:"certificate_valid_to,omitempty"`
	Source                 string             `json:"source,omitempty"`
	RegisteredDate         *time.Time         `json:"registered_date,omitempty"`
	CreatedAt              time.Time          `json:"created_at"`
	UpdatedAt              time.Time          `json:"updated_at"`
}

// DomainPage is a paginated slice of domain records.
type DomainPage struct {
	Items []DomainRecord `json:"items"`
	Total int            `json:"total"`
	Page  int            `json:"page"`
	Size  int            `json:"size"`
	Pages int            `json:"pages"`
}

// Stats summarizes the monitored corpus for the overview page.
// RiskDistribution is keyed by tier label (Low, Medium, Critical).
type Stats struct {
	TotalDomains      int            `json:"total_domains"`
	ActiveDomains     int            `json:"active_domains"`
	AverageRiskScore  float64        `json:"average_risk_score"`
	DomainsAddedToday int            `json:"domains_added_today"`
	RiskDistribution  map[string]int `json:"risk_distribution"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// TimelinePoint is one day's aggregate risk statistic. Date is a calendar
// day in ISO form (2006-01-02); lexical order equals chronological order.
type TimelinePoint struct {
	Date         string  `json:"date"`
	AvgRiskScore float64 `json:"avg_risk_score"`
	DomainCount  int     `json:"domain_count"`
}

// RiskTrend is the canonical wrapper shape for a trailing window of
// timeline points, ordered by date ascending with no duplicate dates.
type RiskTrend struct {
	PeriodDays int             `json:"period_days"`
	Trends     []TimelinePoint `json:"trends"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// FactorBreakdown maps risk factor names to their percentage contribution
// over a trailing window.
type FactorBreakdown struct {
	PeriodDays int                `json:"period_days"`
	Breakdown  map[string]float64 `json:"breakdown"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// TLDCount is one row of the TLD distribution aggregate.
type TLDCount struct {
	TLD   string `json:"tld"`
	Count int    `json:"count"`
}

// NewsItem is one entry from an aggregated security news feed. Immutable
// once fetched; the backend orders by published_at descending.
type NewsItem struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description,omitempty"`
	Source      string    `json:"source"`
	Author      string    `json:"author,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// NewsPage is the news feed response envelope.
type NewsPage struct {
	Items     []NewsItem `json:"items"`
	Total     int        `json:"total"`
	Sources   []string   `json:"sources,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}
