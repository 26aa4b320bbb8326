package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"domainsentry/internal/domain"
	"domainsentry/internal/ports"
)

// DomainStore implements ports.DomainRepository.
type DomainStore struct {
	db *DB
}

func NewDomainStore(db *DB) *DomainStore { return &DomainStore{db: db} }

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const domainColumns = `id, domain_name, tld, risk_score, risk_factors, is_active,
	registrar, registrant_name, registrant_organization, registrant_country, registrant_email,
	name_servers, threat_indicators, certificate_issuer, certificate_subject,
	certificate_valid_from, certificate_valid_to, source, registered_date, created_at, updated_at`

// sortColumns whitelists client-supplied sort fields.
var sortColumns = map[string]string{
	"risk_score":  "risk_score",
	"created_at":  "created_at",
	"updated_at":  "updated_at",
	"domain_name": "domain_name",
}

func (s *DomainStore) List(ctx context.Context, filter ports.DomainListFilter) ([]domain.DomainRecord, int, error) {
	where := filterConditions(filter)

	countSQL, countArgs, err := psql.Select("COUNT(*)").From("domains").Where(where).ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := s.db.Pool.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	col, ok := sortColumns[filter.SortBy]
	if !ok {
		col = "risk_score"
	}
	dir := "DESC"
	if strings.EqualFold(filter.SortOrder, "asc") {
		dir = "ASC"
	}
	page, size := filter.Page, filter.Size
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	listSQL, listArgs, err := psql.Select(domainColumns).
		From("domains").
		Where(where).
		OrderBy(col + " " + dir).
		Limit(uint64(size)).
		Offset(uint64((page - 1) * size)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := s.db.Pool.Query(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]domain.DomainRecord, 0, size)
	for rows.Next() {
		rec, err := scanDomain(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}

// filterConditions maps tier names to their score ranges so filtering and
// classification never disagree: Low [0,40), Medium [40,70), Critical [70,].
func filterConditions(filter ports.DomainListFilter) sq.And {
	cond := sq.And{sq.Expr("TRUE")}
	switch strings.ToLower(filter.Tier) {
	case "low":
		cond = append(cond, sq.Lt{"risk_score": 40})
	case "medium":
		cond = append(cond, sq.GtOrEq{"risk_score": 40}, sq.Lt{"risk_score": 70})
	case "critical":
		cond = append(cond, sq.GtOrEq{"risk_score": 70})
	}
	if filter.MinRiskScore != nil {
		cond = append(cond, sq.GtOrEq{"risk_score": *filter.MinRiskScore})
	}
	if filter.MaxRiskScore != nil {
		cond = append(cond, sq.LtOrEq{"risk_score": *filter.MaxRiskScore})
	}
	return cond
}

func (s *DomainStore) Get(ctx context.Context, id string) (domain.DomainRecord, error) {
	row := s.db.Pool.QueryRow(ctx, `SELECT `+domainColumns+` FROM domains WHERE id = $1`, id)
	rec, err := scanDomain(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DomainRecord{}, domain.ErrNotFound
	}
	return rec, err
}

func (s *DomainStore) GetByName(ctx context.Context, name string) (domain.DomainRecord, error) {
	row := s.db.Pool.QueryRow(ctx, `SELECT `+domainColumns+` FROM domains WHERE domain_name = $1`, strings.ToLower(name))
	rec, err := scanDomain(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.DomainRecord{}, domain.ErrNotFound
	}
	return rec, err
}

func (s *DomainStore) Create(ctx context.Context, rec domain.DomainRecord) (domain.DomainRecord, error) {
	factors := rec.RiskFactors
	if factors == nil {
		factors = map[string]float64{}
	}
	row := s.db.Pool.QueryRow(ctx, `
		INSERT INTO domains (
			domain_name, tld, risk_score, risk_factors, is_active,
			registrar, registrant_name, registrant_organization, registrant_country, registrant_email,
			name_servers, threat_indicators, certificate_issuer, certificate_subject,
			certificate_valid_from, certificate_valid_to, source, registered_date
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING `+domainColumns,
		strings.ToLower(rec.DomainName), rec.TLD, rec.RiskScore, factors, rec.IsActive,
		rec.Registrar, rec.RegistrantName, rec.RegistrantOrganization, rec.RegistrantCountry, rec.RegistrantEmail,
		rec.NameServers, rec.ThreatIndicators, rec.CertificateIssuer, rec.CertificateSubject,
		rec.CertificateValidFrom, rec.CertificateValidTo, rec.Source, rec.RegisteredDate,
	)
	return scanDomain(row)
}

func (s *DomainStore) UpdateRisk(ctx context.Context, id string, score float64, factors map[string]float64) error {
	if factors == nil {
		factors = map[string]float64{}
	}
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE domains
		SET risk_score = $2, risk_factors = $3, updated_at = now()
		WHERE id = $1
	`, id, score, factors)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Stats aggregates the corpus in one pass. The tier buckets use the same
// boundaries as the classifier: 40 and 70 belong to the higher tier.
func (s *DomainStore) Stats(ctx context.Context, now time.Time) (domain.Stats, error) {
	st := domain.Stats{UpdatedAt: now}
	dayStart := now.UTC().Truncate(24 * time.Hour)

	var low, medium, critical int
	err := s.db.Pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COALESCE(AVG(risk_score), 0),
			COUNT(*) FILTER (WHERE created_at >= $1),
			COUNT(*) FILTER (WHERE risk_score < 40),
			COUNT(*) FILTER (WHERE risk_score >= 40 AND risk_score < 70),
			COUNT(*) FILTER (WHERE risk_score >= 70)
		FROM domains
	`, dayStart).Scan(
		&st.TotalDomains, &st.ActiveDomains, &st.AverageRiskScore,
		&st.DomainsAddedToday, &low, &medium, &critical,
	)
	if err != nil {
		return domain.Stats{}, err
	}
	st.RiskDistribution = map[string]int{
		"Low":      low,
		"Medium":   medium,
		"Critical": critical,
	}
	return st, nil
}

func (s *DomainStore) TLDDistribution(ctx context.Context, limit int) ([]domain.TLDCount, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := s.db.Pool.Query(ctx, `
		SELECT tld, COUNT(*) AS n
		FROM domains
		WHERE tld <> ''
		GROUP BY tld
		ORDER BY n DESC, tld ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.TLDCount, 0, limit)
	for rows.Next() {
		var tc domain.TLDCount
		if err := rows.Scan(&tc.TLD, &tc.Count); err != nil {
			return nil, err
		}
		out = append(out, tc)
	}
	return out, rows.Err()
}

// RiskTrends returns one point per calendar day in the trailing window,
// zero-filled so the chart never has gaps.
func (s *DomainStore) RiskTrends(ctx context.Context, days int, now time.Time) ([]domain.TimelinePoint, error) {
	if days < 1 {
		days = 30
	}
	rows, err := s.db.Pool.Query(ctx, `
		SELECT
			to_char(day, 'YYYY-MM-DD'),
			COALESCE(ROUND(AVG(d.risk_score)::numeric, 2), 0)::float8,
			COUNT(d.id)
		FROM generate_series(
			($2::timestamptz AT TIME ZONE 'UTC')::date - ($1::int - 1),
			($2::timestamptz AT TIME ZONE 'UTC')::date,
			'1 day'
		) AS day
		LEFT JOIN domains d ON (d.created_at AT TIME ZONE 'UTC')::date = day
		GROUP BY day
		ORDER BY day ASC
	`, days, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	points := make([]domain.TimelinePoint, 0, days)
	for rows.Next() {
		var p domain.TimelinePoint
		if err := rows.Scan(&p.Date, &p.AvgRiskScore, &p.DomainCount); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}

func scanDomain(row pgx.Row) (domain.DomainRecord, error) {
	var rec domain.DomainRecord
	err := row.Scan(
		&rec.ID, &rec.DomainName, &rec.TLD, &rec.RiskScore, &rec.RiskFactors, &rec.IsActive,
		&rec.Registrar, &rec.RegistrantName, &rec.RegistrantOrganization, &rec.RegistrantCountry, &rec.RegistrantEmail,
		&rec.NameServers, &rec.ThreatIndicators, &rec.CertificateIssuer, &rec.CertificateSubject,
		&rec.CertificateValidFrom, &rec.CertificateValidTo, &rec.Source, &rec.RegisteredDate, &rec.CreatedAt, &rec.UpdatedAt,
	)
	return rec, err
}
