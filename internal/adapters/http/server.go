// Package httpadapter exposes the services over a REST API.
package httpadapter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"domainsentry/internal/domain"
	"domainsentry/internal/ports"
	domainsvc "domainsentry/internal/services/domains"
	feedsvc "domainsentry/internal/services/feeds"
	risksvc "domainsentry/internal/services/riskanalysis"
)

// Pinger reports whether the backing store is reachable. *pgxpool.Pool
// satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	domains *domainsvc.Service
	risk    *risksvc.Service
	feeds   *feedsvc.Service
	pinger  Pinger
	logger  *log.Logger
}

func New(domains *domainsvc.Service, risk *risksvc.Service, feeds *feedsvc.Service, pinger Pinger, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{domains: domains, risk: risk, feeds: feeds, pinger: pinger, logger: logger}
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.health)
		r.Get("/health/ready", s.ready)

		r.Route("/domains", func(r chi.Router) {
			r.Get("/", s.listDomains)
			r.Post("/", s.createDomain)
			r.Get("/stats/summary", s.stats)
			r.Get("/tld/distribution", s.tldDistribution)
			r.Get("/by-name/{name}", s.getDomainByName)
			r.Get("/{id}", s.getDomain)
		})

		r.Route("/risk", func(r chi.Router) {
			r.Post("/analyze", s.analyze)
			r.Get("/trends", s.riskTrends)
			r.Get("/factor-breakdown", s.factorBreakdown)
			r.Get("/config", s.riskConfig)
		})

		r.Route("/feeds", func(r chi.Router) {
			r.Get("/", s.listNews)
			r.Post("/refresh", s.refreshFeeds)
			r.Get("/sources", s.feedSources)
		})
	})
	return r
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		if err := s.pinger.Ping(r.Context()); err != nil {
			s.logger.Warn("readiness ping failed", "err", err)
			writeError(w, http.StatusServiceUnavailable, "database unreachable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) getDomainByName(w http.ResponseWriter, r *http.Request) {
	rec, err := s.domains.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) listDomains(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := ports.DomainListFilter{
		Page:      queryInt(q.Get("page"), 1),
		Size:      queryInt(q.Get("size"), 20),
		Tier:      q.Get("tier"),
		SortBy:    q.Get("sort_by"),
		SortOrder: q.Get("sort_order"),
	}
	if v := q.Get("min_risk_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid min_risk_score")
			return
		}
		filter.MinRiskScore = &f
	}
	if v := q.Get("max_risk_score"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid max_risk_score")
			return
		}
		filter.MaxRiskScore = &f
	}

	page, err := s.domains.List(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) getDomain(w http.ResponseWriter, r *http.Request) {
	rec, err := s.domains.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) createDomain(w http.ResponseWriter, r *http.Request) {
	var rec domain.DomainRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if rec.DomainName == "" {
		writeError(w, http.StatusBadRequest, "domain_name is required")
		return
	}
	created, err := s.domains.Register(r.Context(), rec)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.domains.Stats(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) tldDistribution(w http.ResponseWriter, r *http.Request) {
	counts, err := s.domains.TLDDistribution(r.Context(), queryInt(r.URL.Query().Get("limit"), 10))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DomainName string `json:"domain_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DomainName == "" {
		writeError(w, http.StatusBadRequest, "domain_name is required")
		return
	}
	analysis, err := s.risk.Analyze(r.Context(), req.DomainName)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) riskTrends(w http.ResponseWriter, r *http.Request) {
	trend, err := s.risk.Trends(r.Context(), queryInt(r.URL.Query().Get("days"), 30))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trend)
}

func (s *Server) factorBreakdown(w http.ResponseWriter, r *http.Request) {
	bd, err := s.risk.FactorBreakdown(r.Context(), queryInt(r.URL.Query().Get("days"), 30))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, bd)
}

func (s *Server) riskConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.risk.Config())
}

func (s *Server) listNews(w http.ResponseWriter, r *http.Request) {
	page, err := s.feeds.News(r.Context(), queryInt(r.URL.Query().Get("limit"), 20))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) refreshFeeds(w http.ResponseWriter, r *http.Request) {
	saved, err := s.feeds.Refresh(r.Context())
	if err != nil {
		s.logger.Warn("manual feed refresh incomplete", "saved", saved, "err", err)
	}
	writeJSON(w, http.StatusOK, map[string]int{"saved": saved})
}

func (s *Server) feedSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"sources": s.feeds.Sources()})
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
