// Package feeds aggregates security news from RSS sources.
package feeds

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"domainsentry/internal/domain"
	"domainsentry/internal/ports"
)

// maxDescriptionLen bounds stored descriptions; feeds routinely ship whole
// article bodies.
const maxDescriptionLen = 500

type Service struct {
	repo       ports.NewsRepository
	httpClient *http.Client
	logger     *log.Logger
	urls       []string
	now        func() time.Time
}

func New(repo ports.NewsRepository, httpClient *http.Client, logger *log.Logger, urls []string) *Service {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Service{
		repo:       repo,
		httpClient: httpClient,
		logger:     logger,
		urls:       urls,
		now:        time.Now,
	}
}

// Sources lists the configured feed URLs.
func (s *Service) Sources() []string {
	out := make([]string, len(s.urls))
	copy(out, s.urls)
	return out
}

// News serves the most recent stored items.
func (s *Service) News(ctx context.Context, limit int) (domain.NewsPage, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	items, err := s.repo.Recent(ctx, limit)
	if err != nil {
		return domain.NewsPage{}, err
	}
	if items == nil {
		items = []domain.NewsItem{}
	}
	return domain.NewsPage{
		Items:     items,
		Total:     len(items),
		Sources:   s.Sources(),
		UpdatedAt: s.now(),
	}, nil
}

// Refresh pulls every configured feed and stores new items. One failing
// source does not abort the rest; the first error is reported after all
// sources were tried.
func (s *Service) Refresh(ctx context.Context) (int, error) {
	saved := 0
	var firstErr error
	for _, u := range s.urls {
		items, err := s.fetch(ctx, u)
		if err != nil {
			s.logger.Warn("feed fetch failed", "url", u, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		n, err := s.repo.SaveItems(ctx, items)
		if err != nil {
			return saved, err
		}
		saved += n
	}
	return saved, firstErr
}

// rss is the subset of RSS 2.0 we consume.
type rss struct {
	Channel struct {
		Title string    `xml:"title"`
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Author      string `xml:"author"`
	Creator     string `xml:"creator"`
	PubDate     string `xml:"pubDate"`
}

func (s *Service) fetch(ctx context.Context, feedURL string) ([]domain.NewsItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &domain.NetworkError{URL: feedURL, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.HTTPError{URL: feedURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &domain.NetworkError{URL: feedURL, Err: err}
	}

	var doc rss
	if err := xml.Unmarshal(body, &doc); err != nil {
		return nil, &domain.DecodeError{Reason: fmt.Sprintf("parse feed %s", feedURL), Err: err}
	}

	source := strings.TrimSpace(doc.Channel.Title)
	if source == "" {
		source = feedURL
	}
	items := make([]domain.NewsItem, 0, len(doc.Channel.Items))
	for _, it := range doc.Channel.Items {
		if it.Link == "" || it.Title == "" {
			continue
		}
		author := it.Creator
		if author == "" {
			author = it.Author
		}
		items = append(items, domain.NewsItem{
			Title:       strings.TrimSpace(it.Title),
			Link:        strings.TrimSpace(it.Link),
			Description: sanitizeDescription(it.Description),
			Source:      source,
			Author:      strings.TrimSpace(author),
			PublishedAt: parsePubDate(it.PubDate, s.now()),
		})
	}
	return items, nil
}

// sanitizeDescription strips feed HTML down to plain text and truncates.
func sanitizeDescription(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.Contains(text, "<") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
		if err == nil {
			text = doc.Text()
		}
	}
	text = strings.Join(strings.Fields(text), " ")
	if len(text) > maxDescriptionLen {
		cut := strings.LastIndex(text[:maxDescriptionLen], " ")
		if cut <= 0 {
			cut = maxDescriptionLen
		}
		text = text[:cut] + "..."
	}
	return text
}

var pubDateLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
	time.RFC3339,
}

func parsePubDate(raw string, fallback time.Time) time.Time {
	raw = strings.TrimSpace(raw)
	for _, layout := range pubDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return fallback
}
