// Package content fetches an organization's published posts from WordPress or
// from an RSS/Atom feed.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"kitai/config"
	"kitai/logger"
	"kitai/models"
)

// ErrNoSource is returned for organizations without a WordPress or feed URL.
var ErrNoSource = errors.New("organization has no content source configured")

// Source lists posts published within [from, to], newest first.
type Source interface {
	ListPosts(ctx context.Context, from, to time.Time) ([]models.SourceDocument, error)
}

// Options configures the content clients.
type Options struct {
	PerPage    int
	MaxPages   int
	Timeout    time.Duration
	UserAgent  string
	HTTPClient *http.Client
}

func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		PerPage:   cfg.WordPress.PerPage,
		MaxPages:  cfg.WordPress.MaxPages,
		Timeout:   time.Duration(cfg.WordPress.TimeoutSec) * time.Second,
		UserAgent: cfg.WordPress.UserAgent,
	}
}

func (o Options) client() *http.Client {
	if o.HTTPClient != nil {
		return o.HTTPClient
	}
	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

func (o Options) userAgent() string {
	if o.UserAgent == "" {
		return "kitai/1.0"
	}
	return o.UserAgent
}

// ForOrganization picks the WordPress API when the organization has a site URL
// and the feed otherwise.
func ForOrganization(org *models.Organization, opts Options) (Source, error) {
	switch {
	case org == nil:
		return nil, ErrNoSource
	case org.WordPressURL != "":
		return NewWordPressClient(org.WordPressURL, opts), nil
	case org.FeedURL != "":
		return NewFeedSource(org.FeedURL, opts), nil
	default:
		return nil, ErrNoSource
	}
}

type wpRendered struct {
	Rendered string `json:"rendered"`
}

type wpPost struct {
	ID      int64      `json:"id"`
	Date    string     `json:"date"`
	DateGMT string     `json:"date_gmt"`
	Link    string     `json:"link"`
	Title   wpRendered `json:"title"`
	Excerpt wpRendered `json:"excerpt"`
	Content wpRendered `json:"content"`
}

// WordPressClient reads posts from the WordPress REST API.
type WordPressClient struct {
	baseURL    string
	perPage    int
	maxPages   int
	userAgent  string
	httpClient *http.Client
}

func NewWordPressClient(siteURL string, opts Options) *WordPressClient {
	perPage := opts.PerPage
	if perPage <= 0 || perPage > 100 {
		perPage = 100
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = 10
	}
	return &WordPressClient{
		baseURL:    strings.TrimRight(siteURL, "/"),
		perPage:    perPage,
		maxPages:   maxPages,
		userAgent:  opts.userAgent(),
		httpClient: opts.client(),
	}
}

// ListPosts follows X-WP-TotalPages up to the configured page limit.
func (c *WordPressClient) ListPosts(ctx context.Context, from, to time.Time) ([]models.SourceDocument, error) {
	var docs []models.SourceDocument
	totalPages := 1

	for page := 1; page <= totalPages && page <= c.maxPages; page++ {
		posts, total, err := c.fetchPage(ctx, from, to, page)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		totalPages = total
		for _, p := range posts {
			docs = append(docs, p.toDocument())
		}
		if len(posts) < c.perPage {
			break
		}
	}
	if totalPages > c.maxPages {
		logger.Warn("wordpress page limit reached", "site", c.baseURL, "total_pages", totalPages, "max_pages", c.maxPages)
	}

	logger.Info("wordpress posts fetched", "site", c.baseURL, "count", len(docs))
	return docs, nil
}

func (c *WordPressClient) fetchPage(ctx context.Context, from, to time.Time, page int) ([]wpPost, int, error) {
	q := url.Values{}
	if !from.IsZero() {
		q.Set("after", from.UTC().Format(time.RFC3339))
	}
	if !to.IsZero() {
		q.Set("before", to.UTC().Format(time.RFC3339))
	}
	q.Set("per_page", strconv.Itoa(c.perPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("orderby", "date")
	q.Set("order", "desc")
	q.Set("_fields", "id,date,date_gmt,link,title,excerpt,content")

	endpoint := c.baseURL + "/wp-json/wp/v2/posts?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request posts: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, 0, fmt.Errorf("wordpress returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var posts []wpPost
	if err := json.NewDecoder(resp.Body).Decode(&posts); err != nil {
		return nil, 0, fmt.Errorf("decode posts: %w", err)
	}

	total, err := strconv.Atoi(resp.Header.Get("X-WP-TotalPages"))
	if err != nil || total < 1 {
		total = 1
	}
	return posts, total, nil
}

func (p wpPost) toDocument() models.SourceDocument {
	return models.SourceDocument{
		ID:          strconv.FormatInt(p.ID, 10),
		Title:       p.Title.Rendered,
		ExcerptHTML: p.Excerpt.Rendered,
		ContentHTML: p.Content.Rendered,
		Link:        p.Link,
		PublishedAt: parseWPDate(p.DateGMT, p.Date),
	}
}

// parseWPDate prefers date_gmt; WordPress dates carry no zone suffix.
func parseWPDate(gmt, local string) time.Time {
	const layout = "2006-01-02T15:04:05"
	if t, err := time.ParseInLocation(layout, gmt, time.UTC); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, local); err == nil {
		return t
	}
	if t, err := time.ParseInLocation(layout, local, time.UTC); err == nil {
		return t
	}
	return time.Time{}
}
