package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"kitai/logger"
	"kitai/models"
)

var ErrInvalidURL = errors.New("URL inválida")

const (
	defaultOEmbedURL = "https://publish.twitter.com/oembed"
	maxPageBytes     = 2 << 20
)

// MetadataOptions configures URL metadata extraction.
type MetadataOptions struct {
	Timeout    time.Duration
	TTL        time.Duration
	UserAgent  string
	OEmbedURL  string
	HTTPClient *http.Client
}

// MetadataService extracts link previews. Twitter/X status URLs go through the
// public oEmbed endpoint; other pages are parsed for OpenGraph, Twitter card and
// standard meta tags.
type MetadataService struct {
	cache      MetadataCache
	httpClient *http.Client
	ttl        time.Duration
	userAgent  string
	oembedURL  string
}

func NewMetadataService(cache MetadataCache, opts MetadataOptions) *MetadataService {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	if opts.TTL <= 0 {
		opts.TTL = time.Hour
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "Mozilla/5.0 (compatible; kitai/1.0)"
	}
	if opts.OEmbedURL == "" {
		opts.OEmbedURL = defaultOEmbedURL
	}
	return &MetadataService{
		cache:      cache,
		httpClient: client,
		ttl:        opts.TTL,
		userAgent:  opts.UserAgent,
		oembedURL:  opts.OEmbedURL,
	}
}

// Fetch returns the metadata of rawURL, from cache when possible.
func (s *MetadataService) Fetch(ctx context.Context, rawURL string) (*models.URLMetadata, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, ErrInvalidURL
	}
	key := "urlmeta:" + u.String()

	if s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, key); err != nil {
			logger.Warn("metadata cache read failed", "url", u.String(), "error", err)
		} else if ok {
			var meta models.URLMetadata
			if err := json.Unmarshal([]byte(cached), &meta); err == nil {
				return &meta, nil
			}
		}
	}

	var meta *models.URLMetadata
	if IsTwitterStatus(u) {
		meta, err = s.fetchTweet(ctx, u)
	} else {
		meta, err = s.fetchPage(ctx, u)
	}
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(meta); err == nil {
			if err := s.cache.Set(ctx, key, string(raw), s.ttl); err != nil {
				logger.Warn("metadata cache write failed", "url", u.String(), "error", err)
			}
		}
	}
	return meta, nil
}

// IsTwitterStatus reports whether u points at a single post on twitter.com or x.com.
func IsTwitterStatus(u *url.URL) bool {
	host := strings.ToLower(u.Hostname())
	host = strings.TrimPrefix(host, "www.")
	host = strings.TrimPrefix(host, "mobile.")
	if host != "twitter.com" && host != "x.com" {
		return false
	}
	return strings.Contains(u.Path, "/status/")
}

type oembedResponse struct {
	AuthorName   string `json:"author_name"`
	AuthorURL    string `json:"author_url"`
	HTML         string `json:"html"`
	ProviderName string `json:"provider_name"`
}

func (s *MetadataService) fetchTweet(ctx context.Context, u *url.URL) (*models.URLMetadata, error) {
	q := url.Values{}
	q.Set("url", u.String())
	q.Set("omit_script", "true")
	q.Set("dnt", "true")

	body, err := s.get(ctx, s.oembedURL+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("oembed: %w", err)
	}
	defer body.Close()

	var oe oembedResponse
	if err := json.NewDecoder(body).Decode(&oe); err != nil {
		return nil, fmt.Errorf("decode oembed: %w", err)
	}

	text := ""
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(oe.HTML)); err == nil {
		text = strings.TrimSpace(doc.Find("blockquote p").First().Text())
	}
	site := oe.ProviderName
	if site == "" {
		site = "X"
	}
	return &models.URLMetadata{
		URL:         u.String(),
		Title:       fmt.Sprintf("Post de %s", oe.AuthorName),
		Description: text,
		SiteName:    site,
		Author:      oe.AuthorName,
		Type:        "twitter",
		HTML:        oe.HTML,
	}, nil
}

func (s *MetadataService) fetchPage(ctx context.Context, u *url.URL) (*models.URLMetadata, error) {
	body, err := s.get(ctx, u.String())
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return ExtractMetadata(doc, u), nil
}

// ExtractMetadata reads OpenGraph, Twitter card and standard tags from doc.
func ExtractMetadata(doc *goquery.Document, u *url.URL) *models.URLMetadata {
	meta := &models.URLMetadata{
		URL:         u.String(),
		Title:       firstNonEmpty(metaContent(doc, "og:title"), metaContent(doc, "twitter:title"), strings.TrimSpace(doc.Find("title").First().Text())),
		Description: firstNonEmpty(metaContent(doc, "og:description"), metaContent(doc, "twitter:description"), metaContent(doc, "description")),
		Image:       firstNonEmpty(metaContent(doc, "og:image"), metaContent(doc, "og:image:url"), metaContent(doc, "twitter:image")),
		SiteName:    firstNonEmpty(metaContent(doc, "og:site_name"), u.Hostname()),
		Author:      firstNonEmpty(metaContent(doc, "author"), metaContent(doc, "article:author"), metaContent(doc, "twitter:creator")),
		Type:        firstNonEmpty(metaContent(doc, "og:type"), "website"),
	}
	if meta.Image != "" {
		if ref, err := url.Parse(meta.Image); err == nil {
			meta.Image = u.ResolveReference(ref).String()
		}
	}
	return meta
}

// metaContent looks the key up as both property= and name=.
func metaContent(doc *goquery.Document, key string) string {
	sel := doc.Find(fmt.Sprintf(`meta[property=%q], meta[name=%q]`, key, key)).First()
	v, _ := sel.Attr("content")
	return strings.TrimSpace(v)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (s *MetadataService) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", target, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("%s returned %s", target, resp.Status)
	}
	return resp.Body, nil
}
