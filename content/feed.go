package content

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"

	"kitai/logger"
	"kitai/models"
)

// FeedSource reads posts from an RSS or Atom feed.
type FeedSource struct {
	url    string
	parser *gofeed.Parser
}

func NewFeedSource(feedURL string, opts Options) *FeedSource {
	parser := gofeed.NewParser()
	parser.Client = opts.client()
	parser.UserAgent = opts.userAgent()
	return &FeedSource{url: feedURL, parser: parser}
}

// ListPosts returns the feed items published within [from, to], newest first.
// Items without a parseable date are skipped.
func (f *FeedSource) ListPosts(ctx context.Context, from, to time.Time) ([]models.SourceDocument, error) {
	feed, err := f.parser.ParseURLWithContext(f.url, ctx)
	if err != nil {
		var httpErr gofeed.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("feed not found: %s", f.url)
		}
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	var (
		docs    []models.SourceDocument
		undated int
	)
	for _, item := range feed.Items {
		if item == nil || item.Link == "" {
			continue
		}
		published := itemDate(item)
		if published.IsZero() {
			undated++
			continue
		}
		if (!from.IsZero() && published.Before(from)) || (!to.IsZero() && published.After(to)) {
			continue
		}
		content := item.Content
		if content == "" {
			content = item.Description
		}
		id := item.GUID
		if id == "" {
			id = item.Link
		}
		docs = append(docs, models.SourceDocument{
			ID:          id,
			Title:       item.Title,
			ExcerptHTML: item.Description,
			ContentHTML: content,
			Link:        item.Link,
			PublishedAt: published,
		})
	}

	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].PublishedAt.After(docs[j].PublishedAt)
	})

	logger.Info("feed items fetched", "feed", f.url, "count", len(docs), "undated", undated)
	return docs, nil
}

func itemDate(item *gofeed.Item) time.Time {
	if item.PublishedParsed != nil {
		return item.PublishedParsed.UTC()
	}
	if item.UpdatedParsed != nil {
		return item.UpdatedParsed.UTC()
	}
	return time.Time{}
}
