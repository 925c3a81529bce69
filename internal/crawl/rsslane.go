package crawl

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"catchup-feed/internal/domain/entity"
	"catchup-feed/internal/normalize"
	"catchup-feed/internal/resilience/circuitbreaker"
	"catchup-feed/internal/resilience/retry"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"
)

// rssFetcher wraps gofeed with the teacher's circuit-breaker/retry
// wiring, adapted to emit minimal entity.Page records (title, summary,
// url) rather than the old Article-shaped feed item.
type rssFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

func newRSSFetcher(client *http.Client) *rssFetcher {
	return &rssFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

func (f *rssFetcher) fetch(ctx context.Context, feedURL string) ([]*entity.Page, error) {
	var pages []*entity.Page

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		result, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("rss lane circuit breaker open",
					slog.String("feed", feedURL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}
		pages = result.([]*entity.Page)
		return nil
	})
	if retryErr != nil {
		return nil, retryErr
	}
	return pages, nil
}

func (f *rssFetcher) doFetch(ctx context.Context, feedURL string) ([]*entity.Page, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = "CatchUpCrawlerBot/1.0"
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	pages := make([]*entity.Page, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link == "" {
			continue
		}
		content := item.Content
		if content == "" {
			content = item.Description
		}
		pages = append(pages, &entity.Page{
			URL:     item.Link,
			Title:   normalize.NormWS(item.Title),
			Summary: normalize.Clip(normalize.NormWS(content), 800),
		})
	}
	return pages, nil
}
