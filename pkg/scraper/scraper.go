package scraper

import (
	"context"
	"fmt"
	"time"

	"tagscraper/pkg/config"
	"tagscraper/pkg/instagram"
	"tagscraper/pkg/logger"
	"tagscraper/pkg/models"
	"tagscraper/pkg/pacing"
	"tagscraper/pkg/ratelimit"
	"tagscraper/pkg/session"
)

// Client is the slice of the Instagram client the scraper needs
type Client interface {
	PageFetcher
	InfoFetcher
}

// Options control one scrape run
type Options struct {
	MaxRecent  int
	MaxTop     int
	IncludeTop bool
}

// Scraper walks a hashtag's recent and top posts through the rate-limited
// pagination engine and maps the raw pages into post records. The session is
// passed into every run explicitly; the scraper holds no account state.
type Scraper struct {
	client    Client
	executor  *Executor
	paginator *Paginator
	config    *config.Config
	logger    logger.Logger
}

// New creates a scraper wired per the configuration
func New(cfg *config.Config, client Client, log logger.Logger) *Scraper {
	if log == nil {
		log = logger.GetLogger()
	}

	policy := pacing.New(
		cfg.Pacing.MinDelay,
		cfg.Pacing.MaxDelay,
		cfg.Retry.BackoffBase,
		cfg.Retry.BackoffCap,
		cfg.Retry.BackoffMultiplier,
		cfg.Retry.JitterFactor,
	)

	limiter := ratelimit.NewTokenBucket(cfg.Budget.RequestsPerMinute, time.Minute)

	executor := NewExecutor(client, policy, limiter, cfg.Retry.MaxAttempts, log)
	paginator := NewPaginator(executor, cfg.Budget.MaxEmptyPages, cfg.Budget.MaxConsecutiveFailures, log)

	return &Scraper{
		client:    client,
		executor:  executor,
		paginator: paginator,
		config:    cfg,
		logger:    log,
	}
}

// Executor exposes the request executor, mainly for warm-up and tests
func (s *Scraper) Executor() *Executor {
	return s.executor
}

// ScrapeHashtag scrapes a hashtag's posts into a document. When a run fails
// mid-stream the document holds every post already produced and the error
// describes why the run stopped; the result is never silently truncated.
func (s *Scraper) ScrapeHashtag(ctx context.Context, sess *session.Session, tag string, opts Options) (*models.HashtagDocument, error) {
	tag = instagram.NormalizeHashtag(tag)
	if !instagram.IsValidHashtag(tag) {
		return nil, fmt.Errorf("invalid hashtag: %q", tag)
	}

	s.logger.InfoWithFields("starting hashtag scrape", map[string]interface{}{
		"hashtag":    tag,
		"max_recent": opts.MaxRecent,
		"max_top":    opts.MaxTop,
	})

	doc := &models.HashtagDocument{
		Hashtag:     tag,
		ScrapedAt:   time.Now().UTC(),
		RecentPosts: []models.Post{},
		TopPosts:    []models.Post{},
	}

	info, err := s.client.FetchHashtagInfo(ctx, sess, tag)
	if err != nil {
		return doc, fmt.Errorf("failed to fetch hashtag info: %w", err)
	}
	doc.HashtagInfo = models.FromHashtagInfo(info)

	doc.RecentPosts, err = s.scrapeTab(ctx, sess, Query{Hashtag: tag, Tab: instagram.TabRecent}, opts.MaxRecent)
	doc.TotalPostsScraped = len(doc.RecentPosts)
	if err != nil {
		return doc, err
	}
	s.logger.InfoWithFields("recent posts scraped", map[string]interface{}{
		"hashtag": tag,
		"count":   len(doc.RecentPosts),
	})

	if opts.IncludeTop {
		doc.TopPosts, err = s.scrapeTab(ctx, sess, Query{Hashtag: tag, Tab: instagram.TabTop}, opts.MaxTop)
		doc.TotalPostsScraped += len(doc.TopPosts)
		if err != nil {
			return doc, err
		}
		s.logger.InfoWithFields("top posts scraped", map[string]interface{}{
			"hashtag": tag,
			"count":   len(doc.TopPosts),
		})
	}

	s.logger.InfoWithFields("hashtag scrape complete", map[string]interface{}{
		"hashtag": tag,
		"total":   doc.TotalPostsScraped,
	})

	return doc, nil
}

// scrapeTab walks one tab of the hashtag result set up to maxItems posts.
// Pages already consumed are kept even when the sequence ends in an error.
func (s *Scraper) scrapeTab(ctx context.Context, sess *session.Session, query Query, maxItems int) ([]models.Post, error) {
	posts := []models.Post{}

	seq := s.paginator.Pages(ctx, sess, query, maxItems)
	for seq.Next() {
		page := seq.Page()
		for i := range page.Items {
			if len(posts) >= maxItems {
				break
			}
			posts = append(posts, models.FromMedia(&page.Items[i]))
		}
	}

	if err := seq.Err(); err != nil {
		return posts, fmt.Errorf("pagination stopped for #%s (%s): %w", query.Hashtag, query.Tab, err)
	}

	return posts, nil
}
