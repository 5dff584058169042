package scraper

import (
	"context"

	"tagscraper/pkg/instagram"
	"tagscraper/pkg/session"
)

// PageFetcher issues one classified network attempt for a page of
// hashtag-indexed posts. The Instagram client implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, sess *session.Session, req instagram.PageRequest) (*instagram.Page, error)
}

// InfoFetcher fetches hashtag metadata. The Instagram client implements it.
type InfoFetcher interface {
	FetchHashtagInfo(ctx context.Context, sess *session.Session, tag string) (*instagram.HashtagInfo, error)
}
