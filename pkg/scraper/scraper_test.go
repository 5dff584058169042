package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tagscraper/pkg/config"
	errs "tagscraper/pkg/errors"
	"tagscraper/pkg/instagram"
	"tagscraper/pkg/logger"
	"tagscraper/pkg/session"
)

// fakeClient scripts both the info endpoint and per-tab page sequences
type fakeClient struct {
	info    *instagram.HashtagInfo
	infoErr error

	pagesByTab map[string][]fetchResult
	callsByTab map[string]int
}

func (f *fakeClient) FetchHashtagInfo(ctx context.Context, sess *session.Session, tag string) (*instagram.HashtagInfo, error) {
	if f.infoErr != nil {
		return nil, f.infoErr
	}
	return f.info, nil
}

func (f *fakeClient) FetchPage(ctx context.Context, sess *session.Session, req instagram.PageRequest) (*instagram.Page, error) {
	if f.callsByTab == nil {
		f.callsByTab = make(map[string]int)
	}
	i := f.callsByTab[req.Tab]
	f.callsByTab[req.Tab]++

	results := f.pagesByTab[req.Tab]
	if i >= len(results) {
		i = len(results) - 1
	}
	return results[i].page, results[i].err
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Pacing.MinDelay = 0
	cfg.Pacing.MaxDelay = 0
	cfg.Retry.BackoffBase = time.Millisecond
	cfg.Retry.BackoffCap = 4 * time.Millisecond
	cfg.Budget.RequestsPerMinute = 10000
	return cfg
}

func mediaPage(ids []string, cursor string) *instagram.Page {
	items := make([]instagram.Media, len(ids))
	for i, id := range ids {
		items[i] = instagram.Media{ID: id, User: instagram.MediaUser{PK: 1, Username: "alice"}}
	}
	return &instagram.Page{Items: items, NextCursor: cursor}
}

func TestScrapeHashtag(t *testing.T) {
	client := &fakeClient{
		info: &instagram.HashtagInfo{ID: 5, Name: "cats", MediaCount: 100},
		pagesByTab: map[string][]fetchResult{
			instagram.TabRecent: {
				{page: mediaPage([]string{"1", "2"}, "c1")},
				{page: mediaPage([]string{"3"}, "")},
			},
			instagram.TabTop: {
				{page: mediaPage([]string{"t1"}, "")},
			},
		},
	}

	s := New(testConfig(), client, logger.NewTestLogger())
	doc, err := s.ScrapeHashtag(context.Background(), validSession(), "#Cats", Options{
		MaxRecent:  10,
		MaxTop:     9,
		IncludeTop: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "cats", doc.Hashtag)
	assert.Equal(t, "5", doc.HashtagInfo.ID)
	require.Len(t, doc.RecentPosts, 3)
	assert.Equal(t, "1", doc.RecentPosts[0].PostID)
	require.Len(t, doc.TopPosts, 1)
	assert.Equal(t, 4, doc.TotalPostsScraped)
}

func TestScrapeHashtagTruncatesAtMaxItems(t *testing.T) {
	client := &fakeClient{
		info: &instagram.HashtagInfo{Name: "cats"},
		pagesByTab: map[string][]fetchResult{
			instagram.TabRecent: {
				{page: mediaPage([]string{"1", "2", "3", "4", "5"}, "c1")},
			},
		},
	}

	s := New(testConfig(), client, logger.NewTestLogger())
	doc, err := s.ScrapeHashtag(context.Background(), validSession(), "cats", Options{MaxRecent: 3})
	require.NoError(t, err)
	assert.Len(t, doc.RecentPosts, 3)
}

func TestScrapeHashtagSkipsTop(t *testing.T) {
	client := &fakeClient{
		info: &instagram.HashtagInfo{Name: "cats"},
		pagesByTab: map[string][]fetchResult{
			instagram.TabRecent: {{page: mediaPage([]string{"1"}, "")}},
			instagram.TabTop:    {{page: mediaPage([]string{"t1"}, "")}},
		},
	}

	s := New(testConfig(), client, logger.NewTestLogger())
	doc, err := s.ScrapeHashtag(context.Background(), validSession(), "cats", Options{MaxRecent: 10, IncludeTop: false})
	require.NoError(t, err)
	assert.Empty(t, doc.TopPosts)
	assert.Zero(t, client.callsByTab[instagram.TabTop])
}

func TestScrapeHashtagRejectsInvalidTag(t *testing.T) {
	s := New(testConfig(), &fakeClient{}, logger.NewTestLogger())
	_, err := s.ScrapeHashtag(context.Background(), validSession(), "two words", Options{MaxRecent: 10})
	assert.Error(t, err)
}

func TestScrapeHashtagPartialResultOnError(t *testing.T) {
	client := &fakeClient{
		info: &instagram.HashtagInfo{Name: "cats"},
		pagesByTab: map[string][]fetchResult{
			instagram.TabRecent: {
				{page: mediaPage([]string{"1", "2"}, "c1")},
				{err: errs.New(errs.ErrorTypeProtocol, "unexpected payload shape", 200)},
			},
		},
	}

	s := New(testConfig(), client, logger.NewTestLogger())
	doc, err := s.ScrapeHashtag(context.Background(), validSession(), "cats", Options{MaxRecent: 10})

	require.Error(t, err)
	require.NotNil(t, doc, "a failed run still returns the posts already collected")
	assert.Len(t, doc.RecentPosts, 2)
	assert.Equal(t, 2, doc.TotalPostsScraped)
}

func TestScrapeHashtagInfoFailureStopsRun(t *testing.T) {
	client := &fakeClient{
		infoErr: errs.New(errs.ErrorTypeSessionExpired, "login_required", 403),
	}

	s := New(testConfig(), client, logger.NewTestLogger())
	doc, err := s.ScrapeHashtag(context.Background(), validSession(), "cats", Options{MaxRecent: 10})

	require.Error(t, err)
	assert.NotNil(t, doc)
	assert.Zero(t, client.callsByTab[instagram.TabRecent], "no page requests after a failed info fetch")
}
