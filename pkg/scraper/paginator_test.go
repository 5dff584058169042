package scraper

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "tagscraper/pkg/errors"
	"tagscraper/pkg/instagram"
	"tagscraper/pkg/logger"
)

func newTestPaginator(fetcher *fakeFetcher, maxAttempts int) *Paginator {
	e := NewExecutor(fetcher, fastPolicy(), nil, maxAttempts, logger.NewTestLogger())
	return NewPaginator(e, 3, 5, logger.NewTestLogger())
}

func drain(seq *PageSequence) (pages int, items int) {
	for seq.Next() {
		pages++
		items += len(seq.Page().Items)
	}
	return pages, items
}

func TestPaginatorStopsWhenBudgetSpent(t *testing.T) {
	// Every page carries 20 items and a live cursor; a 50 item budget
	// must stop after the third request
	fetcher := &fakeFetcher{results: []fetchResult{
		{page: pageOf(20, "c1")},
		{page: pageOf(20, "c2")},
		{page: pageOf(20, "c3")},
		{page: pageOf(20, "c4")},
	}}
	p := newTestPaginator(fetcher, 3)

	seq := p.Pages(context.Background(), validSession(), Query{Hashtag: "cats", Tab: instagram.TabRecent}, 50)
	pages, items := drain(seq)

	require.NoError(t, seq.Err())
	assert.Equal(t, 3, pages)
	assert.Equal(t, 60, items)
	assert.Equal(t, 3, fetcher.calls, "the fourth page must never be requested")
	assert.Equal(t, 3, seq.Requests())
}

func TestPaginatorZeroBudgetMakesNoCalls(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{page: pageOf(20, "c1")}}}
	p := newTestPaginator(fetcher, 3)

	seq := p.Pages(context.Background(), validSession(), Query{Hashtag: "cats"}, 0)
	assert.False(t, seq.Next())
	require.NoError(t, seq.Err())
	assert.Zero(t, fetcher.calls)
}

func TestPaginatorStopsOnAbsentCursor(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{
		{page: pageOf(5, "c1")},
		{page: pageOf(5, "")},
		{page: pageOf(5, "never")},
	}}
	p := newTestPaginator(fetcher, 3)

	seq := p.Pages(context.Background(), validSession(), Query{Hashtag: "cats"}, 100)
	pages, items := drain(seq)

	require.NoError(t, seq.Err())
	assert.Equal(t, 2, pages)
	assert.Equal(t, 10, items)
	assert.Equal(t, 2, fetcher.calls)
}

func TestPaginatorYieldsSparsePages(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{
		{page: pageOf(0, "c1")},
		{page: pageOf(7, "")},
	}}
	p := newTestPaginator(fetcher, 3)

	seq := p.Pages(context.Background(), validSession(), Query{Hashtag: "cats"}, 100)
	pages, items := drain(seq)

	require.NoError(t, seq.Err())
	assert.Equal(t, 2, pages, "an empty page with a live cursor is yielded, not fatal")
	assert.Equal(t, 7, items)
}

func TestPaginatorEmptyPageGuard(t *testing.T) {
	// The service keeps handing out live cursors on empty pages
	fetcher := &fakeFetcher{results: []fetchResult{{page: pageOf(0, "again")}}}
	p := newTestPaginator(fetcher, 3)

	seq := p.Pages(context.Background(), validSession(), Query{Hashtag: "cats"}, 100)
	pages, _ := drain(seq)

	require.Error(t, seq.Err())
	var apiErr *errs.Error
	require.ErrorAs(t, seq.Err(), &apiErr)
	assert.Equal(t, errs.ErrorTypeProtocol, apiErr.Type)
	assert.Equal(t, 2, pages)
	assert.Equal(t, 3, fetcher.calls)
}

func TestPaginatorErrorPreservesYieldedPages(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{
		{page: pageOf(10, "c1")},
		{err: errs.New(errs.ErrorTypeProtocol, "unexpected payload shape", 200)},
	}}
	p := newTestPaginator(fetcher, 3)

	seq := p.Pages(context.Background(), validSession(), Query{Hashtag: "cats"}, 100)

	require.True(t, seq.Next())
	assert.Len(t, seq.Page().Items, 10)

	assert.False(t, seq.Next())
	require.Error(t, seq.Err())
	assert.Equal(t, 2, seq.Requests())
}

func TestPaginatorNextAfterDone(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{page: pageOf(5, "")}}}
	p := newTestPaginator(fetcher, 3)

	seq := p.Pages(context.Background(), validSession(), Query{Hashtag: "cats"}, 100)
	drain(seq)

	assert.False(t, seq.Next(), "a finished sequence stays finished")
	assert.Equal(t, 1, fetcher.calls)
}
