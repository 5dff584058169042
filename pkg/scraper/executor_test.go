package scraper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "tagscraper/pkg/errors"
	"tagscraper/pkg/instagram"
	"tagscraper/pkg/logger"
	"tagscraper/pkg/pacing"
	"tagscraper/pkg/session"
)

// fakeFetcher replays a scripted sequence of results
type fakeFetcher struct {
	results []fetchResult
	calls   int
}

type fetchResult struct {
	page *instagram.Page
	err  error
}

func (f *fakeFetcher) FetchPage(ctx context.Context, sess *session.Session, req instagram.PageRequest) (*instagram.Page, error) {
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i].page, f.results[i].err
}

func fastPolicy() *pacing.Policy {
	return pacing.New(0, 0, time.Millisecond, 4*time.Millisecond, 2.0, 0.0)
}

func validSession() *session.Session {
	sess := session.New("alice", "test-agent")
	sess.Cookies[session.CookieSessionID] = "sess-abc"
	return sess
}

func pageOf(n int, cursor string) *instagram.Page {
	return &instagram.Page{
		Items:      make([]instagram.Media, n),
		NextCursor: cursor,
	}
}

func TestExecutorSuccessFirstTry(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{
		{page: pageOf(3, "next")},
	}}
	e := NewExecutor(fetcher, fastPolicy(), nil, 3, logger.NewTestLogger())

	page, err := e.Execute(context.Background(), validSession(), instagram.PageRequest{Hashtag: "cats"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.Equal(t, 1, fetcher.calls)
}

func TestExecutorRetriesThrottlingThenSucceeds(t *testing.T) {
	throttled := errs.New(errs.ErrorTypeRateLimit, "wait a few minutes", 429)
	fetcher := &fakeFetcher{results: []fetchResult{
		{err: throttled},
		{err: throttled},
		{page: pageOf(2, "")},
	}}
	e := NewExecutor(fetcher, fastPolicy(), nil, 5, logger.NewTestLogger())

	page, err := e.Execute(context.Background(), validSession(), instagram.PageRequest{Hashtag: "cats"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, fetcher.calls, "two throttled attempts and one success")
}

func TestExecutorExhaustsRetries(t *testing.T) {
	throttled := errs.New(errs.ErrorTypeRateLimit, "wait a few minutes", 429)
	fetcher := &fakeFetcher{results: []fetchResult{{err: throttled}}}
	e := NewExecutor(fetcher, fastPolicy(), nil, 2, logger.NewTestLogger())

	_, err := e.Execute(context.Background(), validSession(), instagram.PageRequest{Hashtag: "cats"})
	require.Error(t, err)
	assert.Equal(t, 2, fetcher.calls)

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeRateLimit, apiErr.Type)
	assert.Contains(t, apiErr.Message, "retries exhausted")
}

func TestExecutorNeverRetriesProtocolErrors(t *testing.T) {
	malformed := errs.New(errs.ErrorTypeProtocol, "unexpected payload shape", 200)
	fetcher := &fakeFetcher{results: []fetchResult{{err: malformed}}}
	e := NewExecutor(fetcher, fastPolicy(), nil, 5, logger.NewTestLogger())

	_, err := e.Execute(context.Background(), validSession(), instagram.PageRequest{Hashtag: "cats"})
	require.Error(t, err)
	assert.Equal(t, 1, fetcher.calls, "protocol errors must not be retried")

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeProtocol, apiErr.Type)
}

func TestExecutorFlipsSessionOnExpiry(t *testing.T) {
	expired := errs.New(errs.ErrorTypeSessionExpired, "login_required", 403)
	fetcher := &fakeFetcher{results: []fetchResult{{err: expired}}}
	e := NewExecutor(fetcher, fastPolicy(), nil, 3, logger.NewTestLogger())

	sess := validSession()
	_, err := e.Execute(context.Background(), sess, instagram.PageRequest{Hashtag: "cats"})
	require.Error(t, err)
	assert.Equal(t, 1, fetcher.calls, "expiry must not be retried")
	assert.False(t, sess.IsValid(), "expiry must flip the in-memory validity flag")

	// Subsequent requests through the same session are rejected locally
	_, err = e.Execute(context.Background(), sess, instagram.PageRequest{Hashtag: "cats"})
	require.Error(t, err)
	assert.Equal(t, 1, fetcher.calls, "invalid session must not reach the network")

	var apiErr *errs.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errs.ErrorTypeSessionInvalid, apiErr.Type)
}

func TestExecutorRejectsInvalidSessionUpfront(t *testing.T) {
	fetcher := &fakeFetcher{results: []fetchResult{{page: pageOf(1, "")}}}
	e := NewExecutor(fetcher, fastPolicy(), nil, 3, logger.NewTestLogger())

	sess := validSession()
	sess.MarkInvalid()

	_, err := e.Execute(context.Background(), sess, instagram.PageRequest{Hashtag: "cats"})
	require.Error(t, err)
	assert.Zero(t, fetcher.calls)
}

func TestExecutorCancelledContext(t *testing.T) {
	throttled := errs.New(errs.ErrorTypeRateLimit, "wait a few minutes", 429)
	fetcher := &fakeFetcher{results: []fetchResult{{err: throttled}}}
	// Long backoff so cancellation interrupts the retry wait
	policy := pacing.New(0, 0, 10*time.Second, time.Minute, 2.0, 0.0)
	e := NewExecutor(fetcher, policy, nil, 5, logger.NewTestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := e.Execute(ctx, validSession(), instagram.PageRequest{Hashtag: "cats"})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second, "cancellation must interrupt the backoff wait")
}
