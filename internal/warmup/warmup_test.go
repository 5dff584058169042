package warmup

import (
	"context"
	"testing"
	"time"

	errs "tagscraper/pkg/errors"
	"tagscraper/pkg/instagram"
	"tagscraper/pkg/logger"
	"tagscraper/pkg/session"
)

type fakeTimeline struct {
	calls int
	err   error
}

func (f *fakeTimeline) FetchTimeline(ctx context.Context, sess *session.Session) (*instagram.TimelineResponse, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &instagram.TimelineResponse{
		NumResults: 2,
		FeedItems: []instagram.FeedItem{
			{MediaOrAd: &instagram.Media{ID: "1"}},
			{MediaOrAd: &instagram.Media{ID: "2"}},
		},
	}, nil
}

func warmupSession() *session.Session {
	sess := session.New("alice", "test-agent")
	sess.Cookies[session.CookieSessionID] = "sess-abc"
	return sess
}

func TestRunZeroDurationIsNoop(t *testing.T) {
	client := &fakeTimeline{}
	b := New(client, logger.NewTestLogger())

	b.Run(context.Background(), warmupSession(), 0)
	if client.calls != 0 {
		t.Errorf("Expected no timeline fetches for zero duration, got %d", client.calls)
	}
}

func TestRunBrowsesUntilDeadline(t *testing.T) {
	client := &fakeTimeline{}
	b := New(client, logger.NewTestLogger())

	start := time.Now()
	b.Run(context.Background(), warmupSession(), 100*time.Millisecond)

	if client.calls == 0 {
		t.Error("Expected at least one timeline fetch")
	}
	// Viewing delays overshoot the deadline by a few seconds at most
	if elapsed := time.Since(start); elapsed > 30*time.Second {
		t.Errorf("Warm-up ran far past its deadline: %v", elapsed)
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	client := &fakeTimeline{}
	b := New(client, logger.NewTestLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		b.Run(ctx, warmupSession(), time.Hour)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Warm-up did not stop on cancellation")
	}
}

func TestRunSurvivesFetchErrors(t *testing.T) {
	client := &fakeTimeline{err: errs.New(errs.ErrorTypeNetwork, "connection refused", 0)}
	b := New(client, logger.NewTestLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	// Must not panic or loop forever; the error pause is cancellable
	b.Run(ctx, warmupSession(), time.Hour)
	if client.calls == 0 {
		t.Error("Expected the browse loop to attempt a fetch")
	}
}
