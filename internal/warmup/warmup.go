package warmup

import (
	"context"
	"math/rand"
	"time"

	"tagscraper/pkg/instagram"
	"tagscraper/pkg/logger"
	"tagscraper/pkg/retry"
	"tagscraper/pkg/session"
)

// TimelineFetcher is the slice of the Instagram client warm-up needs
type TimelineFetcher interface {
	FetchTimeline(ctx context.Context, sess *session.Session) (*instagram.TimelineResponse, error)
}

// Browser simulates a human browsing the timeline before scraping starts,
// so a freshly restored session does not open with a burst of hashtag
// requests. All waits are cancellable; failures are logged and ignored.
type Browser struct {
	client TimelineFetcher
	logger logger.Logger
	rng    *rand.Rand
}

// New creates a warm-up browser
func New(client TimelineFetcher, log logger.Logger) *Browser {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Browser{
		client: client,
		logger: log,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Run browses the timeline for roughly the given duration
func (b *Browser) Run(ctx context.Context, sess *session.Session, duration time.Duration) {
	if duration <= 0 {
		return
	}

	b.logger.InfoWithFields("starting warm-up session", map[string]interface{}{
		"duration": duration,
	})

	deadline := time.Now().Add(duration)
	postsViewed := 0

	for time.Now().Before(deadline) {
		viewed, err := b.browseTimeline(ctx, sess, deadline)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			b.logger.WithError(err).Warn("warm-up browse failed, pausing")
			if retry.Wait(ctx, 5*time.Second) != nil {
				return
			}
			continue
		}
		postsViewed += viewed

		// Occasionally linger as if reading a post
		if b.rng.Float64() < 0.3 {
			reading := b.uniform(5*time.Second, 15*time.Second)
			b.logger.DebugWithFields("reading post", map[string]interface{}{
				"duration": reading,
			})
			if retry.Wait(ctx, reading) != nil {
				return
			}
		}
	}

	b.logger.InfoWithFields("warm-up complete", map[string]interface{}{
		"posts_viewed": postsViewed,
	})
}

// browseTimeline fetches one timeline page and "views" a few posts
func (b *Browser) browseTimeline(ctx context.Context, sess *session.Session, deadline time.Time) (int, error) {
	timeline, err := b.client.FetchTimeline(ctx, sess)
	if err != nil {
		return 0, err
	}

	numToView := 3 + b.rng.Intn(6)
	viewed := 0

	for _, item := range timeline.FeedItems {
		if viewed >= numToView || !time.Now().Before(deadline) {
			break
		}
		if item.MediaOrAd == nil {
			continue
		}

		viewTime := b.uniform(1500*time.Millisecond, 4*time.Second)
		b.logger.DebugWithFields("viewing post", map[string]interface{}{
			"username": item.MediaOrAd.User.Username,
			"duration": viewTime,
		})
		if retry.Wait(ctx, viewTime) != nil {
			return viewed, ctx.Err()
		}
		viewed++
	}

	// Simulate scrolling between pages
	if err := retry.Wait(ctx, b.uniform(1*time.Second, 3*time.Second)); err != nil {
		return viewed, err
	}

	return viewed, nil
}

func (b *Browser) uniform(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(b.rng.Float64()*float64(max-min))
}
