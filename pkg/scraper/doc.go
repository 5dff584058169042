// Package scraper contains the rate-limited pagination engine.
//
// The Executor issues one logical request per call: it waits out a
// randomized pacing delay, draws a token from the per-minute limiter,
// performs the network attempt through the Instagram client and classifies
// the outcome. Retryable failures (throttling, transient network errors)
// are absorbed with exponential backoff up to the attempt ceiling; auth
// rejections flip the session's validity flag and surface immediately,
// and parsing mismatches are never retried.
//
// The Paginator drives the Executor with the cursor from the previous page
// and a per-run request budget, producing a pull-based lazy sequence:
//
//	seq := paginator.Pages(ctx, sess, scraper.Query{Hashtag: "sunset", Tab: instagram.TabRecent}, 50)
//	for seq.Next() {
//	    page := seq.Page()
//	    // consume page.Items
//	}
//	if err := seq.Err(); err != nil {
//	    // pages already consumed stand; err says why the run stopped
//	}
//
// The Scraper on top maps raw pages into post records for export.
package scraper
