package scraper

import (
	"context"
	"errors"
	"fmt"

	errs "tagscraper/pkg/errors"
	"tagscraper/pkg/instagram"
	"tagscraper/pkg/logger"
	"tagscraper/pkg/pacing"
	"tagscraper/pkg/ratelimit"
	"tagscraper/pkg/retry"
	"tagscraper/pkg/session"
)

// Executor issues one logical request against the service through the
// active session. It paces every attempt, classifies the outcome and
// absorbs retryable failures up to the attempt ceiling; everything else
// surfaces to the caller unchanged.
type Executor struct {
	fetcher     PageFetcher
	pacing      *pacing.Policy
	limiter     ratelimit.Limiter
	maxAttempts int
	logger      logger.Logger
}

// NewExecutor creates a request executor
func NewExecutor(fetcher PageFetcher, policy *pacing.Policy, limiter ratelimit.Limiter, maxAttempts int, log logger.Logger) *Executor {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Executor{
		fetcher:     fetcher,
		pacing:      policy,
		limiter:     limiter,
		maxAttempts: maxAttempts,
		logger:      log,
	}
}

// Execute performs one logical page request. The session's validity flag may
// be flipped in memory on an auth rejection; persisting the flip is the
// lifecycle manager's job.
func (e *Executor) Execute(ctx context.Context, sess *session.Session, req instagram.PageRequest) (*instagram.Page, error) {
	if !sess.IsValid() {
		return nil, errs.New(errs.ErrorTypeSessionInvalid, "session is marked invalid, re-login required", 0)
	}

	state := retry.NewState(e.maxAttempts)

	for {
		if err := retry.Wait(ctx, e.pacing.DelayBeforeRequest()); err != nil {
			return nil, fmt.Errorf("pacing wait cancelled: %w", err)
		}
		if e.limiter != nil {
			e.limiter.Wait()
		}

		page, err := e.fetcher.FetchPage(ctx, sess, req)
		if err == nil {
			if state.Attempt() > 0 {
				e.logger.DebugWithFields("request succeeded after retry", map[string]interface{}{
					"hashtag":  req.Hashtag,
					"attempts": state.Attempt() + 1,
				})
			}
			return page, nil
		}

		var apiErr *errs.Error
		if !errors.As(err, &apiErr) {
			return nil, err
		}

		switch apiErr.Type {
		case errs.ErrorTypeSessionExpired:
			e.logger.WarnWithFields("session rejected mid-run", map[string]interface{}{
				"hashtag": req.Hashtag,
			})
			sess.MarkInvalid()
			return nil, err

		case errs.ErrorTypeRateLimit, errs.ErrorTypeNetwork, errs.ErrorTypeServerError:
			attempt := state.Attempt()
			if !state.RecordFailure() {
				e.logger.ErrorWithFields("retry attempts exhausted", map[string]interface{}{
					"hashtag":    req.Hashtag,
					"attempts":   attempt + 1,
					"last_error": apiErr.Error(),
				})
				return nil, terminalError(apiErr, e.maxAttempts)
			}

			delay := e.pacing.DelayAfterFailure(attempt)
			e.logger.WarnWithFields("retrying request", map[string]interface{}{
				"hashtag":  req.Hashtag,
				"attempt":  attempt + 1,
				"error":    apiErr.Error(),
				"delay_ms": delay.Milliseconds(),
			})
			if err := retry.Wait(ctx, delay); err != nil {
				return nil, fmt.Errorf("retry cancelled: %w", err)
			}

		default:
			// Protocol and auth errors are never retried; retrying cannot
			// fix a parsing mismatch or rejected credentials.
			return nil, err
		}
	}
}

// terminalError wraps a retryable error class once the attempt ceiling has
// been exhausted, keeping its type so callers can still classify it
func terminalError(apiErr *errs.Error, maxAttempts int) error {
	t := apiErr.Type
	if t == errs.ErrorTypeServerError {
		t = errs.ErrorTypeNetwork
	}
	return errs.New(t, fmt.Sprintf("retries exhausted after %d attempts: %s", maxAttempts, apiErr.Message), apiErr.Code)
}
