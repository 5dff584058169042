package scraper

import (
	"context"
	"fmt"

	errs "tagscraper/pkg/errors"
	"tagscraper/pkg/instagram"
	"tagscraper/pkg/logger"
	"tagscraper/pkg/session"
)

// Query names one hashtag result set
type Query struct {
	Hashtag string
	Tab     string
}

// Paginator drives repeated executor calls using the cursor returned by the
// previous page, yielding a lazy sequence of raw pages
type Paginator struct {
	executor      *Executor
	maxEmptyPages int
	maxFailures   int
	logger        logger.Logger
}

// NewPaginator creates a paginator on top of the executor. maxEmptyPages
// guards against a misbehaving service handing out live cursors on endless
// empty pages.
func NewPaginator(executor *Executor, maxEmptyPages, maxFailures int, log logger.Logger) *Paginator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Paginator{
		executor:      executor,
		maxEmptyPages: maxEmptyPages,
		maxFailures:   maxFailures,
		logger:        log,
	}
}

// Pages starts a lazy page sequence for the query. No network call is made
// until the first Next; a consumer that stops pulling stops all further
// calls. maxItems <= 0 produces an empty sequence with zero network calls.
func (p *Paginator) Pages(ctx context.Context, sess *session.Session, query Query, maxItems int) *PageSequence {
	return &PageSequence{
		ctx:       ctx,
		paginator: p,
		sess:      sess,
		query:     query,
		budget:    NewRequestBudget(maxItems, p.maxFailures),
	}
}

// PageSequence is a pull-based lazy sequence of raw pages. Each Next either
// produces a page or ends the sequence; after an error the already-yielded
// pages stand and Err reports why the sequence stopped.
type PageSequence struct {
	ctx       context.Context
	paginator *Paginator
	sess      *session.Session
	query     Query
	budget    *RequestBudget

	cursor   string
	started  bool
	emptyRun int
	page     *instagram.Page
	err      error
	done     bool
}

// Next advances the sequence. It returns false when the result set is
// exhausted, the budget is spent, or a terminal error occurred.
func (s *PageSequence) Next() bool {
	if s.done {
		return false
	}

	if s.budget.Exhausted() {
		s.stop(nil)
		return false
	}

	// An absent cursor after the first page means no more pages
	if s.started && s.cursor == "" {
		s.stop(nil)
		return false
	}

	req := instagram.PageRequest{
		Hashtag: s.query.Hashtag,
		Tab:     s.query.Tab,
		Cursor:  s.cursor,
	}

	s.budget.RecordRequest()
	page, err := s.paginator.executor.Execute(s.ctx, s.sess, req)
	if err != nil {
		s.budget.RecordFailure()
		s.stop(err)
		return false
	}

	s.started = true
	s.cursor = page.NextCursor

	if len(page.Items) == 0 {
		// A sparse page with a live cursor is valid, but an endless run of
		// them would loop forever
		s.emptyRun++
		if page.NextCursor != "" && s.emptyRun >= s.paginator.maxEmptyPages {
			s.stop(errs.New(errs.ErrorTypeProtocol,
				fmt.Sprintf("%d consecutive empty pages with a live cursor", s.emptyRun), 0))
			return false
		}
	} else {
		s.emptyRun = 0
	}

	s.budget.Consume(len(page.Items))
	s.page = page

	s.paginator.logger.DebugWithFields("page yielded", map[string]interface{}{
		"hashtag":   s.query.Hashtag,
		"tab":       s.query.Tab,
		"items":     len(page.Items),
		"remaining": s.budget.Remaining(),
		"requests":  s.budget.Issued(),
	})

	return true
}

// Page returns the page produced by the last successful Next
func (s *PageSequence) Page() *instagram.Page {
	return s.page
}

// Err returns the terminal error, if the sequence stopped on one
func (s *PageSequence) Err() error {
	return s.err
}

// Requests returns the number of network requests the sequence has issued
func (s *PageSequence) Requests() int {
	return s.budget.Issued()
}

func (s *PageSequence) stop(err error) {
	s.done = true
	s.err = err
	s.page = nil
}
