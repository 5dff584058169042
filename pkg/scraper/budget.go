package scraper

// RequestBudget holds the per-run counters: requests issued, items remaining
// under the configured ceiling, and consecutive failures. It is owned by
// exactly one paginator run and never persisted.
type RequestBudget struct {
	remaining              int
	issued                 int
	consecutiveFailures    int
	maxConsecutiveFailures int
}

// NewRequestBudget seeds a budget with the maximum number of items the run
// may consume
func NewRequestBudget(maxItems, maxConsecutiveFailures int) *RequestBudget {
	if maxItems < 0 {
		maxItems = 0
	}
	return &RequestBudget{
		remaining:              maxItems,
		maxConsecutiveFailures: maxConsecutiveFailures,
	}
}

// Exhausted reports whether the run may issue no further requests
func (b *RequestBudget) Exhausted() bool {
	return b.remaining <= 0
}

// Remaining returns the number of items still allowed
func (b *RequestBudget) Remaining() int {
	return b.remaining
}

// Issued returns the number of requests issued so far
func (b *RequestBudget) Issued() int {
	return b.issued
}

// RecordRequest counts one issued request
func (b *RequestBudget) RecordRequest() {
	b.issued++
}

// Consume subtracts delivered items from the remaining allowance and clears
// the consecutive-failure streak
func (b *RequestBudget) Consume(items int) {
	b.remaining -= items
	if b.remaining < 0 {
		b.remaining = 0
	}
	b.consecutiveFailures = 0
}

// RecordFailure counts one failed request and reports whether the hard-stop
// threshold has been crossed
func (b *RequestBudget) RecordFailure() bool {
	b.consecutiveFailures++
	return b.consecutiveFailures >= b.maxConsecutiveFailures
}
