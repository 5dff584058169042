// Package ratelimit provides the per-minute request ceiling consulted by the
// request executor in addition to randomized pacing. The token bucket caps
// how many calls one run may issue per refill period regardless of how short
// the sampled pacing delays happen to be.
package ratelimit
