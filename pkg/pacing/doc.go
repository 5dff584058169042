// Package pacing decides how long to wait before each outbound request and
// after each failed one.
//
// The pre-request delay is drawn uniformly from a configured interval to
// avoid a fixed, fingerprintable request cadence. The post-failure delay
// grows exponentially with the attempt number, capped at a ceiling, with a
// small random jitter to avoid synchronized retry storms across runs.
package pacing
