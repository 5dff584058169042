// Package retry provides the bounded retry state threaded through the
// request executor and a context-aware wait helper.
//
// Retry control flow is expressed as an explicit State value inside a
// bounded loop rather than wrapped callbacks: the executor records each
// failure, asks whether the attempt ceiling allows another try, and waits
// out the backoff delay with Wait, which returns early if the context is
// cancelled.
package retry
