// Package session keeps one authenticated Instagram session valid and
// reusable across process runs.
//
// The Store persists a single session record on disk with an atomic
// write-to-temp-then-rename discipline. The Manager drives the lifecycle
// state machine over {no session, valid, invalid}: login produces and
// persists a new session, status probes an existing one without spending
// scrape budget, and logout revokes and deletes it.
package session
