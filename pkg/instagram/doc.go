// Package instagram implements the network boundary of the scraper: a
// resty-backed client that issues single, classified requests against the
// Instagram web API through one authenticated session.
//
// Every call performs exactly one network attempt and maps the outcome onto
// the error taxonomy in pkg/errors (rate limit, session expired, transient
// network failure, protocol error). Pacing, retries and budgeting live in
// the request executor; the login, probe and logout handshakes here back
// the session lifecycle manager.
package instagram
