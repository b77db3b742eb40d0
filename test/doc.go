// Package test provides the end-to-end test environment for the job
// lifecycle engine.
//
// It wires together an in-memory fake bridge backend served over HTTP,
// the real API client, and the real job manager, so the full
// submit/poll/complete path is exercised over the wire without an
// engine process.
//
// The fake backend advances each job one lifecycle step per status
// fetch (pending, then processing at 40%, then completed with a result
// payload) and exposes knobs for failure injection: transient HTTP
// failures on the status endpoint and in-band rejection of new
// submissions.
package test
