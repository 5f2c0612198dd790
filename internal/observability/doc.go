// Package observability records what happens to tasks and derives analytics
// from the task collections: the persisted activity log, trend, squad,
// velocity and time-in-status calculations, predictive insights and a daily
// analytics history.
//
// Every calculation takes the current time as an explicit argument, so the
// same inputs always produce the same outputs.
package observability
