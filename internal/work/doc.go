// Package work implements the background job processor with event-driven
// scheduling.
//
// # Work Type Architecture
//
// The processor executes background jobs based on:
//   - Event triggers (tender lifecycle and snapshot events wake the loop)
//   - Desk timing (heavy jobs wait for the tender desk to close)
//   - Intervals (minimum time between executions, per subject)
//   - Dependencies (a work type can require another to have completed)
//
// Work runs one item at a time. Every run is recorded in the job_history
// table in cache.db, and completion times are restored from it at startup
// so intervals survive restarts.
//
// # Interval Design
//
//   - snapshot:reload: on demand - reference mutations already rebuild the
//     snapshot inline; this is the manual lever.
//   - tenders:reprice: on demand - subjects are tenders whose latest bid
//     predates the active snapshot, so the list drains itself.
//   - tenders:rerank: 1 hour - lifecycle events force an immediate pass,
//     the interval is the safety net.
//   - refdata:volatility_scan: 24 hours - material rates move on a daily
//     cadence at best.
//   - db:maintenance, backup:*: 24 hours - nightly, outside desk hours.
//
// # Desk Timing
//
// OffHours work runs outside the 08:00-20:00 working window of the tender
// desk, keeping checkpoints, vacuums and backups away from active pricing.
package work
