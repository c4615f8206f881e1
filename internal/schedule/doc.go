// Package schedule evaluates time-of-day trigger rules. Each rule fires at
// most once per day, only while the wall clock sits inside a short window
// after the configured time. Missed windows are never replayed.
package schedule
