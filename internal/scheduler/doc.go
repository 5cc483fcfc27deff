// Package scheduler runs a job on a cron schedule in a fixed timezone.
//
// Overlapping runs are skipped: if a load is still running when the next
// tick fires, that tick is dropped.
package scheduler
