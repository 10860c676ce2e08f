package backup

import (
	"time"
)

// percentCap is reported while cumulative bytes meet or exceed the
// user-supplied estimate but the pull has not finished. The estimate is not
// ground truth, so progress may legitimately overshoot it; the cap avoids
// reporting over 100% before completion.
const percentCap = 0.99

// minRate is the rate floor below which ETA is reported as indeterminate
// instead of a huge or infinite value.
const minRate = 1.0 // bytes per second

// ProgressSnapshot is what the presentation layer receives for each
// progress event.
type ProgressSnapshot struct {
	// Percent is in [0, 1]. Capped at percentCap until completion.
	Percent float64
	// RateBytesPerSec is the smoothed transfer rate.
	RateBytesPerSec float64
	// ETA is meaningful only when ETAKnown is true.
	ETA      time.Duration
	ETAKnown bool

	Bytes int64
	Files int
}

type progressSample struct {
	at    time.Time
	bytes int64
}

// maxSamples bounds the moving-average window. Five samples damp
// burst/stall noise from the pull without adding much lag.
const maxSamples = 5

// Tracker consumes byte counts from the transfer driver and maintains a
// smoothed rate, percentage and ETA over a bounded sample history.
type Tracker struct {
	totalEstimate int64
	samples       []progressSample
}

// NewTracker creates a Tracker against a user-estimated total size.
func NewTracker(totalEstimate int64) *Tracker {
	return &Tracker{totalEstimate: totalEstimate}
}

// Observe records a new cumulative byte count at the given time and returns
// a fresh snapshot. One snapshot is produced per incoming event; the
// tracker never throttles below the driver's own granularity.
func (t *Tracker) Observe(bytes int64, files int, now time.Time) ProgressSnapshot {
	t.samples = append(t.samples, progressSample{at: now, bytes: bytes})
	if len(t.samples) > maxSamples {
		t.samples = t.samples[1:]
	}

	snapshot := ProgressSnapshot{
		Percent: t.percent(bytes),
		Bytes:   bytes,
		Files:   files,
	}

	// Rate over the full retained window: byte delta since the oldest
	// sample divided by the elapsed time delta.
	oldest := t.samples[0]
	elapsed := now.Sub(oldest.at).Seconds()
	if len(t.samples) >= 2 && elapsed > 0 {
		rate := float64(bytes-oldest.bytes) / elapsed
		if rate < 0 {
			rate = 0
		}
		snapshot.RateBytesPerSec = rate
	}

	if remaining := t.totalEstimate - bytes; remaining > 0 && snapshot.RateBytesPerSec >= minRate {
		snapshot.ETA = time.Duration(float64(remaining)/snapshot.RateBytesPerSec) * time.Second
		snapshot.ETAKnown = true
	}
	return snapshot
}

// Completed returns the terminal snapshot: percent pinned to 1 regardless
// of how the estimate compared to reality.
func (t *Tracker) Completed(bytes int64, files int) ProgressSnapshot {
	return ProgressSnapshot{
		Percent: 1,
		Bytes:   bytes,
		Files:   files,
	}
}

func (t *Tracker) percent(bytes int64) float64 {
	if t.totalEstimate <= 0 {
		// No usable estimate: hold at the cap until completion pins 100%.
		if bytes > 0 {
			return percentCap
		}
		return 0
	}
	p := float64(bytes) / float64(t.totalEstimate)
	if p < 0 {
		return 0
	}
	if p > percentCap {
		return percentCap
	}
	return p
}
