// Package batch runs a list of acquisition requests sequentially with a
// randomized inter-item delay so bulk runs do not hammer the provider.
package batch

import (
	"math/rand"
	"time"

	"ytaudio/internal/model"
)

// Job executes a single request to a definitive outcome.
type Job interface {
	Run(req model.Request) model.Outcome
}

// Runner walks requests in order. Items are independent: one failure never
// aborts the batch unless StopOnFailure is set. The pause between items is
// carried by the requests themselves (DelaySeconds/MaxDelaySecs).
type Runner struct {
	Job Job

	// StopOnFailure aborts after the first failed item; remaining items are
	// not attempted and not counted.
	StopOnFailure bool

	// Sleep and Rand are replaceable for tests. Nil means real sleeping and
	// the global random source.
	Sleep func(d time.Duration)
	Rand  *rand.Rand
}

// Run processes every request and returns the aggregated summary.
func (r *Runner) Run(reqs []model.Request) model.Summary {
	var summary model.Summary
	for i, req := range reqs {
		if i > 0 {
			r.pause(req)
		}
		out := r.Job.Run(req)
		summary.Add(out)
		if r.StopOnFailure && !out.Success {
			break
		}
	}
	return summary
}

func (r *Runner) pause(req model.Request) {
	d := r.delay(req)
	if d <= 0 {
		return
	}
	if r.Sleep != nil {
		r.Sleep(d)
		return
	}
	time.Sleep(d)
}

// delay picks a uniform duration in the request's [DelaySeconds,
// MaxDelaySecs] range. A maximum at or below the minimum collapses to the
// minimum.
func (r *Runner) delay(req model.Request) time.Duration {
	lo := time.Duration(req.DelaySeconds) * time.Second
	hi := time.Duration(req.MaxDelaySecs) * time.Second
	if hi <= lo {
		return lo
	}
	span := int64(hi - lo)
	if r.Rand != nil {
		return lo + time.Duration(r.Rand.Int63n(span+1))
	}
	return lo + time.Duration(rand.Int63n(span+1))
}
