package bench

import "time"

// progress rate-limits progress log lines.
type progress struct {
	interval time.Duration
	last     time.Time
	now      func() time.Time
}

func newProgress(interval time.Duration) *progress {
	return &progress{interval: interval, now: time.Now}
}

// due reports whether a progress line should be logged now. A zero
// interval logs every time.
func (p *progress) due() bool {
	t := p.now()
	if p.interval > 0 && !p.last.IsZero() && t.Sub(p.last) < p.interval {
		return false
	}
	p.last = t
	return true
}
