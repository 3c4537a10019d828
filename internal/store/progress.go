package store

import (
	"bytes"
	"io"
	"sync"
)

// progressTracker reports upload progress in [0, 100], guaranteed
// monotonic even across retried attempts: a retry restarts the body but
// the reported percentage never goes backwards. The body read caps at
// 99; only finish, called after the accessibility probe passes, reports
// 100.
type progressTracker struct {
	mu       sync.Mutex
	callback func(percent int)
	reported int
}

func newProgressTracker(callback func(percent int)) *progressTracker {
	return &progressTracker{callback: callback}
}

func (p *progressTracker) report(percent int) {
	if p == nil || p.callback == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if percent <= p.reported {
		return
	}
	p.reported = percent
	p.callback(percent)
}

// reset is called at the start of each attempt. It intentionally does
// not lower the reported percentage.
func (p *progressTracker) reset() {}

func (p *progressTracker) finish() {
	p.report(100)
}

// reader wraps an attempt body so reads advance the tracker.
func (p *progressTracker) reader(body []byte) io.Reader {
	return &progressReader{
		tracker: p,
		inner:   bytes.NewReader(body),
		total:   len(body),
	}
}

type progressReader struct {
	tracker *progressTracker
	inner   *bytes.Reader
	total   int
	read    int
}

func (r *progressReader) Read(b []byte) (int, error) {
	n, err := r.inner.Read(b)
	r.read += n
	if r.total > 0 {
		percent := r.read * 99 / r.total
		r.tracker.report(percent)
	}
	return n, err
}
