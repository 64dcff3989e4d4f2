package store

import (
	"io"
	"sync"
)

// UploadTask is the handle for one in-flight upload. Progress values are
// monotonically non-decreasing percentages ending at 100; the channel is
// closed after the final value. Result is valid once Done is closed.
type UploadTask struct {
	progress chan int
	done     chan struct{}

	mu      sync.Mutex
	last    int
	stopped bool

	cid string
	err error
}

func newUploadTask(totalBytes int) *UploadTask {
	t := &UploadTask{
		progress: make(chan int, 16),
		done:     make(chan struct{}),
		last:     -1,
	}
	if totalBytes == 0 {
		t.report(100)
	}
	return t
}

func (t *UploadTask) Progress() <-chan int {
	return t.progress
}

func (t *UploadTask) Done() <-chan struct{} {
	return t.done
}

// Result returns the content ID or the upload error. It must not be called
// before Done is closed.
func (t *UploadTask) Result() (string, error) {
	return t.cid, t.err
}

// report publishes a progress percentage. Regressions and repeats are
// dropped, and a full channel never blocks the upload; a reader that
// stopped listening only loses intermediate values.
func (t *UploadTask) report(pct int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped || pct <= t.last {
		return
	}
	t.last = pct
	select {
	case t.progress <- pct:
	default:
	}
}

func (t *UploadTask) finish(cid string, err error) {
	if err == nil {
		t.report(100)
	}
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
	t.cid, t.err = cid, err
	close(t.progress)
	close(t.done)
}

// progressReader reports percentages as the HTTP transport drains the
// request body.
type progressReader struct {
	r     io.Reader
	total int
	read  int
	task  *UploadTask
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 && p.total > 0 {
		p.read += n
		pct := p.read * 100 / p.total
		if pct > 99 && p.read < p.total {
			pct = 99
		}
		p.task.report(pct)
	}
	return n, err
}
