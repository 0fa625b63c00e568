package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// idleWatcher signals once no request has been in flight for the quiet
// period. Redirect hops reuse a request id, so in-flight requests are kept
// as a set rather than a counter.
type idleWatcher struct {
	quiet time.Duration

	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	timer    *time.Timer
	once     sync.Once
	idle     chan struct{}
}

func newIdleWatcher(quiet time.Duration) *idleWatcher {
	return &idleWatcher{
		quiet:    quiet,
		inflight: make(map[network.RequestID]struct{}),
		idle:     make(chan struct{}),
	}
}

// watchNetworkIdle registers the watcher on ctx's target. The listener is
// dropped when ctx is done.
func watchNetworkIdle(ctx context.Context, quiet time.Duration) *idleWatcher {
	w := newIdleWatcher(quiet)
	chromedp.ListenTarget(ctx, w.handle)
	return w
}

func (w *idleWatcher) handle(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		w.mu.Lock()
		w.inflight[e.RequestID] = struct{}{}
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	case *network.EventLoadingFinished:
		w.finish(e.RequestID)
	case *network.EventLoadingFailed:
		w.finish(e.RequestID)
	}
}

func (w *idleWatcher) finish(id network.RequestID) {
	w.mu.Lock()
	delete(w.inflight, id)
	empty := len(w.inflight) == 0
	w.mu.Unlock()
	if empty {
		w.arm()
	}
}

// arm (re)starts the quiet-period timer.
func (w *idleWatcher) arm() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.quiet, func() {
		w.mu.Lock()
		quiet := len(w.inflight) == 0
		w.mu.Unlock()
		if quiet {
			w.once.Do(func() { close(w.idle) })
		}
	})
}

func (w *idleWatcher) Idle() <-chan struct{} { return w.idle }

func (w *idleWatcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
}
