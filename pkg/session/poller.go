package session

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// poller calls a check once per interval until the check asks to stop,
// stop is called, or the parent context is done.
type poller struct {
	ctx     context.Context
	cancel  context.CancelFunc
	limiter *rate.Limiter
	done    chan struct{}
}

func newPoller(parent context.Context, interval time.Duration) *poller {
	ctx, cancel := context.WithCancel(parent)
	limiter := rate.NewLimiter(rate.Every(interval), 1)
	// Spend the initial token so the first check waits a full interval.
	limiter.Allow()

	return &poller{
		ctx:     ctx,
		cancel:  cancel,
		limiter: limiter,
		done:    make(chan struct{}),
	}
}

func (p *poller) run(check func(ctx context.Context) bool) {
	defer close(p.done)
	defer p.cancel()

	for {
		if err := p.limiter.Wait(p.ctx); err != nil {
			return
		}
		if check(p.ctx) {
			return
		}
	}
}

// stop cancels the loop without waiting for an in-flight check.
func (p *poller) stop() {
	p.cancel()
}

// Done is closed once the loop has exited.
func (p *poller) Done() <-chan struct{} {
	return p.done
}
