package conversion

import "context"

const progressBuffer = 32

// Pending is a conversion running in the background.
type Pending struct {
	job      Job
	progress chan Progress
	done     chan struct{}
	outcome  Outcome
}

// Start launches job in a new goroutine and returns immediately.
func (inv *Invoker) Start(ctx context.Context, job Job) *Pending {
	p := &Pending{
		job:      job,
		progress: make(chan Progress, progressBuffer),
		done:     make(chan struct{}),
	}
	go func() {
		p.outcome = inv.Convert(ctx, job, p.publish)
		close(p.progress)
		close(p.done)
	}()
	return p
}

// publish delivers u without blocking the encoder; updates are dropped while
// the receiver is behind.
func (p *Pending) publish(u Progress) {
	select {
	case p.progress <- u:
	default:
	}
}

// Job returns the job being converted.
func (p *Pending) Job() Job { return p.job }

// Progress streams updates and is closed when the conversion finishes.
func (p *Pending) Progress() <-chan Progress { return p.progress }

// Done is closed when the outcome is available.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Wait blocks until the conversion finishes and returns its outcome.
func (p *Pending) Wait() Outcome {
	<-p.done
	return p.outcome
}
