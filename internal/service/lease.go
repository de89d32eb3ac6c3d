package service

import (
	"context"
	"time"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/metrics"
)

// command is one resource call queued against a lease
type command struct {
	op    string
	run   func(ctx context.Context, res domain.Resource) error
	reply chan error // buffered, receives exactly one value
}

// lease owns one generation's resource from acquisition to release.
// All fields are owned by the coordinator loop.
type lease struct {
	gen    uint64
	itemID string
	start  time.Duration   // requested start offset, zero for the beginning
	ctx    context.Context // cancelled on retirement
	cancel context.CancelFunc

	started  bool // Acquire has been called
	resolved bool // Acquire has returned
	res      domain.Resource
	sub      domain.Subscription
	active   bool            // first status event seen
	early    []domain.Status // events that arrived before the acquisition result

	queue []*command
	busy  bool // a command is running against res

	retired   bool
	draining  bool // counted in Coordinator.draining until finished
	releasing bool

	waiters []chan error // RequestPlay callers waiting for attachment
}

func newLease(gen uint64, itemID string, start time.Duration) *lease {
	ctx, cancel := context.WithCancel(context.Background())
	return &lease{gen: gen, itemID: itemID, start: start, ctx: ctx, cancel: cancel}
}

func (l *lease) wait() chan error {
	w := make(chan error, 1)
	l.waiters = append(l.waiters, w)
	return w
}

func (l *lease) notify(err error) {
	for _, w := range l.waiters {
		w <- err
	}
	l.waiters = nil
}

func (l *lease) rejectQueued(err error) {
	for _, cmd := range l.queue {
		metrics.RecordCommand(cmd.op, metrics.OutcomeRejected)
		cmd.reply <- err
	}
	l.queue = nil
}

// next pops the oldest queued command if none is running.
func (l *lease) next() (*command, bool) {
	if l.busy || l.retired || len(l.queue) == 0 {
		return nil, false
	}
	cmd := l.queue[0]
	l.queue[0] = nil
	l.queue = l.queue[1:]
	return cmd, true
}
