package player

import (
	"errors"
	"sync"

	"github.com/mmcdole/reel/internal/domain"
)

var errAlreadySubscribed = errors.New("resource already has a subscriber")

// emitter holds a resource's cumulative status and delivers it to at most
// one subscriber. Deliveries are serialized and never hold the state lock,
// so a subscriber may block without stalling Unsubscribe.
type emitter struct {
	emitMu sync.Mutex

	mu      sync.Mutex
	handler func(domain.Status)
	status  domain.Status
	seen    bool
}

func (e *emitter) subscribe(h func(domain.Status)) (domain.Subscription, error) {
	e.mu.Lock()
	if e.handler != nil {
		e.mu.Unlock()
		return nil, errAlreadySubscribed
	}
	e.handler = h
	e.mu.Unlock()

	// Replay what was observed before anyone was listening.
	e.flush()
	return subscription{e}, nil
}

// update mutates the status and delivers it when fn reports a change
// that should be published.
func (e *emitter) update(fn func(*domain.Status) bool) {
	e.mu.Lock()
	publish := fn(&e.status)
	e.seen = true
	e.mu.Unlock()

	if publish {
		e.flush()
	}
}

func (e *emitter) current() domain.Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *emitter) flush() {
	e.emitMu.Lock()
	defer e.emitMu.Unlock()

	e.mu.Lock()
	h, st, seen := e.handler, e.status, e.seen
	e.mu.Unlock()

	if h != nil && seen {
		h(st)
	}
}

type subscription struct{ e *emitter }

func (s subscription) Unsubscribe() {
	s.e.mu.Lock()
	s.e.handler = nil
	s.e.mu.Unlock()
}
