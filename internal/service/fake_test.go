package service

import (
	"context"
	"sync"
	"time"

	"github.com/mmcdole/reel/internal/domain"
)

// fakeProvider hands out fakeResources and tracks how many are live.
type fakeProvider struct {
	mu        sync.Mutex
	gates     map[string]chan struct{} // Acquire blocks until closed
	failures  map[string]error
	onSub     map[string][]domain.Status // emitted from inside Subscribe
	live      int
	maxLive   int
	resources []*fakeResource
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		gates:    make(map[string]chan struct{}),
		failures: make(map[string]error),
		onSub:    make(map[string][]domain.Status),
	}
}

func (p *fakeProvider) gate(itemID string) chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	g := make(chan struct{})
	p.gates[itemID] = g
	return g
}

func (p *fakeProvider) fail(itemID string, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[itemID] = err
}

func (p *fakeProvider) Acquire(ctx context.Context, itemID string) (domain.Resource, error) {
	p.mu.Lock()
	gate := p.gates[itemID]
	err := p.failures[itemID]
	p.mu.Unlock()

	// Gated acquisitions ignore ctx so tests can produce late results.
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}

	r := &fakeResource{itemID: itemID, provider: p, subscribeEmits: p.onSub[itemID]}
	p.mu.Lock()
	p.live++
	if p.live > p.maxLive {
		p.maxLive = p.live
	}
	p.resources = append(p.resources, r)
	p.mu.Unlock()
	return r, nil
}

func (p *fakeProvider) stats() (live, maxLive, acquired int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.live, p.maxLive, len(p.resources)
}

// resource returns the n-th acquired resource for itemID.
func (p *fakeProvider) resource(itemID string, n int) *fakeResource {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.resources {
		if r.itemID != itemID {
			continue
		}
		if n == 0 {
			return r
		}
		n--
	}
	return nil
}

func (p *fakeProvider) all() []*fakeResource {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]*fakeResource(nil), p.resources...)
}

type fakeResource struct {
	itemID         string
	provider       *fakeProvider
	subscribeEmits []domain.Status

	mu          sync.Mutex
	onStatus    func(domain.Status)
	lastHandler func(domain.Status) // kept after Unsubscribe to simulate stale delivery
	calls       []string
	seeks       []time.Duration
	cmdGate     chan struct{}
	cmdErr      error
	released    int
	usedAfter   bool
}

type fakeSubscription struct{ r *fakeResource }

func (s fakeSubscription) Unsubscribe() {
	s.r.mu.Lock()
	s.r.onStatus = nil
	s.r.mu.Unlock()
}

func (r *fakeResource) SurfaceID() string { return "fake:" + r.itemID }

func (r *fakeResource) Subscribe(onStatus func(domain.Status)) (domain.Subscription, error) {
	r.mu.Lock()
	r.onStatus = onStatus
	r.lastHandler = onStatus
	r.mu.Unlock()

	for _, st := range r.subscribeEmits {
		onStatus(st)
	}
	return fakeSubscription{r}, nil
}

// emit delivers a status event if the resource is still subscribed.
func (r *fakeResource) emit(st domain.Status) {
	r.mu.Lock()
	fn := r.onStatus
	r.mu.Unlock()
	if fn != nil {
		fn(st)
	}
}

// emitStale delivers through the original handler even after Unsubscribe.
func (r *fakeResource) emitStale(st domain.Status) {
	r.mu.Lock()
	fn := r.lastHandler
	r.mu.Unlock()
	fn(st)
}

func (r *fakeResource) blockCommands() chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmdGate = make(chan struct{})
	return r.cmdGate
}

func (r *fakeResource) failCommands(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cmdErr = err
}

func (r *fakeResource) run(ctx context.Context, name string) error {
	r.mu.Lock()
	if r.released > 0 {
		r.usedAfter = true
	}
	r.calls = append(r.calls, name)
	gate, err := r.cmdGate, r.cmdErr
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func (r *fakeResource) Play(ctx context.Context) error  { return r.run(ctx, "play") }
func (r *fakeResource) Pause(ctx context.Context) error { return r.run(ctx, "pause") }

func (r *fakeResource) Seek(ctx context.Context, position time.Duration) error {
	r.mu.Lock()
	r.seeks = append(r.seeks, position)
	r.mu.Unlock()
	return r.run(ctx, "seek")
}

func (r *fakeResource) Release(ctx context.Context) error {
	r.mu.Lock()
	r.released++
	r.calls = append(r.calls, "release")
	r.mu.Unlock()

	r.provider.mu.Lock()
	r.provider.live--
	r.provider.mu.Unlock()
	return nil
}

func (r *fakeResource) snapshotCalls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *fakeResource) releaseCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.released
}
