package player

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmcdole/reel/internal/domain"
)

const simDefaultDuration = 3 * time.Minute

var (
	errReleased = errors.New("resource released")
	errEnded    = errors.New("playback ended")
)

// ItemLookup resolves catalog items
type ItemLookup interface {
	Get(id string) (domain.Item, error)
}

// SimOptions configures SimProvider
type SimOptions struct {
	Tick      time.Duration // position update period
	LoadDelay time.Duration // simulated startup time
	Autoplay  bool
	ExitAtEnd bool // report Ended on reaching the end, like mpv without keep-open
}

// SimProvider hands out in-process resources that advance a clock instead
// of decoding media. Used for backend "sim" and for tests.
type SimProvider struct {
	items  ItemLookup
	opts   SimOptions
	logger *slog.Logger
}

// NewSimProvider creates a provider
func NewSimProvider(items ItemLookup, opts SimOptions, logger *slog.Logger) *SimProvider {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Tick <= 0 {
		opts.Tick = 250 * time.Millisecond
	}
	return &SimProvider{items: items, opts: opts, logger: logger}
}

func (p *SimProvider) Acquire(ctx context.Context, itemID string) (domain.Resource, error) {
	return p.AcquireAt(ctx, itemID, 0)
}

// AcquireAt opens itemID with the clock at start, clamped to the duration.
func (p *SimProvider) AcquireAt(ctx context.Context, itemID string, start time.Duration) (domain.Resource, error) {
	item, err := p.items.Get(itemID)
	if err != nil {
		return nil, err
	}

	if p.opts.LoadDelay > 0 {
		select {
		case <-time.After(p.opts.LoadDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	dur := item.Duration
	if dur <= 0 {
		dur = simDefaultDuration
	}

	r := &simResource{
		id:        "sim:" + uuid.NewString(),
		itemID:    itemID,
		tick:      p.opts.Tick,
		exitAtEnd: p.opts.ExitAtEnd,
		stop:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	r.events.update(func(st *domain.Status) bool {
		*st = domain.Status{
			Loaded:   true,
			Position: max(0, min(start, dur)),
			Duration: dur,
			Playing:  p.opts.Autoplay,
		}
		return false
	})
	go r.run()

	p.logger.Debug("simulated player started", "itemID", itemID, "surface", r.id, "duration", dur, "start", start)
	return r, nil
}

type simResource struct {
	id        string
	itemID    string
	tick      time.Duration
	exitAtEnd bool
	events    emitter

	mu       sync.Mutex
	released bool

	stop     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once
}

func (r *simResource) run() {
	defer close(r.stopped)

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.events.update(func(st *domain.Status) bool {
				if !st.Playing {
					return false
				}
				st.Position += r.tick
				if st.Position >= st.Duration {
					st.Position = st.Duration
					st.Playing = false
					if r.exitAtEnd {
						st.Loaded = false
						st.Ended = true
					}
				}
				return true
			})
		}
	}
}

func (r *simResource) SurfaceID() string { return r.id }

func (r *simResource) Subscribe(handler func(domain.Status)) (domain.Subscription, error) {
	return r.events.subscribe(handler)
}

func (r *simResource) Play(ctx context.Context) error {
	return r.set(func(st *domain.Status) {
		if st.Position >= st.Duration {
			st.Position = 0
		}
		st.Playing = true
	})
}

func (r *simResource) Pause(ctx context.Context) error {
	return r.set(func(st *domain.Status) { st.Playing = false })
}

func (r *simResource) Seek(ctx context.Context, target time.Duration) error {
	return r.set(func(st *domain.Status) {
		st.Position = max(0, min(target, st.Duration))
	})
}

func (r *simResource) set(fn func(*domain.Status)) error {
	r.mu.Lock()
	released := r.released
	r.mu.Unlock()
	if released {
		return errReleased
	}

	var err error
	r.events.update(func(st *domain.Status) bool {
		if st.Ended {
			err = errEnded
			return false
		}
		fn(st)
		return true
	})
	return err
}

// Release stops the clock. Safe to call repeatedly.
func (r *simResource) Release(ctx context.Context) error {
	r.mu.Lock()
	r.released = true
	r.mu.Unlock()

	r.stopOnce.Do(func() { close(r.stop) })
	select {
	case <-r.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
