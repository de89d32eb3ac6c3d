package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/metrics"
)

// errResourceEnded is the acquisition error for a resource that stopped
// before it was attached.
var errResourceEnded = errors.New("playback resource ended before attach")

// Coordinator owns the single active playback resource and mediates every
// command against it.
//
// All session state lives on one loop goroutine. Public methods hand
// closures to that loop and wait for the outcome with the caller's context.
// Resource calls run on helper goroutines which post their results back to
// the loop, so the loop itself never waits on a resource. Each acquisition
// is tagged with a generation; results and status events from a generation
// that is no longer current are released or dropped instead of applied.
type Coordinator struct {
	provider domain.Provider
	logger   *slog.Logger

	inbox   chan func()
	stopped chan struct{}
	last    atomic.Pointer[Snapshot]

	// Owned by the loop goroutine.
	gen       uint64
	lease     *lease
	session   session
	draining  int // retired leases whose resource is not yet released
	drainWait []chan error
	watchers  map[int]chan Snapshot
	nextWatch int
	shutting  bool
}

// NewCoordinator creates a coordinator and starts its loop.
// Call Shutdown to release the resource and stop the loop.
func NewCoordinator(provider domain.Provider, logger *slog.Logger) *Coordinator {
	if provider == nil {
		panic("invariant violation: provider is nil in NewCoordinator")
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Coordinator{
		provider: provider,
		logger:   logger,
		inbox:    make(chan func()),
		stopped:  make(chan struct{}),
		watchers: make(map[int]chan Snapshot),
	}
	c.last.Store(&Snapshot{})

	go c.loop()
	return c
}

func (c *Coordinator) loop() {
	for {
		op := <-c.inbox
		op()
		if c.shutting && c.lease == nil && c.draining == 0 {
			break
		}
	}

	for id, ch := range c.watchers {
		delete(c.watchers, id)
		close(ch)
	}
	close(c.stopped)
	c.logger.Debug("playback coordinator stopped")
}

// do runs fn on the loop and waits for it to finish.
func (c *Coordinator) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case c.inbox <- func() { fn(); close(done) }:
	case <-c.stopped:
		return domain.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	<-done
	return nil
}

// post hands an asynchronous result to the loop.
func (c *Coordinator) post(fn func()) bool {
	select {
	case c.inbox <- fn:
		return true
	case <-c.stopped:
		return false
	}
}

// === Queries ===

// Snapshot returns the most recently published session state.
func (c *Coordinator) Snapshot() Snapshot {
	return *c.last.Load()
}

// Watch streams session snapshots, starting with the current one.
// Slow readers only see the latest snapshot. The channel is closed by the
// returned cancel func or when the coordinator shuts down.
func (c *Coordinator) Watch() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)
	var id int
	err := c.do(context.Background(), func() {
		id = c.nextWatch
		c.nextWatch++
		c.watchers[id] = ch
		ch <- c.snapshot()
	})
	if err != nil {
		close(ch)
		return ch, func() {}
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			_ = c.do(context.Background(), func() {
				if w, ok := c.watchers[id]; ok {
					delete(c.watchers, id)
					close(w)
				}
			})
		})
	}
	return ch, cancel
}

// surfaceRef exposes a resource's surface id without its lifecycle methods.
type surfaceRef string

func (s surfaceRef) SurfaceID() string { return string(s) }

// Surface returns the attachment point of the current resource.
func (c *Coordinator) Surface(ctx context.Context) (domain.Surface, error) {
	var s domain.Surface
	err := c.do(ctx, func() {
		if l := c.lease; l != nil && l.res != nil {
			s = surfaceRef(l.res.SurfaceID())
		}
	})
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, domain.ErrNoSession
	}
	return s, nil
}

// === Session lifecycle ===

// RequestPlay makes itemID the active item. It returns once the item's
// resource is attached, or with an *domain.AcquisitionError if it could not
// be opened. Requesting the item that is already active is a no-op.
func (c *Coordinator) RequestPlay(ctx context.Context, itemID string) error {
	return c.RequestPlayAt(ctx, itemID, 0)
}

// RequestPlayAt is RequestPlay with a start offset. The offset is passed to
// providers implementing domain.StartProvider and ignored by others; it has
// no effect when itemID is already the active or pending item.
func (c *Coordinator) RequestPlayAt(ctx context.Context, itemID string, start time.Duration) error {
	if itemID == "" {
		return fmt.Errorf("request play: %w", domain.ErrItemNotFound)
	}

	var wait chan error
	var err error
	if doErr := c.do(ctx, func() { wait, err = c.beginPlay(itemID, start) }); doErr != nil {
		return doErr
	}
	if err != nil || wait == nil {
		return err
	}

	select {
	case err := <-wait:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close releases the current resource and resets the session. It returns
// once every retired resource has been released. Closing an idle
// coordinator is a no-op.
func (c *Coordinator) Close(ctx context.Context) error {
	var wait chan error
	err := c.do(ctx, func() {
		if c.lease != nil {
			c.retire(c.lease, "close")
			c.publish()
		}
		if c.draining > 0 {
			wait = make(chan error, 1)
			c.drainWait = append(c.drainWait, wait)
		}
	})
	if err != nil || wait == nil {
		return err
	}

	select {
	case err := <-wait:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown closes the session, waits for outstanding releases and stops
// the loop. Later calls on the coordinator return domain.ErrClosed.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	err := c.do(ctx, func() {
		c.shutting = true
		if c.lease != nil {
			c.retire(c.lease, "shutdown")
			c.publish()
		}
	})
	if errors.Is(err, domain.ErrClosed) {
		return nil
	}
	if err != nil {
		return err
	}

	select {
	case <-c.stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// === Commands ===

// Play asks the resource to start playing. Playing in the session only
// changes when the resource reports it.
func (c *Coordinator) Play(ctx context.Context) error {
	return c.command(ctx, "play", func(ctx context.Context, res domain.Resource) error {
		return res.Play(ctx)
	})
}

// Pause asks the resource to pause.
func (c *Coordinator) Pause(ctx context.Context) error {
	return c.command(ctx, "pause", func(ctx context.Context, res domain.Resource) error {
		return res.Pause(ctx)
	})
}

// Seek forwards target unmodified; the resource decides the final position.
func (c *Coordinator) Seek(ctx context.Context, target time.Duration) error {
	return c.command(ctx, "seek", func(ctx context.Context, res domain.Resource) error {
		return res.Seek(ctx, target)
	})
}

// Minimize moves an active session into the mini-player overlay.
func (c *Coordinator) Minimize(ctx context.Context) error {
	return c.present(ctx, "minimize", (*session).minimize)
}

// Restore returns a minimized session to the full player.
func (c *Coordinator) Restore(ctx context.Context) error {
	return c.present(ctx, "restore", (*session).restore)
}

func (c *Coordinator) present(ctx context.Context, op string, apply func(*session)) error {
	var err error
	doErr := c.do(ctx, func() {
		if c.lease == nil || !c.lease.active {
			c.logger.Debug("ignoring presentation change without active session", "op", op)
			err = domain.ErrNoSession
			return
		}
		apply(&c.session)
		c.publish()
	})
	if doErr != nil {
		return doErr
	}
	return err
}

func (c *Coordinator) command(ctx context.Context, op string, run func(context.Context, domain.Resource) error) error {
	cmd := &command{op: op, run: run, reply: make(chan error, 1)}
	if err := c.do(ctx, func() { c.enqueue(cmd) }); err != nil {
		return err
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// === Loop-side handlers ===

func (c *Coordinator) beginPlay(itemID string, start time.Duration) (chan error, error) {
	if c.shutting {
		return nil, domain.ErrClosed
	}

	if l := c.lease; l != nil && l.itemID == itemID {
		if l.res != nil {
			return nil, nil
		}
		return l.wait(), nil
	}

	if c.lease != nil {
		c.retire(c.lease, "switching item")
	}

	c.gen++
	l := newLease(c.gen, itemID, max(start, 0))
	wait := l.wait()
	c.lease = l

	c.logger.Info("playback requested", "itemID", itemID, "generation", l.gen, "start", l.start)

	if c.draining == 0 {
		c.startAcquire(l)
	} else {
		c.logger.Debug("waiting for previous resource release", "itemID", itemID, "pending", c.draining)
	}
	c.publish()
	return wait, nil
}

func (c *Coordinator) startAcquire(l *lease) {
	l.started = true
	gen := l.gen

	go func() {
		res, err := c.acquire(l)
		var sub domain.Subscription
		if err == nil {
			metrics.ResourceAcquired()
			sub, err = res.Subscribe(func(st domain.Status) {
				c.post(func() { c.onStatus(gen, st) })
			})
			if err != nil {
				err = fmt.Errorf("subscribe: %w", err)
			}
		}
		c.post(func() { c.onAcquired(l, res, sub, err) })
	}()
}

func (c *Coordinator) acquire(l *lease) (domain.Resource, error) {
	if sp, ok := c.provider.(domain.StartProvider); ok && l.start > 0 {
		return sp.AcquireAt(l.ctx, l.itemID, l.start)
	}
	return c.provider.Acquire(l.ctx, l.itemID)
}

func (c *Coordinator) onAcquired(l *lease, res domain.Resource, sub domain.Subscription, err error) {
	l.resolved = true
	l.res = res
	l.sub = sub

	if l.retired {
		if res != nil {
			metrics.RecordAcquisition(metrics.OutcomeDiscarded)
			c.logger.Info("releasing resource acquired for superseded session", "itemID", l.itemID, "generation", l.gen)
		}
		c.tryRelease(l)
		return
	}

	if err == nil && slices.ContainsFunc(l.early, func(st domain.Status) bool { return st.Ended }) {
		err = errResourceEnded
	}

	if err != nil {
		metrics.RecordAcquisition(metrics.OutcomeFailure)
		c.logger.Error("failed to acquire playback resource", "error", err, "itemID", l.itemID, "generation", l.gen)
		waiters := l.waiters
		l.waiters = nil
		c.retire(l, "acquisition failed")
		c.publish()
		for _, w := range waiters {
			w <- &domain.AcquisitionError{ItemID: l.itemID, Err: err}
		}
		return
	}

	metrics.RecordAcquisition(metrics.OutcomeSuccess)
	c.logger.Info("playback resource attached", "itemID", l.itemID, "generation", l.gen, "surface", res.SurfaceID())

	c.session.itemID = l.itemID
	for _, st := range l.early {
		c.applyStatus(l, st)
	}
	l.early = nil
	c.publish()
	l.notify(nil)
}

func (c *Coordinator) onStatus(gen uint64, st domain.Status) {
	l := c.lease
	if l == nil || gen != c.gen {
		metrics.RecordStaleEvent()
		c.logger.Debug("dropping stale status event", "generation", gen, "current", c.gen)
		return
	}
	if l.res == nil {
		l.early = append(l.early, st)
		return
	}
	c.applyStatus(l, st)
	c.publish()
}

func (c *Coordinator) applyStatus(l *lease, st domain.Status) {
	if st.Ended {
		c.logger.Info("playback resource ended", "itemID", l.itemID, "generation", l.gen)
		c.retire(l, "resource ended")
		return
	}
	if !l.active {
		l.active = true
		c.logger.Info("playback active", "itemID", l.itemID, "generation", l.gen)
	}
	c.session.apply(st)
}

func (c *Coordinator) enqueue(cmd *command) {
	l := c.lease
	if l == nil || l.res == nil {
		c.logger.Debug("ignoring command without attached resource", "op", cmd.op)
		metrics.RecordCommand(cmd.op, metrics.OutcomeRejected)
		cmd.reply <- domain.ErrNoSession
		return
	}
	l.queue = append(l.queue, cmd)
	c.dispatch(l)
}

func (c *Coordinator) dispatch(l *lease) {
	cmd, ok := l.next()
	if !ok {
		return
	}
	l.busy = true
	res, ctx := l.res, l.ctx

	go func() {
		err := cmd.run(ctx, res)
		c.post(func() { c.onCommandDone(l, cmd, err) })
	}()
}

func (c *Coordinator) onCommandDone(l *lease, cmd *command, err error) {
	l.busy = false

	switch {
	case err == nil:
		metrics.RecordCommand(cmd.op, metrics.OutcomeSuccess)
	case l.retired:
		metrics.RecordCommand(cmd.op, metrics.OutcomeRejected)
		err = fmt.Errorf("%w: %s: %v", domain.ErrSuperseded, cmd.op, err)
	default:
		metrics.RecordCommand(cmd.op, metrics.OutcomeFailure)
		c.logger.Warn("playback command failed", "op", cmd.op, "error", err, "itemID", l.itemID, "generation", l.gen)
		err = &domain.CommandError{Op: cmd.op, ItemID: l.itemID, Err: err}
	}
	cmd.reply <- err

	if l.retired {
		c.tryRelease(l)
		return
	}
	c.dispatch(l)
}

// retire ends a lease's generation. Queued commands and RequestPlay waiters
// are rejected; its resource is released once no command is running and
// its acquisition has returned.
func (c *Coordinator) retire(l *lease, reason string) {
	if l.retired {
		return
	}
	l.retired = true
	l.cancel()
	c.gen++

	l.rejectQueued(domain.ErrSuperseded)
	l.notify(domain.ErrSuperseded)

	if c.lease == l {
		c.lease = nil
		c.session.reset()
	}

	if l.started && (!l.resolved || l.res != nil) {
		l.draining = true
		c.draining++
	}

	c.logger.Info("closing playback session", "itemID", l.itemID, "generation", l.gen, "reason", reason)
	c.tryRelease(l)
}

func (c *Coordinator) tryRelease(l *lease) {
	if !l.draining || !l.resolved || l.busy || l.releasing {
		return
	}
	if l.res == nil {
		c.finish(l)
		return
	}

	l.releasing = true
	res, sub := l.res, l.sub

	go func() {
		if sub != nil {
			sub.Unsubscribe()
		}
		err := res.Release(context.Background())
		metrics.ResourceReleased()
		c.post(func() { c.onReleased(l, err) })
	}()
}

func (c *Coordinator) onReleased(l *lease, err error) {
	if err != nil {
		c.logger.Warn("failed to release playback resource", "error", err, "itemID", l.itemID, "generation", l.gen)
	} else {
		c.logger.Debug("playback resource released", "itemID", l.itemID, "generation", l.gen)
	}
	l.res = nil
	l.sub = nil
	c.finish(l)
}

// finish drops a retired lease from the drain count and starts the pending
// acquisition once nothing is left to release.
func (c *Coordinator) finish(l *lease) {
	if !l.draining {
		return
	}
	l.draining = false
	c.draining--
	if c.draining > 0 {
		return
	}

	if next := c.lease; next != nil && !next.started {
		c.startAcquire(next)
	}
	c.publish()

	for _, w := range c.drainWait {
		w <- nil
	}
	c.drainWait = nil
}

func (c *Coordinator) state() State {
	l := c.lease
	switch {
	case l == nil && c.draining > 0:
		return StateClosing
	case l == nil:
		return StateIdle
	case !l.started:
		return StateClosing
	case !l.active:
		return StateLoading
	case c.session.minimized:
		return StateMinimized
	default:
		return StateActive
	}
}

func (c *Coordinator) snapshot() Snapshot {
	s := Snapshot{
		State:      c.state(),
		Generation: c.gen,
		ItemID:     c.session.itemID,
		Loaded:     c.session.loaded,
		Position:   c.session.position,
		Duration:   c.session.duration,
		Playing:    c.session.playing,
		Minimized:  c.session.minimized,
		Overlay:    c.session.overlay,
	}
	if l := c.lease; l != nil && l.res == nil {
		s.PendingItemID = l.itemID
	}
	return s
}

// publish stores the snapshot and hands it to watchers, replacing any
// snapshot they have not read yet.
func (c *Coordinator) publish() {
	snap := c.snapshot()
	c.last.Store(&snap)

	for _, ch := range c.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
