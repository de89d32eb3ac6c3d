package player

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mmcdole/reel/internal/domain"
)

const (
	quitTimeout = 2 * time.Second
	exitTimeout = 5 * time.Second
)

// observedProperties are registered with observe_property, ids starting at 1.
var observedProperties = []string{"time-pos", "duration", "pause"}

// mpvResource is one running player process reached over its IPC socket.
type mpvResource struct {
	id     string
	itemID string
	cmd    *exec.Cmd
	socket string
	client *ipcClient
	logger *slog.Logger

	events   emitter
	throttle rate.Sometimes // position-only updates

	exited chan struct{}

	releaseOnce sync.Once
	releaseErr  error
}

func newMPVResource(id, itemID string, cmd *exec.Cmd, socket string, interval time.Duration, logger *slog.Logger) *mpvResource {
	r := &mpvResource{
		id:       id,
		itemID:   itemID,
		cmd:      cmd,
		socket:   socket,
		logger:   logger,
		throttle: rate.Sometimes{Interval: interval},
		exited:   make(chan struct{}),
	}
	if interval <= 0 {
		r.throttle = rate.Sometimes{Every: 1}
	}
	go r.waitProcess()
	return r
}

func (r *mpvResource) waitProcess() {
	err := r.cmd.Wait()
	close(r.exited)
	r.logger.Debug("player process exited", "itemID", r.itemID, "surface", r.id, "error", err)
}

// watchEnd reports the resource as ended once the player process exits or
// its IPC connection drops, whichever comes first.
func (r *mpvResource) watchEnd() {
	select {
	case <-r.exited:
	case <-r.client.Done():
	}
	r.logger.Debug("player ended", "itemID", r.itemID, "surface", r.id)
	r.events.update(func(st *domain.Status) bool {
		if st.Ended {
			return false
		}
		st.Ended = true
		st.Loaded = false
		st.Playing = false
		return true
	})
}

func (r *mpvResource) SurfaceID() string { return r.id }

func (r *mpvResource) Subscribe(handler func(domain.Status)) (domain.Subscription, error) {
	return r.events.subscribe(handler)
}

// observe registers the status properties with the player.
func (r *mpvResource) observe(ctx context.Context) error {
	for i, name := range observedProperties {
		if _, err := r.client.command(ctx, "observe_property", i+1, name); err != nil {
			return err
		}
	}
	return nil
}

func (r *mpvResource) onEvent(msg ipcMessage) {
	switch msg.Event {
	case "file-loaded":
		r.events.update(func(st *domain.Status) bool {
			st.Loaded = true
			return true
		})
	case "end-file":
		r.events.update(func(st *domain.Status) bool {
			st.Loaded = false
			st.Playing = false
			return true
		})
	case "property-change":
		r.onProperty(msg.Name, msg.Data)
	}
}

func (r *mpvResource) onProperty(name string, data json.RawMessage) {
	switch name {
	case "time-pos":
		pos, ok := parseSeconds(data)
		if !ok {
			return
		}
		r.events.update(func(st *domain.Status) bool {
			st.Position = pos
			publish := false
			r.throttle.Do(func() { publish = true })
			return publish
		})
	case "duration":
		dur, ok := parseSeconds(data)
		if !ok {
			return
		}
		r.events.update(func(st *domain.Status) bool {
			st.Duration = dur
			return true
		})
	case "pause":
		var paused bool
		if err := json.Unmarshal(data, &paused); err != nil {
			return
		}
		r.events.update(func(st *domain.Status) bool {
			st.Playing = !paused
			return true
		})
	}
}

// parseSeconds decodes a float seconds property; null means unavailable.
func parseSeconds(data json.RawMessage) (time.Duration, bool) {
	if len(data) == 0 || string(data) == "null" {
		return 0, false
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs * float64(time.Second)), true
}

func (r *mpvResource) Play(ctx context.Context) error {
	_, err := r.client.command(ctx, "set_property", "pause", false)
	return err
}

func (r *mpvResource) Pause(ctx context.Context) error {
	_, err := r.client.command(ctx, "set_property", "pause", true)
	return err
}

func (r *mpvResource) Seek(ctx context.Context, target time.Duration) error {
	_, err := r.client.command(ctx, "seek", target.Seconds(), "absolute")
	return err
}

// Release quits the player and cleans up its socket. Safe to call repeatedly.
func (r *mpvResource) Release(ctx context.Context) error {
	r.releaseOnce.Do(func() {
		r.releaseErr = r.release(ctx)
	})
	return r.releaseErr
}

func (r *mpvResource) release(ctx context.Context) error {
	if r.client == nil {
		// Never connected; nothing to ask politely.
		return r.cleanup(r.kill())
	}

	qctx, cancel := context.WithTimeout(ctx, quitTimeout)
	if _, err := r.client.command(qctx, "quit"); err != nil && !errors.Is(err, errIPCClosed) {
		r.logger.Debug("quit command failed", "itemID", r.itemID, "error", err)
	}
	cancel()
	r.client.Close()

	var err error
	select {
	case <-r.exited:
	case <-ctx.Done():
		r.logger.Warn("player did not exit, killing", "itemID", r.itemID, "pid", r.cmd.Process.Pid)
		err = r.kill()
	case <-time.After(exitTimeout):
		r.logger.Warn("player did not exit, killing", "itemID", r.itemID, "pid", r.cmd.Process.Pid)
		err = r.kill()
	}
	return r.cleanup(err)
}

func (r *mpvResource) cleanup(err error) error {
	if rmErr := os.Remove(r.socket); rmErr != nil && !os.IsNotExist(rmErr) {
		r.logger.Debug("failed to remove ipc socket", "socket", r.socket, "error", rmErr)
	}
	return err
}

func (r *mpvResource) kill() error {
	err := r.cmd.Process.Kill()
	<-r.exited
	if errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return err
}
