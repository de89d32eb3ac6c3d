package player

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/reel/internal/domain"
	"github.com/mmcdole/reel/internal/log"
)

type itemMap map[string]domain.Item

func (m itemMap) Get(id string) (domain.Item, error) {
	item, ok := m[id]
	if !ok {
		return domain.Item{}, fmt.Errorf("%w: %s", domain.ErrItemNotFound, id)
	}
	return item, nil
}

func TestSimProvider_ClockAdvancesWhilePlaying(t *testing.T) {
	p := NewSimProvider(itemMap{"v1": {ID: "v1", Duration: time.Second}}, SimOptions{Tick: 10 * time.Millisecond, Autoplay: true}, log.NullLogger())
	ctx := context.Background()

	res, err := p.Acquire(ctx, "v1")
	require.NoError(t, err)
	defer res.Release(ctx)

	var got statusLog
	_, err = res.Subscribe(got.add)
	require.NoError(t, err)

	first := got.last()
	assert.True(t, first.Loaded, "current status is replayed on subscribe")
	assert.Equal(t, time.Second, first.Duration)

	require.Eventually(t, func() bool { return got.last().Position > 0 }, time.Second, 5*time.Millisecond)

	require.NoError(t, res.Pause(ctx))
	paused := got.last()
	assert.False(t, paused.Playing)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, paused.Position, got.last().Position, "paused clock does not move")

	require.NoError(t, res.Seek(ctx, time.Hour))
	assert.Equal(t, time.Second, got.last().Position, "seek clamps to duration")

	require.NoError(t, res.Play(ctx))
	assert.Less(t, got.last().Position, 500*time.Millisecond, "play at the end restarts")
}

func TestSimProvider_StopsAtEnd(t *testing.T) {
	p := NewSimProvider(itemMap{"v1": {ID: "v1", Duration: 30 * time.Millisecond}}, SimOptions{Tick: 10 * time.Millisecond, Autoplay: true}, log.NullLogger())
	ctx := context.Background()

	res, err := p.Acquire(ctx, "v1")
	require.NoError(t, err)
	defer res.Release(ctx)

	var got statusLog
	_, err = res.Subscribe(got.add)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		st := got.last()
		return !st.Playing && st.Position == 30*time.Millisecond
	}, time.Second, 5*time.Millisecond)
}

func TestSimProvider_ExitAtEndReportsEnded(t *testing.T) {
	p := NewSimProvider(itemMap{"v1": {ID: "v1", Duration: 30 * time.Millisecond}}, SimOptions{Tick: 10 * time.Millisecond, Autoplay: true, ExitAtEnd: true}, log.NullLogger())
	ctx := context.Background()

	res, err := p.Acquire(ctx, "v1")
	require.NoError(t, err)
	defer res.Release(ctx)

	var got statusLog
	_, err = res.Subscribe(got.add)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return got.last().Ended }, time.Second, 5*time.Millisecond)
	last := got.last()
	assert.False(t, last.Loaded)
	assert.False(t, last.Playing)

	assert.ErrorIs(t, res.Play(ctx), errEnded)
	assert.ErrorIs(t, res.Seek(ctx, 0), errEnded)
}

func TestSimProvider_AcquireAtStartsAtOffset(t *testing.T) {
	p := NewSimProvider(itemMap{"v1": {ID: "v1", Duration: time.Minute}}, SimOptions{Tick: time.Hour}, log.NullLogger())
	ctx := context.Background()

	res, err := p.AcquireAt(ctx, "v1", 42*time.Second)
	require.NoError(t, err)
	defer res.Release(ctx)

	var got statusLog
	_, err = res.Subscribe(got.add)
	require.NoError(t, err)
	assert.Equal(t, 42*time.Second, got.last().Position)

	past, err := p.AcquireAt(ctx, "v1", time.Hour)
	require.NoError(t, err)
	defer past.Release(ctx)

	var pastLog statusLog
	_, err = past.Subscribe(pastLog.add)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, pastLog.last().Position, "start clamps to duration")
}

func TestSimProvider_AcquireErrors(t *testing.T) {
	p := NewSimProvider(itemMap{"v1": {ID: "v1"}}, SimOptions{LoadDelay: time.Hour}, log.NullLogger())

	_, err := p.Acquire(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrItemNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Acquire(ctx, "v1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSimResource_ReleaseIdempotent(t *testing.T) {
	p := NewSimProvider(itemMap{"v1": {ID: "v1"}}, SimOptions{}, log.NullLogger())
	ctx := context.Background()

	res, err := p.Acquire(ctx, "v1")
	require.NoError(t, err)

	require.NoError(t, res.Release(ctx))
	require.NoError(t, res.Release(ctx))
	assert.ErrorIs(t, res.Play(ctx), errReleased)
}
