package domain

import (
	"context"
	"time"
)

// Status is a single status report emitted by a playback resource.
// Position, Duration and Playing are only meaningful when Loaded is true.
// Ended is terminal: the resource stopped on its own (player exited,
// connection lost) and accepts no further commands.
type Status struct {
	Loaded   bool
	Position time.Duration
	Duration time.Duration
	Playing  bool
	Ended    bool
}

// Surface is the view of a resource handed to rendering code.
// It carries no lifecycle operations.
type Surface interface {
	// SurfaceID identifies what a renderer attaches to (IPC socket, window id).
	SurfaceID() string
}

// Subscription cancels a status stream.
type Subscription interface {
	Unsubscribe()
}

// Resource is one acquired playback instance bound to a single media item.
type Resource interface {
	Surface

	// Subscribe delivers status events until the subscription is cancelled.
	// Events from one resource are delivered in emission order.
	Subscribe(onStatus func(Status)) (Subscription, error)

	Play(ctx context.Context) error
	Pause(ctx context.Context) error
	Seek(ctx context.Context, position time.Duration) error

	// Release tears the resource down. It is called at most once per
	// acquired resource.
	Release(ctx context.Context) error
}

// Provider opens playback resources for media items.
type Provider interface {
	Acquire(ctx context.Context, itemID string) (Resource, error)
}

// StartProvider is implemented by providers that can open an item at an
// offset, so playback does not have to seek once the media has loaded.
type StartProvider interface {
	AcquireAt(ctx context.Context, itemID string, start time.Duration) (Resource, error)
}
