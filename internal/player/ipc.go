package player

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
)

// errIPCClosed is returned for requests on a closed connection.
var errIPCClosed = errors.New("player ipc connection closed")

// ipcMessage is one line from the player: either a reply carrying
// RequestID or an asynchronous event.
type ipcMessage struct {
	RequestID int64           `json:"request_id,omitempty"`
	Error     string          `json:"error,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Event     string          `json:"event,omitempty"`
	ID        int64           `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
}

type ipcRequest struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// ipcClient speaks the mpv JSON IPC protocol: newline-delimited JSON,
// replies matched by request_id, events pushed to onEvent from the read loop.
type ipcClient struct {
	conn    net.Conn
	onEvent func(ipcMessage)
	logger  *slog.Logger

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[int64]chan ipcMessage
	nextID  int64
	closed  bool

	done chan struct{}
}

func newIPCClient(conn net.Conn, onEvent func(ipcMessage), logger *slog.Logger) *ipcClient {
	c := &ipcClient{
		conn:    conn,
		onEvent: onEvent,
		logger:  logger,
		pending: make(map[int64]chan ipcMessage),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *ipcClient) readLoop() {
	defer c.shutdown()

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			c.logger.Debug("skipping malformed ipc line", "error", err)
			continue
		}

		if msg.Event != "" {
			if c.onEvent != nil {
				c.onEvent(msg)
			}
			continue
		}

		c.mu.Lock()
		reply, ok := c.pending[msg.RequestID]
		delete(c.pending, msg.RequestID)
		c.mu.Unlock()
		if ok {
			reply <- msg
		}
	}
}

func (c *ipcClient) shutdown() {
	c.mu.Lock()
	c.closed = true
	for id, reply := range c.pending {
		delete(c.pending, id)
		close(reply)
	}
	c.mu.Unlock()
	close(c.done)
}

// command sends one request and waits for its reply.
func (c *ipcClient) command(ctx context.Context, args ...any) (json.RawMessage, error) {
	reply := make(chan ipcMessage, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, errIPCClosed
	}
	c.nextID++
	id := c.nextID
	c.pending[id] = reply
	c.mu.Unlock()

	data, err := json.Marshal(ipcRequest{Command: args, RequestID: id})
	if err != nil {
		c.forget(id)
		return nil, err
	}
	data = append(data, '\n')

	c.writeMu.Lock()
	_, err = c.conn.Write(data)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, fmt.Errorf("write ipc request: %w", err)
	}

	select {
	case msg, ok := <-reply:
		if !ok {
			return nil, errIPCClosed
		}
		if msg.Error != "" && msg.Error != "success" {
			return nil, fmt.Errorf("player %v: %s", args[0], msg.Error)
		}
		return msg.Data, nil
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	}
}

func (c *ipcClient) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// Done is closed once the read loop has stopped.
func (c *ipcClient) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection and waits for the read loop to exit.
func (c *ipcClient) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}
