package mpv

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
)

// ErrConnClosed is returned for commands issued after the connection closed.
var ErrConnClosed = errors.New("mpv ipc connection closed")

const defaultCommandTimeout = 5 * time.Second

// message is one line received from the IPC socket. Lines with Event set are
// events; the others are command replies.
type message struct {
	Event     string          `json:"event,omitempty"`
	Reason    string          `json:"reason,omitempty"`
	FileError string          `json:"file_error,omitempty"`
	Name      string          `json:"name,omitempty"`
	ID        int64           `json:"id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Error     string          `json:"error,omitempty"`
	RequestID int64           `json:"request_id,omitempty"`
}

type request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// conn is a JSON IPC client. Replies are matched to requests by id; events
// are handed to onEvent on the reader goroutine in arrival order.
type conn struct {
	rwc     io.ReadWriteCloser
	onEvent func(message)
	timeout time.Duration

	writeMu sync.Mutex
	nextID  atomic.Int64

	mu      sync.Mutex
	pending map[int64]chan message
	closed  bool
	done    chan struct{}
}

func newConn(rwc io.ReadWriteCloser, onEvent func(message)) *conn {
	c := &conn{
		rwc:     rwc,
		onEvent: onEvent,
		timeout: defaultCommandTimeout,
		pending: make(map[int64]chan message),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *conn) readLoop() {
	defer c.shutdown()

	scanner := bufio.NewScanner(c.rwc)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg message
		if err := json.Unmarshal(line, &msg); err != nil {
			zlog.Debug().Msgf("mpv: undecodable ipc line: %v", err)
			continue
		}
		if msg.Event != "" {
			c.onEvent(msg)
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[msg.RequestID]
		delete(c.pending, msg.RequestID)
		c.mu.Unlock()
		if ok {
			ch <- msg
		}
	}
	if err := scanner.Err(); err != nil {
		zlog.Debug().Msgf("mpv: ipc read ended: %v", err)
	}
}

// command sends args and waits for the reply.
func (c *conn) command(ctx context.Context, args ...any) (json.RawMessage, error) {
	id := c.nextID.Add(1)
	ch := make(chan message, 1)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrConnClosed
	}
	c.pending[id] = ch
	c.mu.Unlock()

	line, err := json.Marshal(request{Command: args, RequestID: id})
	if err != nil {
		c.forget(id)
		return nil, errors.Wrap(err, "failed to encode mpv command")
	}
	line = append(line, '\n')

	c.writeMu.Lock()
	_, err = c.rwc.Write(line)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return nil, errors.Wrap(err, "failed to write mpv command")
	}

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case msg := <-ch:
		if msg.Error != "" && msg.Error != "success" {
			return nil, errors.Newf("mpv command %v: %s", args[0], msg.Error)
		}
		return msg.Data, nil
	case <-c.done:
		return nil, ErrConnClosed
	case <-timer.C:
		c.forget(id)
		return nil, errors.Newf("mpv command %v: timed out", args[0])
	case <-ctx.Done():
		c.forget(id)
		return nil, ctx.Err()
	}
}

func (c *conn) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

// getFloat reads a numeric property.
func (c *conn) getFloat(ctx context.Context, name string) (float64, error) {
	data, err := c.command(ctx, "get_property", name)
	if err != nil {
		return 0, err
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return 0, errors.Wrapf(err, "property %s is not a number", name)
	}
	return v, nil
}

func (c *conn) setProperty(ctx context.Context, name string, value any) error {
	_, err := c.command(ctx, "set_property", name, value)
	return err
}

func (c *conn) shutdown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.pending = make(map[int64]chan message)
	close(c.done)
	c.mu.Unlock()
}

// Close closes the connection and fails pending commands.
func (c *conn) Close() error {
	c.shutdown()
	return c.rwc.Close()
}

// Done is closed once the connection is gone.
func (c *conn) Done() <-chan struct{} {
	return c.done
}
