// Package conntest provides an in-memory connection.Conn for tests.
package conntest

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/felicia-viz/viz-relay/internal/connection"
)

// Fake records every frame sent to it.
type Fake struct {
	id          string
	remoteAddr  string
	connectedAt time.Time
	done        chan struct{}

	mu      sync.Mutex
	frames  [][]byte
	subType string
	closed  bool
	sendErr error
}

var _ connection.Conn = (*Fake)(nil)

// New creates an open Fake with the given ID.
func New(id string) *Fake {
	return &Fake{
		id:          id,
		remoteAddr:  "127.0.0.1:0",
		connectedAt: time.Now(),
		done:        make(chan struct{}),
	}
}

func (f *Fake) ID() string             { return f.id }
func (f *Fake) RemoteAddr() string     { return f.remoteAddr }
func (f *Fake) ConnectedAt() time.Time { return f.connectedAt }
func (f *Fake) Done() <-chan struct{}  { return f.done }

func (f *Fake) Send(frame []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return connection.ErrClosed
	}
	if f.sendErr != nil {
		return f.sendErr
	}
	f.frames = append(f.frames, frame)
	return nil
}

// FailSends makes every later Send return err.
func (f *Fake) FailSends(err error) {
	f.mu.Lock()
	f.sendErr = err
	f.mu.Unlock()
}

func (f *Fake) SubscriptionType() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subType
}

func (f *Fake) SetSubscriptionType(msgType string) {
	f.mu.Lock()
	f.subType = msgType
	f.mu.Unlock()
}

func (f *Fake) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.done)
	}
	return nil
}

// Frames returns a copy of the frames sent so far.
func (f *Fake) Frames() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.frames))
	copy(out, f.frames)
	return out
}

// Last decodes the most recent frame into v. Reports false if none was sent.
func (f *Fake) Last(v any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.frames) == 0 {
		return false
	}
	return json.Unmarshal(f.frames[len(f.frames)-1], v) == nil
}
