// Package sse keeps the single server-push connection used to learn that
// the session changed on the backend.
package sse

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

type State int

const (
	StateIdle State = iota
	StateConnecting
	StateOpen
	StateError
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateError:
		return "error"
	case StateClosed:
		return "closed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// PingEvent is the event name the backend uses to signal a change.
const PingEvent = "ping"

// ErrForbidden is returned by Start when the backend refuses the stream
// with 403.
var ErrForbidden = errors.New("event stream forbidden")

// DefaultConnectTimeout bounds the wait for the stream response headers.
const DefaultConnectTimeout = 30 * time.Second

// Callback receives the opaque payload of each ping or unnamed event.
// It runs on the stream goroutine and must not call Stop.
type Callback func(data string)

// Receiver owns at most one live event stream. Start replaces any existing
// stream; nothing reconnects on its own.
type Receiver struct {
	client *http.Client
	logger *logrus.Logger

	// lifecycle serializes Start and Stop
	lifecycle sync.Mutex

	mu             sync.Mutex
	state          State
	generation     uint64
	callback       Callback
	cancel         context.CancelFunc
	done           chan struct{}
	connectTimeout time.Duration
	onStateChange  func(State)
	onForbidden    func()
}

func NewReceiver(client *http.Client, logger *logrus.Logger) *Receiver {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Receiver{client: client, logger: logger, connectTimeout: DefaultConnectTimeout}
}

// OnStateChange registers a hook invoked on every transition.
func (r *Receiver) OnStateChange(fn func(State)) {
	r.mu.Lock()
	r.onStateChange = fn
	r.mu.Unlock()
}

// OnForbidden registers a hook run when the backend answers the stream
// request with 403.
func (r *Receiver) OnForbidden(fn func()) {
	r.mu.Lock()
	r.onForbidden = fn
	r.mu.Unlock()
}

// SetConnectTimeout limits how long Start waits for the response headers.
// Zero waits forever. An open stream is never timed out.
func (r *Receiver) SetConnectTimeout(timeout time.Duration) {
	r.mu.Lock()
	r.connectTimeout = timeout
	r.mu.Unlock()
}

func (r *Receiver) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Start closes any current stream, then connects to url and delivers ping
// and unnamed events to callback until Stop, ctx cancellation or a stream
// failure.
func (r *Receiver) Start(ctx context.Context, url string, callback Callback) error {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.stopLocked()

	streamCtx, cancel := context.WithCancel(ctx)
	r.mu.Lock()
	r.generation++
	gen := r.generation
	r.callback = callback
	r.cancel = cancel
	timeout := r.connectTimeout
	r.mu.Unlock()
	r.setState(gen, StateConnecting)

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, url, nil)
	if err != nil {
		r.fail(gen, err)
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	var timedOut atomic.Bool
	var timer *time.Timer
	if timeout > 0 {
		timer = time.AfterFunc(timeout, func() {
			timedOut.Store(true)
			cancel()
		})
	}
	resp, err := r.client.Do(req)
	if timer != nil {
		timer.Stop()
	}

	switch {
	case timedOut.Load():
		if resp != nil {
			resp.Body.Close()
		}
		err := fmt.Errorf("connect event stream: no response within %s", timeout)
		r.fail(gen, err)
		return err
	case err != nil && streamCtx.Err() != nil:
		r.logger.Debug("Event stream stopped while connecting")
		r.finish(gen, StateClosed)
		return fmt.Errorf("connect event stream: %w", err)
	case err != nil:
		r.fail(gen, err)
		return fmt.Errorf("connect event stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		if resp.StatusCode == http.StatusForbidden {
			err := fmt.Errorf("connect event stream: %w", ErrForbidden)
			r.fail(gen, err)
			r.mu.Lock()
			hook := r.onForbidden
			r.mu.Unlock()
			if hook != nil {
				hook()
			}
			return err
		}
		err := fmt.Errorf("connect event stream: status %d", resp.StatusCode)
		r.fail(gen, err)
		return err
	}

	done := make(chan struct{})
	r.mu.Lock()
	r.done = done
	r.mu.Unlock()
	r.setState(gen, StateOpen)
	r.logger.WithField("url", url).Info("Event stream connected")

	go r.read(streamCtx, gen, resp, done)
	return nil
}

// Stop closes the active stream, if any, and forgets the callback. A
// connection still waiting for headers is cancelled too. Stop waits for the
// stream goroutine to exit.
func (r *Receiver) Stop() {
	r.mu.Lock()
	cancel := r.cancel
	r.mu.Unlock()
	if cancel != nil {
		cancel()
	}

	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()
	r.stopLocked()
}

func (r *Receiver) stopLocked() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done, r.callback = nil, nil, nil
	gen := r.generation
	r.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
	if cancel != nil {
		r.setState(gen, StateClosed)
		r.setState(gen, StateIdle)
	}
}

func (r *Receiver) read(ctx context.Context, gen uint64, resp *http.Response, done chan struct{}) {
	defer close(done)
	defer resp.Body.Close()

	scanner := NewScanner(resp.Body)
	for scanner.Next() {
		event := scanner.Event()
		if event.Name != "" && event.Name != PingEvent && event.Name != "message" {
			r.logger.WithField("event", event.Name).Debug("Ignoring event")
			continue
		}

		r.mu.Lock()
		callback := r.callback
		current := r.generation == gen
		r.mu.Unlock()
		if !current || callback == nil {
			return
		}
		callback(event.Data)
	}

	err := scanner.Err()
	switch {
	case ctx.Err() != nil:
		r.logger.Debug("Event stream stopped")
		r.finish(gen, StateClosed)
	case err == nil || errors.Is(err, context.Canceled):
		r.logger.Warn("Event stream connection closed by server")
		r.finish(gen, StateClosed)
	default:
		r.logger.WithError(err).Error("Event stream failed")
		r.finish(gen, StateError)
	}
}

// finish moves a dead stream through its terminal state back to idle. It
// does nothing when Stop or a newer Start already took the stream over.
func (r *Receiver) finish(gen uint64, terminal State) {
	r.mu.Lock()
	cancel := r.cancel
	owned := r.generation == gen && cancel != nil
	if owned {
		r.callback = nil
		r.cancel = nil
	}
	r.mu.Unlock()
	if !owned {
		return
	}

	cancel()
	r.setState(gen, terminal)
	r.setState(gen, StateIdle)
}

func (r *Receiver) fail(gen uint64, err error) {
	r.logger.WithError(err).Error("Event stream connection failed")
	r.finish(gen, StateError)
}

func (r *Receiver) setState(gen uint64, state State) {
	r.mu.Lock()
	if r.generation != gen || r.state == state {
		r.mu.Unlock()
		return
	}
	r.state = state
	hook := r.onStateChange
	r.mu.Unlock()

	if hook != nil {
		hook(state)
	}
}
