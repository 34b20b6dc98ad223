package bump

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/sblp/sblpd/internal/observability"
)

// State of the listener lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// StateError reports a lifecycle method called in the wrong state, e.g.
// StartServer before InitServer. It is a usage error on the call, never
// fatal to the process.
type StateError struct {
	Got     State
	Need    State
	Message string
}

func (e *StateError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("expected listener state %q, but had %q", e.Need, e.Got)
}

// DefaultPort is used when InitServer is called with port 0.
const DefaultPort = 8080

// Listener is the serving surface the Client supervises. *server.Server
// satisfies it; tests substitute fakes.
type Listener interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// ListenerFactory builds the listener once the port is known, at InitServer
// time.
type ListenerFactory func(port int) Listener

// Client owns the listener lifecycle: it binds configuration, spawns the
// serving task, and guarantees that no background work outlives it.
// At most one listener is active per Client at a time.
type Client struct {
	mu       sync.Mutex
	state    State
	port     int
	factory  ListenerFactory
	listener Listener

	tasks   sync.WaitGroup
	taskN   atomic.Int64
	stopped chan struct{}

	// ShutdownTimeout bounds how long StopServer waits for in-flight
	// requests to unwind. Zero means 5s.
	ShutdownTimeout time.Duration
}

// NewClient creates a lifecycle manager around the given listener factory.
func NewClient(factory ListenerFactory) *Client {
	return &Client{factory: factory}
}

// InitServer binds the listener configuration without accepting connections.
// Valid from the uninitialized and stopped states; re-initializing a stopped
// client prepares a fresh listener.
func (c *Client) InitServer(port int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateInitialized || c.state == StateRunning {
		return &StateError{Got: c.state, Need: StateUninitialized,
			Message: "server is already initialized; call StopServer first"}
	}
	if c.factory == nil {
		return errors.New("no listener factory configured")
	}

	if port <= 0 {
		port = DefaultPort
	}
	c.port = port
	c.listener = c.factory(port)
	c.state = StateInitialized
	return nil
}

// StartServer spawns the serving task. The listener must have been
// initialized first.
func (c *Client) StartServer() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateRunning {
		return &StateError{Got: c.state, Need: StateInitialized,
			Message: "internal task is already running; call StopServer first"}
	}
	if c.state != StateInitialized {
		return &StateError{Got: c.state, Need: StateInitialized,
			Message: "server is not initialized; call InitServer first"}
	}

	c.stopped = make(chan struct{})
	listener := c.listener
	stopped := c.stopped

	c.tasks.Add(1)
	c.taskN.Add(1)
	go func() {
		defer c.tasks.Done()
		defer c.taskN.Add(-1)

		if err := listener.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			if observability.ServerLogger != nil {
				observability.ServerLogger.Error("Listener terminated", zap.Error(err))
			}
		}
		select {
		case <-stopped:
		default:
			close(stopped)
		}
	}()

	c.state = StateRunning
	return nil
}

// StopServer shuts the listener down and waits for its tasks to unwind.
// Calling it when already stopped is a no-op, not an error.
func (c *Client) StopServer() error {
	c.mu.Lock()

	if c.state == StateStopped || c.state == StateUninitialized {
		c.mu.Unlock()
		return nil
	}
	if c.state == StateInitialized {
		// Nothing running yet; just discard the bound listener.
		c.listener = nil
		c.state = StateStopped
		c.mu.Unlock()
		return nil
	}

	listener := c.listener
	timeout := c.ShutdownTimeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := listener.Shutdown(ctx)

	c.tasks.Wait()

	c.mu.Lock()
	c.listener = nil
	c.state = StateStopped
	c.mu.Unlock()

	return err
}

// Close force-cancels outstanding work from any state. It is the teardown
// guarantee: the listener and its tasks never outlive the owning Client.
func (c *Client) Close() error {
	return c.StopServer()
}

// State returns the current lifecycle state.
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Port returns the bound port; zero before InitServer.
func (c *Client) Port() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.port
}

// TaskCount returns the number of outstanding background tasks. It is zero
// after a clean StopServer.
func (c *Client) TaskCount() int {
	return int(c.taskN.Load())
}
