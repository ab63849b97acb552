package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"
)

const (
	// DefaultAcquireTimeout bounds one wait for a new frame.
	DefaultAcquireTimeout = 500 * time.Millisecond

	statsLogInterval = 5 * time.Second
)

// State describes the session lifecycle.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateFaulted
	StateDisposed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFaulted:
		return "faulted"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}

// StateListener observes session state transitions. Listeners run on the
// session's control goroutine and must return promptly.
type StateListener func(State)

// Options configures one session. AcquireTimeout is read when Start launches
// a worker; changing options has no effect on a running worker.
type Options struct {
	AdapterIndex   int
	OutputIndex    int
	AcquireTimeout time.Duration
}

type cmdKind int

const (
	cmdStart cmdKind = iota
	cmdStop
	cmdShutdown
)

type command struct {
	kind  cmdKind
	reply chan error
}

// Session continuously captures one display output and delivers each frame
// to subscribers as a borrowed frame.View.
//
// A control goroutine owns all lifecycle state and serializes Start, Stop and
// Close; the capture worker runs outside that loop so configuration traffic
// never blocks capture. Use NewSession to construct an instance.
type Session struct {
	logger  *slog.Logger
	backend Backend
	opts    Options

	ctrl   chan command
	closed chan struct{}

	state atomic.Int32
	subs  subscriberList

	listenerMu sync.Mutex
	listeners  []StateListener

	frames     atomic.Uint64
	timeouts   atomic.Uint64
	cycleNanos atomic.Uint64
	sequence   atomic.Uint64
	lastFrame  atomic.Int64
}

// NewSession constructs a session over the given backend and starts its
// control loop. Call Close to release it.
func NewSession(logger *slog.Logger, backend Backend, opts Options) *Session {
	if opts.AcquireTimeout <= 0 {
		opts.AcquireTimeout = DefaultAcquireTimeout
	}
	s := &Session{
		logger:  logger,
		backend: backend,
		opts:    opts,
		ctrl:    make(chan command),
		closed:  make(chan struct{}),
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				if logger != nil {
					logger.Error("session control loop panic", "error", r, "stack", string(debug.Stack()))
				}
			}
		}()
		s.control()
	}()
	return s
}

// State reports the current lifecycle state.
func (s *Session) State() State { return State(s.state.Load()) }

// AddStateListener registers a transition observer.
func (s *Session) AddStateListener(l StateListener) {
	s.listenerMu.Lock()
	s.listeners = append(s.listeners, l)
	s.listenerMu.Unlock()
}

// Subscribe registers fn for synchronous per-frame delivery and returns a
// token for Unsubscribe. Callbacks run on the capture worker in registration
// order and gate capture cadence; they must not block indefinitely and must
// not retain the view past their return.
func (s *Session) Subscribe(fn FrameFunc) (Token, error) {
	if s.State() == StateDisposed {
		return Token{}, ErrDisposed
	}
	return s.subs.add(fn), nil
}

// Unsubscribe removes a previously registered callback.
func (s *Session) Unsubscribe(token Token) error {
	if s.State() == StateDisposed {
		return ErrDisposed
	}
	return s.subs.remove(token)
}

// Start opens the backend and launches the capture worker. It returns once
// the worker is running; it does not wait for the first frame. Fails with
// ErrInvalidState while running and ErrDisposed after Close.
func (s *Session) Start() error { return s.send(cmdStart) }

// Stop halts capture and blocks until the worker has exited, bounded by the
// acquire timeout plus in-flight processing. Stopping an idle session is a
// no-op that still guarantees quiescence on return. If the worker died of a
// backend fault since the last Stop, that fault is returned here.
func (s *Session) Stop() error { return s.send(cmdStop) }

// Close stops capture if needed, clears subscribers and disposes the
// session. Subsequent Start/Stop/Subscribe fail with ErrDisposed. Close is
// idempotent.
func (s *Session) Close() error {
	err := s.send(cmdShutdown)
	if errors.Is(err, ErrDisposed) {
		return nil
	}
	return err
}

func (s *Session) send(kind cmdKind) error {
	cmd := command{kind: kind, reply: make(chan error, 1)}
	select {
	case s.ctrl <- cmd:
	case <-s.closed:
		return ErrDisposed
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-s.closed:
		return ErrDisposed
	}
}

// control owns all lifecycle state. Commands are handled one at a time, so
// Start/Stop/Close are serialized without a session-wide lock; the worker
// reports its exit (and any fault) on the done channel of its run.
func (s *Session) control() {
	defer close(s.closed)
	var (
		stop  chan struct{}
		done  chan error
		fault error
	)
	for {
		if s.State() == StateRunning {
			select {
			case err := <-done:
				// Worker died on its own: backend fault.
				fault = err
				s.setState(StateFaulted)
			case cmd := <-s.ctrl:
				switch cmd.kind {
				case cmdStart:
					cmd.reply <- ErrInvalidState
				case cmdStop, cmdShutdown:
					close(stop)
					err := <-done
					s.setState(StateIdle)
					if cmd.kind == cmdShutdown {
						s.dispose()
						cmd.reply <- err
						return
					}
					cmd.reply <- err
				}
			}
			continue
		}

		cmd := <-s.ctrl
		switch cmd.kind {
		case cmdStart:
			dup, err := s.backend.Open(s.opts.AdapterIndex, s.opts.OutputIndex)
			if err != nil {
				cmd.reply <- fmt.Errorf("capture: open backend: %w", err)
				continue
			}
			fault = nil
			stop = make(chan struct{})
			done = make(chan error, 1)
			s.setState(StateRunning)
			go s.worker(dup, stop, done)
			cmd.reply <- nil
		case cmdStop:
			// Already quiescent. Surface a pending fault exactly once.
			err := fault
			fault = nil
			if s.State() == StateFaulted {
				s.setState(StateIdle)
			}
			cmd.reply <- err
		case cmdShutdown:
			s.dispose()
			cmd.reply <- fault
			return
		}
	}
}

func (s *Session) dispose() {
	s.setState(StateDisposed)
	s.subs.clear()
}

func (s *Session) setState(next State) {
	prev := State(s.state.Swap(int32(next)))
	if prev == next {
		return
	}
	if s.logger != nil {
		s.logger.Debug("capture state transition", "from", prev.String(), "to", next.String())
	}
	s.listenerMu.Lock()
	listeners := make([]StateListener, len(s.listeners))
	copy(listeners, s.listeners)
	s.listenerMu.Unlock()
	for _, l := range listeners {
		l(next)
	}
}

// worker runs the acquire/copy/map/notify/release cycle until stop closes or
// the backend fails. The duplicator is owned here and always closed on exit.
func (s *Session) worker(dup Duplicator, stop <-chan struct{}, done chan<- error) {
	var exitErr error
	defer func() {
		if r := recover(); r != nil {
			exitErr = fmt.Errorf("capture: worker panic: %v", r)
			if s.logger != nil {
				s.logger.Error("capture worker panic", "error", r, "stack", string(debug.Stack()))
			}
		}
		if err := dup.Close(); err != nil && s.logger != nil {
			s.logger.Error("close duplicator", "error", err)
		}
		done <- exitErr
	}()

	logTicker := time.NewTicker(statsLogInterval)
	defer logTicker.Stop()

	timeout := s.opts.AcquireTimeout
	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := s.captureOnce(dup, timeout); err != nil {
			if errors.Is(err, ErrNoFrame) {
				// Expected under normal operation: nothing changed on screen.
				s.timeouts.Add(1)
				continue
			}
			exitErr = err
			if s.logger != nil {
				s.logger.Error("capture cycle failed", "error", err)
			}
			return
		}

		select {
		case <-logTicker.C:
			s.logStats()
		default:
		}
	}
}

// captureOnce performs one full cycle. Unmap and ReleaseFrame are deferred so
// a failing or panicking subscriber can never leak a backend frame handle.
func (s *Session) captureOnce(dup Duplicator, timeout time.Duration) error {
	start := time.Now()

	if err := dup.AcquireFrame(timeout); err != nil {
		if errors.Is(err, ErrNoFrame) {
			return err
		}
		return fmt.Errorf("capture: acquire frame: %w", err)
	}
	defer func() {
		if err := dup.ReleaseFrame(); err != nil && s.logger != nil {
			s.logger.Error("release frame", "error", err)
		}
	}()

	if err := dup.CopyToStaging(); err != nil {
		return fmt.Errorf("capture: copy to staging: %w", err)
	}

	mapped, err := dup.MapRead()
	if err != nil {
		return fmt.Errorf("capture: map staging: %w", err)
	}
	defer func() {
		if err := dup.Unmap(); err != nil && s.logger != nil {
			s.logger.Error("unmap staging", "error", err)
		}
	}()

	s.notify(mapped, dup)

	elapsed := time.Since(start)
	s.cycleNanos.Add(uint64(elapsed.Nanoseconds()))
	s.frames.Add(1)
	s.sequence.Add(1)
	s.lastFrame.Store(time.Now().UnixNano())
	return nil
}

// notify builds the per-frame view, delivers it to all subscribers in order
// and revokes it before the staging buffer goes back to the backend.
func (s *Session) notify(mapped Mapped, dup Duplicator) {
	w, h := dup.Bounds()
	view := newFrameView(mapped, w, h)
	defer view.Release()
	for _, sub := range s.subs.snapshot() {
		func() {
			defer func() {
				if r := recover(); r != nil && s.logger != nil {
					s.logger.Error("subscriber panic", "error", r)
				}
			}()
			sub.fn(view)
		}()
	}
}
