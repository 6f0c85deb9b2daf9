package scanlink

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// State is the lifecycle state of a Worker.
type State int32

const (
	Idle State = iota
	Running
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

const defaultPollInterval = 100 * time.Millisecond

// Worker owns one connection session: it opens a ByteSource, runs the
// read-decode-publish loop on its own goroutine, and shuts everything
// down on Stop or on the first read error. Decoded frames go to the
// frames channel in arrival order; session-fatal errors go to the error
// channel, at most one per session. Both channels belong to the caller
// and survive the worker.
//
// A Worker is single-use. Start it once; after it reaches Stopped,
// create a new one for the next session.
type Worker struct {
	// PollInterval is the pause between read iterations. Zero means
	// 100ms, matching the scan head's output cadence.
	PollInterval time.Duration
	// Open opens the transport; nil means OpenSerial.
	Open OpenFunc
	// Log receives dropped-frame debug messages; nil means slog.Default.
	Log *slog.Logger

	frames chan<- Frame
	errs   chan<- error

	state   atomic.Int32
	started atomic.Bool

	mut sync.Mutex // guards src
	src ByteSource

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

func NewWorker(frames chan<- Frame, errs chan<- error) *Worker {
	return &Worker{
		frames: frames,
		errs:   errs,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start opens the transport and begins the read loop in the background.
// An open failure is reported on the error channel, not returned: the
// worker publishes one *OpenError and goes straight to Stopped. Calling
// Start more than once has no effect.
func (w *Worker) Start(params Params) {
	if !w.started.CompareAndSwap(false, true) {
		return
	}
	go w.run(params)
}

// Stop requests a cooperative shutdown. The loop observes the request at
// its next iteration; an in-flight read is never interrupted, so the
// worst-case latency to Stopped is one read timeout plus one poll
// interval. Use Done to wait for completion.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
}

// Done is closed once the session has fully shut down and the transport
// is closed. It never closes for a worker that was not started.
func (w *Worker) Done() <-chan struct{} {
	return w.done
}

func (w *Worker) State() State {
	return State(w.state.Load())
}

// Send transmits one newline-terminated command. Safe to call from any
// goroutine while the read loop runs; failures come back as *WriteError
// and do not disturb the session.
func (w *Worker) Send(cmd Command) error {
	return w.write(append([]byte(cmd), '\n'))
}

// WriteRaw transmits s exactly as given, with no terminator appended. It
// exists alongside Send for ad-hoc parameter strings that carry their own
// framing.
func (w *Worker) WriteRaw(s string) error {
	return w.write([]byte(s))
}

// StartScan sends the scan setup sequence: speed, X origin, Y origin,
// line gap, start.
func (w *Worker) StartScan(x, y, speed, gap int) error {
	for _, cmd := range StartScan(x, y, speed, gap) {
		if err := w.Send(cmd); err != nil {
			return err
		}
	}
	return nil
}

// StopScan tells the scan head to end the current scan. The read loop
// keeps running; the device simply goes back to scalar output.
func (w *Worker) StopScan() error {
	return w.Send(ScanStop)
}

func (w *Worker) write(b []byte) error {
	w.mut.Lock()
	src := w.src
	w.mut.Unlock()
	if src == nil {
		return &WriteError{Err: errNotConnected}
	}
	if _, err := src.Write(b); err != nil {
		return &WriteError{Err: err}
	}
	return nil
}

func (w *Worker) run(params Params) {
	defer close(w.done)

	open := w.Open
	if open == nil {
		open = OpenSerial
	}
	src, err := open(params)
	if err != nil {
		w.errs <- &OpenError{Port: params.Port, Err: err}
		w.setState(Stopped)
		return
	}

	w.mut.Lock()
	w.src = src
	w.mut.Unlock()
	w.setState(Running)

	poll := w.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	log := w.logger()
	dec := NewDecoder()
	buf := make([]byte, 4096)

loop:
	for {
		select {
		case <-w.stop:
			break loop
		default:
		}

		n, err := src.Read(buf)
		if err != nil {
			w.errs <- &ReadError{Err: err}
			break
		}
		if n > 0 {
			frames, skipped := dec.Feed(buf[:n])
			for _, err := range skipped {
				log.Debug("dropping frame", "err", err)
			}
			for _, f := range frames {
				w.frames <- f
			}
		}

		select {
		case <-w.stop:
			break loop
		case <-time.After(poll):
		}
	}

	w.setState(Stopping)
	if err := src.Close(); err != nil {
		log.Debug("close", "err", err)
	}
	w.mut.Lock()
	w.src = nil
	w.mut.Unlock()
	w.setState(Stopped)
}

func (w *Worker) setState(s State) {
	w.state.Store(int32(s))
}

func (w *Worker) logger() *slog.Logger {
	if w.Log != nil {
		return w.Log
	}
	return slog.Default()
}
