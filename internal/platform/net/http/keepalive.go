package http

import (
	"encoding/json"
	stdhttp "net/http"
	"sync"
	"time"

	perr "armvalidator/internal/platform/errors"
	"armvalidator/internal/platform/logger"
)

// DefaultKeepAliveInterval is used when a non-positive interval is given
const DefaultKeepAliveInterval = 10 * time.Second

// heartbeat is JSON insignificant whitespace, so the final body still parses
var heartbeat = []byte(" ")

// ErrTerminated is returned by Terminate once the terminal payload was written
var ErrTerminated = perr.New(perr.ErrorCodeInvalidArgument, "keep-alive channel already terminated")

// KeepAlive holds a streamed 200 response open with periodic heartbeat bytes
// until exactly one terminal JSON payload is written
//
// All writes to the underlying ResponseWriter happen under mu, so heartbeat
// bytes never interleave with the payload
type KeepAlive struct {
	w        stdhttp.ResponseWriter
	rc       *stdhttp.ResponseController
	interval time.Duration
	log      *logger.Logger

	mu         sync.Mutex
	started    bool
	stopped    bool
	terminated bool
	beats      int

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewKeepAlive wraps w; nothing is written until Begin or Terminate
func NewKeepAlive(w stdhttp.ResponseWriter, interval time.Duration, log *logger.Logger) *KeepAlive {
	if interval <= 0 {
		interval = DefaultKeepAliveInterval
	}
	if log == nil {
		log = logger.Named("keepalive")
	}
	return &KeepAlive{
		w:        w,
		rc:       stdhttp.NewResponseController(w),
		interval: interval,
		log:      log,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Begin commits the 200 status and JSON content type, flushes, and starts the
// heartbeat goroutine. It does not block. Calls after the first, after Stop or
// after Terminate are no-ops
func (k *KeepAlive) Begin() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.started || k.stopped || k.terminated {
		return
	}
	k.started = true
	k.commitLocked()
	go k.loop()
}

// Stop cancels the heartbeat and waits for its goroutine to exit. Idempotent
func (k *KeepAlive) Stop() {
	k.stopOnce.Do(func() { close(k.stop) })

	k.mu.Lock()
	k.stopped = true
	started := k.started
	k.mu.Unlock()

	if started {
		<-k.done
	}
}

// Terminate stops the heartbeat, writes json(v) and flushes. It returns
// ErrTerminated on every call after the first and writes nothing then
func (k *KeepAlive) Terminate(v any) error {
	k.Stop()

	body, encErr := json.Marshal(v)
	if encErr != nil {
		body = []byte(`{"error":"response encoding failed"}`)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	if k.terminated {
		return ErrTerminated
	}
	k.terminated = true

	if !k.started {
		k.commitLocked()
	}
	if _, err := k.w.Write(body); err != nil {
		return perr.IOf(err, "write terminal payload")
	}
	k.flushLocked()
	if encErr != nil {
		return perr.Wrap(encErr, perr.ErrorCodeJSON, "encode terminal payload")
	}
	return nil
}

// Beats reports how many heartbeat bytes reached the stream
func (k *KeepAlive) Beats() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.beats
}

func (k *KeepAlive) loop() {
	defer close(k.done)
	t := time.NewTicker(k.interval)
	defer t.Stop()
	for {
		select {
		case <-k.stop:
			return
		case <-t.C:
			k.beat()
		}
	}
}

func (k *KeepAlive) beat() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.terminated {
		return
	}
	if _, err := k.w.Write(heartbeat); err != nil {
		// client went away; the terminal write will surface it
		k.log.Debug().Err(err).Msg("heartbeat write failed")
		return
	}
	k.beats++
	k.flushLocked()
}

func (k *KeepAlive) commitLocked() {
	k.w.Header().Set("Content-Type", "application/json")
	k.w.WriteHeader(stdhttp.StatusOK)
	k.flushLocked()
}

func (k *KeepAlive) flushLocked() {
	if err := k.rc.Flush(); err != nil {
		k.log.Debug().Err(err).Msg("flush not supported")
	}
}
