package repository

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"chess_mentor/internal/bootstrap"
	chessdom "chess_mentor/internal/domain/chess"
	errs "chess_mentor/internal/errors"
)

type EngineState int

const (
	StateUninitialized EngineState = iota
	StateLoading
	StateAwaitingHandshake
	StateReady
	StateEvaluating
	StateUnavailable
	StateTerminated
)

// ProcStarter launches one engine candidate and returns its stdin, stdout and
// a release function. Injected so tests can feed scripted pipes instead of a
// real process.
type ProcStarter func(path string) (io.WriteCloser, io.ReadCloser, func() error, error)

// EngineClient owns exactly one lifecycle of an external UCI engine process
// and mediates all communication with it. At most one evaluation is live at a
// time: a new Evaluate supersedes the previous one at the protocol level
// (stop) and locally (callback swap under the mutex).
type EngineClient struct {
	log   *zap.SugaredLogger
	start ProcStarter

	candidates       []string
	handshakeTimeout time.Duration
	pollInterval     time.Duration

	mu       sync.Mutex
	state    EngineState
	stdin    *bufio.Writer
	release  func() error
	pending  []string // commands buffered until the handshake completes
	draining bool     // the superseded search has not yet acknowledged stop
	deferred []string // the newest evaluation's commands, flushed after drain
	onSample chessdom.SampleFunc
}

func NewEngineClient(cfg *bootstrap.Config, log *zap.SugaredLogger) *EngineClient {
	return &EngineClient{
		log:              log,
		start:            startEngineProcess,
		candidates:       cfg.EngineCandidates(),
		handshakeTimeout: time.Duration(cfg.EngineHandshakeTimeoutMs) * time.Millisecond,
		pollInterval:     time.Duration(cfg.EnginePollIntervalMs) * time.Millisecond,
		state:            StateUninitialized,
	}
}

func startEngineProcess(path string) (io.WriteCloser, io.ReadCloser, func() error, error) {
	cmd := exec.Command(path)

	stdinPipe, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, nil, err
	}
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, nil, err
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, nil, err
	}

	release := func() error {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		return cmd.Wait()
	}
	return stdinPipe, stdoutPipe, release, nil
}

// Init walks the ranked candidate list and starts the first binary that
// launches, then performs the UCI handshake: send "uci", poll for "uciok" on
// an interval bounded by the handshake timeout. false means degraded mode:
// either no candidate started at all, or the handshake timed out. In the
// latter case the process is left alive and the client may still become
// ready if the acknowledgment arrives late.
func (c *EngineClient) Init(ctx context.Context) bool {
	c.mu.Lock()
	if c.state == StateReady || c.state == StateEvaluating {
		c.mu.Unlock()
		return true
	}
	c.state = StateLoading
	candidates := c.candidates
	c.mu.Unlock()

	for _, path := range candidates {
		stdin, stdout, release, err := c.start(path)
		if err != nil {
			c.log.Warnf("engine candidate %q failed to start: %v", path, err)
			continue
		}

		c.mu.Lock()
		c.stdin = bufio.NewWriter(stdin)
		c.release = release
		c.state = StateAwaitingHandshake
		c.writeLocked("uci")
		c.mu.Unlock()

		go c.readLoop(stdout)

		deadline := time.Now().Add(c.handshakeTimeout)
		ticker := time.NewTicker(c.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return false
			case <-ticker.C:
			}

			c.mu.Lock()
			ready := c.state == StateReady || c.state == StateEvaluating
			c.mu.Unlock()
			if ready {
				c.log.Infof("engine %q is ready", path)
				return true
			}
			if time.Now().After(deadline) {
				c.log.Warnf("engine %q handshake timed out after %s", path, c.handshakeTimeout)
				return false
			}
		}
	}

	c.mu.Lock()
	c.state = StateUnavailable
	c.mu.Unlock()
	c.log.Error("all engine candidates failed to load")
	return false
}

// Ready reports whether evaluations are being executed rather than buffered.
func (c *EngineClient) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == StateReady || c.state == StateEvaluating
}

// Evaluate requests a depth-bounded search of a FEN position. Non-blocking:
// samples arrive later through onSample. The callback is swapped before any
// command is written, so samples of a superseded search can never reach the
// newer caller. Before the handshake completes the commands queue in FIFO
// order and flush on Ready; after Quit the call fails fast.
//
// There is no built-in evaluation timeout. A caller that needs liveness must
// impose its own.
func (c *EngineClient) Evaluate(fen string, depth int, onSample chessdom.SampleFunc) error {
	cmds := []string{
		"position fen " + fen,
		fmt.Sprintf("go depth %d", depth),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateUninitialized, StateUnavailable, StateTerminated:
		return errs.ErrEngineNotReady
	case StateLoading, StateAwaitingHandshake:
		c.onSample = onSample
		c.pending = append(c.pending, cmds...)
		return nil
	case StateEvaluating:
		c.onSample = onSample
		if !c.draining {
			c.writeLocked("stop")
			c.draining = true
		}
		c.deferred = cmds // the newest request wins; an older deferred one is dropped
		return nil
	default: // StateReady
		c.onSample = onSample
		c.state = StateEvaluating
		for _, cmd := range cmds {
			c.writeLocked(cmd)
		}
		return nil
	}
}

// Stop cancels the in-flight search, best-effort. The stopped search still
// owes a bestmove and may have info lines in flight, so its remaining output
// is quarantined the same way a superseding Evaluate quarantines it: nothing
// reaches a callback until the owed bestmove arrives.
func (c *EngineClient) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateEvaluating {
		return
	}
	if !c.draining {
		c.writeLocked("stop")
	}
	c.draining = true
	c.onSample = nil
	c.deferred = nil
}

// Quit terminates the engine process and resets the client to Uninitialized.
// Evaluate calls before a re-Init fail fast with ErrEngineNotReady.
func (c *EngineClient) Quit() {
	c.mu.Lock()
	if c.stdin != nil {
		c.writeLocked("quit")
	}
	release := c.release
	c.state = StateUninitialized
	c.stdin = nil
	c.release = nil
	c.pending = nil
	c.deferred = nil
	c.draining = false
	c.onSample = nil
	c.mu.Unlock()

	if release != nil {
		if err := release(); err != nil {
			c.log.Warnf("engine process release: %v", err)
		}
	}
}

// readLoop is the stdout worker. It routes handshake and search-termination
// markers into state transitions and delivers analysis samples to the
// currently registered callback. A worker fault is logged and surfaces as no
// further samples.
func (c *EngineClient) readLoop(r io.ReadCloser) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "uciok"):
			c.mu.Lock()
			if c.state == StateAwaitingHandshake {
				c.state = StateReady
				if len(c.pending) > 0 {
					c.state = StateEvaluating
				}
				for _, cmd := range c.pending {
					c.writeLocked(cmd)
				}
				c.pending = nil
			}
			c.mu.Unlock()
		case strings.HasPrefix(line, "bestmove"):
			c.mu.Lock()
			if c.draining {
				// The stopped search is done; release the deferred request,
				// or settle back to Ready when a plain Stop left none.
				c.draining = false
				if len(c.deferred) == 0 {
					c.state = StateReady
				}
				for _, cmd := range c.deferred {
					c.writeLocked(cmd)
				}
				c.deferred = nil
			} else if c.state == StateEvaluating {
				c.state = StateReady
			}
			c.mu.Unlock()
		default:
			sample, ok := parseInfoLine(line)
			if !ok {
				continue
			}
			c.mu.Lock()
			cb := c.onSample
			stale := c.draining
			c.mu.Unlock()
			if cb != nil && !stale {
				cb(sample)
			}
		}
	}
	if err := sc.Err(); err != nil {
		c.log.Errorf("engine stdout worker stopped: %v", err)
	}
}

// writeLocked appends a newline and flushes. Callers hold c.mu.
func (c *EngineClient) writeLocked(cmd string) {
	if c.stdin == nil {
		return
	}
	if _, err := c.stdin.WriteString(cmd + "\n"); err != nil {
		c.log.Errorf("engine write %q: %v", cmd, err)
		return
	}
	if err := c.stdin.Flush(); err != nil {
		c.log.Errorf("engine flush: %v", err)
	}
}
