// Package shell provides a shell-based executor for running target scripts.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
	"go.trai.ch/weft/internal/core/domain"
	"go.trai.ch/weft/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	shellPath = "/bin/sh"

	// ioDrainDelay bounds how long output is drained after the script exits,
	// in case a background child keeps the pipes open.
	ioDrainDelay = time.Second
)

// Executor implements ports.Executor using os/exec and pty.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// Run executes a build script and waits for it to complete.
// If ctx is cancelled first, the whole process group is killed and reaped
// before domain.ErrCancelled is returned.
func (e *Executor) Run(ctx context.Context, cmd ports.Command) error {
	p, err := e.start(cmd)
	if err != nil {
		return err
	}

	select {
	case <-p.done:
		return p.exitError()
	case <-ctx.Done():
		p.signal(syscall.SIGKILL)
		<-p.done
		return domain.ErrCancelled
	}
}

// Start launches a service script and returns without waiting for it.
func (e *Executor) Start(cmd ports.Command) (ports.Process, error) {
	p, err := e.start(cmd)
	if err != nil {
		return nil, err
	}

	go func() {
		<-p.done
		if err := p.exitError(); err != nil && !p.stopping() {
			e.logger.Warn(cmd.Target.String() + " - Service exited: " + err.Error())
		}
	}()

	return p, nil
}

// Capture runs script in dir and returns its standard output.
func (e *Executor) Capture(ctx context.Context, script, dir string) (string, error) {
	c := exec.CommandContext(ctx, shellPath, "-c", script) //nolint:gosec // user provided command
	c.Dir = dir
	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Cancel = func() error {
		return killGroup(c.Process.Pid, syscall.SIGKILL)
	}
	c.WaitDelay = ioDrainDelay

	var stderr bytes.Buffer
	c.Stderr = &stderr

	out, err := c.Output()
	if err != nil {
		if ctx.Err() != nil {
			return "", domain.ErrCancelled
		}
		err = zerr.With(zerr.Wrap(err, domain.ErrCommandFailed.Error()), "cmd", script)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = zerr.With(err, "stderr", msg)
		}
		return "", err
	}

	return string(out), nil
}

func (e *Executor) start(cmd ports.Command) (*process, error) {
	c := exec.Command(shellPath, "-ce", cmd.Script) //nolint:gosec // user provided command
	c.Dir = cmd.Dir
	c.Env = os.Environ()

	out := &logWriter{logger: e.logger, prefix: cmd.Target.String() + " | "}
	p := &process{cmd: c, done: make(chan struct{})}

	if cmd.TTY {
		// pty.Start puts the script in a new session, so its pid is also
		// the process group id.
		ptmx, err := pty.Start(c)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, domain.ErrCommandStartFailed.Error()), "target", cmd.Target.String())
		}

		ioDone := make(chan struct{})
		go func() {
			defer close(ioDone)
			_, _ = io.Copy(out, ptmx)
		}()

		go func() {
			p.err = c.Wait()
			select {
			case <-ioDone:
			case <-time.After(ioDrainDelay):
			}
			_ = ptmx.Close()
			<-ioDone
			_ = out.Close()
			close(p.done)
		}()

		return p, nil
	}

	c.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	c.Stdout = out
	c.Stderr = out
	c.WaitDelay = ioDrainDelay

	if err := c.Start(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrCommandStartFailed.Error()), "target", cmd.Target.String())
	}

	go func() {
		p.err = c.Wait()
		_ = out.Close()
		close(p.done)
	}()

	return p, nil
}

// process is a script running in its own process group.
type process struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error

	mu      sync.Mutex
	stopped bool
}

// Stop sends SIGTERM to the process group, escalates to SIGKILL after
// timeout, and waits for the script to exit.
func (p *process) Stop(timeout time.Duration) error {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()

	p.signal(syscall.SIGTERM)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-p.done:
	case <-timer.C:
		p.signal(syscall.SIGKILL)
		<-p.done
	}
	return nil
}

func (p *process) stopping() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

func (p *process) signal(sig syscall.Signal) {
	_ = killGroup(p.cmd.Process.Pid, sig)
}

// exitError must only be called once done is closed.
func (p *process) exitError() error {
	if p.err == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(p.err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	return zerr.With(zerr.Wrap(p.err, domain.ErrCommandFailed.Error()), "exit_code", exitCode)
}

func killGroup(pid int, sig syscall.Signal) error {
	err := syscall.Kill(-pid, sig)
	if errors.Is(err, syscall.ESRCH) {
		return nil
	}
	return err
}

// logWriter forwards every complete line written to it to the logger.
type logWriter struct {
	logger ports.Logger
	prefix string
	buf    []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	// PTYs may introduce \r.
	w.logger.Info(w.prefix + strings.TrimSuffix(string(line), "\r"))
}
