// Package subprocess provides a backend adapter that drives an external
// generator program. The contract is deliberately small: the program receives
// a JSON request on stdin ({"system":...,"prompt":...}), writes a JSON result
// ({"text":...,"usage":{...}}) to stdout and exits zero on success.
//
// Cancellation actively terminates the process: the whole process group gets
// SIGTERM, escalating to SIGKILL after WaitDelay. This frees resources
// instead of leaving a zombie call running to completion.
package subprocess

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/storymesh/backend"
	"github.com/hupe1980/storymesh/core"
)

// Options configures the subprocess backend.
type Options struct {
	// Args are passed to the command ahead of the stdin payload.
	Args []string
	// Dir is the working directory for the process.
	Dir string
	// Env, when non-nil, replaces the inherited environment.
	Env []string
	// WaitDelay is the grace period between SIGTERM and a hard kill.
	WaitDelay time.Duration
}

// Backend invokes an external generator executable per request.
type Backend struct {
	command string
	opts    Options
}

// New constructs a subprocess backend for the given executable.
func New(command string, optFns ...func(o *Options)) *Backend {
	opts := Options{
		WaitDelay: 5 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Backend{command: command, opts: opts}
}

// Invoke implements backend.Backend. It blocks until the process exits, the
// context is cancelled, or reading the pipes fails.
func (b *Backend) Invoke(ctx context.Context, req backend.Request) (*backend.Result, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	cmd := exec.CommandContext(ctx, b.command, b.opts.Args...)
	cmd.Dir = b.opts.Dir
	if b.opts.Env != nil {
		cmd.Env = b.opts.Env
	}
	cmd.Stdin = bytes.NewReader(payload)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGTERM)
	}
	cmd.WaitDelay = b.opts.WaitDelay

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: failed to start %s: %v", core.ErrBackendFailure, b.command, err)
	}

	var outBuf, errBuf bytes.Buffer
	var g errgroup.Group
	g.Go(func() error {
		_, err := io.Copy(&outBuf, stdout)
		return err
	})
	g.Go(func() error {
		_, err := io.Copy(&errBuf, stderr)
		return err
	})

	copyErr := g.Wait()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			return nil, fmt.Errorf("%w: %s exited with code %d: %s",
				core.ErrBackendFailure, b.command, exitErr.ExitCode(), excerpt(errBuf.String()))
		}
		return nil, fmt.Errorf("%w: %v", core.ErrBackendFailure, waitErr)
	}
	if copyErr != nil {
		return nil, fmt.Errorf("%w: reading process output: %v", core.ErrBackendFailure, copyErr)
	}

	var result backend.Result
	if err := json.Unmarshal(outBuf.Bytes(), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedPayload, err)
	}
	if result.Text == "" {
		return nil, fmt.Errorf("%w: result text is empty", core.ErrMalformedPayload)
	}

	return &result, nil
}

// Info returns metadata describing this subprocess backend.
func (b *Backend) Info() backend.Info {
	return backend.Info{
		Name:          b.command,
		Provider:      "subprocess",
		Interruptible: true,
	}
}

// excerpt trims stderr to a single diagnostic line.
func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 200 {
		s = s[:200]
	}
	if s == "" {
		return "(no stderr)"
	}
	return s
}
