package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ashwch/s3tools/internal/logging"
	"github.com/ashwch/s3tools/internal/runtime"
)

// waitDelay bounds how long a killed engine's pipes stay open.
const waitDelay = 2 * time.Second

// RawResult is everything one engine process produced.
type RawResult struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Exited   bool
	Duration time.Duration
}

// Transport runs one engine process for one request payload.
type Transport interface {
	Run(ctx context.Context, cmd runtime.LaunchCommand, payload []byte) (RawResult, error)
}

// ProcessTransport starts the engine as a child process in Dir and talks to it
// over stdin and stdout.
type ProcessTransport struct {
	Dir    string
	Env    []string
	Logger *log.Logger
}

func (t ProcessTransport) Run(ctx context.Context, launch runtime.LaunchCommand, payload []byte) (RawResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.Or(t.Logger)
	if launch.IsZero() {
		return RawResult{}, &Error{Kind: KindLaunchFailed, Message: "engine command is empty"}
	}

	// WaitDelay only closes pipes that os/exec copies itself.
	var outBuf, errBuf bytes.Buffer
	cmd := exec.CommandContext(ctx, launch.Path, launch.Args...)
	cmd.Dir = t.Dir
	if len(t.Env) > 0 {
		cmd.Env = append(os.Environ(), t.Env...)
	}
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	cmd.WaitDelay = waitDelay
	configureProcess(cmd)

	started := time.Now()
	if err := cmd.Start(); err != nil {
		if ctx.Err() != nil {
			return RawResult{}, canceled(ctx, launch)
		}
		return RawResult{}, launchFailed(launch, err)
	}
	logger.Debug("engine started", "command", launch.String(), "pid", cmd.Process.Pid, "dir", t.Dir)
	waitErr := cmd.Wait()

	result := RawResult{
		Stdout:   outBuf.Bytes(),
		Stderr:   errBuf.Bytes(),
		ExitCode: -1,
		Duration: time.Since(started),
	}
	if cmd.ProcessState != nil {
		result.ExitCode = cmd.ProcessState.ExitCode()
		result.Exited = cmd.ProcessState.Exited()
	}
	logger.Debug("engine exited",
		"command", launch.String(),
		"exit_code", result.ExitCode,
		"stdout_bytes", len(result.Stdout),
		"stderr_bytes", len(result.Stderr),
		"duration", result.Duration,
	)

	if ctx.Err() != nil {
		return result, canceled(ctx, launch)
	}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		logger.Warn("engine wait failed", "command", launch.String(), "err", waitErr)
	}
	return result, nil
}

func launchFailed(launch runtime.LaunchCommand, err error) error {
	return &Error{
		Kind:       KindLaunchFailed,
		Message:    fmt.Sprintf("Could not start engine: %v", err),
		Diagnostic: "command: " + launch.String(),
		Err:        err,
	}
}

func canceled(ctx context.Context, launch runtime.LaunchCommand) error {
	message := "Engine call was canceled"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		message = "Engine call timed out"
	}
	return &Error{
		Kind:       KindCanceled,
		Message:    message,
		Diagnostic: "command: " + launch.String(),
		Err:        ctx.Err(),
	}
}

