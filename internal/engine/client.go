package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/ashwch/s3tools/internal/logging"
	"github.com/ashwch/s3tools/internal/runtime"
)

// Resolver turns a descriptor into a launch command.
type Resolver interface {
	Resolve(d Descriptor) (runtime.LaunchCommand, error)
}

// Invoker runs one engine request without blocking the caller. The returned
// channel yields exactly one Response and is then closed.
type Invoker interface {
	Invoke(ctx context.Context, d Descriptor, req Request) <-chan Response
}

// Recorder receives one Record per finished invocation.
type Recorder interface {
	Record(rec Record)
}

type Record struct {
	Engine     string        `json:"engine"`
	Action     string        `json:"action"`
	OK         bool          `json:"ok"`
	Kind       Kind          `json:"kind,omitempty"`
	Error      string        `json:"error,omitempty"`
	Diagnostic string        `json:"diagnostic,omitempty"`
	Command    string        `json:"command,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	At         time.Time     `json:"at"`
}

type Client struct {
	resolver  Resolver
	transport Transport
	logger    *log.Logger
	recorder  Recorder
	timeout   time.Duration
	now       func() time.Time
}

type Option func(*Client)

func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logging.Or(logger)
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(c *Client) {
		c.recorder = recorder
	}
}

// WithTimeout bounds every call. Zero means no deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout < 0 {
			timeout = 0
		}
		c.timeout = timeout
	}
}

func NewClient(resolver Resolver, transport Transport, opts ...Option) *Client {
	c := &Client{
		resolver:  resolver,
		transport: transport,
		logger:    logging.Discard(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Invoke runs Call on its own goroutine.
func (c *Client) Invoke(ctx context.Context, d Descriptor, req Request) <-chan Response {
	out := make(chan Response, 1)
	go func() {
		defer close(out)
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("engine call panicked", "engine", d.Name, "panic", r)
				out <- Failed(KindLaunchFailed, fmt.Sprintf("engine call failed: %v", r), "")
			}
		}()
		out <- c.Call(ctx, d, req)
	}()
	return out
}

// Await waits for the single response on ch. A done ctx yields a canceled
// response; the invocation itself keeps running and its result is dropped.
func Await(ctx context.Context, ch <-chan Response) Response {
	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case resp, ok := <-ch:
		if !ok {
			return Failed(KindLaunchFailed, "engine call ended without a response", "")
		}
		return resp
	case <-ctx.Done():
		return Failed(KindCanceled, "Engine call was canceled", "")
	}
}

// Call resolves, launches and decodes one engine request. It never returns an
// error; every failure is a Response with OK false and a Kind.
func (c *Client) Call(ctx context.Context, d Descriptor, req Request) Response {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	started := c.now()
	var command string
	resp := func() Response {
		if c.resolver == nil || c.transport == nil {
			return Failed(KindLaunchFailed, "engine client is not configured", "")
		}
		launch, err := c.resolver.Resolve(d)
		if err != nil {
			return failureFrom(err, KindNotFound)
		}
		command = launch.String()

		payload, err := Encode(req)
		if err != nil {
			return Failed(KindLaunchFailed, err.Error(), "")
		}

		c.logger.Info("invoking engine", "engine", d.Name, "action", req.Action(), "command", command)
		raw, err := c.transport.Run(ctx, launch, payload)
		if err != nil {
			return failureFrom(err, KindLaunchFailed)
		}
		return interpret(raw)
	}()

	elapsed := c.now().Sub(started)
	if resp.OK {
		c.logger.Info("engine succeeded", "engine", d.Name, "action", req.Action(), "duration", elapsed)
	} else {
		c.logger.Warn("engine failed", "engine", d.Name, "action", req.Action(), "kind", resp.Kind, "error", resp.Error)
	}
	if c.recorder != nil {
		c.recorder.Record(Record{
			Engine:     d.Name,
			Action:     req.Action(),
			OK:         resp.OK,
			Kind:       resp.Kind,
			Error:      resp.Error,
			Diagnostic: resp.Diagnostic,
			Command:    command,
			Duration:   elapsed,
			At:         started,
		})
	}
	return resp
}

// interpret decodes raw process output into the final response.
func interpret(raw RawResult) Response {
	stdout := string(raw.Stdout)
	stderr := string(raw.Stderr)

	resp, err := Decode(raw.Stdout)
	if err != nil {
		switch KindOf(err) {
		case KindEmptyOutput:
			return Failed(KindEmptyOutput, msgEmptyOutput, stderr)
		default:
			return Failed(KindInvalidResponse, msgInvalidResponse, stdout+"\n"+stderr)
		}
	}

	if !resp.OK {
		resp.Kind = KindEngineFailure
		if strings.TrimSpace(resp.Diagnostic) == "" && strings.TrimSpace(stderr) != "" {
			resp.Diagnostic = stderr
		}
	}
	return resp
}

func failureFrom(err error, fallback Kind) Response {
	var engineErr *Error
	if errors.As(err, &engineErr) {
		kind := engineErr.Kind
		if kind == "" {
			kind = fallback
		}
		message := strings.TrimSpace(engineErr.Message)
		if message == "" {
			message = engineErr.Error()
		}
		return Failed(kind, message, engineErr.Diagnostic)
	}
	return Failed(fallback, err.Error(), "")
}
