package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashwch/s3tools/internal/runtime"
)

type fixedResolver struct {
	launch runtime.LaunchCommand
	err    error
}

func (r fixedResolver) Resolve(Descriptor) (runtime.LaunchCommand, error) {
	return r.launch, r.err
}

type fakeTransport struct {
	result  RawResult
	err     error
	payload []byte
}

func (f *fakeTransport) Run(_ context.Context, _ runtime.LaunchCommand, payload []byte) (RawResult, error) {
	f.payload = payload
	return f.result, f.err
}

type memoryRecorder struct {
	mu      sync.Mutex
	records []Record
}

func (m *memoryRecorder) Record(rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

var testDescriptor = Descriptor{
	Name:   "asin_batcher",
	Folder: "Engines/AsinBatcherEngine",
	Script: "engine.py",
	EnvVar: "ASIN_BATCHER_ENGINE_PATH",
}

func newTestClient(transport Transport, opts ...Option) *Client {
	resolver := fixedResolver{launch: runtime.DirectCommand("/opt/engines/AsinBatcherEngine")}
	return NewClient(resolver, transport, opts...)
}

func TestCallBackfillsDiagnosticFromStderr(t *testing.T) {
	transport := &fakeTransport{result: RawResult{
		Stdout: []byte(`{"ok":false,"error":"Column ASIN not found"}`),
		Stderr: []byte("KeyError: 'ASIN'\n"),
	}}
	resp := newTestClient(transport).Call(context.Background(), testDescriptor, NewRequest("preview"))

	if resp.OK {
		t.Fatalf("expected failure")
	}
	if resp.Diagnostic != "KeyError: 'ASIN'\n" {
		t.Fatalf("expected stderr verbatim as diagnostic, got %q", resp.Diagnostic)
	}
	if resp.Kind != KindEngineFailure {
		t.Fatalf("expected engine_failure, got %q", resp.Kind)
	}
	if resp.Error != "Column ASIN not found" {
		t.Fatalf("unexpected error %q", resp.Error)
	}
}

func TestCallKeepsEngineDiagnosticOverStderr(t *testing.T) {
	transport := &fakeTransport{result: RawResult{
		Stdout: []byte(`{"ok":false,"error":"x","traceback":"engine trace"}`),
		Stderr: []byte("noise"),
	}}
	resp := newTestClient(transport).Call(context.Background(), testDescriptor, NewRequest("preview"))
	if resp.Diagnostic != "engine trace" {
		t.Fatalf("expected engine trace kept, got %q", resp.Diagnostic)
	}
}

func TestCallReportsEmptyOutputWithStderr(t *testing.T) {
	transport := &fakeTransport{result: RawResult{Stdout: []byte("  \n"), Stderr: []byte("boom")}}
	resp := newTestClient(transport).Call(context.Background(), testDescriptor, NewRequest("preview"))

	if resp.OK || resp.Kind != KindEmptyOutput {
		t.Fatalf("expected empty_output failure, got %#v", resp)
	}
	if resp.Error != "Engine returned no output" {
		t.Fatalf("unexpected error %q", resp.Error)
	}
	if resp.Diagnostic != "boom" {
		t.Fatalf("expected stderr diagnostic, got %q", resp.Diagnostic)
	}
}

func TestCallReportsInvalidResponseWithBothStreams(t *testing.T) {
	transport := &fakeTransport{result: RawResult{Stdout: []byte("hello"), Stderr: []byte("warn")}}
	resp := newTestClient(transport).Call(context.Background(), testDescriptor, NewRequest("preview"))

	if resp.Kind != KindInvalidResponse || resp.Error != "Invalid engine response" {
		t.Fatalf("expected invalid response, got %#v", resp)
	}
	if resp.Diagnostic != "hello\nwarn" {
		t.Fatalf("expected stdout and stderr in diagnostic, got %q", resp.Diagnostic)
	}
}

func TestCallTurnsResolverErrorIntoResponse(t *testing.T) {
	resolver := fixedResolver{err: &Error{Kind: KindNotFound, Message: "Engine not found"}}
	transport := &fakeTransport{}
	resp := NewClient(resolver, transport).Call(context.Background(), testDescriptor, NewRequest("preview"))

	if resp.OK || resp.Kind != KindNotFound || resp.Error != "Engine not found" {
		t.Fatalf("unexpected response %#v", resp)
	}
	if transport.payload != nil {
		t.Fatalf("transport must not run when resolution fails")
	}
}

func TestCallTurnsPlainResolverErrorIntoNotFound(t *testing.T) {
	resolver := fixedResolver{err: errors.New("no base dir")}
	resp := NewClient(resolver, &fakeTransport{}).Call(context.Background(), testDescriptor, NewRequest("preview"))
	if resp.Kind != KindNotFound || resp.Error != "no base dir" {
		t.Fatalf("unexpected response %#v", resp)
	}
}

func TestCallTurnsLaunchErrorIntoResponse(t *testing.T) {
	transport := &fakeTransport{err: &Error{Kind: KindLaunchFailed, Message: "Could not start engine: permission denied", Diagnostic: "command: /x"}}
	resp := newTestClient(transport).Call(context.Background(), testDescriptor, NewRequest("preview"))
	if resp.Kind != KindLaunchFailed || resp.Diagnostic != "command: /x" {
		t.Fatalf("unexpected response %#v", resp)
	}
}

func TestCallWithoutResolverFails(t *testing.T) {
	resp := NewClient(nil, nil).Call(context.Background(), testDescriptor, NewRequest("preview"))
	if resp.OK {
		t.Fatalf("expected failure for unconfigured client")
	}
}

func TestCallSendsEncodedRequest(t *testing.T) {
	transport := &fakeTransport{result: RawResult{Stdout: []byte(`{"ok":true}`)}}
	req := NewRequest("export_duplicates")
	req.SetString("output_dir", "/tmp/out")
	newTestClient(transport).Call(context.Background(), testDescriptor, req)

	if string(transport.payload) != `{"action":"export_duplicates","output_dir":"/tmp/out"}` {
		t.Fatalf("unexpected payload %s", transport.payload)
	}
}

func TestCallRecordsEveryInvocation(t *testing.T) {
	recorder := &memoryRecorder{}
	transport := &fakeTransport{result: RawResult{Stdout: []byte(`{"ok":true,"total":3}`)}}
	client := newTestClient(transport, WithRecorder(recorder))

	client.Call(context.Background(), testDescriptor, NewRequest("preview"))
	transport.result = RawResult{Stderr: []byte("boom")}
	client.Call(context.Background(), testDescriptor, NewRequest("process"))

	if len(recorder.records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recorder.records))
	}
	first, second := recorder.records[0], recorder.records[1]
	if !first.OK || first.Action != "preview" || first.Engine != "asin_batcher" {
		t.Fatalf("unexpected first record %#v", first)
	}
	if first.Command != "/opt/engines/AsinBatcherEngine" {
		t.Fatalf("unexpected command %q", first.Command)
	}
	if second.OK || second.Kind != KindEmptyOutput || second.Diagnostic != "boom" {
		t.Fatalf("unexpected second record %#v", second)
	}
}

func TestInvokeDeliversExactlyOneResponse(t *testing.T) {
	transport := &fakeTransport{result: RawResult{Stdout: []byte(`{"ok":true}`)}}
	ch := newTestClient(transport).Invoke(context.Background(), testDescriptor, NewRequest("preview"))

	select {
	case resp, ok := <-ch:
		if !ok || !resp.OK {
			t.Fatalf("expected ok response, got %#v ok=%v", resp, ok)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for response")
	}
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel closed after one response")
	}
}

type panicTransport struct{}

func (panicTransport) Run(context.Context, runtime.LaunchCommand, []byte) (RawResult, error) {
	panic("transport exploded")
}

func TestInvokeRecoversPanics(t *testing.T) {
	resp := <-newTestClient(panicTransport{}).Invoke(context.Background(), testDescriptor, NewRequest("preview"))
	if resp.OK || !strings.Contains(resp.Error, "transport exploded") {
		t.Fatalf("expected panic converted to failure, got %#v", resp)
	}
}

func TestErrorsIsMatchesKindSentinels(t *testing.T) {
	err := &Error{Kind: KindNotFound, Message: "Engine not found", Engine: "sitemap"}
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected errors.Is to match not found sentinel")
	}
	if errors.Is(err, ErrLaunchFailed) {
		t.Fatalf("expected no match for launch failed")
	}
	wrapped := errors.Join(errors.New("context"), err)
	if KindOf(wrapped) != KindNotFound {
		t.Fatalf("expected kind through wrapping, got %q", KindOf(wrapped))
	}
}

func TestAwaitReturnsCanceledWhenContextEnds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	resp := Await(ctx, make(chan Response))
	if resp.OK || resp.Kind != KindCanceled {
		t.Fatalf("expected canceled response, got %#v", resp)
	}
}

func TestResponseErrCarriesKindAndDiagnostic(t *testing.T) {
	if err := (Response{OK: true}).Err(); err != nil {
		t.Fatalf("expected nil error for ok response, got %v", err)
	}
	err := Response{OK: false, Error: "bad", Diagnostic: "trace"}.Err()
	var engineErr *Error
	if !errors.As(err, &engineErr) || engineErr.Kind != KindEngineFailure || engineErr.Diagnostic != "trace" {
		t.Fatalf("unexpected error %#v", err)
	}
}
