package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ashwch/s3tools/internal/engine"
)

func newJournal(t *testing.T) *Journal {
	t.Helper()
	return &Journal{Path: filepath.Join(t.TempDir(), "state", "invocations.jsonl")}
}

func TestRecentReturnsNewestFirst(t *testing.T) {
	j := newJournal(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, action := range []string{"preview", "export_duplicates", "process"} {
		j.Record(engine.Record{
			Engine:   "asin_batcher",
			Action:   action,
			OK:       true,
			Duration: time.Duration(i+1) * time.Second,
			At:       base.Add(time.Duration(i) * time.Minute),
		})
	}

	got, err := j.Recent(2, "")
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].Action != "process" || got[1].Action != "export_duplicates" {
		t.Fatalf("unexpected order: %q, %q", got[0].Action, got[1].Action)
	}
	if got[0].Duration != 3*time.Second {
		t.Fatalf("expected duration preserved, got %s", got[0].Duration)
	}
}

func TestRecentFiltersByEngine(t *testing.T) {
	j := newJournal(t)
	j.Record(engine.Record{Engine: "sitemap", Action: "process", OK: true})
	j.Record(engine.Record{Engine: "formato", Action: "process", OK: false, Kind: engine.KindEngineFailure})

	got, err := j.Recent(0, "FORMATO")
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 1 || got[0].Engine != "formato" || got[0].Kind != engine.KindEngineFailure {
		t.Fatalf("unexpected filtered records %#v", got)
	}
}

func TestRecentOnMissingJournalIsEmpty(t *testing.T) {
	j := newJournal(t)
	got, err := j.Recent(10, "")
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no records, got %d", len(got))
	}
}

func TestRecentSkipsCorruptLines(t *testing.T) {
	j := newJournal(t)
	j.Record(engine.Record{Engine: "sitemap", Action: "process", OK: true})
	f, err := os.OpenFile(j.Path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if _, err := f.WriteString("{broken\n\n"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	_ = f.Close()
	j.Record(engine.Record{Engine: "formato", Action: "process", OK: true})

	got, err := j.Recent(0, "")
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected corrupt line skipped, got %d records", len(got))
	}
}

func TestAppendRedactsAndTruncatesDiagnostics(t *testing.T) {
	j := newJournal(t)
	j.MaxDiagnostic = 64
	diag := "Traceback: password=hunter2\n" + strings.Repeat("frame\n", 100)
	if err := j.Append(engine.Record{
		Engine:     "sitemap",
		Action:     "process",
		Error:      "Invalid engine response",
		Diagnostic: diag,
		Command:    "python3 \"/srv/form_site.py\" --token abc123",
	}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}

	raw, err := os.ReadFile(j.Path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	text := string(raw)
	if strings.Contains(text, "hunter2") || strings.Contains(text, "abc123") {
		t.Fatalf("expected secrets scrubbed from journal, got %s", text)
	}

	got, err := j.Recent(1, "")
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got[0].Diagnostic) > 64+len("…[truncated]") {
		t.Fatalf("expected truncated diagnostic, got %d bytes", len(got[0].Diagnostic))
	}
	if got[0].Error != "Invalid engine response" {
		t.Fatalf("expected error text kept, got %q", got[0].Error)
	}
}

func TestAppendRejectsRecordWithoutEngine(t *testing.T) {
	j := newJournal(t)
	if err := j.Append(engine.Record{Action: "process"}); err == nil {
		t.Fatalf("expected error for record without engine")
	}
}

func TestConcurrentRecordsProduceWholeLines(t *testing.T) {
	j := newJournal(t)
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			j.Record(engine.Record{Engine: "asin_batcher", Action: fmt.Sprintf("preview-%d", idx), OK: true})
		}(i)
	}
	wg.Wait()

	got, err := j.Recent(0, "")
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(got) != 32 {
		t.Fatalf("expected 32 records, got %d", len(got))
	}
}

func TestJournalSatisfiesRecorder(t *testing.T) {
	var _ engine.Recorder = newJournal(t)
}
