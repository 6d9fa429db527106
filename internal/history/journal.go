// Package history keeps an append-only JSONL journal of engine invocations.
package history

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/ashwch/s3tools/internal/appdirs"
	"github.com/ashwch/s3tools/internal/engine"
	"github.com/ashwch/s3tools/internal/logging"
	"github.com/ashwch/s3tools/internal/safety"
)

const (
	journalFileName      = "invocations.jsonl"
	DefaultMaxDiagnostic = 4096
	maxErrorLength       = 1024
	maxLineBytes         = 1024 * 1024
)

// Journal appends one line per engine invocation. It satisfies
// engine.Recorder; write failures are logged and dropped.
type Journal struct {
	Path          string
	MaxDiagnostic int
	Logger        *log.Logger

	mu sync.Mutex
}

// Open returns the journal stored in the OS state dir.
func Open(logger *log.Logger) (*Journal, error) {
	path, err := appdirs.StateFilePath(journalFileName)
	if err != nil {
		return nil, err
	}
	return &Journal{Path: path, MaxDiagnostic: DefaultMaxDiagnostic, Logger: logger}, nil
}

func (j *Journal) Record(rec engine.Record) {
	if err := j.Append(rec); err != nil {
		logging.Or(j.Logger).Debug("could not record invocation", "engine", rec.Engine, "err", err)
	}
}

// Append scrubs rec and writes it as one JSON line.
func (j *Journal) Append(rec engine.Record) error {
	if strings.TrimSpace(rec.Engine) == "" {
		return fmt.Errorf("record engine cannot be empty")
	}
	rec = j.scrub(rec)

	encoded, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("could not serialize record: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(j.Path), 0o700); err != nil {
		return fmt.Errorf("could not create history dir: %w", err)
	}
	f, err := os.OpenFile(j.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("could not open history file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(encoded, '\n')); err != nil {
		return fmt.Errorf("could not write record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. An empty engineName
// matches every engine. limit <= 0 returns everything.
func (j *Journal) Recent(limit int, engineName string) ([]engine.Record, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	f, err := os.Open(j.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not read history file: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	var records []engine.Record
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec engine.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if engineName != "" && !strings.EqualFold(rec.Engine, engineName) {
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("could not scan history file: %w", err)
	}

	for left, right := 0, len(records)-1; left < right; left, right = left+1, right-1 {
		records[left], records[right] = records[right], records[left]
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func (j *Journal) scrub(rec engine.Record) engine.Record {
	max := j.MaxDiagnostic
	if max == 0 {
		max = DefaultMaxDiagnostic
	}
	rec.Error = safety.Diagnostic(rec.Error, maxErrorLength)
	rec.Diagnostic = safety.Diagnostic(rec.Diagnostic, max)
	rec.Command = safety.HomeRelative(safety.RedactText(rec.Command))
	rec.At = rec.At.UTC()
	return rec
}
