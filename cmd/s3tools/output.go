package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/ashwch/s3tools/internal/engine"
	"github.com/ashwch/s3tools/internal/logging"
	"github.com/ashwch/s3tools/internal/ui"
)

const (
	exitFailure = 1
	// exitMissing reports that at least one engine could not be resolved.
	exitMissing = 3
)

// ExitError signals a non-zero exit code without calling os.Exit in RunE
// handlers. reported is set once the error has been shown to the user.
type ExitError struct {
	Code     int
	Err      error
	reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// failure is the JSON shape of every failed command.
type failure struct {
	OK         bool   `json:"ok"`
	Error      string `json:"error"`
	Kind       string `json:"kind,omitempty"`
	Diagnostic string `json:"diagnostic,omitempty"`
}

func failureOf(err error) failure {
	f := failure{Error: strings.TrimSpace(err.Error())}
	var engineErr *engine.Error
	if errors.As(err, &engineErr) {
		f.Error = engineErr.Message
		f.Kind = string(engineErr.Kind)
		f.Diagnostic = engineErr.Diagnostic
	}
	return f
}

// fail prints err under the localized headline and returns an already
// reported ExitError.
func (a *App) fail(headlineKey string, err error) error {
	if a.opts.JSON {
		a.writeJSON(failureOf(err))
	} else {
		fmt.Fprintln(a.stderr, ui.ErrorText(a.catalog, headlineKey, err))
	}
	logging.Or(a.logger).Debug("command failed", "kind", engine.KindOf(err), "err", err)
	return &ExitError{Code: exitFailure, Err: err, reported: true}
}

// emit writes v as JSON in --json mode and lines otherwise.
func (a *App) emit(v any, lines ...string) {
	if a.opts.JSON {
		a.writeJSON(v)
		return
	}
	for _, line := range lines {
		fmt.Fprintln(a.stdout, line)
	}
}

func (a *App) writeJSON(v any) {
	encoder := json.NewEncoder(a.stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintln(a.stderr, "error: could not encode output:", err)
	}
}
