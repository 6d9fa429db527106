package ui

import (
	"os"
	"strings"

	"golang.org/x/term"
)

const (
	BackendAuto      = "auto"
	BackendBubbleTea = "bubbletea"
	BackendHuh       = "huh"
	BackendTView     = "tview"
	BackendPlain     = "plain"
)

var isTerminal = func(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

func NormalizeBackend(backend string) string {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendAuto, "":
		return BackendAuto
	case BackendBubbleTea:
		return BackendBubbleTea
	case BackendHuh:
		return BackendHuh
	case BackendTView:
		return BackendTView
	case BackendPlain:
		return BackendPlain
	default:
		return BackendAuto
	}
}

// Effective downgrades backend to plain when stdin or stdout is not a
// terminal, or when the caller asked for machine-readable output.
func Effective(backend string, jsonOutput bool) string {
	if jsonOutput || !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return BackendPlain
	}
	return NormalizeBackend(backend)
}

func IsInteractiveBackend(backend string) bool {
	return NormalizeBackend(backend) != BackendPlain
}

func backendCandidates(backend string) []string {
	switch NormalizeBackend(backend) {
	case BackendBubbleTea:
		return []string{BackendBubbleTea, BackendHuh, BackendTView, BackendPlain}
	case BackendHuh:
		return []string{BackendHuh, BackendBubbleTea, BackendTView, BackendPlain}
	case BackendTView:
		return []string{BackendTView, BackendBubbleTea, BackendHuh, BackendPlain}
	case BackendPlain:
		return []string{BackendPlain}
	default:
		return []string{BackendBubbleTea, BackendHuh, BackendTView, BackendPlain}
	}
}
