// Package safety scrubs engine diagnostics before they are persisted.
package safety

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

const truncatedMarker = "…[truncated]"

type redactionRule struct {
	pattern     *regexp.Regexp
	replacement string
}

const secretWords = `token|secret|password|passwd|pwd|api[_-]?key|access[_-]?key|client[_-]?secret`

var secretRedactionRules = []redactionRule{
	{
		pattern:     regexp.MustCompile(`(?i)\b([a-z][a-z0-9+.-]*://)([^\s/@:]+):([^\s/@]+)@`),
		replacement: `$1$2:<redacted>@`,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b([a-z0-9_]*(?:` + secretWords + `)[a-z0-9_]*)\s*=\s*([^\s"'&]+|"[^"]*"|'[^']*')`),
		replacement: `$1=<redacted>`,
	},
	{
		pattern:     regexp.MustCompile(`(?i)(["']?)\b([a-z0-9_]*(?:` + secretWords + `)[a-z0-9_]*)(["']?)\s*:\s*([^\s"',}]+|"[^"]*"|'[^']*')`),
		replacement: `$1$2$3: <redacted>`,
	},
	{
		pattern:     regexp.MustCompile(`(?i)\b(authorization\s*:\s*bearer)\s+([^\s"']+)`),
		replacement: `$1 <redacted>`,
	},
	{
		pattern:     regexp.MustCompile(`(?i)(--[a-z0-9_-]*(?:` + secretWords + `|authorization)[a-z0-9_-]*)\s*=\s*([^\s"']+|"[^"]*"|'[^']*')`),
		replacement: `$1=<redacted>`,
	},
	{
		pattern:     regexp.MustCompile(`(?i)(--[a-z0-9_-]*(?:` + secretWords + `|authorization)[a-z0-9_-]*)\s+([^\s"'-][^\s"']*|"[^"]*"|'[^']*')`),
		replacement: `$1 <redacted>`,
	},
}

var userHomeDir = os.UserHomeDir

// RedactText scrubs secret assignments, bearer tokens, secret flags and URL
// credentials from free-form text such as an engine traceback.
func RedactText(input string) string {
	redacted := input
	for _, rule := range secretRedactionRules {
		redacted = rule.pattern.ReplaceAllString(redacted, rule.replacement)
	}
	return redacted
}

// HomeRelative replaces the user's home directory prefix in paths with "~".
func HomeRelative(input string) string {
	home, err := userHomeDir()
	if err != nil {
		return input
	}
	home = strings.TrimRight(filepath.Clean(strings.TrimSpace(home)), `/\`)
	if len(home) < 2 {
		return input
	}
	out := strings.ReplaceAll(input, home, "~")
	if alt := filepath.ToSlash(home); alt != home {
		out = strings.ReplaceAll(out, alt, "~")
	}
	return out
}

// Truncate cuts input to at most max bytes on a rune boundary and marks the
// cut. max <= 0 disables truncation.
func Truncate(input string, max int) string {
	if max <= 0 || len(input) <= max {
		return input
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(input[cut]) {
		cut--
	}
	return input[:cut] + truncatedMarker
}

// Diagnostic prepares engine output for persistence.
func Diagnostic(input string, max int) string {
	return Truncate(HomeRelative(RedactText(strings.TrimSpace(input))), max)
}
