// Package locate finds the executable or script behind an engine descriptor.
package locate

import (
	"path/filepath"
	"strings"

	"github.com/ashwch/s3tools/internal/runtime"
)

// Convention names the compiled and interpreted file extensions. An empty
// BinaryExt means compiled engines carry no extension.
type Convention struct {
	BinaryExt string
	ScriptExt string
}

func PlatformConvention() Convention {
	return Convention{BinaryExt: runtime.BinaryExt(), ScriptExt: runtime.ScriptExt}
}

// Candidates expands a path hint into the concrete paths worth checking, most
// preferred first. A compiled form wins over a script when both exist.
func Candidates(hint string, conv Convention) []string {
	trimmed := strings.TrimSpace(hint)
	if trimmed == "" {
		return nil
	}

	ext := filepath.Ext(trimmed)
	stem := strings.TrimSuffix(trimmed, ext)
	switch {
	case ext == "":
		return []string{trimmed + conv.BinaryExt, trimmed + conv.ScriptExt, trimmed}
	case strings.EqualFold(ext, conv.ScriptExt):
		return []string{stem + conv.BinaryExt, trimmed}
	case conv.BinaryExt != "" && strings.EqualFold(ext, conv.BinaryExt):
		return []string{trimmed, stem + conv.ScriptExt}
	default:
		return []string{trimmed}
	}
}

func isScript(path string, conv Convention) bool {
	return strings.EqualFold(filepath.Ext(path), conv.ScriptExt)
}
