package ui

import (
	"errors"
	"strings"

	"github.com/ashwch/s3tools/internal/engine"
	"github.com/ashwch/s3tools/internal/i18n"
	"github.com/ashwch/s3tools/internal/tools/asinbatcher"
)

// SummaryLines renders preview counts one per line.
func SummaryLines(c i18n.Catalog, s asinbatcher.Summary) []string {
	return []string{
		c.T(i18n.PreviewTotal, s.Total),
		c.T(i18n.PreviewUnique, s.Unique),
		c.T(i18n.PreviewDuplicates, s.Duplicates),
	}
}

// ErrorText is the headline, the error message and, for engine errors, the
// diagnostic verbatim.
func ErrorText(c i18n.Catalog, headlineKey string, err error) string {
	var b strings.Builder
	b.WriteString(c.T(headlineKey))
	if err == nil {
		return b.String()
	}

	msg := strings.TrimSpace(err.Error())
	var engineErr *engine.Error
	if errors.As(err, &engineErr) {
		msg = strings.TrimSpace(engineErr.Message)
	}
	if msg == "" {
		msg = c.T(i18n.ErrorUnknown)
	}
	b.WriteString("\n")
	b.WriteString(msg)
	if engineErr != nil && strings.TrimSpace(engineErr.Diagnostic) != "" {
		b.WriteString("\n\n")
		b.WriteString(engineErr.Diagnostic)
	}
	return b.String()
}
