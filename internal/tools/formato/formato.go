// Package formato drives the formatting engine, which rewrites spreadsheets
// into a store template.
package formato

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ashwch/s3tools/internal/engine"
	"github.com/ashwch/s3tools/internal/tools"
)

const (
	EngineName    = "formato"
	EnvVar        = "FORMATO_ENGINE_PATH"
	ActionProcess = "process"

	TemplateAuto    = "auto"
	TemplateTiendas = "tiendas"
	TemplateBBvs    = "bbvs"
)

var Descriptor = engine.Descriptor{
	Name:        EngineName,
	DisplayName: "Formato",
	Folder:      filepath.Join("Engines", "Formato"),
	Script:      "format.py",
	EnvVar:      EnvVar,
}

var Templates = []string{TemplateAuto, TemplateTiendas, TemplateBBvs}

type Result struct {
	UpdatedFiles   []string       `json:"updated_files"`
	TemplateCounts map[string]int `json:"template_counts,omitempty"`
}

// Breakdown renders the template counts as "name: n" lines in name order.
func (r Result) Breakdown() []string {
	names := make([]string, 0, len(r.TemplateCounts))
	for name := range r.TemplateCounts {
		names = append(names, name)
	}
	sort.Strings(names)
	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, fmt.Sprintf("%s: %d", name, r.TemplateCounts[name]))
	}
	return lines
}

// NormalizeTemplate lower-cases template and maps empty to auto.
func NormalizeTemplate(template string) (string, error) {
	t := strings.ToLower(strings.TrimSpace(template))
	if t == "" {
		return TemplateAuto, nil
	}
	for _, known := range Templates {
		if t == known {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown template %q (expected %s)", template, strings.Join(Templates, ", "))
}

type Client struct {
	invoker engine.Invoker
}

func New(invoker engine.Invoker) *Client {
	return &Client{invoker: invoker}
}

func (c *Client) Process(ctx context.Context, files []string, template string) (Result, error) {
	if len(files) == 0 {
		return Result{}, fmt.Errorf("no files selected")
	}
	for _, file := range files {
		if err := tools.RequireFile(file); err != nil {
			return Result{}, err
		}
	}
	t, err := NormalizeTemplate(template)
	if err != nil {
		return Result{}, err
	}

	req := engine.NewRequest(ActionProcess)
	req.SetStrings("input_files", files)
	req.SetString("template", t)

	resp := tools.Call(ctx, c.invoker, Descriptor, req)
	if err := resp.Err(); err != nil {
		return Result{}, err
	}

	var result Result
	result.UpdatedFiles, _ = resp.Strings("updated_files")
	result.TemplateCounts, _ = resp.IntMap("template_counts")
	return result, nil
}
