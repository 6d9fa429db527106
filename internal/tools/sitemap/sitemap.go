// Package sitemap drives the sitemap engine, which turns URL batch files into
// store sitemap files.
package sitemap

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ashwch/s3tools/internal/engine"
	"github.com/ashwch/s3tools/internal/tools"
)

const (
	EngineName    = "sitemap"
	EnvVar        = "SITEMAP_ENGINE_PATH"
	ActionProcess = "process"
)

var Descriptor = engine.Descriptor{
	Name:        EngineName,
	DisplayName: "Sitemap",
	Folder:      filepath.Join("Engines", "Sitemap"),
	Script:      "form_site.py",
	EnvVar:      EnvVar,
}

type Request struct {
	InputFiles []string
	OutputDir  string
	BaseName   string
	Store      string
	ZipOutput  bool
	Prefixes   tools.Prefixes
}

type Result struct {
	OutputFolder string   `json:"output_folder,omitempty"`
	ZipPath      string   `json:"zip_path,omitempty"`
	OutputFiles  []string `json:"output_files,omitempty"`
}

func (r Request) Validate() error {
	if len(r.InputFiles) == 0 {
		return fmt.Errorf("no input files selected")
	}
	for _, file := range r.InputFiles {
		if err := tools.RequireFile(file); err != nil {
			return err
		}
	}
	if strings.TrimSpace(r.OutputDir) == "" {
		return fmt.Errorf("output folder is required")
	}
	if strings.TrimSpace(r.Store) == "" {
		return fmt.Errorf("select a store or enter a name")
	}
	return r.Prefixes.Validate()
}

func (r Request) engineRequest() engine.Request {
	req := engine.NewRequest(ActionProcess)
	req.SetStrings("input_files", r.InputFiles)
	req.SetString("output_dir", r.OutputDir)
	req.SetString("base_name", r.BaseName)
	req.SetString("store", r.Store)
	req.SetString("store_name", r.Store)
	req.SetBool("zip_output", r.ZipOutput)
	r.Prefixes.Apply(&req)
	return req
}

type Client struct {
	invoker engine.Invoker
}

func New(invoker engine.Invoker) *Client {
	return &Client{invoker: invoker}
}

func (c *Client) Process(ctx context.Context, r Request) (Result, error) {
	if err := r.Validate(); err != nil {
		return Result{}, err
	}
	resp := tools.Call(ctx, c.invoker, Descriptor, r.engineRequest())
	if err := resp.Err(); err != nil {
		return Result{}, err
	}

	var result Result
	result.OutputFolder, _ = resp.String("output_folder")
	result.ZipPath, _ = resp.String("zip_path")
	result.OutputFiles, _ = resp.Strings("output_files")
	return result, nil
}
