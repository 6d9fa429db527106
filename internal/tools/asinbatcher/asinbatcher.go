// Package asinbatcher drives the ASIN batcher engine: it previews ASIN counts,
// exports duplicates and splits unique ASINs into URL batches.
package asinbatcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ashwch/s3tools/internal/engine"
	"github.com/ashwch/s3tools/internal/tools"
)

const (
	EngineName = "asin_batcher"
	EnvVar     = "ASIN_BATCHER_ENGINE_PATH"

	ActionPreview          = "preview"
	ActionExportDuplicates = "export_duplicates"
	ActionProcess          = "process"

	DefaultMarket  = "US"
	DefaultOrder   = "Ordenado"
	DefaultBatches = 30
)

var Descriptor = engine.Descriptor{
	Name:        EngineName,
	DisplayName: "ASIN Batcher",
	Folder:      filepath.Join("Engines", "AsinBatcherEngine"),
	Script:      "engine.py",
	Binary:      "AsinBatcherEngine",
	EnvVar:      EnvVar,
}

var (
	Markets = []string{"MX", "US"}
	Orders  = []string{"Ordenado", "Inverso", "Aleatorio"}
)

// Summary is the ASIN count report of a preview.
type Summary struct {
	Total      int `json:"total"`
	Unique     int `json:"unique"`
	Duplicates int `json:"duplicates"`
}

// Result is what a process or export call produced.
type Result struct {
	Summary
	OutputFolder string `json:"output_folder,omitempty"`
	ZipPath      string `json:"zip_path,omitempty"`
	CSVPath      string `json:"csv_path,omitempty"`
}

type ProcessRequest struct {
	InputPath string
	OutputDir string
	Market    string
	// Store is the preset or manual store name; it is sent as both store and
	// store_name.
	Store     string
	Order     string
	Batches   int
	ZipOutput bool
	FileLabel string
	Prefixes  tools.Prefixes
}

// Normalize fills unset options with their defaults.
func (r ProcessRequest) Normalize() ProcessRequest {
	if strings.TrimSpace(r.Market) == "" {
		r.Market = DefaultMarket
	}
	if strings.TrimSpace(r.Order) == "" {
		r.Order = DefaultOrder
	}
	if r.Batches == 0 {
		r.Batches = DefaultBatches
	}
	r.Store = tools.StoreName(r.Store, "")
	return r
}

func (r ProcessRequest) Validate() error {
	if err := tools.RequireFile(r.InputPath); err != nil {
		return err
	}
	if strings.TrimSpace(r.OutputDir) == "" {
		return fmt.Errorf("output folder is required")
	}
	if !hasFold(Markets, r.Market) {
		return fmt.Errorf("unknown market %q (expected %s)", r.Market, strings.Join(Markets, ", "))
	}
	if !hasFold(Orders, r.Order) {
		return fmt.Errorf("unknown order %q (expected %s)", r.Order, strings.Join(Orders, ", "))
	}
	if r.Batches < 1 {
		return fmt.Errorf("batches must be at least 1, got %d", r.Batches)
	}
	return r.Prefixes.Validate()
}

func (r ProcessRequest) engineRequest() engine.Request {
	req := engine.NewRequest(ActionProcess)
	req.SetString("input_path", r.InputPath)
	req.SetString("output_dir", r.OutputDir)
	req.SetString("market", strings.ToUpper(r.Market))
	req.SetString("store", r.Store)
	req.SetString("store_name", r.Store)
	req.SetString("order", canonical(Orders, r.Order))
	req.SetInt("batches", r.Batches)
	req.SetBool("zip_output", r.ZipOutput)
	req.SetString("file_label", r.FileLabel)
	r.Prefixes.Apply(&req)
	return req
}

// BatchOverflowError reports more batches than unique ASINs.
type BatchOverflowError struct {
	Batches int
	Unique  int
}

func (e *BatchOverflowError) Error() string {
	return fmt.Sprintf("batch count cannot exceed the number of URLs (URLs: %d, batches: %d)", e.Unique, e.Batches)
}

// ValidateBatches rejects a batch count above the unique ASIN count. An
// unknown count (zero) accepts anything.
func ValidateBatches(batches, unique int) error {
	if unique > 0 && batches > unique {
		return &BatchOverflowError{Batches: batches, Unique: unique}
	}
	return nil
}

type Client struct {
	invoker engine.Invoker
}

func New(invoker engine.Invoker) *Client {
	return &Client{invoker: invoker}
}

// PreviewRequest builds the request for a preview of inputPath.
func PreviewRequest(inputPath string) engine.Request {
	req := engine.NewRequest(ActionPreview)
	req.SetString("input_path", inputPath)
	return req
}

// SummaryOf reads the counts from a preview response. Missing counts are zero.
func SummaryOf(resp engine.Response) Summary {
	return Summary{
		Total:      resp.IntOr("total", 0),
		Unique:     resp.IntOr("unique", 0),
		Duplicates: resp.IntOr("duplicates", 0),
	}
}

func (c *Client) Preview(ctx context.Context, inputPath string) (Summary, error) {
	if err := tools.RequireFile(inputPath); err != nil {
		return Summary{}, err
	}
	resp := tools.Call(ctx, c.invoker, Descriptor, PreviewRequest(inputPath))
	if err := resp.Err(); err != nil {
		return Summary{}, err
	}
	return SummaryOf(resp), nil
}

func (c *Client) ExportDuplicates(ctx context.Context, inputPath, outputDir string) (Result, error) {
	if err := tools.RequireFile(inputPath); err != nil {
		return Result{}, err
	}
	req := engine.NewRequest(ActionExportDuplicates)
	req.SetString("input_path", inputPath)
	req.SetString("output_dir", outputDir)

	resp := tools.Call(ctx, c.invoker, Descriptor, req)
	if err := resp.Err(); err != nil {
		return Result{}, err
	}
	return resultOf(resp), nil
}

// Process validates r, checks the batch count against a fresh preview and
// runs the batcher.
func (c *Client) Process(ctx context.Context, r ProcessRequest) (Result, error) {
	r, err := prepare(r)
	if err != nil {
		return Result{}, err
	}
	summary, err := c.Preview(ctx, r.InputPath)
	if err != nil {
		return Result{}, err
	}
	return c.process(ctx, r, summary.Unique)
}

// ProcessWithUnique is Process for a caller that already knows the unique
// ASIN count of r.InputPath, such as after a BatchOverflowError. No preview is
// run.
func (c *Client) ProcessWithUnique(ctx context.Context, r ProcessRequest, unique int) (Result, error) {
	r, err := prepare(r)
	if err != nil {
		return Result{}, err
	}
	return c.process(ctx, r, unique)
}

func prepare(r ProcessRequest) (ProcessRequest, error) {
	r = r.Normalize()
	return r, r.Validate()
}

func (c *Client) process(ctx context.Context, r ProcessRequest, unique int) (Result, error) {
	if err := ValidateBatches(r.Batches, unique); err != nil {
		return Result{}, err
	}
	resp := tools.Call(ctx, c.invoker, Descriptor, r.engineRequest())
	if err := resp.Err(); err != nil {
		return Result{}, err
	}
	return resultOf(resp), nil
}

func resultOf(resp engine.Response) Result {
	result := Result{Summary: SummaryOf(resp)}
	result.OutputFolder, _ = resp.String("output_folder")
	result.ZipPath, _ = resp.String("zip_path")
	result.CSVPath, _ = resp.String("csv_path")
	return result
}

func hasFold(options []string, value string) bool {
	return canonical(options, value) != ""
}

// canonical returns the option matching value ignoring case, or "".
func canonical(options []string, value string) string {
	for _, option := range options {
		if strings.EqualFold(option, strings.TrimSpace(value)) {
			return option
		}
	}
	return ""
}
