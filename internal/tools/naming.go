// Package tools holds what the engine-backed tools share: store names, file
// name prefixes and input discovery.
package tools

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/ashwch/s3tools/internal/engine"
)

// Stores are the store presets, marketplace stores first.
var Stores = []string{
	"ProductosTX",
	"Holaproducto",
	"Altinor",
	"HervazTrade",
	"BBvs_Template",
	"BBvsBB2_2da",
	"BBvsBB2",
}

const DefaultStore = "ProductosTX"

var Prefix1Options = []string{"", "01_", "02_", "03_", "04_", "05_"}

var Prefix2Options = []string{"", "1er_Vuelta_", "2da_Vuelta_", "3er_Vuelta_", "4ta_Vuelta_"}

// InputExtensions are the file types the sitemap engine accepts.
var InputExtensions = []string{".txt", ".csv", ".xlsx", ".json"}

var urlPattern = regexp.MustCompile(`(?i)https?://[^\s"']+`)

// StoreName picks the name used in output files: a manual name wins, then
// the selected preset, then the default store.
func StoreName(manual, selected string) string {
	if name := strings.TrimSpace(manual); name != "" {
		return name
	}
	if name := strings.TrimSpace(selected); name != "" {
		return name
	}
	return DefaultStore
}

// Prefixes is the pair of optional file name prefixes.
type Prefixes struct {
	First  string `json:"name_prefix_1,omitempty"`
	Second string `json:"name_prefix_2,omitempty"`
}

func (p Prefixes) Validate() error {
	if !contains(Prefix1Options, p.First) {
		return fmt.Errorf("invalid first name prefix %q (allowed: %s)", p.First, strings.Join(Prefix1Options[1:], ", "))
	}
	if !contains(Prefix2Options, p.Second) {
		return fmt.Errorf("invalid second name prefix %q (allowed: %s)", p.Second, strings.Join(Prefix2Options[1:], ", "))
	}
	return nil
}

// Apply writes the prefixes into req, leaving empty ones out.
func (p Prefixes) Apply(req *engine.Request) {
	req.SetString("name_prefix_1", p.First)
	req.SetString("name_prefix_2", p.Second)
}

// DefaultOutputDir is the user's Downloads folder.
func DefaultOutputDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// InputFiles lists the files in folder with an accepted extension, sorted.
func InputFiles(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("could not read input folder: %w", err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if contains(InputExtensions, ext) {
			files = append(files, filepath.Join(folder, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// CountURLs counts http(s) URLs in a text file. Unreadable files count zero.
func CountURLs(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	return len(urlPattern.FindAll(data, -1))
}

// RequireFile fails unless path names an existing regular file.
func RequireFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("no input file given")
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("input file not found: %s", path)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("input is not a file: %s", path)
	}
	return nil
}

// Call runs req on d through invoker and waits for the response.
func Call(ctx context.Context, invoker engine.Invoker, d engine.Descriptor, req engine.Request) engine.Response {
	return engine.Await(ctx, invoker.Invoke(ctx, d, req))
}

func contains(options []string, value string) bool {
	for _, option := range options {
		if option == value {
			return true
		}
	}
	return false
}
