package engine

import (
	"path/filepath"
	goruntime "runtime"
	"strings"
	"testing"
)

func TestBinaryNameDerivesFromScript(t *testing.T) {
	d := Descriptor{Name: "sitemap", Folder: "Engines/Sitemap", Script: "form_site.py"}
	want := "form_site"
	if goruntime.GOOS == "windows" {
		want += ".exe"
	}
	if got := d.BinaryName(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if got := d.ScriptPath(); got != filepath.Join("Engines", "Sitemap", "form_site.py") {
		t.Fatalf("unexpected script path %q", got)
	}
}

func TestBinaryNamePrefersExplicitBinary(t *testing.T) {
	d := Descriptor{Name: "asin_batcher", Script: "engine.py", Binary: "AsinBatcherEngine"}
	if got := d.BinaryName(); !strings.HasPrefix(got, "AsinBatcherEngine") {
		t.Fatalf("unexpected binary name %q", got)
	}
}

func TestCatalogRejectsDuplicatesAndInvalid(t *testing.T) {
	catalog, err := NewCatalog(Descriptor{Name: "formato", Script: "format.py"})
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	if err := catalog.Register(Descriptor{Name: "Formato", Script: "other.py"}); err == nil {
		t.Fatalf("expected duplicate registration error")
	}
	if err := catalog.Register(Descriptor{Name: "x"}); err == nil {
		t.Fatalf("expected error for descriptor without entry point")
	}
	if _, err := NewCatalog(Descriptor{Name: "abs", Script: "a.py", Folder: filepath.Join(t.TempDir(), "abs")}); err == nil {
		t.Fatalf("expected error for absolute folder")
	}
}

func TestCatalogLookupIsCaseInsensitiveAndSorted(t *testing.T) {
	catalog, err := NewCatalog(
		Descriptor{Name: "sitemap", Script: "form_site.py"},
		Descriptor{Name: "asin_batcher", Script: "engine.py"},
	)
	if err != nil {
		t.Fatalf("NewCatalog failed: %v", err)
	}
	if _, ok := catalog.Lookup(" SITEMAP "); !ok {
		t.Fatalf("expected case-insensitive lookup")
	}
	names := catalog.Names()
	if len(names) != 2 || names[0] != "asin_batcher" || names[1] != "sitemap" {
		t.Fatalf("unexpected names %#v", names)
	}
	if all := catalog.All(); all[0].Name != "asin_batcher" {
		t.Fatalf("expected All in name order, got %#v", all)
	}
}
