package sitemap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ashwch/s3tools/internal/engine"
	"github.com/ashwch/s3tools/internal/tools"
)

type fakeInvoker struct {
	response string
	payloads []string
}

func (f *fakeInvoker) Invoke(_ context.Context, _ engine.Descriptor, req engine.Request) <-chan engine.Response {
	payload, _ := engine.Encode(req)
	f.payloads = append(f.payloads, string(payload))
	ch := make(chan engine.Response, 1)
	resp, err := engine.Decode([]byte(f.response))
	if err != nil {
		resp = engine.Failed(engine.KindOf(err), err.Error(), "")
	}
	ch <- resp
	close(ch)
	return ch
}

func batchFiles(t *testing.T, names ...string) []string {
	t.Helper()
	dir := t.TempDir()
	files := make([]string, 0, len(names))
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("https://example.com/a\n"), 0o644); err != nil {
			t.Fatalf("write failed: %v", err)
		}
		files = append(files, path)
	}
	return files
}

func TestProcessReturnsOutputs(t *testing.T) {
	inv := &fakeInvoker{response: `{"ok":true,"output_folder":"/out/Altinor","output_files":["/out/Altinor/sitemap_1.xml","/out/Altinor/sitemap_2.xml"]}`}
	files := batchFiles(t, "lote_1.txt", "lote_2.txt")

	result, err := New(inv).Process(context.Background(), Request{
		InputFiles: files,
		OutputDir:  "/out",
		Store:      "Altinor",
		Prefixes:   tools.Prefixes{Second: "2da_Vuelta_"},
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if result.OutputFolder != "/out/Altinor" || len(result.OutputFiles) != 2 || result.ZipPath != "" {
		t.Fatalf("unexpected result %#v", result)
	}
	if len(inv.payloads) != 1 {
		t.Fatalf("expected one engine call, got %d", len(inv.payloads))
	}
}

func TestRequestOmitsUnsetBaseName(t *testing.T) {
	files := batchFiles(t, "lote_1.txt")
	req := Request{InputFiles: files, OutputDir: "/out", Store: "BBvsBB2"}.engineRequest()
	if _, ok := req.Get("base_name"); ok {
		t.Fatalf("base_name must be omitted when unset")
	}
	if store, _ := req.Get("store_name"); store != "BBvsBB2" {
		t.Fatalf("expected store_name mirrored from store, got %v", store)
	}
	if zip, _ := req.Get("zip_output"); zip != false {
		t.Fatalf("expected explicit zip_output=false, got %v", zip)
	}
}

func TestProcessValidatesBeforeCallingEngine(t *testing.T) {
	inv := &fakeInvoker{}
	cases := []Request{
		{OutputDir: "/out", Store: "Altinor"},
		{InputFiles: []string{filepath.Join(t.TempDir(), "missing.txt")}, OutputDir: "/out", Store: "Altinor"},
		{InputFiles: batchFiles(t, "a.txt"), Store: "Altinor"},
		{InputFiles: batchFiles(t, "a.txt"), OutputDir: "/out"},
	}
	for i, req := range cases {
		if _, err := New(inv).Process(context.Background(), req); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if len(inv.payloads) != 0 {
		t.Fatalf("engine must not run for invalid requests")
	}
}

func TestProcessSurfacesEmptyOutput(t *testing.T) {
	inv := &fakeInvoker{response: ""}
	_, err := New(inv).Process(context.Background(), Request{InputFiles: batchFiles(t, "a.txt"), OutputDir: "/out", Store: "Altinor"})
	if engine.KindOf(err) != engine.KindEmptyOutput {
		t.Fatalf("expected empty output error, got %v", err)
	}
}
