package locate

import (
	"reflect"
	"testing"
)

func TestCandidatesFollowExtensionRules(t *testing.T) {
	windows := Convention{BinaryExt: ".exe", ScriptExt: ".py"}
	cases := []struct {
		name string
		hint string
		want []string
	}{
		{name: "empty", hint: "   ", want: nil},
		{name: "no extension", hint: `Engines\Sitemap\form_site`, want: []string{`Engines\Sitemap\form_site.exe`, `Engines\Sitemap\form_site.py`, `Engines\Sitemap\form_site`}},
		{name: "script", hint: "engine.py", want: []string{"engine.exe", "engine.py"}},
		{name: "script upper case", hint: "engine.PY", want: []string{"engine.exe", "engine.PY"}},
		{name: "binary", hint: "AsinBatcherEngine.exe", want: []string{"AsinBatcherEngine.exe", "AsinBatcherEngine.py"}},
		{name: "other", hint: "engine.sh", want: []string{"engine.sh"}},
		{name: "trimmed", hint: "  format.py ", want: []string{"format.exe", "format.py"}},
	}
	for _, tc := range cases {
		got := Candidates(tc.hint, windows)
		if !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("%s: Candidates(%q)=%#v want=%#v", tc.name, tc.hint, got, tc.want)
		}
	}
}

func TestCandidatesWithoutExtensionAreAlwaysThree(t *testing.T) {
	for _, conv := range []Convention{{BinaryExt: ".exe", ScriptExt: ".py"}, {BinaryExt: "", ScriptExt: ".py"}} {
		got := Candidates("/opt/engines/form_site", conv)
		if len(got) != 3 {
			t.Fatalf("expected 3 candidates for %#v, got %#v", conv, got)
		}
		if got[0] != "/opt/engines/form_site"+conv.BinaryExt || got[1] != "/opt/engines/form_site.py" || got[2] != "/opt/engines/form_site" {
			t.Fatalf("unexpected order %#v", got)
		}
	}
}

func TestCandidatesScriptSwapsToBareBinaryOnUnix(t *testing.T) {
	got := Candidates("Engines/Formato/format.py", Convention{ScriptExt: ".py"})
	want := []string{"Engines/Formato/format", "Engines/Formato/format.py"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %#v want %#v", got, want)
	}
}
