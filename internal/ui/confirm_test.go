package ui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestConfirmWithPlainAnswers(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{input: "y\n", want: true},
		{input: "Sí\n", want: true},
		{input: "yes", want: true},
		{input: "\n", want: false},
		{input: "n\n", want: false},
		{input: "", want: false},
	}
	for _, tc := range cases {
		var out bytes.Buffer
		got, err := confirmWithPlain(strings.NewReader(tc.input), &out, Confirmation{Title: "Use 7 batches instead?"})
		if err != nil {
			t.Fatalf("confirmWithPlain(%q) failed: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("confirmWithPlain(%q)=%v want=%v", tc.input, got, tc.want)
		}
	}
}

func TestConfirmPrintsBody(t *testing.T) {
	var out bytes.Buffer
	body := "The batch count cannot exceed the number of URLs.\nURLs: 7\nBatches: 30"
	if _, err := confirmWithPlain(strings.NewReader("n\n"), &out, Confirmation{Title: "Use 7 batches instead?", Body: body}); err != nil {
		t.Fatalf("confirmWithPlain failed: %v", err)
	}
	if !strings.Contains(out.String(), "Batches: 30") {
		t.Fatalf("expected body in prompt, got:\n%s", out.String())
	}
}

func TestConfirmModelKeys(t *testing.T) {
	next, _ := confirmModel{}.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	if out := next.(confirmModel); !out.done || !out.approved {
		t.Fatalf("expected y to approve, got %#v", out)
	}
	next, _ = confirmModel{}.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if out := next.(confirmModel); !out.done || out.approved {
		t.Fatalf("expected enter to decline, got %#v", out)
	}
}

func TestConfirmationLabelsDefault(t *testing.T) {
	yes, no := Confirmation{}.labels()
	if yes != "Yes" || no != "No" {
		t.Fatalf("unexpected default labels %q/%q", yes, no)
	}
}
