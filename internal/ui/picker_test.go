package ui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func storeChoice() Choice {
	return Choice{
		Title:      "Select a store",
		Options:    []string{"ProductosTX", "HogarMX", "TecnoUS"},
		Initial:    "hogarmx",
		OtherLabel: "Other (type a name)",
	}
}

func TestChooseWithPlainAnswers(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "number", input: "3\n", want: "TecnoUS"},
		{name: "empty keeps initial", input: "\n", want: "HogarMX"},
		{name: "eof keeps initial", input: "", want: "HogarMX"},
		{name: "name matches option", input: "productostx\n", want: "ProductosTX"},
		{name: "free text", input: "Tienda Nueva\n", want: "Tienda Nueva"},
		{name: "other entry", input: "4\nMi Tienda\n", want: "Mi Tienda"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			got, err := chooseWithPlain(strings.NewReader(tc.input), &out, storeChoice())
			if err != nil {
				t.Fatalf("chooseWithPlain failed: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestChooseWithPlainRejectsOutOfRange(t *testing.T) {
	var out bytes.Buffer
	if _, err := chooseWithPlain(strings.NewReader("9\n"), &out, storeChoice()); err == nil {
		t.Fatalf("expected out of range choice to fail")
	}
	c := storeChoice()
	c.OtherLabel = ""
	if _, err := chooseWithPlain(strings.NewReader("nope\n"), &out, c); err == nil {
		t.Fatalf("expected unknown choice to fail without other entry")
	}
}

func TestChooseWithPlainMarksInitial(t *testing.T) {
	var out bytes.Buffer
	if _, err := chooseWithPlain(strings.NewReader("\n"), &out, storeChoice()); err != nil {
		t.Fatalf("chooseWithPlain failed: %v", err)
	}
	if !strings.Contains(out.String(), "* 2) HogarMX") {
		t.Fatalf("expected initial option marked, got:\n%s", out.String())
	}
}

func TestChoosePlainBackendUsesPlainStreams(t *testing.T) {
	previousIn, previousOut := plainIn, plainOut
	t.Cleanup(func() { plainIn, plainOut = previousIn, previousOut })
	plainIn = strings.NewReader("1\n")
	plainOut = &bytes.Buffer{}

	got, used, err := Choose(BackendPlain, storeChoice())
	if err != nil || !used {
		t.Fatalf("expected plain backend to run, used=%v err=%v", used, err)
	}
	if got != "ProductosTX" {
		t.Fatalf("expected ProductosTX, got %q", got)
	}
}

func TestChooseWithoutOptionsIsUnused(t *testing.T) {
	if _, used, err := Choose(BackendPlain, Choice{Title: "empty"}); used || err != nil {
		t.Fatalf("expected unused prompt, used=%v err=%v", used, err)
	}
}

func TestPickerModelSelectsInitialOnEnter(t *testing.T) {
	model := newPickerModel(storeChoice())
	next, _ := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	out := next.(pickerModel)
	if out.selection != "HogarMX" {
		t.Fatalf("expected HogarMX, got %q", out.selection)
	}
}

func TestPickerModelOtherEntryTakesTypedName(t *testing.T) {
	c := storeChoice()
	c.Initial = ""
	var model tea.Model = newPickerModel(c)
	for i := 0; i < len(c.Options); i++ {
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
	}
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !model.(pickerModel).editing {
		t.Fatalf("expected other entry to open the text input")
	}
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("Mi Tienda")})
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if got := model.(pickerModel).selection; got != "Mi Tienda" {
		t.Fatalf("expected typed store name, got %q", got)
	}
	if cmd == nil {
		t.Fatalf("expected quit command after accepting input")
	}
}

func TestPickerModelEscCancels(t *testing.T) {
	next, _ := newPickerModel(storeChoice()).Update(tea.KeyMsg{Type: tea.KeyEsc})
	if !next.(pickerModel).cancelled {
		t.Fatalf("expected esc to cancel")
	}
}

func TestBubblePickerSizeStandardTerminal(t *testing.T) {
	width, height := bubblePickerSize(90, 30, 3)
	if width != 86 {
		t.Fatalf("expected width 86, got %d", width)
	}
	if height != 9 {
		t.Fatalf("expected height 9, got %d", height)
	}
}

func TestBubblePickerSizeTinyTerminalStillFits(t *testing.T) {
	width, height := bubblePickerSize(20, 5, 25)
	if width > 20 || height > 5 {
		t.Fatalf("expected picker to fit terminal, got width=%d height=%d", width, height)
	}
	if width <= 0 || height <= 0 {
		t.Fatalf("expected positive dimensions, got width=%d height=%d", width, height)
	}
}

func TestHuhSelectHeightBounds(t *testing.T) {
	if got := huhSelectHeight(0); got != 4 {
		t.Fatalf("expected minimum huh height 4, got %d", got)
	}
	if got := huhSelectHeight(20); got != 10 {
		t.Fatalf("expected max huh height 10, got %d", got)
	}
}
