package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/rivo/tview"
)

type Confirmation struct {
	Title       string
	Body        string
	Affirmative string
	Negative    string
}

func (c Confirmation) labels() (string, string) {
	yes, no := strings.TrimSpace(c.Affirmative), strings.TrimSpace(c.Negative)
	if yes == "" {
		yes = "Yes"
	}
	if no == "" {
		no = "No"
	}
	return yes, no
}

// Confirm asks a yes/no question. used is false when no backend could run.
func Confirm(backend string, c Confirmation) (bool, bool, error) {
	var firstErr error
	for _, candidate := range backendCandidates(backend) {
		var (
			approved bool
			err      error
		)
		switch candidate {
		case BackendBubbleTea:
			approved, err = confirmWithBubbleTea(c)
		case BackendHuh:
			approved, err = confirmWithHuh(c)
		case BackendTView:
			approved, err = confirmWithTView(c)
		case BackendPlain:
			approved, err = confirmWithPlain(plainIn, plainOut, c)
		default:
			continue
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return approved, true, nil
	}
	return false, false, firstErr
}

type confirmModel struct {
	confirmation Confirmation
	approved     bool
	done         bool
}

func (m confirmModel) Init() tea.Cmd { return nil }

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch k := msg.(type) {
	case tea.KeyMsg:
		switch strings.ToLower(k.String()) {
		case "y", "s":
			m.approved = true
			m.done = true
			return m, tea.Quit
		case "n", "esc", "ctrl+c", "enter":
			m.approved = false
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	yes, no := m.confirmation.labels()
	lines := []string{titleStyle.Render(m.confirmation.Title)}
	if body := strings.TrimSpace(m.confirmation.Body); body != "" {
		lines = append(lines, "", bodyStyle.Render(body))
	}
	lines = append(lines, "", hintStyle.Render(fmt.Sprintf("[y] %s  [n] %s", yes, no)))
	return cardStyle.Render(strings.Join(lines, "\n"))
}

func confirmWithBubbleTea(c Confirmation) (bool, error) {
	final, err := tea.NewProgram(confirmModel{confirmation: c}, tea.WithAltScreen()).Run()
	if err != nil {
		return false, err
	}
	out, ok := final.(confirmModel)
	if !ok || !out.done {
		return false, nil
	}
	return out.approved, nil
}

func confirmWithHuh(c Confirmation) (bool, error) {
	yes, no := c.labels()
	approved := false
	prompt := huh.NewConfirm().
		Title(c.Title).
		Description(strings.TrimSpace(c.Body)).
		Affirmative(yes).
		Negative(no).
		Value(&approved).
		WithTheme(huh.ThemeCharm())
	if err := prompt.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false, nil
		}
		return false, err
	}
	return approved, nil
}

func confirmWithTView(c Confirmation) (bool, error) {
	yes, no := c.labels()
	app := tview.NewApplication()
	approved := false

	text := c.Title
	if body := strings.TrimSpace(c.Body); body != "" {
		text += "\n\n" + body
	}
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{yes, no}).
		SetDoneFunc(func(index int, _ string) {
			approved = index == 0
			app.Stop()
		})

	if err := app.SetRoot(modal, true).Run(); err != nil {
		return false, err
	}
	return approved, nil
}

func confirmWithPlain(in io.Reader, out io.Writer, c Confirmation) (bool, error) {
	fmt.Fprintln(out, c.Title)
	if body := strings.TrimSpace(c.Body); body != "" {
		fmt.Fprintln(out, body)
	}
	fmt.Fprint(out, "[y/N] ")
	answer, err := readLine(bufio.NewReader(in))
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes", "s", "si", "sí":
		return true, nil
	default:
		return false, nil
	}
}
