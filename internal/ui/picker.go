package ui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// Choice is a single-choice prompt. When OtherLabel is set an extra entry
// lets the user type a value that is not in Options.
type Choice struct {
	Title      string
	Options    []string
	Initial    string
	OtherLabel string
}

var (
	plainIn  io.Reader = os.Stdin
	plainOut io.Writer = os.Stdout
)

const otherValue = "\x00other"

// Choose runs c on the first backend that works. used is false when no
// backend could run; an empty value with used=true means the user cancelled.
func Choose(backend string, c Choice) (string, bool, error) {
	if len(c.Options) == 0 && c.OtherLabel == "" {
		return "", false, nil
	}

	var firstErr error
	for _, candidate := range backendCandidates(backend) {
		var (
			value string
			err   error
		)
		switch candidate {
		case BackendBubbleTea:
			value, err = chooseWithBubbleTea(c)
		case BackendHuh:
			value, err = chooseWithHuh(c)
		case BackendTView:
			value, err = chooseWithTView(c)
		case BackendPlain:
			value, err = chooseWithPlain(plainIn, plainOut, c)
		default:
			continue
		}
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		return strings.TrimSpace(value), true, nil
	}
	return "", false, firstErr
}

func (c Choice) initialIndex() int {
	for i, option := range c.Options {
		if strings.EqualFold(option, strings.TrimSpace(c.Initial)) {
			return i
		}
	}
	return 0
}

func (c Choice) defaultValue() string {
	if len(c.Options) == 0 {
		return ""
	}
	return c.Options[c.initialIndex()]
}

func (c Choice) match(text string) (string, bool) {
	for _, option := range c.Options {
		if strings.EqualFold(option, text) {
			return option, true
		}
	}
	return "", false
}

func chooseWithPlain(in io.Reader, out io.Writer, c Choice) (string, error) {
	reader := bufio.NewReader(in)
	fmt.Fprintln(out, c.Title)
	for i, option := range c.Options {
		marker := " "
		if i == c.initialIndex() {
			marker = "*"
		}
		fmt.Fprintf(out, " %s %d) %s\n", marker, i+1, option)
	}
	otherIndex := 0
	if c.OtherLabel != "" {
		otherIndex = len(c.Options) + 1
		fmt.Fprintf(out, "   %d) %s\n", otherIndex, c.OtherLabel)
	}
	fmt.Fprint(out, "> ")

	answer, err := readLine(reader)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return c.defaultValue(), nil
	}
	if n, err := strconv.Atoi(answer); err == nil {
		switch {
		case n >= 1 && n <= len(c.Options):
			return c.Options[n-1], nil
		case otherIndex != 0 && n == otherIndex:
			fmt.Fprintf(out, "%s: ", c.OtherLabel)
			return readLine(reader)
		default:
			return "", fmt.Errorf("choice %d is out of range", n)
		}
	}
	if option, ok := c.match(answer); ok {
		return option, nil
	}
	if c.OtherLabel != "" {
		return answer, nil
	}
	return "", fmt.Errorf("unknown choice %q", answer)
}

func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func chooseWithHuh(c Choice) (string, error) {
	options := make([]huh.Option[string], 0, len(c.Options)+1)
	for _, option := range c.Options {
		options = append(options, huh.NewOption(option, option))
	}
	if c.OtherLabel != "" {
		options = append(options, huh.NewOption(c.OtherLabel, otherValue))
	}

	choice := c.defaultValue()
	prompt := huh.NewSelect[string]().
		Title(c.Title).
		Options(options...).
		Filtering(true).
		Height(huhSelectHeight(len(options))).
		Value(&choice).
		WithTheme(huh.ThemeCharm())
	if err := prompt.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", err
	}
	if choice != otherValue {
		return choice, nil
	}

	text := ""
	input := huh.NewInput().
		Title(c.OtherLabel).
		Value(&text).
		WithTheme(huh.ThemeCharm())
	if err := input.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", nil
		}
		return "", err
	}
	return text, nil
}

type pickerItem struct {
	label string
	value string
}

func (i pickerItem) Title() string       { return i.label }
func (i pickerItem) Description() string { return "" }
func (i pickerItem) FilterValue() string { return i.label }

type pickerModel struct {
	list      list.Model
	input     textinput.Model
	editing   bool
	selection string
	cancelled bool
	options   int
}

func newPickerModel(c Choice) pickerModel {
	items := make([]list.Item, 0, len(c.Options)+1)
	for _, option := range c.Options {
		items = append(items, pickerItem{label: option, value: option})
	}
	if c.OtherLabel != "" {
		items = append(items, pickerItem{label: c.OtherLabel, value: otherValue})
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	delegate.SetSpacing(0)

	width, height := bubblePickerSize(80, 24, len(items))
	picker := list.New(items, delegate, width, height)
	picker.Title = c.Title
	picker.SetShowHelp(false)
	picker.SetFilteringEnabled(true)
	picker.Select(c.initialIndex())

	input := textinput.New()
	input.Placeholder = c.OtherLabel
	input.CharLimit = 120
	input.Width = 48

	return pickerModel{list: picker, input: input, options: len(items)}
}

func (m pickerModel) Init() tea.Cmd { return nil }

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch k := msg.(type) {
	case tea.WindowSizeMsg:
		width, height := bubblePickerSize(k.Width, k.Height, m.options)
		m.list.SetSize(width, height)
		return m, nil
	case tea.KeyMsg:
		if m.editing {
			switch k.String() {
			case "esc":
				m.editing = false
				m.input.Blur()
				return m, nil
			case "ctrl+c":
				m.cancelled = true
				return m, tea.Quit
			case "enter":
				m.selection = strings.TrimSpace(m.input.Value())
				if m.selection == "" {
					return m, nil
				}
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.input, cmd = m.input.Update(msg)
			return m, cmd
		}
		switch k.String() {
		case "q", "esc", "ctrl+c":
			if m.list.FilterState() == list.Filtering && k.String() != "ctrl+c" {
				break
			}
			m.cancelled = true
			return m, tea.Quit
		case "enter":
			item, ok := m.list.SelectedItem().(pickerItem)
			if !ok {
				return m, nil
			}
			if item.value == otherValue {
				m.editing = true
				return m, m.input.Focus()
			}
			m.selection = item.value
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m pickerModel) View() string {
	if m.editing {
		return cardStyle.Render(titleStyle.Render(m.input.Placeholder) + "\n\n" + m.input.View() + "\n\n" +
			hintStyle.Render("[enter] accept  [esc] back"))
	}
	return m.list.View()
}

func chooseWithBubbleTea(c Choice) (string, error) {
	final, err := tea.NewProgram(newPickerModel(c), tea.WithAltScreen()).Run()
	if err != nil {
		return "", err
	}
	out, ok := final.(pickerModel)
	if !ok || out.cancelled {
		return "", nil
	}
	return out.selection, nil
}

func chooseWithTView(c Choice) (string, error) {
	app := tview.NewApplication()
	listView := tview.NewList()
	listView.SetBorder(true)
	listView.SetTitle(c.Title)
	listView.ShowSecondaryText(false)

	selected := ""
	for _, option := range c.Options {
		current := option
		listView.AddItem(current, "", 0, func() {
			selected = current
			app.Stop()
		})
	}
	if c.OtherLabel != "" {
		listView.AddItem(c.OtherLabel, "", 0, func() {
			input := tview.NewInputField().SetLabel(c.OtherLabel + ": ")
			input.SetBorder(true)
			input.SetDoneFunc(func(key tcell.Key) {
				if key == tcell.KeyEnter {
					selected = input.GetText()
				}
				app.Stop()
			})
			app.SetRoot(input, true).SetFocus(input)
		})
	}
	listView.SetCurrentItem(c.initialIndex())
	listView.SetDoneFunc(func() {
		app.Stop()
	})

	if err := app.SetRoot(listView, true).SetFocus(listView).Run(); err != nil {
		return "", err
	}
	return selected, nil
}

func clampInt(v, minV, maxV int) int {
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

func bubblePickerSize(termWidth, termHeight, optionCount int) (int, int) {
	if termWidth <= 0 {
		termWidth = 80
	}
	if termHeight <= 0 {
		termHeight = 24
	}
	if optionCount < 1 {
		optionCount = 1
	}

	maxWidth := termWidth
	minWidth := 32
	if maxWidth < minWidth {
		minWidth = maxWidth
	}
	width := clampInt(termWidth-4, minWidth, maxWidth)

	visibleItems := clampInt(optionCount, 3, 12)
	desiredHeight := visibleItems + 6

	maxHeight := termHeight - 2
	if maxHeight <= 0 {
		maxHeight = termHeight
	}
	minHeight := 8
	if maxHeight < minHeight {
		minHeight = maxHeight
	}
	return width, clampInt(desiredHeight, minHeight, maxHeight)
}

func huhSelectHeight(optionCount int) int {
	if optionCount < 1 {
		optionCount = 1
	}
	return clampInt(optionCount+1, 4, 10)
}
