package ui

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ashwch/s3tools/internal/i18n"
	"github.com/ashwch/s3tools/internal/sequence"
	"github.com/ashwch/s3tools/internal/tools/asinbatcher"
)

// PreviewOutcome is the result of one preview run.
type PreviewOutcome struct {
	Summary asinbatcher.Summary
	Err     error
	At      time.Time
}

// LivePreview re-runs Run once at start and again after every value on
// Changes. Only the newest run's outcome is shown.
type LivePreview struct {
	Path    string
	Changes <-chan struct{}
	Run     func(ctx context.Context) (asinbatcher.Summary, error)
	Catalog i18n.Catalog
	Out     io.Writer
}

type previewStartedMsg struct {
	token sequence.Token
}

type previewDoneMsg struct {
	result sequence.Stamped[PreviewOutcome]
}

type previewModel struct {
	path    string
	catalog i18n.Catalog
	seq     *sequence.Sequencer
	spinner spinner.Model
	running bool
	outcome *PreviewOutcome
	stale   int
}

func newPreviewModel(path string, catalog i18n.Catalog, seq *sequence.Sequencer) previewModel {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = markStyle
	return previewModel{path: path, catalog: catalog, seq: seq, spinner: spin}
}

func (m previewModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch k := msg.(type) {
	case tea.KeyMsg:
		switch k.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		}
	case previewStartedMsg:
		if m.seq.IsCurrent(k.token) {
			m.running = true
		}
		return m, nil
	case previewDoneMsg:
		if !k.result.Current(m.seq) {
			m.stale++
			return m, nil
		}
		outcome := k.result.Value
		m.outcome = &outcome
		m.running = false
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m previewModel) View() string {
	lines := []string{
		titleStyle.Render(filepath.Base(m.path)),
		subtleStyle.Render(m.catalog.T(i18n.PreviewWaiting, m.path)),
		"",
	}
	if m.running {
		lines = append(lines, m.spinner.View()+" "+m.catalog.T(i18n.PreviewReading))
	}
	if m.outcome != nil {
		if m.outcome.Err != nil {
			lines = append(lines, errorStyle.Render(ErrorText(m.catalog, i18n.ErrorReadFile, m.outcome.Err)))
		} else {
			for _, line := range SummaryLines(m.catalog, m.outcome.Summary) {
				lines = append(lines, bodyStyle.Render(line))
			}
		}
		lines = append(lines, "", subtleStyle.Render(m.outcome.At.Format("15:04:05")))
	}
	if m.stale > 0 {
		lines = append(lines, hintStyle.Render(m.catalog.T(i18n.PreviewStale, m.stale)))
	}
	return cardStyle.Render(strings.Join(lines, "\n"))
}

// RunLivePreview drives lp until ctx is done, Changes closes (plain mode) or
// the user quits (interactive mode).
func RunLivePreview(ctx context.Context, backend string, lp LivePreview) error {
	if lp.Out == nil {
		lp.Out = plainOut
	}
	if IsInteractiveBackend(backend) {
		err := runPreviewWithBubbleTea(ctx, lp)
		if err == nil {
			return nil
		}
		fmt.Fprintln(lp.Out, err)
	}
	return runPreviewPlain(ctx, lp)
}

func runPreviewWithBubbleTea(parent context.Context, lp LivePreview) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	seq := &sequence.Sequencer{}
	program := tea.NewProgram(newPreviewModel(lp.Path, lp.Catalog, seq), tea.WithAltScreen(), tea.WithContext(ctx))

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		drivePreview(ctx, seq, lp,
			func(token sequence.Token) { program.Send(previewStartedMsg{token: token}) },
			func(result sequence.Stamped[PreviewOutcome]) { program.Send(previewDoneMsg{result: result}) },
		)
	}()

	_, err := program.Run()
	cancel()
	wg.Wait()
	if err != nil && parent.Err() == nil {
		return err
	}
	return nil
}

func runPreviewPlain(ctx context.Context, lp LivePreview) error {
	seq := &sequence.Sequencer{}
	var (
		mu      sync.Mutex
		printed sync.WaitGroup
	)
	fmt.Fprintln(lp.Out, lp.Catalog.T(i18n.PreviewWaiting, lp.Path))

	pending := map[sequence.Token]chan PreviewOutcome{}
	var pendingMu sync.Mutex

	started := func(token sequence.Token) {
		results := make(chan PreviewOutcome, 1)
		pendingMu.Lock()
		pending[token] = results
		pendingMu.Unlock()

		printed.Add(1)
		go func() {
			defer printed.Done()
			for stamped := range sequence.FollowToken(ctx, seq, token, results) {
				mu.Lock()
				printPlainOutcome(lp.Out, lp.Catalog, stamped.Value)
				mu.Unlock()
			}
		}()
	}
	finished := func(result sequence.Stamped[PreviewOutcome]) {
		pendingMu.Lock()
		results := pending[result.Token]
		delete(pending, result.Token)
		pendingMu.Unlock()
		if results != nil {
			results <- result.Value
		}
	}

	drivePreview(ctx, seq, lp, started, finished)
	printed.Wait()
	return nil
}

func printPlainOutcome(out io.Writer, c i18n.Catalog, outcome PreviewOutcome) {
	stamp := outcome.At.Format("15:04:05")
	if outcome.Err != nil {
		fmt.Fprintf(out, "[%s] %s\n", stamp, ErrorText(c, i18n.ErrorReadFile, outcome.Err))
		return
	}
	fmt.Fprintf(out, "[%s] %s\n", stamp, strings.Join(SummaryLines(c, outcome.Summary), " | "))
}

// drivePreview issues a token per run. Superseded runs are left to finish;
// their results are dropped by the token check. It returns once every run it
// started has finished.
func drivePreview(
	ctx context.Context,
	seq *sequence.Sequencer,
	lp LivePreview,
	started func(sequence.Token),
	finished func(sequence.Stamped[PreviewOutcome]),
) {
	var runs sync.WaitGroup
	trigger := func() {
		token := seq.Issue()
		started(token)

		runs.Add(1)
		go func() {
			defer runs.Done()
			summary, err := lp.Run(ctx)
			finished(sequence.Stamped[PreviewOutcome]{
				Token: token,
				Value: PreviewOutcome{Summary: summary, Err: err, At: time.Now()},
			})
		}()
	}

	trigger()
loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case _, ok := <-lp.Changes:
			if !ok {
				break loop
			}
			trigger()
		}
	}
	runs.Wait()
}

var (
	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("87"))

	markStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("45"))

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("248"))

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("109"))
)
