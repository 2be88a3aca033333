// Package tui is an interactive terminal chat over the document index.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/0xcro3dile/pdfrag-go/internal/domain/entities"
)

// Asker is the TUI-facing subset of the application.
type Asker interface {
	Ask(ctx context.Context, req entities.AnswerRequest) (*entities.AnswerResult, error)
}

type exchange struct {
	question string
	result   *entities.AnswerResult
	err      error
}

type answerMsg struct {
	exchange
}

// Model is the Bubble Tea model for the chat.
type Model struct {
	asker    Asker
	timeout  time.Duration
	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model
	history  []exchange
	pending  string
	status   string
	k        int
	scope    string
	waiting  bool
	ready    bool
}

// New creates a chat model. timeout bounds each question.
func New(asker Asker, timeout time.Duration) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask about your documents, /k N, /doc ID, /doc to clear"
	ti.Focus()
	ti.CharLimit = 1000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		asker:    asker,
		timeout:  timeout,
		input:    ti,
		viewport: viewport.New(0, 0),
		spinner:  sp,
		status:   "Ready.",
	}
}

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key, window and answer events.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, bh := boxStyle.GetFrameSize()
		reserved := 2 + 1 + bh + 1 // header, status, input box
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, msg.Height-reserved-bh)
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case answerMsg:
		m.waiting = false
		m.pending = ""
		m.history = append(m.history, msg.exchange)
		m.status = statusLine(msg.exchange)
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyCtrlD, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			text := strings.TrimSpace(m.input.Value())
			if text == "" {
				return m, nil
			}
			m.input.SetValue("")
			if strings.HasPrefix(text, "/") {
				m.status = m.command(text)
				return m, nil
			}
			m.waiting = true
			m.pending = text
			m.status = "Thinking..."
			return m, tea.Batch(m.spinner.Tick, m.ask(text))
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) ask(question string) tea.Cmd {
	req := entities.AnswerRequest{Question: question, K: m.k, ScopeDocID: m.scope}
	asker, timeout := m.asker, m.timeout
	return func() tea.Msg {
		ctx := context.Background()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		res, err := asker.Ask(ctx, req)
		return answerMsg{exchange{question: question, result: res, err: err}}
	}
}

// command applies a slash command and returns the new status line.
func (m *Model) command(text string) string {
	name, arg, _ := strings.Cut(text, " ")
	arg = strings.TrimSpace(arg)
	switch name {
	case "/k":
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 {
			return "Usage: /k N (N >= 1)"
		}
		m.k = n
		return fmt.Sprintf("Retrieving %d chunks per question.", n)
	case "/doc":
		m.scope = arg
		if arg == "" {
			return "Searching all documents."
		}
		return "Searching only " + arg + "."
	case "/clear":
		m.history = nil
		m.viewport.SetContent(m.renderHistory())
		return "Cleared."
	default:
		return "Unknown command " + name
	}
}

// View renders the layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := headerStyle.Render("pdfrag chat")
	if m.scope != "" {
		header += mutedStyle.Render("  doc " + m.scope)
	}
	status := statusStyle.Render(m.status)
	if m.waiting {
		status = m.spinner.View() + " " + status
	}
	return header + "\n" +
		boxStyle.Render(m.viewport.View()) + "\n" +
		boxStyle.Render(m.input.View()) + "\n" +
		status
}

func (m Model) renderHistory() string {
	if len(m.history) == 0 {
		return mutedStyle.Render("No questions yet.")
	}
	width := max(20, m.viewport.Width-4)
	var b strings.Builder
	for i, ex := range m.history {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(questionStyle.Render("Q: " + ex.question))
		b.WriteString("\n")
		b.WriteString(renderResult(ex, width))
	}
	return b.String()
}

func renderResult(ex exchange, width int) string {
	if ex.err != nil {
		kind := entities.KindOf(ex.err)
		return errorStyle.Width(width).Render(fmt.Sprintf("[%s] %v", kind, ex.err))
	}
	res := ex.result
	if res.Status == entities.StatusNoResults {
		return mutedStyle.Render("No relevant passages found.")
	}

	answer := res.Answer
	if res.Degraded {
		answer = mutedStyle.Render(answer)
	}
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Width(width).Render(answer))
	for i, src := range res.Sources {
		b.WriteString("\n")
		b.WriteString(sourceStyle.Render(fmt.Sprintf("  [%d] %s #%d  score=%.3f",
			i+1, src.Chunk.Metadata.Filename, src.Chunk.Metadata.SequenceIndex, src.Score)))
	}
	return b.String()
}

func statusLine(ex exchange) string {
	switch {
	case ex.err != nil:
		return "Error: " + ex.err.Error()
	case ex.result.Status == entities.StatusNoResults:
		return "No results."
	case ex.result.Degraded:
		return fmt.Sprintf("%d sources, answer generation unavailable.", len(ex.result.Sources))
	default:
		return fmt.Sprintf("%d sources.", len(ex.result.Sources))
	}
}

var (
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	headerStyle   = lipgloss.NewStyle().Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	questionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	sourceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	spinnerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("13"))
)

// Run starts the chat in the alternate screen and blocks until it exits.
func Run(asker Asker, timeout time.Duration) error {
	_, err := tea.NewProgram(New(asker, timeout), tea.WithAltScreen()).Run()
	return err
}
