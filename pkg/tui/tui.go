package tui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// RefreshInterval is how often the chest table is redrawn.
const RefreshInterval = 100 * time.Millisecond

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("244"))

	openStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// Row is one line of the chest table.
type Row struct {
	Pos       string
	Name      string
	Facing    string
	Observers int
	Lid       string
	Slots     string
	Top       string
}

// Host is what the TUI displays and sends commands to.
type Host interface {
	Title() string
	// Rows must be safe to call from the TUI goroutine.
	Rows() []Row
	// Submit runs a console command; output goes through the logger.
	Submit(line string)
	MaxLines() int
}

// TUI shows the chest table above a log viewport and a command input.
type TUI struct {
	host         Host
	viewport     viewport.Model
	textInput    textinput.Model
	rows         []Row
	logs         []string
	logMutex     sync.Mutex
	ready        bool
	inputEnabled bool
	width        int
	height       int
}

// New creates a new TUI instance
func New(host Host) *TUI {
	ti := textinput.New()
	ti.Placeholder = "Starting simulation..."
	ti.Blur() // start unfocused
	ti.CharLimit = 256
	ti.Width = 50

	return &TUI{
		host:      host,
		textInput: ti,
		logs:      []string{},
	}
}

type refreshMsg time.Time

func refresh() tea.Cmd {
	return tea.Tick(RefreshInterval, func(t time.Time) tea.Msg { return refreshMsg(t) })
}

// Init initializes the TUI
func (t *TUI) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, refresh())
}

// tableHeight is the number of lines the chest table occupies.
func (t *TUI) tableHeight() int {
	return len(t.rows) + 1
}

func (t *TUI) resize() {
	h := t.height - 3 - t.tableHeight()
	if h < 3 {
		h = 3
	}
	t.viewport.Width = t.width
	t.viewport.Height = h
}

// Update handles TUI updates
func (t *TUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return t, tea.Quit

		case tea.KeyEnter:
			if !t.inputEnabled {
				return t, nil
			}
			input := strings.TrimSpace(t.textInput.Value())
			if input != "" {
				t.AddLog(fmt.Sprintf("> %s", input))
				t.host.Submit(input)
				t.textInput.SetValue("")
			}
			return t, nil
		}

	case tea.WindowSizeMsg:
		t.width = msg.Width
		t.height = msg.Height
		if !t.ready {
			t.viewport = viewport.New(msg.Width, msg.Height)
			t.viewport.SetContent(t.renderLogs())
			t.ready = true
		}
		t.resize()
		t.textInput.Width = msg.Width - 2

	case refreshMsg:
		t.rows = t.host.Rows()
		if t.ready {
			t.resize()
		}
		return t, refresh()

	case LogMsg:
		t.AddLog(string(msg))
		if t.ready {
			// do not scroll if not at bottom, to prevent flickering
			wasAtBottom := t.viewport.AtBottom()
			t.viewport.SetContent(t.renderLogs())
			if wasAtBottom {
				t.viewport.GotoBottom()
			}
		}
		return t, nil

	case EnableInputMsg:
		t.inputEnabled = true
		t.textInput.Placeholder = "Type a command (help lists them)..."
		t.textInput.Focus()
		return t, nil
	}

	// update viewport
	if t.ready {
		t.viewport, cmd = t.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	// update text input (only if enabled)
	if t.inputEnabled {
		t.textInput, cmd = t.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return t, tea.Batch(cmds...)
}

// View renders the TUI
func (t *TUI) View() string {
	if !t.ready {
		return "Initializing..."
	}

	title := titleStyle.Render(t.host.Title())

	var helpText string
	if t.inputEnabled {
		helpText = helpStyle.Render("Enter: run command • Ctrl+C/Esc: quit")
	} else {
		helpText = helpStyle.Render("Starting simulation... • Ctrl+C/Esc: quit")
	}

	return fmt.Sprintf(
		"%s\n%s\n%s\n%s\n%s",
		title,
		t.renderTable(),
		t.viewport.View(),
		inputStyle.Render("> "+t.textInput.View()),
		helpText,
	)
}

func (t *TUI) renderTable() string {
	header := fmt.Sprintf("%-18s %-16s %-6s %-4s %-8s %-9s %s", "POS", "NAME", "FACING", "OBS", "LID", "SLOTS", "TOP")
	lines := []string{headerStyle.Render(header)}
	for _, r := range t.rows {
		line := fmt.Sprintf("%-18s %-16s %-6s %-4d %-8s %-9s %s", r.Pos, r.Name, r.Facing, r.Observers, r.Lid, r.Slots, r.Top)
		if r.Observers > 0 {
			line = openStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// AddLog adds a log message to the TUI
func (t *TUI) AddLog(msg string) {
	t.logMutex.Lock()
	defer t.logMutex.Unlock()
	t.logs = append(t.logs, msg)

	// trim logs
	maxLines := t.host.MaxLines()
	if maxLines > 0 && len(t.logs) > maxLines {
		t.logs = t.logs[len(t.logs)-maxLines:]
	}
}

func (t *TUI) renderLogs() string {
	t.logMutex.Lock()
	defer t.logMutex.Unlock()
	return strings.Join(t.logs, "\n")
}

// LogMsg is a message type for logging
type LogMsg string

// EnableInputMsg is a message type to enable input
type EnableInputMsg struct{}

// Writer is an io.Writer that sends output to the TUI
type Writer struct {
	program *tea.Program
}

// NewWriter creates a new TUI Writer
func NewWriter(program *tea.Program) *Writer {
	return &Writer{program: program}
}

// Write implements io.Writer
func (w *Writer) Write(p []byte) (n int, err error) {
	msg := strings.TrimSuffix(string(p), "\n")
	if msg != "" {
		w.program.Send(LogMsg(msg))
	}
	return len(p), nil
}

// Start creates a new TUI program, returning the program and a writer for logging
func Start(host Host) (*tea.Program, io.Writer) {
	t := New(host)
	p := tea.NewProgram(t, tea.WithAltScreen())
	writer := NewWriter(p)
	return p, writer
}

// EnableInput sends an enable input message to the given program
func EnableInput(program *tea.Program) {
	if program != nil {
		program.Send(EnableInputMsg{})
	}
}
