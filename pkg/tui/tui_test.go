package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type host struct {
	rows      []Row
	submitted []string
}

func (h *host) Title() string   { return "test" }
func (h *host) Rows() []Row     { return h.rows }
func (h *host) Submit(l string) { h.submitted = append(h.submitted, l) }
func (h *host) MaxLines() int   { return 2 }

func TestTableAndInput(t *testing.T) {
	h := &host{rows: []Row{{Pos: "(0, 64, 0)", Name: "CRYSTAL", Facing: "south", Observers: 1, Lid: "opening", Slots: "1/108", Top: "3 diamond"}}}
	ui := New(h)
	ui.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	ui.Update(refreshMsg(time.Now()))
	ui.Update(EnableInputMsg{})

	if view := ui.View(); !strings.Contains(view, "3 diamond") || !strings.Contains(view, "CRYSTAL") {
		t.Errorf("View() missing chest row:\n%s", view)
	}

	ui.textInput.SetValue("  rotate 0 64 0 ")
	ui.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if len(h.submitted) != 1 || h.submitted[0] != "rotate 0 64 0" {
		t.Errorf("submitted = %q", h.submitted)
	}
	if ui.textInput.Value() != "" {
		t.Errorf("input not cleared: %q", ui.textInput.Value())
	}
}

func TestInputIgnoredUntilEnabled(t *testing.T) {
	h := &host{}
	ui := New(h)
	ui.textInput.SetValue("list")
	ui.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if len(h.submitted) != 0 {
		t.Errorf("submitted before input was enabled: %q", h.submitted)
	}
}

func TestLogsTrimmed(t *testing.T) {
	ui := New(&host{})
	for _, l := range []string{"a", "b", "c"} {
		ui.AddLog(l)
	}
	if got := ui.renderLogs(); got != "b\nc" {
		t.Errorf("renderLogs() = %q, want %q", got, "b\nc")
	}
}
