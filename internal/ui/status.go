// Package ui holds the user-facing status messages controllers produce and
// renders them for a terminal.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// Kind classifies a status message.
type Kind string

const (
	KindInfo    Kind = "info"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Status is the message a view shows after an action. The zero value means
// "nothing to show".
type Status struct {
	Kind Kind   `json:"kind,omitempty"`
	Text string `json:"text,omitempty"`
}

func Info(text string) Status    { return Status{Kind: KindInfo, Text: text} }
func Success(text string) Status { return Status{Kind: KindSuccess, Text: text} }
func Error(text string) Status   { return Status{Kind: KindError, Text: text} }

// IsError reports whether s reports a failure.
func (s Status) IsError() bool { return s.Kind == KindError }

// Empty reports whether there is nothing to show.
func (s Status) Empty() bool { return s.Text == "" }

var (
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// Render formats s for a terminal. Colours are dropped automatically when
// the output is not a TTY.
func (s Status) Render() string {
	switch s.Kind {
	case KindSuccess:
		return successStyle.Render(s.Text)
	case KindError:
		return errorStyle.Render(s.Text)
	default:
		return infoStyle.Render(s.Text)
	}
}

// Print writes the rendered status and a newline to w. Empty statuses are
// skipped.
func Print(w io.Writer, s Status) {
	if s.Empty() {
		return
	}
	fmt.Fprintln(w, s.Render())
}

// Muted renders secondary text such as hints.
func Muted(text string) string { return mutedStyle.Render(text) }

// Heading renders a section title.
func Heading(text string) string { return headingStyle.Render(text) }

// Table renders rows under headers with a rounded border.
func Table(headers []string, rows [][]string) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(mutedStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headingStyle.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers(headers...).
		Rows(rows...)
	return t.String()
}
