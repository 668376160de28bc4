package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used for rendering.
type Styles struct {
	Header    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Partial   lipgloss.Style
	Prompt    lipgloss.Style
	Notice    lipgloss.Style
	Error     lipgloss.Style
	Muted     lipgloss.Style
}

func NewStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("64")).Bold(true).PaddingLeft(1),
		User:      lipgloss.NewStyle().Foreground(lipgloss.Color("70")).Bold(true),
		Assistant: lipgloss.NewStyle().Foreground(lipgloss.Color("179")).Bold(true),
		Partial:   lipgloss.NewStyle().Italic(true).Faint(true),
		Prompt:    lipgloss.NewStyle().Foreground(lipgloss.Color("70")),
		Notice:    lipgloss.NewStyle().Foreground(lipgloss.Color("110")),
		Error:     lipgloss.NewStyle().Foreground(lipgloss.Color("160")),
		Muted:     lipgloss.NewStyle().Faint(true),
	}
}
