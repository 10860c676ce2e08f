// Package ui implements the interactive surface of androidArchiver: the
// console prompts that gather decisions before a backup and the bubbletea
// progress view shown while the transfer runs. All business logic lives in
// pkg/backup; this package only translates between the user and the
// engine's Prompter/Reporter contracts.
package ui

import (
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

// --- Reusable Colors ---
var (
	colorPink      = lipgloss.Color("205")
	colorDarkGray  = lipgloss.Color("240")
	colorLightGray = lipgloss.Color("229")
	colorCyan      = lipgloss.Color("212")
	colorGreen     = lipgloss.Color("78")
	colorOrange    = lipgloss.Color("214")
	colorRed       = lipgloss.Color("196")
)

// --- General Purpose Styles ---
var (
	TitleStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorPink)
	LabelStyle     = lipgloss.NewStyle().Foreground(colorDarkGray)
	ValueStyle     = lipgloss.NewStyle().Foreground(colorLightGray)
	HighlightStyle = lipgloss.NewStyle().Foreground(colorCyan)
	SuccessStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	WarnStyle      = lipgloss.NewStyle().Foreground(colorOrange)
	ErrorStyle     = lipgloss.NewStyle().Foreground(colorRed)
	HelpStyle      = lipgloss.NewStyle().Faint(true)
)

// NewSpinner creates a spinner with a consistent style.
func NewSpinner() spinner.Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(colorPink)
	return s
}
