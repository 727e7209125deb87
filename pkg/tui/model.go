// Package tui is the terminal front-end for the setup flow. It
// drives the same services as the HTTP wizard, for installs over SSH
// where no browser is available.
package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lumencms/setup/pkg/cache"
	"github.com/lumencms/setup/pkg/dbconfig"
	"github.com/lumencms/setup/pkg/diagnostics"
	"github.com/lumencms/setup/pkg/installer"
)

// Step is one screen of the terminal flow.
type Step int

const (
	StepWelcome Step = iota
	StepDiagnostics
	StepDBPath
	StepAdminUsername
	StepAdminEmail
	StepAdminPassword
	StepConfirm
	StepInstalling
	StepDone
)

// Services bundles everything the terminal flow drives.
type Services struct {
	Engine  *diagnostics.Engine
	Clearer *cache.Clearer
	Writer  *dbconfig.Writer
	Service *installer.Service
	AutoFix bool
}

// Model is the bubbletea model for the setup flow.
type Model struct {
	services Services

	step      Step
	textInput textinput.Model
	err       error
	width     int
	height    int

	report   *diagnostics.Report
	dbPath   string
	username string
	email    string
	password string

	problems   []string
	installErr error
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7D56F4")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginBottom(1)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#04B575"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			MarginTop(1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(1, 2)
)

// NewModel creates the initial model.
func NewModel(services Services) Model {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 50

	return Model{
		services:  services,
		step:      StepWelcome,
		textInput: ti,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// installDoneMsg is sent when the background install finishes.
type installDoneMsg struct {
	err      error
	problems []string
}
