package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lumencms/setup/pkg/users"
)

func renderHeader() string {
	return titleStyle.Render("Lumen CMS") + "\n" +
		subtitleStyle.Render("Installation wizard")
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case installDoneMsg:
		m.installErr = msg.err
		m.problems = msg.problems
		m.step = StepDone
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.step != StepInstalling && !m.inputStep() {
				return m, tea.Quit
			}
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}

		case "enter":
			return m.handleEnter()

		case "esc":
			if m.step > StepWelcome && m.step < StepInstalling {
				m.step--
				m.err = nil
				m.setupStepInput()
			}
		}
	}

	if m.inputStep() {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) inputStep() bool {
	switch m.step {
	case StepDBPath, StepAdminUsername, StepAdminEmail, StepAdminPassword:
		return true
	}
	return false
}

func (m *Model) handleEnter() (tea.Model, tea.Cmd) {
	switch m.step {
	case StepWelcome:
		m.services.Clearer.ClearAll()
		m.report = m.services.Engine.RunAll(m.services.AutoFix)
		m.step = StepDiagnostics

	case StepDiagnostics:
		if m.report == nil || !m.report.Success {
			// Re-run; auto-fix may have converged by now.
			m.report = m.services.Engine.RunAll(m.services.AutoFix)
			if !m.report.Success {
				return m, nil
			}
		}
		m.step = StepDBPath
		m.setupStepInput()

	case StepDBPath:
		path := strings.TrimSpace(m.textInput.Value())
		if path == "" {
			m.err = fmt.Errorf("database path must not be empty")
			return m, nil
		}
		if err := m.services.Writer.Write(map[string]string{"cms_database": path}); err != nil {
			m.err = err
			return m, nil
		}
		m.dbPath = path
		m.err = nil
		m.step = StepAdminUsername
		m.setupStepInput()

	case StepAdminUsername:
		username := strings.TrimSpace(m.textInput.Value())
		if username == "" {
			username = "admin"
		}
		m.username = username
		m.err = nil
		m.step = StepAdminEmail
		m.setupStepInput()

	case StepAdminEmail:
		m.email = strings.TrimSpace(m.textInput.Value())
		m.err = nil
		m.step = StepAdminPassword
		m.setupStepInput()

	case StepAdminPassword:
		password := m.textInput.Value()
		if password == "" {
			m.err = fmt.Errorf("password must not be empty")
			return m, nil
		}
		m.password = password
		m.err = nil
		m.step = StepConfirm

	case StepConfirm:
		m.step = StepInstalling
		return m, m.startInstallation()

	case StepDone:
		return m, tea.Quit
	}

	return m, nil
}

func (m *Model) setupStepInput() {
	m.textInput.Reset()
	m.textInput.Focus()
	m.textInput.EchoMode = textinput.EchoNormal

	switch m.step {
	case StepDBPath:
		m.textInput.Placeholder = "e.g., /srv/cms/data/cms/site.db"
		if m.dbPath != "" {
			m.textInput.SetValue(m.dbPath)
		}
	case StepAdminUsername:
		m.textInput.Placeholder = "admin"
	case StepAdminEmail:
		m.textInput.Placeholder = "admin@example.com"
	case StepAdminPassword:
		m.textInput.Placeholder = "password"
		m.textInput.EchoMode = textinput.EchoPassword
	}
}

func (m Model) startInstallation() tea.Cmd {
	services := m.services
	admin := users.AdminData{
		Username: m.username,
		Email:    m.email,
		Password: m.password,
	}
	return func() tea.Msg {
		ctx := context.Background()
		ok, err := services.Service.Install(ctx, &admin)
		if err != nil {
			return installDoneMsg{err: err}
		}
		if !ok {
			return installDoneMsg{err: fmt.Errorf("installation finished but the system does not report installed")}
		}
		services.Clearer.ClearAll()
		return installDoneMsg{problems: services.Service.Validate(ctx)}
	}
}

// View renders the UI.
func (m Model) View() string {
	var s strings.Builder
	s.WriteString(renderHeader())
	s.WriteString("\n\n")

	switch m.step {
	case StepWelcome:
		s.WriteString(boxStyle.Render(
			"This wizard installs the content management system.\n" +
				"It checks the environment, writes the database\n" +
				"configuration and creates the administrator account."))
		s.WriteString(helpStyle.Render("\nenter: start  q: quit"))

	case StepDiagnostics:
		var b strings.Builder
		for _, r := range m.report.Results {
			mark := okStyle.Render("✓")
			if !r.Success {
				mark = errorStyle.Render("✗")
			}
			b.WriteString(fmt.Sprintf("%s %-32s %s\n", mark, r.Key, r.Message))
		}
		s.WriteString(b.String())
		if m.report.Success {
			s.WriteString(helpStyle.Render("\nenter: continue  esc: back"))
		} else {
			s.WriteString(errorStyle.Render("\nfix the failing checks, then press enter to re-run"))
		}

	case StepDBPath:
		s.WriteString("CMS database file path:\n\n")
		s.WriteString(m.textInput.View())
		if m.err != nil {
			s.WriteString("\n" + errorStyle.Render(m.err.Error()))
		}
		s.WriteString(helpStyle.Render("\nenter: save  esc: back"))

	case StepAdminUsername:
		s.WriteString("Administrator username (empty for \"admin\"):\n\n")
		s.WriteString(m.textInput.View())
		s.WriteString(helpStyle.Render("\nenter: continue  esc: back"))

	case StepAdminEmail:
		s.WriteString("Administrator email:\n\n")
		s.WriteString(m.textInput.View())
		s.WriteString(helpStyle.Render("\nenter: continue  esc: back"))

	case StepAdminPassword:
		s.WriteString("Administrator password:\n\n")
		s.WriteString(m.textInput.View())
		if m.err != nil {
			s.WriteString("\n" + errorStyle.Render(m.err.Error()))
		}
		s.WriteString(helpStyle.Render("\nenter: continue  esc: back"))

	case StepConfirm:
		summary := fmt.Sprintf(
			"Database: %s\nUsername: %s\nEmail:    %s",
			m.dbPath, m.username, m.email)
		s.WriteString(boxStyle.Render(summary))
		s.WriteString(helpStyle.Render("\nenter: install  esc: back"))

	case StepInstalling:
		s.WriteString("Installing: applying migrations and creating the administrator account...")

	case StepDone:
		if m.installErr != nil {
			s.WriteString(errorStyle.Render("Installation failed: " + m.installErr.Error()))
		} else if len(m.problems) > 0 {
			s.WriteString(errorStyle.Render("Installed, but validation reported problems:"))
			for _, p := range m.problems {
				s.WriteString("\n  - " + p)
			}
		} else {
			s.WriteString(okStyle.Render("Installation complete and validated."))
		}
		s.WriteString(helpStyle.Render("\nenter or q: exit"))
	}

	return s.String()
}

// Run starts the terminal flow and blocks until it exits.
func Run(services Services) error {
	model := NewModel(services)
	p := tea.NewProgram(&model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
