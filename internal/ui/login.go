package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type loginMode int

const (
	modeLogin loginMode = iota
	modeForgotEmail
	modeForgotReset
)

// loginModel is the sign-in screen, with an inline forgot-password flow.
type loginModel struct {
	mode   loginMode
	inputs []textinput.Model
	focus  int

	forgotEmail string
}

func newLoginModel() loginModel {
	m := loginModel{}
	m.setupLogin()
	return m
}

func (m *loginModel) setupLogin() {
	username := textinput.New()
	username.Placeholder = "username"
	username.Focus()
	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	m.mode = modeLogin
	m.inputs = []textinput.Model{username, password}
	m.focus = 0
}

func (m *loginModel) setupForgotEmail() {
	email := textinput.New()
	email.Placeholder = "account email"
	email.Focus()
	m.mode = modeForgotEmail
	m.inputs = []textinput.Model{email}
	m.focus = 0
}

func (m *loginModel) setupForgotReset() {
	code := textinput.New()
	code.Placeholder = "code from email"
	code.Focus()
	password := textinput.New()
	password.Placeholder = "new password"
	password.EchoMode = textinput.EchoPassword
	confirm := textinput.New()
	confirm.Placeholder = "confirm new password"
	confirm.EchoMode = textinput.EchoPassword
	m.mode = modeForgotReset
	m.inputs = []textinput.Model{code, password, confirm}
	m.focus = 0
}

func (m loginModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *loginModel) cycleFocus(delta int) {
	m.inputs[m.focus].Blur()
	m.focus = (m.focus + delta + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
}

func (m *loginModel) update(a *App, msg tea.Msg) tea.Cmd {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyTab, tea.KeyDown:
			m.cycleFocus(1)
			return nil
		case tea.KeyShiftTab, tea.KeyUp:
			m.cycleFocus(-1)
			return nil
		case tea.KeyEnter:
			return m.submit(a)
		case tea.KeyEsc:
			if m.mode != modeLogin {
				m.setupLogin()
				a.status = ""
				return nil
			}
		}
		switch key.String() {
		case "ctrl+n":
			if m.mode == modeLogin {
				a.register = newRegisterModel()
				a.screen = screenRegister
				a.status = ""
				return textinput.Blink
			}
		case "ctrl+f":
			if m.mode == modeLogin {
				m.setupForgotEmail()
				a.status = ""
				return textinput.Blink
			}
		}
	}

	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

// submit validates locally first: an empty field blocks the network call
// entirely and only shows the alert.
func (m *loginModel) submit(a *App) tea.Cmd {
	switch m.mode {
	case modeLogin:
		username := strings.TrimSpace(m.inputs[0].Value())
		password := m.inputs[1].Value()
		if username == "" {
			a.status = "username must not be empty"
			return nil
		}
		if password == "" {
			a.status = "password must not be empty"
			return nil
		}
		a.status = "signing in..."
		client := a.api
		return func() tea.Msg {
			auth, err := client.Login(context.Background(), username, password)
			return authDoneMsg{auth: auth, err: err}
		}

	case modeForgotEmail:
		email := strings.TrimSpace(m.inputs[0].Value())
		if email == "" {
			a.status = "email must not be empty"
			return nil
		}
		m.forgotEmail = email
		client := a.api
		m.setupForgotReset()
		a.status = ""
		return func() tea.Msg {
			if err := client.RequestPasswordCode(context.Background(), email); err != nil {
				return errMsg{err}
			}
			return statusMsg("code sent to " + email)
		}

	default: // modeForgotReset
		code := strings.TrimSpace(m.inputs[0].Value())
		password := m.inputs[1].Value()
		confirm := m.inputs[2].Value()
		if code == "" {
			a.status = "code must not be empty"
			return nil
		}
		if password == "" {
			a.status = "password must not be empty"
			return nil
		}
		if password != confirm {
			a.status = "passwords do not match"
			return nil
		}
		email := m.forgotEmail
		client := a.api
		m.setupLogin()
		return func() tea.Msg {
			if err := client.ResetPassword(context.Background(), email, code, password); err != nil {
				return errMsg{err}
			}
			return statusMsg("password updated, sign in with the new one")
		}
	}
}

func (m *loginModel) view() string {
	var b strings.Builder
	switch m.mode {
	case modeLogin:
		b.WriteString(titleStyle.Render("zolaterm | sign in"))
	case modeForgotEmail:
		b.WriteString(titleStyle.Render("zolaterm | reset password"))
	case modeForgotReset:
		b.WriteString(titleStyle.Render("zolaterm | enter the emailed code"))
	}
	b.WriteString("\n")
	for i := range m.inputs {
		b.WriteString("\n" + m.inputs[i].View())
	}
	switch m.mode {
	case modeLogin:
		b.WriteString(helpStyle.Render("\nenter: sign in • ctrl+n: create account • ctrl+f: forgot password"))
	default:
		b.WriteString(helpStyle.Render("\nenter: continue • esc: back to sign in"))
	}
	return b.String()
}
