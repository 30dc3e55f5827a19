package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vinhng/zolaterm/internal/api"
)

// registerModel is the two-step account creation screen: details first,
// then the OTP code mailed to the address.
type registerModel struct {
	codeStep bool
	inputs   []textinput.Model
	focus    int

	username string
	email    string
	password string
}

func newRegisterModel() registerModel {
	username := textinput.New()
	username.Placeholder = "username"
	username.Focus()
	email := textinput.New()
	email.Placeholder = "email"
	phone := textinput.New()
	phone.Placeholder = "phone (optional)"
	password := textinput.New()
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	confirm := textinput.New()
	confirm.Placeholder = "confirm password"
	confirm.EchoMode = textinput.EchoPassword
	return registerModel{
		inputs: []textinput.Model{username, email, phone, password, confirm},
	}
}

func (m *registerModel) toCodeStep() {
	code := textinput.New()
	code.Placeholder = "code from email"
	code.Focus()
	m.codeStep = true
	m.inputs = []textinput.Model{code}
	m.focus = 0
}

func (m *registerModel) update(a *App, msg tea.Msg) tea.Cmd {
	if _, ok := msg.(registerCodeSentMsg); ok {
		m.toCodeStep()
		a.status = ""
		return textinput.Blink
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyTab, tea.KeyDown:
			m.inputs[m.focus].Blur()
			m.focus = (m.focus + 1) % len(m.inputs)
			m.inputs[m.focus].Focus()
			return nil
		case tea.KeyShiftTab, tea.KeyUp:
			m.inputs[m.focus].Blur()
			m.focus = (m.focus - 1 + len(m.inputs)) % len(m.inputs)
			m.inputs[m.focus].Focus()
			return nil
		case tea.KeyEnter:
			return m.submit(a)
		case tea.KeyEsc:
			a.screen = screenLogin
			a.status = ""
			return nil
		}
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

func (m *registerModel) submit(a *App) tea.Cmd {
	if m.codeStep {
		code := strings.TrimSpace(m.inputs[0].Value())
		if code == "" {
			a.status = "code must not be empty"
			return nil
		}
		client := a.api
		req := api.VerifyRegisterRequest{
			Email:    m.email,
			Code:     code,
			Username: m.username,
			Password: m.password,
		}
		a.status = "verifying..."
		return func() tea.Msg {
			auth, err := client.VerifyRegister(context.Background(), req)
			return authDoneMsg{auth: auth, err: err}
		}
	}

	username := strings.TrimSpace(m.inputs[0].Value())
	email := strings.TrimSpace(m.inputs[1].Value())
	password := m.inputs[3].Value()
	confirm := m.inputs[4].Value()
	// All validation happens before any request is issued.
	if username == "" {
		a.status = "username must not be empty"
		return nil
	}
	if email == "" {
		a.status = "email must not be empty"
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
	m.username, m.email, m.password = username, email, password

	client := a.api
	a.status = "checking availability..."
	return func() tea.Msg {
		if taken, err := client.Exists(context.Background(), "username", username); err != nil {
			return errMsg{err}
		} else if taken {
			return statusMsg("username is already taken")
		}
		if taken, err := client.Exists(context.Background(), "email", email); err != nil {
			return errMsg{err}
		} else if taken {
			return statusMsg("email is already registered")
		}
		if err := client.RequestRegisterCode(context.Background(), email); err != nil {
			return errMsg{err}
		}
		return registerCodeSentMsg{}
	}
}

// registerCodeSentMsg advances the screen to the OTP step.
type registerCodeSentMsg struct{}

func (m *registerModel) view() string {
	var b strings.Builder
	if m.codeStep {
		b.WriteString(titleStyle.Render("zolaterm | check your inbox"))
		b.WriteString("\n" + labelStyle.Render("a verification code was sent to "+m.email))
	} else {
		b.WriteString(titleStyle.Render("zolaterm | create account"))
	}
	b.WriteString("\n")
	for i := range m.inputs {
		b.WriteString("\n" + m.inputs[i].View())
	}
	b.WriteString(helpStyle.Render("\nenter: continue • esc: back to sign in"))
	return b.String()
}
