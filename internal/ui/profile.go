package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vinhng/zolaterm/internal/model"
)

// profileModel is the profile tab: editable account fields, a password
// change form, and logout.
type profileModel struct {
	username     string
	passwordForm bool
	inputs       []textinput.Model
	focus        int
	loaded       bool
}

// profileLoadedMsg delivers the fetched profile.
type profileLoadedMsg struct {
	profile model.UserProfile
	err     error
}

func newProfileModel(username string) profileModel {
	return profileModel{username: username}
}

// load fetches the current profile from the server.
func (m *profileModel) load(a *App) tea.Cmd {
	client := a.api
	return func() tea.Msg {
		p, err := client.Profile(context.Background())
		return profileLoadedMsg{profile: p, err: err}
	}
}

func (m *profileModel) setupFields(p model.UserProfile) {
	mk := func(placeholder, value string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.SetValue(value)
		return ti
	}
	m.passwordForm = false
	m.inputs = []textinput.Model{
		mk("full name", p.FullName),
		mk("email", p.Email),
		mk("phone", p.Phone),
		mk("avatar url", p.AvatarURL),
	}
	m.focus = 0
	m.inputs[0].Focus()
	m.loaded = true
}

func (m *profileModel) setupPasswordForm() {
	old := textinput.New()
	old.Placeholder = "current password"
	old.EchoMode = textinput.EchoPassword
	old.Focus()
	newPw := textinput.New()
	newPw.Placeholder = "new password"
	newPw.EchoMode = textinput.EchoPassword
	confirm := textinput.New()
	confirm.Placeholder = "confirm new password"
	confirm.EchoMode = textinput.EchoPassword
	m.passwordForm = true
	m.inputs = []textinput.Model{old, newPw, confirm}
	m.focus = 0
}

func (m *profileModel) update(a *App, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case profileLoadedMsg:
		if msg.err != nil {
			a.status = msg.err.Error()
			return nil
		}
		m.setupFields(msg.profile)
		return textinput.Blink

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			if m.passwordForm {
				return m.load(a)
			}
			a.screen = screenConversations
			a.status = ""
			return nil
		case tea.KeyTab, tea.KeyDown:
			if len(m.inputs) > 0 {
				m.inputs[m.focus].Blur()
				m.focus = (m.focus + 1) % len(m.inputs)
				m.inputs[m.focus].Focus()
			}
			return nil
		case tea.KeyShiftTab, tea.KeyUp:
			if len(m.inputs) > 0 {
				m.inputs[m.focus].Blur()
				m.focus = (m.focus - 1 + len(m.inputs)) % len(m.inputs)
				m.inputs[m.focus].Focus()
			}
			return nil
		case tea.KeyEnter:
			return m.submit(a)
		}
		switch msg.String() {
		case "ctrl+p":
			m.setupPasswordForm()
			return textinput.Blink
		case "ctrl+l":
			a.logout()
			return textinput.Blink
		}
	}

	if len(m.inputs) == 0 {
		return nil
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return cmd
}

func (m *profileModel) submit(a *App) tea.Cmd {
	if !m.loaded && !m.passwordForm {
		return nil
	}
	client := a.api

	if m.passwordForm {
		oldPw := m.inputs[0].Value()
		newPw := m.inputs[1].Value()
		confirm := m.inputs[2].Value()
		if oldPw == "" || newPw == "" {
			a.status = "password must not be empty"
			return nil
		}
		if newPw != confirm {
			a.status = "passwords do not match"
			return nil
		}
		return func() tea.Msg {
			if err := client.ChangePassword(context.Background(), oldPw, newPw); err != nil {
				return errMsg{err}
			}
			return statusMsg("password changed")
		}
	}

	p := model.UserProfile{
		Username:  m.username,
		FullName:  strings.TrimSpace(m.inputs[0].Value()),
		Email:     strings.TrimSpace(m.inputs[1].Value()),
		Phone:     strings.TrimSpace(m.inputs[2].Value()),
		AvatarURL: strings.TrimSpace(m.inputs[3].Value()),
	}
	if p.Email == "" {
		a.status = "email must not be empty"
		return nil
	}
	return func() tea.Msg {
		if err := client.UpdateProfile(context.Background(), p); err != nil {
			return errMsg{err}
		}
		return statusMsg("profile saved")
	}
}

func (m *profileModel) view() string {
	var b strings.Builder
	b.WriteString(tabBar(2))
	b.WriteString("\n\n")
	if m.passwordForm {
		b.WriteString(titleStyle.Render("change password"))
	} else {
		b.WriteString(titleStyle.Render(m.username))
	}
	if !m.loaded && !m.passwordForm {
		b.WriteString("\n" + systemStyle.Render("loading..."))
		return b.String()
	}
	for i := range m.inputs {
		b.WriteString("\n" + m.inputs[i].View())
	}
	if m.passwordForm {
		b.WriteString(helpStyle.Render("\nenter: change • esc: back"))
	} else {
		b.WriteString(helpStyle.Render("\nenter: save • ctrl+p: change password • ctrl+l: log out • esc: back"))
	}
	return b.String()
}
