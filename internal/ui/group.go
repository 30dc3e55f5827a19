package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type groupMode int

const (
	groupModeDetails groupMode = iota
	groupModeCreate
	groupModeAddMember
)

// groupModel is the group details panel: the member list with role
// annotations, plus inline create and add-member forms.
type groupModel struct {
	mode   groupMode
	cursor int
	inputs []textinput.Model
	focus  int
}

func newGroupModel() groupModel {
	return groupModel{}
}

// startCreate switches the panel to the new-group form.
func (m *groupModel) startCreate() {
	name := textinput.New()
	name.Placeholder = "group name"
	name.Focus()
	members := textinput.New()
	members.Placeholder = "members, comma separated"
	m.mode = groupModeCreate
	m.inputs = []textinput.Model{name, members}
	m.focus = 0
}

func (m *groupModel) startAddMember() {
	member := textinput.New()
	member.Placeholder = "username to add"
	member.Focus()
	m.mode = groupModeAddMember
	m.inputs = []textinput.Model{member}
	m.focus = 0
}

func (m *groupModel) update(a *App, msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}

	if m.mode != groupModeDetails {
		return m.formKey(a, key)
	}

	info := a.group.Info
	if a.group.Disbanded {
		a.group.Close()
		a.screen = screenConversations
		a.status = "group was disbanded"
		return nil
	}

	switch key.String() {
	case "esc", "q":
		a.group.Close()
		if a.sess.ActiveRoom() != "" {
			a.screen = screenChat
		} else {
			a.screen = screenConversations
		}
		a.status = ""
		return nil
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if info != nil && m.cursor < len(info.Members)-1 {
			m.cursor++
		}
	case "a":
		m.startAddMember()
		return textinput.Blink
	case "l":
		if err := a.group.Leave(); err != nil {
			a.status = err.Error()
			return nil
		}
		a.group.Close()
		a.sess.LeaveRoom()
		a.screen = screenConversations
		a.status = ""
		return nil
	}

	if info == nil {
		return nil
	}
	me := a.sess.Username()
	isOwner := info.Owner == me
	isDeputy := info.IsDeputy(me)
	var member string
	if m.cursor < len(info.Members) {
		member = info.Members[m.cursor]
	}

	switch key.String() {
	case "x":
		// Member removal: owner and deputies only.
		if member == "" || member == me || !(isOwner || isDeputy) {
			return nil
		}
		if err := a.group.RemoveMember(member); err != nil {
			a.status = err.Error()
		}
	case "t":
		if member == "" || member == me || !isOwner {
			return nil
		}
		if err := a.group.TransferOwner(member); err != nil {
			a.status = err.Error()
		}
	case "d":
		if member == "" || !isOwner {
			return nil
		}
		if err := a.group.AssignDeputy(member); err != nil {
			a.status = err.Error()
		}
	case "c":
		if member == "" || !isOwner {
			return nil
		}
		if err := a.group.CancelDeputy(member); err != nil {
			a.status = err.Error()
		}
	case "D":
		if !isOwner {
			return nil
		}
		if err := a.group.Disband(); err != nil {
			a.status = err.Error()
			return nil
		}
		a.group.Close()
		a.sess.LeaveRoom()
		a.screen = screenConversations
		a.status = ""
	}
	return nil
}

func (m *groupModel) formKey(a *App, key tea.KeyMsg) tea.Cmd {
	switch key.Type {
	case tea.KeyEsc:
		if m.mode == groupModeCreate {
			a.screen = screenConversations
		}
		m.mode = groupModeDetails
		a.status = ""
		return nil
	case tea.KeyTab, tea.KeyDown:
		m.inputs[m.focus].Blur()
		m.focus = (m.focus + 1) % len(m.inputs)
		m.inputs[m.focus].Focus()
		return nil
	case tea.KeyEnter:
		return m.submitForm(a)
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(key)
	return cmd
}

func (m *groupModel) submitForm(a *App) tea.Cmd {
	if m.mode == groupModeCreate {
		name := strings.TrimSpace(m.inputs[0].Value())
		if name == "" {
			a.status = "group name must not be empty"
			return nil
		}
		var members []string
		for _, part := range strings.Split(m.inputs[1].Value(), ",") {
			if part = strings.TrimSpace(part); part != "" {
				members = append(members, part)
			}
		}
		if err := a.group.Create(name, members); err != nil {
			a.status = err.Error()
			return nil
		}
		a.screen = screenConversations
		a.status = "group requested, it will show up in the list once created"
		m.mode = groupModeDetails
		return nil
	}

	// add member
	member := strings.TrimSpace(m.inputs[0].Value())
	if member == "" {
		a.status = "username must not be empty"
		return nil
	}
	if err := a.group.AddMember(member); err != nil {
		a.status = err.Error()
		return nil
	}
	m.mode = groupModeDetails
	a.status = ""
	return nil
}

func (m *groupModel) view(a *App) string {
	var b strings.Builder
	switch m.mode {
	case groupModeCreate:
		b.WriteString(titleStyle.Render("new group"))
		for i := range m.inputs {
			b.WriteString("\n\n" + m.inputs[i].View())
		}
		b.WriteString(helpStyle.Render("\nenter: create • esc: cancel"))
		return b.String()
	case groupModeAddMember:
		b.WriteString(titleStyle.Render("add member"))
		b.WriteString("\n\n" + m.inputs[0].View())
		b.WriteString(helpStyle.Render("\nenter: add • esc: cancel"))
		return b.String()
	}

	info := a.group.Info
	if info == nil {
		b.WriteString(titleStyle.Render("group details"))
		b.WriteString("\n" + systemStyle.Render("loading..."))
		return b.String()
	}
	b.WriteString(titleStyle.Render(info.Name))
	b.WriteString("\n")
	for i, member := range info.Members {
		line := member
		switch {
		case member == info.Owner:
			line += badgeStyle.Render(" (owner)")
		case info.IsDeputy(member):
			line += labelStyle.Render(" (deputy)")
		}
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(helpStyle.Render("\na: add • x: remove • t: transfer owner • d/c: grant/revoke deputy\nl: leave • D: disband • esc: back"))
	return b.String()
}
