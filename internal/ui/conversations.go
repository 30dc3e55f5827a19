package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// conversationsModel is the chat list tab of the main flow.
type conversationsModel struct {
	cursor int
	width  int
	height int
}

func newConversationsModel() conversationsModel {
	return conversationsModel{}
}

func (m *conversationsModel) resize(w, h int) {
	m.width, m.height = w, h
}

func (m *conversationsModel) update(a *App, msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	convs := a.sess.Conversations()
	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(convs)-1 {
			m.cursor++
		}
	case "enter":
		if m.cursor >= len(convs) {
			return nil
		}
		conv := convs[m.cursor]
		if err := a.sess.JoinRoom(conv.RoomID); err != nil {
			a.status = err.Error()
			return nil
		}
		a.room.open(conv.Name)
		a.room.refresh(a.sess)
		a.screen = screenChat
		a.status = ""
	case "r":
		if err := a.sess.RequestConversations(); err != nil {
			a.status = err.Error()
		}
	case "n":
		a.groupV.startCreate()
		a.screen = screenGroup
		a.status = ""
		return nil
	case "2":
		a.screen = screenFriends
		a.status = ""
	case "3":
		a.profile = newProfileModel(a.sess.Username())
		a.screen = screenProfile
		a.status = ""
		return a.profile.load(a)
	}
	return nil
}

func (m *conversationsModel) view(a *App) string {
	var b strings.Builder
	b.WriteString(tabBar(0))
	b.WriteString("\n\n")

	convs := a.sess.Conversations()
	if len(convs) == 0 {
		b.WriteString(systemStyle.Render("no conversations yet. add a friend to start one"))
	}
	for i, c := range convs {
		line := c.Name
		if c.IsGroup {
			line = "⊞ " + line
		} else {
			line = "· " + line
		}
		if c.UnreadCount > 0 {
			line += badgeStyle.Render(fmt.Sprintf(" (%d)", c.UnreadCount))
		}
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	b.WriteString(helpStyle.Render("\nenter: open • n: new group • r: refresh • 2: friends • 3: profile • ctrl+c: quit"))
	return b.String()
}

func tabBar(active int) string {
	tabs := []string{"[1] chats", "[2] friends", "[3] profile"}
	for i := range tabs {
		if i == active {
			tabs[i] = selectedStyle.Render(tabs[i])
		} else {
			tabs[i] = labelStyle.Render(tabs[i])
		}
	}
	return strings.Join(tabs, "  ")
}
