package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vinhng/zolaterm/internal/model"
)

type friendsSection int

const (
	sectionSearch friendsSection = iota
	sectionResults
	sectionIncoming
	sectionOutgoing
)

// friendsModel is the friend-management tab: account search plus the
// incoming and outgoing pending request lists.
type friendsModel struct {
	search  textinput.Model
	section friendsSection
	cursor  int
}

// searchDoneMsg delivers account search results.
type searchDoneMsg struct {
	users []model.UserProfile
	err   error
}

func newFriendsModel() friendsModel {
	search := textinput.New()
	search.Placeholder = "search accounts"
	search.Focus()
	return friendsModel{search: search}
}

func (m *friendsModel) update(a *App, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case searchDoneMsg:
		if msg.err != nil {
			a.status = msg.err.Error()
			return nil
		}
		a.friends.SearchResults = msg.users
		m.section = sectionResults
		m.cursor = 0
		a.status = ""
		return nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			a.screen = screenConversations
			a.status = ""
			return nil
		case tea.KeyTab:
			m.section = (m.section + 1) % 4
			m.cursor = 0
			if m.section == sectionSearch {
				m.search.Focus()
			} else {
				m.search.Blur()
			}
			return nil
		}

		if m.section == sectionSearch {
			if msg.Type == tea.KeyEnter {
				q := strings.TrimSpace(m.search.Value())
				if q == "" {
					a.status = "enter a name to search for"
					return nil
				}
				client := a.api
				a.status = "searching..."
				return func() tea.Msg {
					users, err := client.Search(context.Background(), q)
					return searchDoneMsg{users: users, err: err}
				}
			}
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			return cmd
		}

		return m.listKey(a, msg.String())
	}
	return nil
}

func (m *friendsModel) listKey(a *App, key string) tea.Cmd {
	size := m.sectionSize(a)
	switch key {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < size-1 {
			m.cursor++
		}
	case "a":
		if m.section == sectionResults && m.cursor < len(a.friends.SearchResults) {
			target := a.friends.SearchResults[m.cursor].Username
			if target == a.sess.Username() {
				a.status = "that's you"
				return nil
			}
			if err := a.friends.Add(target); err != nil {
				a.status = err.Error()
			} else {
				a.status = "request sent to " + target
			}
		}
	case "y", "enter":
		if m.section == sectionIncoming && m.cursor < len(a.friends.Incoming) {
			sender := a.friends.Incoming[m.cursor].From
			if err := a.friends.Accept(sender); err != nil {
				a.status = err.Error()
			} else {
				a.status = "accepted " + sender
			}
		}
	case "n":
		if m.section == sectionIncoming && m.cursor < len(a.friends.Incoming) {
			sender := a.friends.Incoming[m.cursor].From
			if err := a.friends.Reject(sender); err != nil {
				a.status = err.Error()
			}
		}
	case "w":
		if m.section == sectionOutgoing && m.cursor < len(a.friends.Outgoing) {
			target := a.friends.Outgoing[m.cursor].To
			if err := a.friends.Withdraw(target); err != nil {
				a.status = err.Error()
			}
		}
	case "1":
		a.screen = screenConversations
		a.status = ""
	}
	if m.cursor >= m.sectionSize(a) && m.cursor > 0 {
		m.cursor = m.sectionSize(a) - 1
	}
	return nil
}

func (m *friendsModel) sectionSize(a *App) int {
	switch m.section {
	case sectionResults:
		return len(a.friends.SearchResults)
	case sectionIncoming:
		return len(a.friends.Incoming)
	case sectionOutgoing:
		return len(a.friends.Outgoing)
	}
	return 0
}

func (m *friendsModel) view(a *App) string {
	var b strings.Builder
	b.WriteString(tabBar(1))
	b.WriteString("\n\n" + m.search.View() + "\n")

	section := func(title string, sec friendsSection, lines []string) {
		if sec == m.section {
			b.WriteString("\n" + selectedStyle.Render(title) + "\n")
		} else {
			b.WriteString("\n" + labelStyle.Render(title) + "\n")
		}
		if len(lines) == 0 {
			b.WriteString(systemStyle.Render("  (empty)") + "\n")
			return
		}
		for i, line := range lines {
			if sec == m.section && i == m.cursor {
				b.WriteString(selectedStyle.Render("> "+line) + "\n")
			} else {
				b.WriteString("  " + line + "\n")
			}
		}
	}

	var results []string
	for _, u := range a.friends.SearchResults {
		line := u.Username
		if u.FullName != "" {
			line += labelStyle.Render(" (" + u.FullName + ")")
		}
		results = append(results, line)
	}
	var incoming []string
	for _, r := range a.friends.Incoming {
		incoming = append(incoming, r.From)
	}
	var outgoing []string
	for _, r := range a.friends.Outgoing {
		outgoing = append(outgoing, r.To)
	}

	section("search results (a: add)", sectionResults, results)
	section("incoming requests (y: accept, n: reject)", sectionIncoming, incoming)
	section("outgoing requests (w: withdraw)", sectionOutgoing, outgoing)

	b.WriteString(helpStyle.Render("\ntab: next section • 1/esc: back to chats"))
	return b.String()
}
