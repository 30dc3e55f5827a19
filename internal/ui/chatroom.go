package ui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vinhng/zolaterm/internal/chat"
	"github.com/vinhng/zolaterm/internal/model"
)

// chatModel is the open-conversation screen: a history viewport over a
// text input, in the classic layout.
type chatModel struct {
	title     string
	viewport  viewport.Model
	textInput textinput.Model
	ready     bool
	width     int
	height    int
}

// uploadedMsg delivers a finished media upload back to the room.
type uploadedMsg struct {
	att *model.Attachment
	err error
}

func newChatModel() chatModel {
	ti := textinput.New()
	ti.Placeholder = "Type a message... (/help for commands)"
	ti.Focus()
	ti.CharLimit = 2000
	return chatModel{textInput: ti}
}

func (m *chatModel) open(title string) {
	m.title = title
	m.textInput.SetValue("")
	if m.ready {
		m.viewport.SetContent("")
	}
}

func (m *chatModel) resize(w, h int) {
	m.width, m.height = w, h
	headerHeight := 2
	footerHeight := 3
	if !m.ready {
		m.viewport = viewport.New(w, h-headerHeight-footerHeight)
		m.ready = true
	} else {
		m.viewport.Width = w
		m.viewport.Height = h - headerHeight - footerHeight
	}
	m.textInput.Width = w
}

// refresh re-renders the session's message list into the viewport.
func (m *chatModel) refresh(sess *chat.Session) {
	if !m.ready || sess == nil {
		return
	}
	msgs := sess.Messages()
	lines := make([]string, 0, len(msgs))
	for i, msg := range msgs {
		lines = append(lines, formatMessage(i, msg))
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

func (m *chatModel) update(a *App, msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case uploadedMsg:
		if msg.err != nil {
			a.status = msg.err.Error()
			return nil
		}
		if _, err := a.sess.SendMessage("", msg.att); err != nil {
			a.status = err.Error()
			return nil
		}
		m.refresh(a.sess)
		a.status = ""
		return nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc:
			a.sess.LeaveRoom()
			if err := a.sess.RequestConversations(); err != nil {
				a.status = err.Error()
			}
			a.screen = screenConversations
			return nil
		case tea.KeyEnter:
			return m.submit(a)
		}
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)
	m.textInput, tiCmd = m.textInput.Update(msg)
	m.viewport, vpCmd = m.viewport.Update(msg)
	return tea.Batch(tiCmd, vpCmd)
}

func (m *chatModel) submit(a *App) tea.Cmd {
	content := m.textInput.Value()
	if content == "" {
		return nil
	}
	m.textInput.SetValue("")

	if strings.HasPrefix(content, "/") {
		return m.command(a, content)
	}

	if _, err := a.sess.SendMessage(content, nil); err != nil {
		a.status = err.Error()
		return nil
	}
	a.status = ""
	m.refresh(a.sess)
	return nil
}

func (m *chatModel) command(a *App, content string) tea.Cmd {
	parts := strings.Fields(content)
	switch parts[0] {
	case "/react":
		if len(parts) != 3 {
			a.status = "usage: /react <message#> <emotion 1-6>"
			return nil
		}
		idx, err1 := strconv.Atoi(parts[1])
		emotion, err2 := strconv.Atoi(parts[2])
		msgs := a.sess.Messages()
		if err1 != nil || err2 != nil || idx < 1 || idx > len(msgs) || model.EmotionIcon(emotion) == "" {
			a.status = "usage: /react <message#> <emotion 1-6>"
			return nil
		}
		target := msgs[idx-1]
		if err := a.sess.ChooseReaction(target.Identity(), emotion); err != nil {
			a.status = err.Error()
			return nil
		}
		a.status = ""
		m.refresh(a.sess)
		return nil

	case "/file":
		if len(parts) < 2 {
			a.status = "usage: /file <path>"
			return nil
		}
		path := strings.TrimSpace(strings.TrimPrefix(content, "/file"))
		uploader := a.uploader
		a.status = "uploading " + path + "..."
		return func() tea.Msg {
			att, err := uploader.File(context.Background(), path)
			return uploadedMsg{att: att, err: err}
		}

	case "/group":
		room := a.sess.ActiveRoom()
		conv := a.sess.Conversation(room)
		if conv == nil || !conv.IsGroup {
			a.status = "not a group conversation"
			return nil
		}
		if err := a.group.Open(room); err != nil {
			a.status = err.Error()
			return nil
		}
		a.groupV = newGroupModel()
		a.screen = screenGroup
		a.status = ""
		return nil

	case "/back":
		a.sess.LeaveRoom()
		a.screen = screenConversations
		return nil

	case "/help":
		a.status = "/react <message#> <emotion 1-6> • /file <path> • /group • /back"
		return nil

	default:
		a.status = "unknown command " + parts[0]
		return nil
	}
}

func (m *chatModel) view(a *App) string {
	if !m.ready {
		return "\n  loading..."
	}
	header := titleStyle.Render(m.title)
	divider := borderStyle.Render(strings.Repeat("─", max(m.viewport.Width, 1)))
	return fmt.Sprintf("%s\n%s\n%s\n%s", header, m.viewport.View(), divider, m.textInput.View())
}

// formatMessage renders one history line:
//
//	 3 │ 15:04 │ alice     hello there 👍
func formatMessage(index int, msg model.Message) string {
	sender := msg.Sender
	// Truncate by runes, not bytes: usernames are not plain ASCII.
	if runes := []rune(sender); len(runes) > 12 {
		sender = string(runes[:12])
	}
	body := msg.Body
	if msg.Attachment != nil {
		att := fmt.Sprintf("[%s, %s]", msg.Attachment.Name, humanSize(msg.Attachment.Size))
		if body != "" {
			body += " " + att
		} else {
			body = att
		}
	}
	if icon := model.EmotionIcon(msg.Emotion); icon != "" {
		body += " " + icon
	}
	// Pad before styling: ANSI escapes would break %-12s alignment.
	sender = fmt.Sprintf("%-12s", sender)
	return fmt.Sprintf("%3d %s %s %s %s %s",
		index+1,
		borderStyle.Render("│"),
		msg.SentAt.Local().Format("15:04"),
		borderStyle.Render("│"),
		senderStyle.Render(sender),
		body,
	)
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
