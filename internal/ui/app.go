// Package ui contains the bubbletea screens. The root App model owns the
// shared clients (REST, socket, uploader) and the chat state owners, and
// routes every tea.Msg to the screen on top. Server pushes enter the
// program as socketEventMsg values, so all state mutation happens on the
// single Update loop.
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vinhng/zolaterm/internal/api"
	"github.com/vinhng/zolaterm/internal/chat"
	"github.com/vinhng/zolaterm/internal/config"
	"github.com/vinhng/zolaterm/internal/logger"
	"github.com/vinhng/zolaterm/internal/session"
	"github.com/vinhng/zolaterm/internal/socket"
	"github.com/vinhng/zolaterm/internal/upload"
)

type screen int

const (
	screenLogin screen = iota
	screenRegister
	screenConversations
	screenChat
	screenFriends
	screenGroup
	screenProfile
)

// Messages shared across screens.
type (
	// socketEventMsg wraps one server push.
	socketEventMsg socket.Event
	// socketClosedMsg signals that the event channel was closed.
	socketClosedMsg struct{}
	// connectedMsg delivers the freshly dialed connection.
	connectedMsg struct{ conn *socket.Conn }
	// authDoneMsg delivers the result of a login or registration.
	authDoneMsg struct {
		auth api.AuthResponse
		err  error
	}
	// statusMsg sets the transient status line.
	statusMsg string
	// errMsg surfaces an error on the status line.
	errMsg struct{ err error }
)

// App is the root model.
type App struct {
	cfg      *config.Config
	store    *session.Store
	api      *api.Client
	uploader *upload.Uploader

	conn    *socket.Conn
	sess    *chat.Session
	friends *chat.Friends
	group   *chat.GroupViewer

	screen   screen
	login    loginModel
	register registerModel
	convs    conversationsModel
	room     chatModel
	social   friendsModel
	groupV   groupModel
	profile  profileModel

	status        string
	width, height int
}

// NewApp builds the root model. A persisted session skips the auth flow.
func NewApp(cfg *config.Config, store *session.Store, sess *session.Session) *App {
	a := &App{
		cfg:      cfg,
		store:    store,
		api:      api.NewClient(cfg.APIBaseURL),
		uploader: upload.New(cfg.MediaUploadURL, cfg.MaxUploadSize()),
	}
	a.login = newLoginModel()
	a.register = newRegisterModel()
	if sess.LoggedIn() {
		a.api.Token = sess.Token
		a.screen = screenConversations
		a.startSession(sess.User.Username)
	} else {
		a.screen = screenLogin
	}
	return a
}

// startSession wires the chat state owners for username. The socket is
// dialed asynchronously from Init/Update.
func (a *App) startSession(username string) {
	a.sess = chat.NewSession(pendingEmitter{a}, username)
	a.friends = chat.NewFriends(pendingEmitter{a}, username)
	a.group = chat.NewGroupViewer(pendingEmitter{a}, username)
	a.convs = newConversationsModel()
	a.room = newChatModel()
	a.social = newFriendsModel()
	a.groupV = newGroupModel()
	a.profile = newProfileModel(username)
}

// pendingEmitter forwards emits to whatever connection the app currently
// holds. State owners are created before the dial completes; emits in
// that window fail with ErrClosed and surface on the status line.
type pendingEmitter struct{ app *App }

func (p pendingEmitter) Emit(event string, payload any) error {
	if p.app.conn == nil {
		return socket.ErrClosed
	}
	return p.app.conn.Emit(event, payload)
}

func (a *App) Init() tea.Cmd {
	if a.screen == screenConversations {
		return a.connectCmd()
	}
	return a.login.Init()
}

// connectCmd dials the socket endpoint.
func (a *App) connectCmd() tea.Cmd {
	url := a.cfg.SocketURL
	return func() tea.Msg {
		conn, err := socket.Dial(url, nil)
		if err != nil {
			return errMsg{err}
		}
		return connectedMsg{conn}
	}
}

// waitForEvent blocks on the next server push. Re-issued after every
// delivered event so the program keeps reading for its whole lifetime.
func (a *App) waitForEvent() tea.Cmd {
	conn := a.conn
	return func() tea.Msg {
		ev, ok := <-conn.Events()
		if !ok {
			return socketClosedMsg{}
		}
		return socketEventMsg(ev)
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.room.resize(msg.Width, msg.Height)
		a.convs.resize(msg.Width, msg.Height)
		return a, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			a.teardown()
			return a, tea.Quit
		}

	case statusMsg:
		a.status = string(msg)
		return a, nil

	case errMsg:
		a.status = msg.err.Error()
		return a, nil

	case authDoneMsg:
		return a.handleAuthDone(msg)

	case connectedMsg:
		a.conn = msg.conn
		a.status = ""
		if err := a.sess.RegisterIdentity(); err != nil {
			a.status = err.Error()
		}
		if err := a.sess.RequestConversations(); err != nil {
			logger.Errorf("ui: request conversations: %v", err)
		}
		return a, a.waitForEvent()

	case socketClosedMsg:
		a.conn = nil
		a.status = "connection lost"
		return a, nil

	case socketEventMsg:
		a.dispatchEvent(socket.Event(msg))
		return a, a.waitForEvent()
	}

	return a.updateScreen(msg)
}

// dispatchEvent feeds the push to every state owner; each ignores what it
// does not handle.
func (a *App) dispatchEvent(ev socket.Event) {
	a.sess.HandleEvent(ev)
	a.friends.HandleEvent(ev)
	a.group.HandleEvent(ev)
	if ev.Name == socket.EventUserConversations {
		// A refreshed list that no longer carries the open group means
		// it was disbanded.
		if room := a.group.Room(); room != "" && a.sess.Conversation(room) == nil {
			a.group.NoteDisbanded(room)
		}
	}
	a.room.refresh(a.sess)
	logger.Debugf("ui: push %s", ev.Name)
}

func (a *App) handleAuthDone(msg authDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		// Server-reported message shown verbatim; transport errors too.
		a.status = msg.err.Error()
		return a, nil
	}
	a.api.Token = msg.auth.Token
	if err := a.store.Save(&session.Session{User: msg.auth.User, Token: msg.auth.Token}); err != nil {
		logger.Errorf("ui: persist session: %v", err)
	}
	a.startSession(msg.auth.User.Username)
	a.screen = screenConversations
	a.status = "connecting..."
	return a, a.connectCmd()
}

// logout clears the persisted session and returns to the login screen.
func (a *App) logout() {
	a.teardown()
	if err := a.store.Clear(); err != nil {
		logger.Errorf("ui: clear session: %v", err)
	}
	a.api.Token = ""
	a.login = newLoginModel()
	a.screen = screenLogin
	a.status = ""
}

func (a *App) teardown() {
	if a.conn != nil {
		a.conn.Close()
		a.conn = nil
	}
}

func (a *App) updateScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.screen {
	case screenLogin:
		cmd = a.login.update(a, msg)
	case screenRegister:
		cmd = a.register.update(a, msg)
	case screenConversations:
		cmd = a.convs.update(a, msg)
	case screenChat:
		cmd = a.room.update(a, msg)
	case screenFriends:
		cmd = a.social.update(a, msg)
	case screenGroup:
		cmd = a.groupV.update(a, msg)
	case screenProfile:
		cmd = a.profile.update(a, msg)
	}
	return a, cmd
}

func (a *App) View() string {
	var body string
	switch a.screen {
	case screenLogin:
		body = a.login.view()
	case screenRegister:
		body = a.register.view()
	case screenConversations:
		body = a.convs.view(a)
	case screenChat:
		body = a.room.view(a)
	case screenFriends:
		body = a.social.view(a)
	case screenGroup:
		body = a.groupV.view(a)
	case screenProfile:
		body = a.profile.view()
	}
	if a.status != "" {
		body += "\n" + statusStyle.Render(a.status)
	}
	return body
}
