// Package chattest runs an in-process stand-in for the chat backend so
// the client packages can be tested end to end. It implements just
// enough of the REST and socket contracts: canned conversations and
// histories, echoed broadcasts, and bcrypt-checked accounts.
package chattest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/vinhng/zolaterm/internal/model"
	"github.com/vinhng/zolaterm/internal/socket"
	"golang.org/x/crypto/bcrypt"
)

// RegisterCode is the OTP the fake mailer "sends" for every address.
const RegisterCode = "123456"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type account struct {
	profile      model.UserProfile
	passwordHash []byte
}

// Server is the fake backend. Seed state with the Add* methods before
// connecting clients.
type Server struct {
	HTTP *httptest.Server

	mu            sync.Mutex
	accounts      map[string]*account
	conversations map[string]socket.ConversationsPayload
	histories     map[string][]model.Message
	reactions     map[string][]socket.ReactionPayload
	groups        map[string]model.GroupInfo
	pendingCodes  map[string]string
	conns         map[*wsConn]bool
}

type wsConn struct {
	ws       *websocket.Conn
	mu       sync.Mutex
	username string
}

func (c *wsConn) send(event string, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}
	frame, _ := json.Marshal(socket.Envelope{Event: event, Payload: raw})
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.ws.WriteMessage(websocket.TextMessage, frame)
}

// NewServer starts the fake backend on an ephemeral port.
func NewServer() *Server {
	s := &Server{
		accounts:      make(map[string]*account),
		conversations: make(map[string]socket.ConversationsPayload),
		histories:     make(map[string][]model.Message),
		reactions:     make(map[string][]socket.ReactionPayload),
		groups:        make(map[string]model.GroupInfo),
		pendingCodes:  make(map[string]string),
		conns:         make(map[*wsConn]bool),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.serveWS)
	mux.HandleFunc("/api/auth/login", s.handleLogin)
	mux.HandleFunc("/api/auth/register/request-code", s.handleRequestCode)
	mux.HandleFunc("/api/auth/register/verify", s.handleVerify)
	mux.HandleFunc("/api/users/search", s.handleSearch)
	mux.HandleFunc("/api/users/exists", s.handleExists)
	mux.HandleFunc("/api/users/me", s.handleMe)
	s.HTTP = httptest.NewServer(mux)
	return s
}

// Close shuts the backend down.
func (s *Server) Close() {
	s.mu.Lock()
	for c := range s.conns {
		c.ws.Close()
	}
	s.mu.Unlock()
	s.HTTP.Close()
}

// APIBaseURL is what api.NewClient should be pointed at.
func (s *Server) APIBaseURL() string { return s.HTTP.URL + "/api" }

// SocketURL is what socket.Dial should be pointed at.
func (s *Server) SocketURL() string {
	return "ws" + strings.TrimPrefix(s.HTTP.URL, "http") + "/ws"
}

// AddAccount seeds a login-able account.
func (s *Server) AddAccount(profile model.UserProfile, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[profile.Username] = &account{profile: profile, passwordHash: hash}
}

// AddConversations seeds the userConversations reply for username.
func (s *Server) AddConversations(username string, p socket.ConversationsPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[username] = p
}

// AddHistory seeds the history reply for a room.
func (s *Server) AddHistory(room string, msgs []model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[room] = msgs
}

// AddReactions seeds the reactionHistory reply for a room.
func (s *Server) AddReactions(room string, reactions []socket.ReactionPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reactions[room] = reactions
}

// AddGroup seeds a group snapshot.
func (s *Server) AddGroup(info model.GroupInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups[info.RoomID] = info
}

func (s *Server) broadcast(event string, payload any) {
	s.mu.Lock()
	conns := make([]*wsConn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()
	for _, c := range conns {
		c.send(event, payload)
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &wsConn{ws: ws}
	s.mu.Lock()
	s.conns[c] = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.conns, c)
		s.mu.Unlock()
		ws.Close()
	}()

	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			return
		}
		var env socket.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		s.handleEvent(c, env)
	}
}

func (s *Server) handleEvent(c *wsConn, env socket.Envelope) {
	switch env.Event {
	case socket.EventRegisterUser:
		var username string
		_ = json.Unmarshal(env.Payload, &username)
		c.username = username

	case socket.EventGetConversations:
		var username string
		_ = json.Unmarshal(env.Payload, &username)
		s.mu.Lock()
		p := s.conversations[username]
		s.mu.Unlock()
		c.send(socket.EventUserConversations, p)

	case socket.EventJoin:
		var room string
		_ = json.Unmarshal(env.Payload, &room)
		s.mu.Lock()
		history := s.histories[room]
		reactions := s.reactions[room]
		s.mu.Unlock()
		if history == nil {
			history = []model.Message{}
		}
		c.send(socket.EventHistory, history)
		if len(reactions) > 0 {
			c.send(socket.EventReactionHistory, reactions)
		}

	case socket.EventMessage:
		var msg model.Message
		if err := json.Unmarshal(env.Payload, &msg); err != nil {
			return
		}
		// Persist: assign the server id, keep the client correlation id.
		msg.ServerID = uuid.NewString()
		s.mu.Lock()
		s.histories[msg.Room] = append(s.histories[msg.Room], msg)
		s.mu.Unlock()
		s.broadcast(socket.EventThread, msg)

	case socket.EventEmotion:
		var r socket.ReactionPayload
		if err := json.Unmarshal(env.Payload, &r); err != nil {
			return
		}
		s.mu.Lock()
		s.reactions[r.Room] = append(s.reactions[r.Room], r)
		s.mu.Unlock()
		s.broadcast(socket.EventEmotion, r)

	case socket.EventGetGroupDetails:
		var p socket.GroupRoomPayload
		_ = json.Unmarshal(env.Payload, &p)
		s.mu.Lock()
		info, ok := s.groups[p.Room]
		s.mu.Unlock()
		if ok {
			c.send(socket.EventGroupDetailsResult, info)
		}

	case socket.EventTransferGroupOwner:
		s.mutateGroup(env, func(info *model.GroupInfo, member string) {
			info.Owner = member
			info.Normalize()
		})

	case socket.EventAssignDeputy:
		s.mutateGroup(env, func(info *model.GroupInfo, member string) {
			info.Deputies = append(info.Deputies, member)
			info.Normalize()
		})

	case socket.EventCancelDeputy:
		s.mutateGroup(env, func(info *model.GroupInfo, member string) {
			kept := info.Deputies[:0]
			for _, d := range info.Deputies {
				if d != member {
					kept = append(kept, d)
				}
			}
			info.Deputies = kept
		})

	case socket.EventAddGroupMember:
		s.mutateGroup(env, func(info *model.GroupInfo, member string) {
			if !info.HasMember(member) {
				info.Members = append(info.Members, member)
			}
		})

	case socket.EventRemoveGroupMember, socket.EventLeaveGroup:
		s.mutateGroup(env, func(info *model.GroupInfo, member string) {
			kept := info.Members[:0]
			for _, m := range info.Members {
				if m != member {
					kept = append(kept, m)
				}
			}
			info.Members = kept
			info.Normalize()
		})
	}
}

func (s *Server) mutateGroup(env socket.Envelope, fn func(*model.GroupInfo, string)) {
	var p socket.GroupMemberPayload
	if err := json.Unmarshal(env.Payload, &p); err != nil {
		return
	}
	s.mu.Lock()
	info, ok := s.groups[p.Room]
	if ok {
		fn(&info, p.Member)
		s.groups[p.Room] = info
	}
	s.mu.Unlock()
	if ok {
		s.broadcast(socket.EventGroupUpdated, socket.GroupRoomPayload{Room: p.Room})
	}
}
