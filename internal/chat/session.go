// Package chat owns the client-side conversation state: the conversation
// list, the message list of the open room, reaction overlays, friend
// requests and group membership. All mutation happens on the UI event
// loop; the package itself does no locking and starts no goroutines.
package chat

import (
	"errors"
	"sort"
	"time"

	"github.com/vinhng/zolaterm/internal/logger"
	"github.com/vinhng/zolaterm/internal/model"
	"github.com/vinhng/zolaterm/internal/socket"
)

// Emitter is the slice of the transport the state machine uses. Emits are
// fire-and-forget: a nil error means queued, not delivered.
type Emitter interface {
	Emit(event string, payload any) error
}

// State of the session relative to the server.
type State int

const (
	// StateDisconnected: socket not yet announced to the server.
	StateDisconnected State = iota
	// StateRegistered: identity announced, eligible for pushes.
	StateRegistered
	// StateRoomJoined: a conversation is open and history was requested.
	StateRoomJoined
)

// ErrNoActiveRoom is reported when a message is sent with no open
// conversation. Surfaced to the user, not logged away.
var ErrNoActiveRoom = errors.New("no conversation is open")

// ErrNotRegistered is reported when a room is joined before the identity
// handshake.
var ErrNotRegistered = errors.New("not registered with the server")

// Session reconciles local optimistic edits with server pushes for one
// connection. It is not safe for concurrent use; the bubbletea Update
// loop is its only caller.
type Session struct {
	emitter  Emitter
	username string
	state    State

	conversations map[string]*model.Conversation
	activeRoom    string
	messages      []model.Message

	now func() time.Time
}

func NewSession(emitter Emitter, username string) *Session {
	return &Session{
		emitter:       emitter,
		username:      username,
		conversations: make(map[string]*model.Conversation),
		now:           time.Now,
	}
}

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Username returns the identity this session was registered with.
func (s *Session) Username() string { return s.username }

// ActiveRoom returns the open room id, empty when none.
func (s *Session) ActiveRoom() string { return s.activeRoom }

// Messages returns the message list of the open room in display order.
// The returned slice is owned by the session; callers render, not mutate.
func (s *Session) Messages() []model.Message { return s.messages }

// Conversations returns the conversation list sorted by name, groups and
// private chats interleaved.
func (s *Session) Conversations() []model.Conversation {
	out := make([]model.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Conversation returns the conversation for roomID, or nil.
func (s *Session) Conversation(roomID string) *model.Conversation {
	return s.conversations[roomID]
}

// RegisterIdentity announces the username to the server. Fire-and-forget;
// the only effect is eligibility to receive pushes.
func (s *Session) RegisterIdentity() error {
	if err := s.emitter.Emit(socket.EventRegisterUser, s.username); err != nil {
		return err
	}
	s.state = StateRegistered
	return nil
}

// RequestConversations asks for the full private+group conversation set.
// The userConversations push replaces the local mapping wholesale.
func (s *Session) RequestConversations() error {
	return s.emitter.Emit(socket.EventGetConversations, s.username)
}

// JoinRoom opens a conversation: the local message list is cleared
// immediately and the server is asked for full history. The history push
// replaces the list rather than appending, so rejoining a room cannot
// accumulate duplicates.
func (s *Session) JoinRoom(roomID string) error {
	if s.state == StateDisconnected {
		return ErrNotRegistered
	}
	if err := s.emitter.Emit(socket.EventJoin, roomID); err != nil {
		return err
	}
	s.activeRoom = roomID
	s.messages = nil
	s.state = StateRoomJoined
	if c := s.conversations[roomID]; c != nil {
		c.UnreadCount = 0
	}
	return nil
}

// LeaveRoom closes the open conversation and returns to the registered
// state.
func (s *Session) LeaveRoom() {
	s.activeRoom = ""
	s.messages = nil
	if s.state == StateRoomJoined {
		s.state = StateRegistered
	}
}

// SendMessage transmits a message for the open room and appends it
// optimistically. The client-generated LocalID doubles as a correlation
// id: when the server echoes the message back on the broadcast channel,
// the echo replaces the optimistic copy instead of landing twice.
func (s *Session) SendMessage(body string, att *model.Attachment) (model.Message, error) {
	if s.activeRoom == "" {
		return model.Message{}, ErrNoActiveRoom
	}
	msg := model.Message{
		LocalID:    model.NewLocalID(s.now()),
		Sender:     s.username,
		Room:       s.activeRoom,
		Body:       body,
		Attachment: att,
		SentAt:     s.now(),
	}
	if err := s.emitter.Emit(socket.EventMessage, msg); err != nil {
		return model.Message{}, err
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

// ChooseReaction transmits a reaction and mutates the matching local
// message. When no local message matches the id the local mutation is a
// silent no-op; the server still gets the event.
func (s *Session) ChooseReaction(messageID string, emotionID int) error {
	err := s.emitter.Emit(socket.EventEmotion, socket.ReactionPayload{
		MessageID: messageID,
		User:      s.username,
		Emotion:   emotionID,
		Room:      s.activeRoom,
	})
	if err != nil {
		return err
	}
	s.setReaction(messageID, emotionID)
	return nil
}

// HandleEvent merges one server push into local state. Unknown events are
// ignored so friend/group owners can share the same event stream.
func (s *Session) HandleEvent(ev socket.Event) {
	switch ev.Name {
	case socket.EventUserConversations:
		var p socket.ConversationsPayload
		if err := ev.Decode(&p); err != nil {
			logger.Errorf("chat: decode userConversations: %v", err)
			return
		}
		s.applyConversations(p)
	case socket.EventHistory:
		var history []model.Message
		if err := ev.Decode(&history); err != nil {
			logger.Errorf("chat: decode history: %v", err)
			return
		}
		s.applyHistory(history)
	case socket.EventReactionHistory:
		var reactions []socket.ReactionPayload
		if err := ev.Decode(&reactions); err != nil {
			logger.Errorf("chat: decode reactionHistory: %v", err)
			return
		}
		for _, r := range reactions {
			s.setReaction(r.MessageID, r.Emotion)
		}
	case socket.EventEmotion:
		var r socket.ReactionPayload
		if err := ev.Decode(&r); err != nil {
			logger.Errorf("chat: decode emotion: %v", err)
			return
		}
		// Broadcast-wide: applied regardless of which room is open.
		// A miss is a silent no-op.
		s.setReaction(r.MessageID, r.Emotion)
	case socket.EventThread:
		var msg model.Message
		if err := ev.Decode(&msg); err != nil {
			logger.Errorf("chat: decode thread: %v", err)
			return
		}
		s.applyThread(msg)
	case socket.EventNewGroupChat:
		var conv model.Conversation
		if err := ev.Decode(&conv); err != nil {
			logger.Errorf("chat: decode newGroupChat: %v", err)
			return
		}
		conv.IsGroup = true
		s.conversations[conv.RoomID] = &conv
	case socket.EventFriendAccepted:
		var p socket.FriendAcceptedPayload
		if err := ev.Decode(&p); err != nil {
			return
		}
		// A fresh friendship opens an empty private conversation.
		if _, ok := s.conversations[p.RoomID]; !ok && p.RoomID != "" {
			s.conversations[p.RoomID] = &model.Conversation{
				RoomID: p.RoomID,
				Name:   p.Friend,
			}
		}
	}
}

// applyConversations replaces the entire conversation mapping. A
// conversation with no persisted messages still appears, with an empty
// message sequence.
func (s *Session) applyConversations(p socket.ConversationsPayload) {
	next := make(map[string]*model.Conversation, len(p.PrivateChats)+len(p.GroupChats))
	for i := range p.PrivateChats {
		c := p.PrivateChats[i]
		c.IsGroup = false
		next[c.RoomID] = &c
	}
	for i := range p.GroupChats {
		c := p.GroupChats[i]
		c.IsGroup = true
		next[c.RoomID] = &c
	}
	s.conversations = next
}

// applyHistory replaces the message list of the open room wholesale.
func (s *Session) applyHistory(history []model.Message) {
	if s.activeRoom == "" {
		return
	}
	s.messages = history
}

// applyThread merges a broadcast message. Messages for other rooms only
// bump that conversation's unread count; the open list is never polluted
// by foreign rooms. A message whose id matches an optimistic entry
// replaces it in place.
func (s *Session) applyThread(msg model.Message) {
	if msg.Room != s.activeRoom {
		if c := s.conversations[msg.Room]; c != nil {
			c.UnreadCount++
		}
		return
	}
	for i := range s.messages {
		if s.sameMessage(&s.messages[i], &msg) {
			s.messages[i] = msg
			return
		}
	}
	s.messages = append(s.messages, msg)
}

// sameMessage matches across the dual id scheme: the server echo carries
// both its persisted id and the client's correlation id.
func (s *Session) sameMessage(a, b *model.Message) bool {
	if a.ServerID != "" && a.ServerID == b.ServerID {
		return true
	}
	if a.LocalID != "" && a.LocalID == b.LocalID {
		return true
	}
	return false
}

// setReaction sets the reaction of the message matching id. Returns
// whether a message matched; callers that care about misses can log, the
// rest treat it as a no-op.
func (s *Session) setReaction(messageID string, emotionID int) bool {
	for i := range s.messages {
		if s.messages[i].SameIdentity(messageID) {
			s.messages[i].Emotion = emotionID
			return true
		}
	}
	return false
}
