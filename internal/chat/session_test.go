package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/vinhng/zolaterm/internal/model"
	"github.com/vinhng/zolaterm/internal/socket"
)

// spyEmitter records emits and can simulate transport failure.
type spyEmitter struct {
	events   []string
	payloads []any
	err      error
}

func (s *spyEmitter) Emit(event string, payload any) error {
	if s.err != nil {
		return s.err
	}
	s.events = append(s.events, event)
	s.payloads = append(s.payloads, payload)
	return nil
}

func (s *spyEmitter) count(event string) int {
	n := 0
	for _, e := range s.events {
		if e == event {
			n++
		}
	}
	return n
}

func push(t *testing.T, name string, payload any) socket.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal %s payload: %v", name, err)
	}
	return socket.Event{Name: name, Payload: raw}
}

func registeredSession(t *testing.T) (*Session, *spyEmitter) {
	t.Helper()
	spy := &spyEmitter{}
	s := NewSession(spy, "alice")
	if err := s.RegisterIdentity(); err != nil {
		t.Fatalf("register: %v", err)
	}
	if s.State() != StateRegistered {
		t.Fatalf("state = %v, want StateRegistered", s.State())
	}
	return s, spy
}

func TestSendMessageRequiresActiveRoom(t *testing.T) {
	s, spy := registeredSession(t)

	if _, err := s.SendMessage("hello", nil); err != ErrNoActiveRoom {
		t.Fatalf("err = %v, want ErrNoActiveRoom", err)
	}
	if spy.count(socket.EventMessage) != 0 {
		t.Fatalf("message emitted without an active room")
	}
}

func TestSendMessageOptimisticAppendOnce(t *testing.T) {
	s, spy := registeredSession(t)
	if err := s.JoinRoom("alice-bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	msg, err := s.SendMessage("hello", nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if msg.LocalID == "" {
		t.Fatalf("sent message has no local id")
	}
	if got := len(s.Messages()); got != 1 {
		t.Fatalf("messages = %d, want 1 immediately after send", got)
	}
	if spy.count(socket.EventMessage) != 1 {
		t.Fatalf("emit count = %d, want 1", spy.count(socket.EventMessage))
	}
}

func TestServerEchoReconcilesOptimisticCopy(t *testing.T) {
	s, _ := registeredSession(t)
	if err := s.JoinRoom("alice-bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	sent, err := s.SendMessage("hello", nil)
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	// The echo carries the persisted id alongside the correlation id.
	echo := sent
	echo.ServerID = "srv-1"
	s.HandleEvent(push(t, socket.EventThread, echo))

	msgs := s.Messages()
	if len(msgs) != 1 {
		t.Fatalf("messages = %d after echo, want 1 (no duplicate)", len(msgs))
	}
	if msgs[0].ServerID != "srv-1" {
		t.Fatalf("echo did not replace the optimistic copy: %+v", msgs[0])
	}
}

func TestHistoryReplacesWholesale(t *testing.T) {
	s, _ := registeredSession(t)
	if err := s.JoinRoom("alice-bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := s.SendMessage("stale optimistic", nil); err != nil {
		t.Fatalf("send: %v", err)
	}

	history := []model.Message{
		{ServerID: "1", Sender: "bob", Room: "alice-bob", Body: "hi"},
		{ServerID: "2", Sender: "alice", Room: "alice-bob", Body: "hey"},
	}
	s.HandleEvent(push(t, socket.EventHistory, history))

	msgs := s.Messages()
	if len(msgs) != 2 {
		t.Fatalf("messages = %d, want the pushed 2 exactly", len(msgs))
	}
	for i := range history {
		if msgs[i].ServerID != history[i].ServerID {
			t.Fatalf("message %d = %+v, want %+v", i, msgs[i], history[i])
		}
	}
}

func TestRejoinClearsBeforeHistory(t *testing.T) {
	s, _ := registeredSession(t)
	if err := s.JoinRoom("alice-bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	s.HandleEvent(push(t, socket.EventHistory, []model.Message{{ServerID: "1", Room: "alice-bob"}}))

	if err := s.JoinRoom("alice-bob"); err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if got := len(s.Messages()); got != 0 {
		t.Fatalf("messages = %d after rejoin, want 0 until history arrives", got)
	}
	s.HandleEvent(push(t, socket.EventHistory, []model.Message{{ServerID: "1", Room: "alice-bob"}}))
	if got := len(s.Messages()); got != 1 {
		t.Fatalf("messages = %d, want 1 (replace, not merge)", got)
	}
}

func TestReactionForUnknownIDIsNoOp(t *testing.T) {
	s, _ := registeredSession(t)
	if err := s.JoinRoom("alice-bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	s.HandleEvent(push(t, socket.EventHistory, []model.Message{{ServerID: "1", Room: "alice-bob", Body: "hi"}}))

	before := append([]model.Message(nil), s.Messages()...)
	s.HandleEvent(push(t, socket.EventEmotion, socket.ReactionPayload{
		MessageID: "nope", User: "bob", Emotion: 2, Room: "alice-bob",
	}))
	after := s.Messages()
	if len(after) != len(before) {
		t.Fatalf("list length changed on unmatched reaction")
	}
	for i := range before {
		if after[i] != before[i] {
			t.Fatalf("message %d mutated on unmatched reaction", i)
		}
	}
}

func TestReactionHistoryBulkMerge(t *testing.T) {
	s, _ := registeredSession(t)
	if err := s.JoinRoom("alice-bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	s.HandleEvent(push(t, socket.EventHistory, []model.Message{
		{ServerID: "1", Room: "alice-bob"},
		{ServerID: "2", Room: "alice-bob"},
	}))

	s.HandleEvent(push(t, socket.EventReactionHistory, []socket.ReactionPayload{
		{MessageID: "2", Emotion: 3},
		{MessageID: "missing", Emotion: 1}, // silently dropped
	}))

	msgs := s.Messages()
	if msgs[0].Emotion != 0 {
		t.Fatalf("message 1 got a reaction it should not have")
	}
	if msgs[1].Emotion != 3 {
		t.Fatalf("message 2 emotion = %d, want 3", msgs[1].Emotion)
	}
}

func TestChooseReactionMatchesEitherID(t *testing.T) {
	s, spy := registeredSession(t)
	if err := s.JoinRoom("alice-bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	s.HandleEvent(push(t, socket.EventHistory, []model.Message{
		{ServerID: "srv-9", LocalID: "loc-9", Room: "alice-bob"},
	}))

	if err := s.ChooseReaction("loc-9", 5); err != nil {
		t.Fatalf("react: %v", err)
	}
	if s.Messages()[0].Emotion != 5 {
		t.Fatalf("local-id lookup failed: %+v", s.Messages()[0])
	}
	if spy.count(socket.EventEmotion) != 1 {
		t.Fatalf("emotion emit count = %d, want 1", spy.count(socket.EventEmotion))
	}
}

func TestThreadForOtherRoomNotAppended(t *testing.T) {
	s, _ := registeredSession(t)
	s.HandleEvent(push(t, socket.EventUserConversations, socket.ConversationsPayload{
		PrivateChats: []model.Conversation{
			{RoomID: "alice-bob", Name: "bob"},
			{RoomID: "alice-carol", Name: "carol"},
		},
	}))
	if err := s.JoinRoom("alice-bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	s.HandleEvent(push(t, socket.EventThread, model.Message{
		ServerID: "x", Sender: "carol", Room: "alice-carol", Body: "wrong room",
	}))

	if got := len(s.Messages()); got != 0 {
		t.Fatalf("foreign-room message appended to the open list")
	}
	if got := s.Conversation("alice-carol").UnreadCount; got != 1 {
		t.Fatalf("unread for alice-carol = %d, want 1", got)
	}
}

func TestConversationsReplaceAndKeepEmptyOnes(t *testing.T) {
	s, _ := registeredSession(t)
	s.HandleEvent(push(t, socket.EventUserConversations, socket.ConversationsPayload{
		PrivateChats: []model.Conversation{{RoomID: "alice-bob", Name: "bob"}},
		GroupChats:   []model.Conversation{{RoomID: "g1", Name: "team"}},
	}))
	if got := len(s.Conversations()); got != 2 {
		t.Fatalf("conversations = %d, want 2", got)
	}
	if c := s.Conversation("g1"); c == nil || !c.IsGroup {
		t.Fatalf("group conversation missing or untagged: %+v", c)
	}
	if c := s.Conversation("alice-bob"); len(c.Messages) != 0 {
		t.Fatalf("empty conversation should carry an empty message sequence")
	}

	// A second push replaces the mapping, never merges into it.
	s.HandleEvent(push(t, socket.EventUserConversations, socket.ConversationsPayload{
		PrivateChats: []model.Conversation{{RoomID: "alice-dave", Name: "dave"}},
	}))
	if s.Conversation("alice-bob") != nil {
		t.Fatalf("old conversation survived the replace")
	}
	if got := len(s.Conversations()); got != 1 {
		t.Fatalf("conversations = %d after replace, want 1", got)
	}
}

func TestNewGroupChatPushAddsConversation(t *testing.T) {
	s, _ := registeredSession(t)

	s.HandleEvent(push(t, socket.EventNewGroupChat, model.Conversation{
		RoomID: "g7", Name: "weekend plans",
	}))

	c := s.Conversation("g7")
	if c == nil || !c.IsGroup {
		t.Fatalf("new group conversation missing or untagged: %+v", c)
	}
	if got := len(s.Conversations()); got != 1 {
		t.Fatalf("conversations = %d, want 1", got)
	}
}

func TestFriendAcceptedPushOpensEmptyConversation(t *testing.T) {
	s, _ := registeredSession(t)

	s.HandleEvent(push(t, socket.EventFriendAccepted, socket.FriendAcceptedPayload{
		Friend: "bob", RoomID: "alice-bob",
	}))

	c := s.Conversation("alice-bob")
	if c == nil || c.IsGroup || c.Name != "bob" {
		t.Fatalf("friendship did not open a private conversation: %+v", c)
	}
	if len(c.Messages) != 0 {
		t.Fatalf("fresh conversation should carry no messages: %+v", c.Messages)
	}

	// An already-known room is left alone.
	s.HandleEvent(push(t, socket.EventFriendAccepted, socket.FriendAcceptedPayload{
		Friend: "robert", RoomID: "alice-bob",
	}))
	if s.Conversation("alice-bob").Name != "bob" {
		t.Fatalf("acceptance push clobbered an existing conversation")
	}

	// An empty room id creates nothing.
	s.HandleEvent(push(t, socket.EventFriendAccepted, socket.FriendAcceptedPayload{Friend: "carol"}))
	if got := len(s.Conversations()); got != 1 {
		t.Fatalf("conversations = %d after roomless acceptance, want 1", got)
	}
}

func TestJoinBeforeRegisterRejected(t *testing.T) {
	spy := &spyEmitter{}
	s := NewSession(spy, "alice")
	if err := s.JoinRoom("alice-bob"); err != ErrNotRegistered {
		t.Fatalf("err = %v, want ErrNotRegistered", err)
	}
}

func TestLeaveRoomReturnsToRegistered(t *testing.T) {
	s, _ := registeredSession(t)
	if err := s.JoinRoom("alice-bob"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if s.State() != StateRoomJoined {
		t.Fatalf("state = %v, want StateRoomJoined", s.State())
	}
	s.LeaveRoom()
	if s.State() != StateRegistered {
		t.Fatalf("state = %v, want StateRegistered", s.State())
	}
	if s.ActiveRoom() != "" {
		t.Fatalf("active room survived leave")
	}
}

func TestLocalIDsAreUnique(t *testing.T) {
	now := time.Now()
	a := model.NewLocalID(now)
	b := model.NewLocalID(now)
	if a == b {
		t.Fatalf("two ids in the same instant collided: %s", a)
	}
}
