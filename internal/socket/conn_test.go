package socket_test

import (
	"testing"
	"time"

	"github.com/vinhng/zolaterm/internal/chattest"
	"github.com/vinhng/zolaterm/internal/model"
	"github.com/vinhng/zolaterm/internal/socket"
)

// waitEvent reads pushes until one named want arrives.
func waitEvent(t *testing.T, conn *socket.Conn, want string) socket.Event {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-conn.Events():
			if !ok {
				t.Fatalf("connection closed while waiting for %s", want)
			}
			if ev.Name == want {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", want)
		}
	}
}

func dialTestServer(t *testing.T) (*chattest.Server, *socket.Conn) {
	t.Helper()
	srv := chattest.NewServer()
	t.Cleanup(srv.Close)

	conn, err := socket.Dial(srv.SocketURL(), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(conn.Close)
	return srv, conn
}

func TestRegisterAndListConversations(t *testing.T) {
	srv, conn := dialTestServer(t)
	srv.AddConversations("alice", socket.ConversationsPayload{
		PrivateChats: []model.Conversation{{RoomID: "alice-bob", Name: "bob"}},
		GroupChats:   []model.Conversation{{RoomID: "g1", Name: "team"}},
	})

	if err := conn.Emit(socket.EventRegisterUser, "alice"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := conn.Emit(socket.EventGetConversations, "alice"); err != nil {
		t.Fatalf("request conversations: %v", err)
	}

	ev := waitEvent(t, conn, socket.EventUserConversations)
	var p socket.ConversationsPayload
	if err := ev.Decode(&p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(p.PrivateChats) != 1 || len(p.GroupChats) != 1 {
		t.Fatalf("payload = %+v", p)
	}
}

func TestJoinDeliversHistoryAndReactions(t *testing.T) {
	srv, conn := dialTestServer(t)
	srv.AddHistory("alice-bob", []model.Message{
		{ServerID: "1", Sender: "bob", Room: "alice-bob", Body: "hi"},
	})
	srv.AddReactions("alice-bob", []socket.ReactionPayload{
		{MessageID: "1", User: "alice", Emotion: 2, Room: "alice-bob"},
	})

	if err := conn.Emit(socket.EventJoin, "alice-bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	var history []model.Message
	if err := waitEvent(t, conn, socket.EventHistory).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 1 || history[0].Body != "hi" {
		t.Fatalf("history = %+v", history)
	}

	var reactions []socket.ReactionPayload
	if err := waitEvent(t, conn, socket.EventReactionHistory).Decode(&reactions); err != nil {
		t.Fatalf("decode reactions: %v", err)
	}
	if len(reactions) != 1 || reactions[0].Emotion != 2 {
		t.Fatalf("reactions = %+v", reactions)
	}
}

func TestJoinEmptyRoomStillAnswersHistory(t *testing.T) {
	_, conn := dialTestServer(t)

	if err := conn.Emit(socket.EventJoin, "empty-room"); err != nil {
		t.Fatalf("join: %v", err)
	}
	var history []model.Message
	if err := waitEvent(t, conn, socket.EventHistory).Decode(&history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 0 {
		t.Fatalf("history = %+v, want empty", history)
	}
}

func TestMessageEchoKeepsCorrelationID(t *testing.T) {
	_, conn := dialTestServer(t)

	sent := model.Message{
		LocalID: "loc-42",
		Sender:  "alice",
		Room:    "alice-bob",
		Body:    "hello",
		SentAt:  time.Now(),
	}
	if err := conn.Emit(socket.EventMessage, sent); err != nil {
		t.Fatalf("emit message: %v", err)
	}

	var echo model.Message
	if err := waitEvent(t, conn, socket.EventThread).Decode(&echo); err != nil {
		t.Fatalf("decode thread: %v", err)
	}
	if echo.LocalID != "loc-42" {
		t.Fatalf("echo lost the correlation id: %+v", echo)
	}
	if echo.ServerID == "" {
		t.Fatalf("echo carries no persisted id")
	}
}

func TestEmotionBroadcast(t *testing.T) {
	_, conn := dialTestServer(t)

	r := socket.ReactionPayload{MessageID: "1", User: "alice", Emotion: 3, Room: "alice-bob"}
	if err := conn.Emit(socket.EventEmotion, r); err != nil {
		t.Fatalf("emit emotion: %v", err)
	}
	var got socket.ReactionPayload
	if err := waitEvent(t, conn, socket.EventEmotion).Decode(&got); err != nil {
		t.Fatalf("decode emotion: %v", err)
	}
	if got != r {
		t.Fatalf("broadcast = %+v, want %+v", got, r)
	}
}

func TestGroupMutationPushesGroupUpdated(t *testing.T) {
	srv, conn := dialTestServer(t)
	srv.AddGroup(model.GroupInfo{
		RoomID:  "g1",
		Name:    "team",
		Owner:   "alice",
		Members: []string{"alice", "bob"},
	})

	err := conn.Emit(socket.EventTransferGroupOwner, socket.GroupMemberPayload{Room: "g1", Member: "bob"})
	if err != nil {
		t.Fatalf("emit transfer: %v", err)
	}
	var p socket.GroupRoomPayload
	if err := waitEvent(t, conn, socket.EventGroupUpdated).Decode(&p); err != nil {
		t.Fatalf("decode groupUpdated: %v", err)
	}
	if p.Room != "g1" {
		t.Fatalf("groupUpdated for %q, want g1", p.Room)
	}

	if err := conn.Emit(socket.EventGetGroupDetails, socket.GroupRoomPayload{Room: "g1"}); err != nil {
		t.Fatalf("emit details request: %v", err)
	}
	var info model.GroupInfo
	if err := waitEvent(t, conn, socket.EventGroupDetailsResult).Decode(&info); err != nil {
		t.Fatalf("decode details: %v", err)
	}
	if info.Owner != "bob" {
		t.Fatalf("owner = %q after transfer, want bob", info.Owner)
	}
}

func TestEmitAfterClose(t *testing.T) {
	_, conn := dialTestServer(t)
	conn.Close()
	conn.Wait()
	if err := conn.Emit(socket.EventRegisterUser, "alice"); err != socket.ErrClosed {
		t.Fatalf("err = %v, want ErrClosed", err)
	}
}

func TestEventsChannelClosesOnServerShutdown(t *testing.T) {
	srv, conn := dialTestServer(t)
	srv.Close()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-conn.Events():
			if !ok {
				return // closed as expected
			}
		case <-deadline:
			t.Fatalf("events channel never closed")
		}
	}
}
