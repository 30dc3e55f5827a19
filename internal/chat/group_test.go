package chat

import (
	"testing"

	"github.com/vinhng/zolaterm/internal/model"
	"github.com/vinhng/zolaterm/internal/socket"
)

func openGroup(t *testing.T) (*GroupViewer, *spyEmitter) {
	t.Helper()
	spy := &spyEmitter{}
	g := NewGroupViewer(spy, "alice")
	if err := g.Open("g1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	g.HandleEvent(push(t, socket.EventGroupDetailsResult, model.GroupInfo{
		RoomID:   "g1",
		Name:     "team",
		Owner:    "alice",
		Deputies: []string{"bob"},
		Members:  []string{"alice", "bob", "carol"},
	}))
	if g.Info == nil {
		t.Fatalf("details push not applied")
	}
	return g, spy
}

func TestTransferOwnerNeverLeavesOwnerAsDeputy(t *testing.T) {
	g, _ := openGroup(t)

	if err := g.TransferOwner("bob"); err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if g.Info.Owner != "bob" {
		t.Fatalf("owner = %q, want bob", g.Info.Owner)
	}
	if g.Info.IsDeputy("bob") {
		t.Fatalf("new owner kept the deputy role")
	}

	// The confirming snapshot must agree even if the server sends the
	// old deputy set back.
	g.HandleEvent(push(t, socket.EventGroupDetailsResult, model.GroupInfo{
		RoomID:   "g1",
		Name:     "team",
		Owner:    "bob",
		Deputies: []string{"bob"},
		Members:  []string{"alice", "bob", "carol"},
	}))
	if g.Info.IsDeputy("bob") {
		t.Fatalf("applied snapshot violates owner/deputy exclusivity")
	}
}

func TestGroupUpdatedTriggersRefetchWhileOpen(t *testing.T) {
	g, spy := openGroup(t)
	before := spy.count(socket.EventGetGroupDetails)

	g.HandleEvent(push(t, socket.EventGroupUpdated, socket.GroupRoomPayload{Room: "g1"}))
	if got := spy.count(socket.EventGetGroupDetails); got != before+1 {
		t.Fatalf("details requests = %d, want %d (invalidate and refetch)", got, before+1)
	}

	// Pushes for other rooms do not refetch.
	g.HandleEvent(push(t, socket.EventGroupUpdated, socket.GroupRoomPayload{Room: "g2"}))
	if got := spy.count(socket.EventGetGroupDetails); got != before+1 {
		t.Fatalf("refetched on a foreign room's update")
	}
}

func TestGroupPushesIgnoredWhenClosed(t *testing.T) {
	g, spy := openGroup(t)
	if g.Room() != "g1" {
		t.Fatalf("room = %q while open, want g1", g.Room())
	}
	g.Close()
	if g.Room() != "" {
		t.Fatalf("room = %q after close, want empty", g.Room())
	}
	before := spy.count(socket.EventGetGroupDetails)

	g.HandleEvent(push(t, socket.EventGroupUpdated, socket.GroupRoomPayload{Room: "g1"}))
	if spy.count(socket.EventGetGroupDetails) != before {
		t.Fatalf("closed viewer still refetches")
	}
	g.HandleEvent(push(t, socket.EventGroupDetailsResult, model.GroupInfo{RoomID: "g1"}))
	if g.Info != nil {
		t.Fatalf("closed viewer applied a snapshot")
	}
}

func TestDeputyAssignAndCancel(t *testing.T) {
	g, spy := openGroup(t)

	if err := g.AssignDeputy("carol"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !g.Info.IsDeputy("carol") {
		t.Fatalf("optimistic deputy grant missing")
	}
	if err := g.CancelDeputy("carol"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if g.Info.IsDeputy("carol") {
		t.Fatalf("optimistic deputy revoke missing")
	}
	if spy.count(socket.EventAssignDeputy) != 1 || spy.count(socket.EventCancelDeputy) != 1 {
		t.Fatalf("deputy events not emitted exactly once each")
	}
}

func TestAssignDeputyToOwnerRefusedLocally(t *testing.T) {
	g, _ := openGroup(t)
	if err := g.AssignDeputy("alice"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if g.Info.IsDeputy("alice") {
		t.Fatalf("owner became deputy locally")
	}
}

func TestNormalizeDropsNonMemberDeputies(t *testing.T) {
	info := model.GroupInfo{
		Owner:    "alice",
		Deputies: []string{"ghost", "bob", "alice"},
		Members:  []string{"bob", "carol"},
	}
	info.Normalize()
	if !info.HasMember("alice") {
		t.Fatalf("owner not restored into member list")
	}
	if info.IsDeputy("ghost") || info.IsDeputy("alice") {
		t.Fatalf("invalid deputies survived: %v", info.Deputies)
	}
	if !info.IsDeputy("bob") {
		t.Fatalf("valid deputy dropped")
	}
}
