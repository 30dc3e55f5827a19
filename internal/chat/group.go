package chat

import (
	"github.com/vinhng/zolaterm/internal/logger"
	"github.com/vinhng/zolaterm/internal/model"
	"github.com/vinhng/zolaterm/internal/socket"
)

// GroupViewer owns the membership state of the group details view. Group
// lifecycle is handled by invalidation: every mutation is emitted to the
// server, and any groupUpdated push while the view is open triggers a
// full details re-request instead of patching the snapshot incrementally.
type GroupViewer struct {
	emitter  Emitter
	username string

	// Info is the last applied snapshot, nil before the first
	// groupDetailsResult.
	Info *model.GroupInfo
	// Disbanded is set when the open group is dissolved; the view closes
	// itself on the next render.
	Disbanded bool

	open bool
	room string
}

func NewGroupViewer(emitter Emitter, username string) *GroupViewer {
	return &GroupViewer{emitter: emitter, username: username}
}

// Open starts viewing the group in room and requests its details.
func (g *GroupViewer) Open(room string) error {
	g.open = true
	g.room = room
	g.Info = nil
	g.Disbanded = false
	return g.requestDetails()
}

// Close stops viewing. Pushes for the group are ignored afterwards.
func (g *GroupViewer) Close() {
	g.open = false
	g.room = ""
	g.Info = nil
}

// IsOpen reports whether a group details view is active.
func (g *GroupViewer) IsOpen() bool { return g.open }

// Room returns the room id of the open group view, empty when closed.
func (g *GroupViewer) Room() string { return g.room }

func (g *GroupViewer) requestDetails() error {
	return g.emitter.Emit(socket.EventGetGroupDetails, socket.GroupRoomPayload{Room: g.room})
}

// Create asks the server for a new group chat owned by the current user.
// The newGroupChat push delivers the resulting conversation.
func (g *GroupViewer) Create(name string, members []string) error {
	return g.emitter.Emit(socket.EventCreateGroupChat, socket.CreateGroupPayload{
		Name:    name,
		Owner:   g.username,
		Members: members,
	})
}

// AddMember invites member into the open group.
func (g *GroupViewer) AddMember(member string) error {
	return g.emitMember(socket.EventAddGroupMember, member)
}

// RemoveMember expels member. Permitted for the owner and deputies; the
// server is the authority, the client only forwards.
func (g *GroupViewer) RemoveMember(member string) error {
	return g.emitMember(socket.EventRemoveGroupMember, member)
}

// TransferOwner hands ownership to newOwner. The local snapshot is
// updated optimistically so the view reflects the change before the
// confirming details push: the new owner loses any deputy role, per the
// membership invariant.
func (g *GroupViewer) TransferOwner(newOwner string) error {
	if err := g.emitMember(socket.EventTransferGroupOwner, newOwner); err != nil {
		return err
	}
	if g.Info != nil && g.Info.HasMember(newOwner) {
		g.Info.Owner = newOwner
		g.Info.Normalize()
	}
	return nil
}

// AssignDeputy grants the deputy role to member.
func (g *GroupViewer) AssignDeputy(member string) error {
	if err := g.emitMember(socket.EventAssignDeputy, member); err != nil {
		return err
	}
	if g.Info != nil && g.Info.HasMember(member) && member != g.Info.Owner {
		if !g.Info.IsDeputy(member) {
			g.Info.Deputies = append(g.Info.Deputies, member)
		}
	}
	return nil
}

// CancelDeputy revokes the deputy role from member.
func (g *GroupViewer) CancelDeputy(member string) error {
	if err := g.emitMember(socket.EventCancelDeputy, member); err != nil {
		return err
	}
	if g.Info != nil {
		kept := g.Info.Deputies[:0]
		for _, d := range g.Info.Deputies {
			if d != member {
				kept = append(kept, d)
			}
		}
		g.Info.Deputies = kept
	}
	return nil
}

// Leave exits the open group as the current user.
func (g *GroupViewer) Leave() error {
	return g.emitMember(socket.EventLeaveGroup, g.username)
}

// Disband dissolves the open group. Owner only; enforced server-side.
func (g *GroupViewer) Disband() error {
	return g.emitter.Emit(socket.EventDisbandGroup, socket.GroupRoomPayload{Room: g.room})
}

func (g *GroupViewer) emitMember(event, member string) error {
	return g.emitter.Emit(event, socket.GroupMemberPayload{Room: g.room, Member: member})
}

// HandleEvent merges group pushes. groupUpdated is handled as invalidate
// and refetch: the stale snapshot is kept on screen until the fresh
// details arrive.
func (g *GroupViewer) HandleEvent(ev socket.Event) {
	if !g.open {
		return
	}
	switch ev.Name {
	case socket.EventGroupDetailsResult:
		var info model.GroupInfo
		if err := ev.Decode(&info); err != nil {
			logger.Errorf("group: decode groupDetailsResult: %v", err)
			return
		}
		if info.RoomID != g.room {
			return
		}
		info.Normalize()
		g.Info = &info
	case socket.EventGroupUpdated:
		var p socket.GroupRoomPayload
		if err := ev.Decode(&p); err != nil {
			return
		}
		if p.Room != g.room {
			return
		}
		if err := g.requestDetails(); err != nil {
			logger.Errorf("group: refetch details: %v", err)
		}
	}
}

// NoteDisbanded is called by the conversation owner when the open group
// disappears from the conversation list.
func (g *GroupViewer) NoteDisbanded(room string) {
	if g.open && g.room == room {
		g.Disbanded = true
	}
}
