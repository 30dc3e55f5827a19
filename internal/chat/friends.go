package chat

import (
	"github.com/vinhng/zolaterm/internal/logger"
	"github.com/vinhng/zolaterm/internal/model"
	"github.com/vinhng/zolaterm/internal/socket"
)

// Friends maintains the three friend-management lists: search results,
// outgoing pending requests, incoming pending requests. List mutations
// are plain filters keyed by username; append-if-absent is the only
// deduplication applied.
type Friends struct {
	emitter  Emitter
	username string

	SearchResults []model.UserProfile
	Outgoing      []model.FriendRequest
	Incoming      []model.FriendRequest
}

func NewFriends(emitter Emitter, username string) *Friends {
	return &Friends{emitter: emitter, username: username}
}

// Add sends a friend request to target and records it as outgoing.
func (f *Friends) Add(target string) error {
	p := socket.FriendPayload{From: f.username, To: target}
	if err := f.emitter.Emit(socket.EventAddFriend, p); err != nil {
		return err
	}
	f.Outgoing = appendIfAbsent(f.Outgoing, model.FriendRequest(p))
	return nil
}

// Withdraw cancels a previously sent request.
func (f *Friends) Withdraw(target string) error {
	p := socket.FriendPayload{From: f.username, To: target}
	if err := f.emitter.Emit(socket.EventWithdrawFriend, p); err != nil {
		return err
	}
	f.Outgoing = removeByPeer(f.Outgoing, target)
	return nil
}

// Accept confirms an incoming request from sender.
func (f *Friends) Accept(sender string) error {
	p := socket.FriendPayload{From: sender, To: f.username}
	if err := f.emitter.Emit(socket.EventAcceptFriend, p); err != nil {
		return err
	}
	f.Incoming = removeByPeer(f.Incoming, sender)
	return nil
}

// Reject declines an incoming request from sender.
func (f *Friends) Reject(sender string) error {
	p := socket.FriendPayload{From: sender, To: f.username}
	if err := f.emitter.Emit(socket.EventRejectFriend, p); err != nil {
		return err
	}
	f.Incoming = removeByPeer(f.Incoming, sender)
	return nil
}

// HandleEvent merges friend lifecycle pushes. Events that concern other
// users are ignored.
func (f *Friends) HandleEvent(ev socket.Event) {
	switch ev.Name {
	case socket.EventFriendRequest:
		var p socket.FriendPayload
		if err := ev.Decode(&p); err != nil {
			logger.Errorf("friends: decode friendRequest: %v", err)
			return
		}
		if p.To == f.username {
			f.Incoming = appendIfAbsent(f.Incoming, model.FriendRequest(p))
		}
	case socket.EventFriendWithdrawn:
		var p socket.FriendPayload
		if err := ev.Decode(&p); err != nil {
			return
		}
		if p.To == f.username {
			f.Incoming = removeByPeer(f.Incoming, p.From)
		}
	case socket.EventFriendAccepted:
		var p socket.FriendAcceptedPayload
		if err := ev.Decode(&p); err != nil {
			return
		}
		f.Outgoing = removeByPeer(f.Outgoing, p.Friend)
	}
}

func appendIfAbsent(list []model.FriendRequest, req model.FriendRequest) []model.FriendRequest {
	for _, r := range list {
		if r.From == req.From && r.To == req.To {
			return list
		}
	}
	return append(list, req)
}

// removeByPeer drops every request whose counterpart is peer, on either
// side of the pair.
func removeByPeer(list []model.FriendRequest, peer string) []model.FriendRequest {
	kept := list[:0]
	for _, r := range list {
		if r.From != peer && r.To != peer {
			kept = append(kept, r)
		}
	}
	return kept
}
