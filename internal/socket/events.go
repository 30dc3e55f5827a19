package socket

import (
	"encoding/json"

	"github.com/vinhng/zolaterm/internal/model"
)

// Event names on the wire. Outbound names are what the client emits,
// inbound names are what the server pushes; a few (emotion, friend
// lifecycle) travel both ways.
const (
	// outbound
	EventRegisterUser         = "registerUser"
	EventGetConversations     = "getUserConversations"
	EventJoin                 = "join"
	EventMessage              = "message"
	EventEmotion              = "emotion"
	EventAddFriend            = "addFriend"
	EventWithdrawFriend       = "withdrawFriendRequest"
	EventAcceptFriend         = "acceptFriend"
	EventRejectFriend         = "rejectFriend"
	EventCreateGroupChat      = "createGroupChat"
	EventAddGroupMember       = "addGroupMember"
	EventRemoveGroupMember    = "removeGroupMember"
	EventTransferGroupOwner   = "transferGroupOwner"
	EventAssignDeputy         = "assignDeputy"
	EventCancelDeputy         = "cancelDeputy"
	EventLeaveGroup           = "leaveGroup"
	EventDisbandGroup         = "disbandGroup"
	EventGetGroupDetails      = "getGroupDetails"

	// inbound
	EventUserConversations  = "userConversations"
	EventHistory            = "history"
	EventReactionHistory    = "reactionHistory"
	EventThread             = "thread"
	EventFriendRequest      = "friendRequest"
	EventFriendWithdrawn    = "friendRequestWithdrawn"
	EventFriendAccepted     = "friendAccepted"
	EventGroupDetailsResult = "groupDetailsResult"
	EventGroupUpdated       = "groupUpdated"
	EventNewGroupChat       = "newGroupChat"
)

// Envelope is the wire frame: an event name plus its JSON payload.
type Envelope struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Event is a decoded inbound push.
type Event struct {
	Name    string
	Payload json.RawMessage
}

// Decode unmarshals the payload into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// ConversationsPayload answers getUserConversations.
type ConversationsPayload struct {
	PrivateChats []model.Conversation `json:"privateChats"`
	GroupChats   []model.Conversation `json:"groupChats"`
}

// ReactionPayload travels with the emotion event in both directions and,
// element-wise, inside reactionHistory.
type ReactionPayload struct {
	MessageID string `json:"messageId"`
	User      string `json:"user"`
	Emotion   int    `json:"emotion"`
	Room      string `json:"room"`
}

// FriendPayload identifies a friend request by its endpoints.
type FriendPayload struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// FriendAcceptedPayload announces a new friendship and the room created
// for it.
type FriendAcceptedPayload struct {
	Friend string `json:"friend"`
	RoomID string `json:"roomId"`
}

// GroupMemberPayload addresses one member of one group.
type GroupMemberPayload struct {
	Room   string `json:"room"`
	Member string `json:"member"`
}

// GroupRoomPayload addresses a group as a whole.
type GroupRoomPayload struct {
	Room string `json:"room"`
}

// CreateGroupPayload carries the initial shape of a new group.
type CreateGroupPayload struct {
	Name    string   `json:"name"`
	Owner   string   `json:"owner"`
	Members []string `json:"members"`
}
