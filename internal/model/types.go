package model

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Attachment describes a file or image hosted on the media server.
type Attachment struct {
	URL  string `json:"url"`
	Type string `json:"type"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Message is a single chat message. Identity is dual: the backend assigns
// ServerID once the message is persisted, while the sending client stamps
// LocalID at creation time. Lookups match either, so an optimistic copy and
// its server echo resolve to the same message.
type Message struct {
	ServerID   string      `json:"_id,omitempty"`
	LocalID    string      `json:"id,omitempty"`
	Sender     string      `json:"sender"`
	Room       string      `json:"room"`
	Body       string      `json:"body,omitempty"`
	Attachment *Attachment `json:"attachment,omitempty"`
	Emotion    int         `json:"emotion,omitempty"`
	SentAt     time.Time   `json:"sent_at"`
}

// SameIdentity reports whether id matches either of the message's ids.
func (m *Message) SameIdentity(id string) bool {
	if id == "" {
		return false
	}
	return m.ServerID == id || m.LocalID == id
}

// Identity returns the stable id of the message: the persisted server id
// when present, else the client-generated one.
func (m *Message) Identity() string {
	if m.ServerID != "" {
		return m.ServerID
	}
	return m.LocalID
}

// NewLocalID generates a client-side message id. Timestamp-first so ids
// sort roughly by send time, uuid suffix so two messages in the same
// millisecond cannot collide.
func NewLocalID(now time.Time) string {
	return now.Format("20060102150405.000") + "-" + uuid.NewString()[:8]
}

// Conversation is one entry of the user's chat list, private or group.
// Messages are rebuilt from the history push on every join; the client
// keeps no persistent cache.
type Conversation struct {
	RoomID      string    `json:"room_id"`
	Name        string    `json:"name"`
	IsGroup     bool      `json:"is_group"`
	UnreadCount int       `json:"unread_count"`
	Messages    []Message `json:"messages"`
}

// PrivateRoomID derives the room id of a one-to-one conversation: the two
// usernames sorted and joined, so both sides compute the same id.
func PrivateRoomID(a, b string) string {
	if strings.Compare(a, b) > 0 {
		a, b = b, a
	}
	return a + "-" + b
}

// GroupInfo is a snapshot of a group conversation's membership.
// Invariant: Owner is always a member; deputies are members other than the
// owner. Snapshots from the server are normalized on apply.
type GroupInfo struct {
	RoomID   string   `json:"room_id"`
	Name     string   `json:"name"`
	Owner    string   `json:"owner"`
	Deputies []string `json:"deputies"`
	Members  []string `json:"members"`
}

// HasMember reports whether name is in the member list.
func (g *GroupInfo) HasMember(name string) bool {
	for _, m := range g.Members {
		if m == name {
			return true
		}
	}
	return false
}

// IsDeputy reports whether name currently holds the deputy role.
func (g *GroupInfo) IsDeputy(name string) bool {
	for _, d := range g.Deputies {
		if d == name {
			return true
		}
	}
	return false
}

// Normalize restores the membership invariants after applying a raw server
// snapshot: the owner is ensured to be a member and never doubles as a
// deputy, and deputies that are not members are dropped.
func (g *GroupInfo) Normalize() {
	if g.Owner != "" && !g.HasMember(g.Owner) {
		g.Members = append([]string{g.Owner}, g.Members...)
	}
	kept := g.Deputies[:0]
	for _, d := range g.Deputies {
		if d != g.Owner && g.HasMember(d) {
			kept = append(kept, d)
		}
	}
	g.Deputies = kept
	sort.Strings(g.Deputies)
}

// FriendRequest is a pending friend relationship, identified by the pair
// of usernames.
type FriendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// UserProfile holds the editable account fields.
type UserProfile struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// Emotion is one entry of the fixed reaction catalog.
type Emotion struct {
	ID   int
	Icon string
}

// Emotions is the reaction catalog. Static configuration; ids are what
// travels on the wire.
var Emotions = []Emotion{
	{ID: 1, Icon: "👍"},
	{ID: 2, Icon: "❤️"},
	{ID: 3, Icon: "😂"},
	{ID: 4, Icon: "😮"},
	{ID: 5, Icon: "😢"},
	{ID: 6, Icon: "😡"},
}

// EmotionIcon returns the icon for id, or an empty string for an unknown id.
func EmotionIcon(id int) string {
	for _, e := range Emotions {
		if e.ID == id {
			return e.Icon
		}
	}
	return ""
}
