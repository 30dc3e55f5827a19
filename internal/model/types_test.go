package model

import (
	"testing"
	"time"
)

func TestPrivateRoomIDIsOrderIndependent(t *testing.T) {
	if got, want := PrivateRoomID("bob", "alice"), "alice-bob"; got != want {
		t.Fatalf("PrivateRoomID = %q, want %q", got, want)
	}
	if PrivateRoomID("alice", "bob") != PrivateRoomID("bob", "alice") {
		t.Fatalf("room id depends on argument order")
	}
}

func TestMessageIdentity(t *testing.T) {
	m := Message{ServerID: "srv", LocalID: "loc"}
	if m.Identity() != "srv" {
		t.Fatalf("persisted id should win: %q", m.Identity())
	}
	if !m.SameIdentity("srv") || !m.SameIdentity("loc") {
		t.Fatalf("dual-id lookup broken")
	}
	if m.SameIdentity("") || m.SameIdentity("other") {
		t.Fatalf("identity matched something it should not")
	}

	local := Message{LocalID: "loc"}
	if local.Identity() != "loc" {
		t.Fatalf("client id should be used when no server id exists")
	}
}

func TestNewLocalIDSortsByTime(t *testing.T) {
	early := NewLocalID(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	late := NewLocalID(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if early >= late {
		t.Fatalf("ids do not sort by send time: %q >= %q", early, late)
	}
}

func TestEmotionIcon(t *testing.T) {
	if EmotionIcon(1) == "" {
		t.Fatalf("catalog entry 1 missing")
	}
	if EmotionIcon(99) != "" {
		t.Fatalf("unknown emotion produced an icon")
	}
}
