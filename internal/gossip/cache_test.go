package gossip

import "testing"

func TestCacheAdmitsFirstMessage(t *testing.T) {
	c := NewCache()
	if !c.Admit("alice", "msg-1") {
		t.Fatal("expected first message from a name to be admitted")
	}
}

func TestCacheRejectsDuplicate(t *testing.T) {
	c := NewCache()
	c.Admit("alice", "msg-1")
	if c.Admit("alice", "msg-1") {
		t.Fatal("expected duplicate (name, messageID) to be rejected")
	}
}

func TestCacheAdmitsNewMessageFromSameOriginator(t *testing.T) {
	c := NewCache()
	c.Admit("alice", "msg-1")
	if !c.Admit("alice", "msg-2") {
		t.Fatal("expected a new messageID from the same originator to be admitted")
	}
}

func TestCacheTracksOriginatorsIndependently(t *testing.T) {
	c := NewCache()
	if !c.Admit("alice", "msg-1") {
		t.Fatal("expected alice's message to be admitted")
	}
	if !c.Admit("bob", "msg-1") {
		t.Fatal("expected bob's message with the same ID to be admitted independently")
	}
}
