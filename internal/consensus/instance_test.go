package consensus

import (
	"testing"
	"time"

	"github.com/byznode/byznode/internal/peerinfo"
)

func strPtr(s string) *string { return &s }

func TestPluralityPicksMajority(t *testing.T) {
	counts := map[string]int{"a": 3, "b": 1}
	if got := plurality(counts); got != "a" {
		t.Errorf("expected majority value 'a', got %q", got)
	}
}

func TestPluralityBreaksTiesDeterministically(t *testing.T) {
	counts := map[string]int{"apple": 2, "banana": 2}
	first := plurality(counts)
	second := plurality(counts)
	if first != second {
		t.Errorf("expected deterministic tie-break, got %q then %q", first, second)
	}
}

func TestKeyOfAndValueOfRoundTripAbsent(t *testing.T) {
	if keyOf(nil) != absentMarker {
		t.Errorf("expected absent marker for nil value")
	}
	if valueOf(absentMarker) != nil {
		t.Errorf("expected nil value for absent marker")
	}
}

func TestKeyOfAndValueOfRoundTripPresent(t *testing.T) {
	v := strPtr("hello")
	key := keyOf(v)
	if key != "hello" {
		t.Errorf("expected key %q, got %q", "hello", key)
	}
	round := valueOf(key)
	if round == nil || *round != "hello" {
		t.Errorf("expected round trip to 'hello', got %v", round)
	}
}

func TestNotifyClosesDoneAfterAllPeersReply(t *testing.T) {
	peers := []*peerinfo.Peer{
		peerinfo.New("a", "localhost", 1),
		peerinfo.New("b", "localhost", 2),
	}
	ins := NewInstance(0, 0, nil, nil, peers, time.Now().Add(time.Second))

	ins.Notify(strPtr("x"))
	select {
	case <-ins.doneCh:
		t.Fatal("expected doneCh to remain open after only one of two replies")
	default:
	}

	ins.Notify(strPtr("x"))
	select {
	case <-ins.doneCh:
	default:
		t.Fatal("expected doneCh to close once every peer has replied")
	}
}
