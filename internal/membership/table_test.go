package membership

import (
	"testing"
	"time"
)

func TestUpdateAdmitsNewPeer(t *testing.T) {
	tbl := New("self")
	p, isNew := tbl.Update("alice", "localhost", 9001)
	if !isNew {
		t.Fatal("expected first sighting of alice to be new")
	}
	if p.Name != "alice" || p.Port != 9001 {
		t.Errorf("unexpected peer: %+v", p)
	}
	if tbl.Size() != 1 {
		t.Errorf("expected table size 1, got %d", tbl.Size())
	}
}

func TestUpdateRefreshesExistingPeer(t *testing.T) {
	tbl := New("self")
	tbl.Update("alice", "localhost", 9001)
	_, isNew := tbl.Update("alice", "localhost", 9001)
	if isNew {
		t.Fatal("expected second sighting of alice to not be new")
	}
	if tbl.Size() != 1 {
		t.Errorf("expected table size to stay 1, got %d", tbl.Size())
	}
}

func TestUpdateIgnoresSelf(t *testing.T) {
	tbl := New("self")
	p, isNew := tbl.Update("self", "localhost", 9001)
	if p != nil || isNew {
		t.Fatal("expected self-echo to be ignored")
	}
	if tbl.Size() != 0 {
		t.Errorf("expected table to remain empty, got size %d", tbl.Size())
	}
}

func TestFindMissingPeer(t *testing.T) {
	tbl := New("self")
	_, ok := tbl.Find("nobody")
	if ok {
		t.Fatal("expected Find to report false for an unknown peer")
	}
}

func TestPruneOlderThanRemovesStale(t *testing.T) {
	tbl := New("self")
	tbl.Update("alice", "localhost", 9001)
	p, _ := tbl.Find("alice")

	// refresh alice, then let a few real milliseconds pass so she is
	// older than the 1ms max age below
	p.Touch()
	time.Sleep(5 * time.Millisecond)

	pruned := tbl.PruneOlderThan(time.Millisecond)
	if len(pruned) != 1 || pruned[0] != "alice" {
		t.Fatalf("expected alice to be pruned, got %v", pruned)
	}
	if tbl.Size() != 0 {
		t.Errorf("expected empty table after prune, got size %d", tbl.Size())
	}
}

func TestPruneOlderThanKeepsFreshPeers(t *testing.T) {
	tbl := New("self")
	tbl.Update("alice", "localhost", 9001)

	pruned := tbl.PruneOlderThan(time.Hour)
	if len(pruned) != 0 {
		t.Fatalf("expected no peers pruned, got %v", pruned)
	}
}
