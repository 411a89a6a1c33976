package database

import "testing"

func word(s string) *string { return &s }

func TestGetAbsentSlotIsNil(t *testing.T) {
	s := New(5)
	got, err := s.Get(0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected absent slot to be nil, got %q", *got)
	}
}

func TestSetThenGetRoundTrips(t *testing.T) {
	s := New(5)
	if err := s.Set(2, word("hello")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := s.Get(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || *got != "hello" {
		t.Errorf("expected \"hello\", got %v", got)
	}
}

func TestOutOfRangeIndexErrors(t *testing.T) {
	s := New(5)
	if _, err := s.Get(5); err == nil {
		t.Fatal("expected error for out-of-range Get")
	}
	if err := s.Set(-1, word("x")); err == nil {
		t.Fatal("expected error for out-of-range Set")
	}
}

func TestLyingTaintsPresentValues(t *testing.T) {
	s := New(5)
	s.Set(0, word("truth"))
	s.Lie()

	got, _ := s.Get(0)
	if got == nil || *got != "truth lie" {
		t.Errorf("expected tainted value, got %v", got)
	}
}

func TestLyingDoesNotTaintAbsentValues(t *testing.T) {
	s := New(5)
	s.Lie()

	got, _ := s.Get(1)
	if got != nil {
		t.Errorf("expected absent slot to stay nil while lying, got %q", *got)
	}
}

func TestTruthStopsTainting(t *testing.T) {
	s := New(5)
	s.Set(0, word("truth"))
	s.Lie()
	s.Truth()

	got, _ := s.Get(0)
	if got == nil || *got != "truth" {
		t.Errorf("expected untainted value after Truth, got %v", got)
	}
}

func TestSetIsNeverTaintedByLying(t *testing.T) {
	s := New(5)
	s.Lie()
	s.Set(0, word("truth"))

	snap := s.Snapshot()
	if snap[0] == nil || *snap[0] != "truth" {
		t.Errorf("expected Set to store the raw value, got %v", snap[0])
	}
}

func TestSnapshotSizeMatchesStoreSize(t *testing.T) {
	s := New(5)
	if len(s.Snapshot()) != 5 {
		t.Errorf("expected snapshot of length 5, got %d", len(s.Snapshot()))
	}
}
