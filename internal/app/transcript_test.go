package app

import (
	"reflect"
	"testing"
)

func TestTranscriptAppendPreservesOrder(t *testing.T) {
	store := NewTranscriptStore()

	first := NewUserTurn("what is a goroutine?")
	second := NewAssistantTurn("A goroutine is a lightweight thread.", nil)
	third := NewUserTurn("and a channel?")

	store.Append(first)
	store.Append(second)
	store.Append(third)

	if store.Len() != 3 {
		t.Fatalf("expected 3 turns, got %d", store.Len())
	}

	got := store.Snapshot()
	wantIDs := []string{first.ID, second.ID, third.ID}
	for i, turn := range got {
		if turn.ID != wantIDs[i] {
			t.Fatalf("turn %d: got ID %s, want %s", i, turn.ID, wantIDs[i])
		}
	}
}

func TestTranscriptSnapshotIsIsolatedCopy(t *testing.T) {
	store := NewTranscriptStore()
	store.Append(NewUserTurn("first"))

	snap := store.Snapshot()
	store.Append(NewUserTurn("second"))

	if len(snap) != 1 {
		t.Fatalf("snapshot grew after append: len %d", len(snap))
	}

	snap[0].Content = "mutated"
	if got := store.Snapshot()[0].Content; got != "first" {
		t.Fatalf("store content changed through snapshot: %q", got)
	}
}

func TestTranscriptSnapshotAfterReset(t *testing.T) {
	store := NewTranscriptStore()
	store.Append(NewUserTurn("hello"))
	store.Append(NewAssistantTurn("hi there", nil))

	before := store.Snapshot()
	store.Reset()

	if store.Len() != 0 {
		t.Fatalf("expected empty store after reset, got %d turns", store.Len())
	}
	if store.Snapshot() != nil {
		t.Fatalf("expected nil snapshot from empty store")
	}
	if len(before) != 2 {
		t.Fatalf("pre-reset snapshot affected by reset: len %d", len(before))
	}
}

func TestTranscriptEmptySnapshotIsNil(t *testing.T) {
	store := NewTranscriptStore()
	if got := store.Snapshot(); got != nil {
		t.Fatalf("expected nil, got %#v", got)
	}
}

func TestAssistantTurnCopiesSources(t *testing.T) {
	sources := []Source{{Title: "Go docs", URL: "https://go.dev/doc/"}}
	turn := NewAssistantTurn("see the docs", sources)

	sources[0].Title = "clobbered"
	want := []Source{{Title: "Go docs", URL: "https://go.dev/doc/"}}
	if !reflect.DeepEqual(turn.Sources, want) {
		t.Fatalf("turn sources mutated through caller slice: %#v", turn.Sources)
	}
}
