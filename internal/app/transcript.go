package app

// TranscriptStore holds the ordered turns of the active conversation. It is
// append-only apart from Reset, which drops the whole sequence at once.
// There is no way to remove or reorder individual turns.
//
// The store is not safe for concurrent use; the session controller is its
// only writer and mutates it from the event loop. Readers get copies via
// Snapshot.
type TranscriptStore struct {
	turns []Turn
}

// NewTranscriptStore returns an empty transcript.
func NewTranscriptStore() *TranscriptStore {
	return &TranscriptStore{}
}

// Append adds turn after everything appended before it.
func (s *TranscriptStore) Append(turn Turn) {
	s.turns = append(s.turns, turn)
}

// Reset discards every turn.
func (s *TranscriptStore) Reset() {
	s.turns = nil
}

// Len reports the number of turns currently held.
func (s *TranscriptStore) Len() int {
	return len(s.turns)
}

// Snapshot returns the turns in insertion order. The result is a copy:
// appends and resets after the call do not show through it.
func (s *TranscriptStore) Snapshot() []Turn {
	if len(s.turns) == 0 {
		return nil
	}
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}
