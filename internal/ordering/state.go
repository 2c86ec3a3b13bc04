package ordering

import "slices"

// SortLevel is a key with its direction.
type SortLevel struct {
	Key     SortKey
	Reverse bool
}

// SortState is the primary sort level plus at most one remembered level used as tiebreak.
type SortState struct {
	SortLevel
	History *SortLevel
}

// DefaultSort is song_number ascending with no history.
func DefaultSort() SortState {
	return SortState{SortLevel: SortLevel{Key: DefaultKey}}
}

// Select applies a click on key.
//
// Selecting the current key flips the direction. Selecting another key demotes the
// current level to history (replacing what was there) and starts the new key ascending,
// so history never holds the primary key.
func (s *SortState) Select(key SortKey) {
	if key == s.Key {
		s.Reverse = !s.Reverse
		return
	}

	prev := s.SortLevel
	s.SortLevel = SortLevel{Key: key}
	s.History = &prev
}

// ToggleReverse flips the direction of the primary key.
func (s *SortState) ToggleReverse() { s.Reverse = !s.Reverse }

// String renders the levels, e.g. "Priority ↓, then # ↑".
func (s SortState) String() string {
	out := s.SortLevel.String()
	if s.History != nil {
		out += ", then " + s.History.String()
	}
	return out
}

func (l SortLevel) String() string {
	if l.Reverse {
		return l.Key.Label() + " ↓"
	}
	return l.Key.Label() + " ↑"
}

// Reset returns to [DefaultSort].
func (s *SortState) Reset() { *s = DefaultSort() }

// LockState freezes the rendered order while held.
type LockState struct {
	Locked   bool
	Snapshot []int
}

// Lock freezes the current snapshot.
func (l *LockState) Lock() { l.Locked = true }

// Unlock releases the freeze. The snapshot is kept and refreshed by the next render.
func (l *LockState) Unlock() { l.Locked = false }

// Record stores ids as the latest rendered order.
func (l *LockState) Record(ids []int) { l.Snapshot = slices.Clone(ids) }

// State is the client-local view state of the song list.
type State struct {
	Sort  SortState
	Query string
	Lock  LockState
}

// NewState returns the initial view state.
func NewState() *State {
	return &State{Sort: DefaultSort()}
}

// SelectSort applies a sort key click and unlocks.
func (s *State) SelectSort(key SortKey) {
	s.Sort.Select(key)
	s.Lock.Unlock()
}

// ToggleReverse flips the direction and unlocks.
func (s *State) ToggleReverse() {
	s.Sort.ToggleReverse()
	s.Lock.Unlock()
}

// ResetSort returns to song_number ascending and unlocks.
func (s *State) ResetSort() {
	s.Sort.Reset()
	s.Lock.Unlock()
}

// SetQuery changes the search text and unlocks.
func (s *State) SetQuery(q string) {
	s.Query = q
	s.Lock.Unlock()
}

// SwitchRepertoire drops the lock and its snapshot, which belonged to the previous list.
func (s *State) SwitchRepertoire() {
	s.Lock = LockState{}
}

// BeginRowAction locks the rendered order ahead of a per-row mutation and its reload.
func (s *State) BeginRowAction() { s.Lock.Lock() }

// CanDrag reports whether manual reordering is allowed in the current view.
func (s *State) CanDrag() bool {
	return s.Sort.Key == DefaultKey && s.Query == ""
}
