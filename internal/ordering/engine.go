package ordering

import (
	"slices"

	"github.com/desertthunder/rehearse/internal/models"
)

// ComputeRenderSequence produces the songs to render, in order.
//
// While lock is held with a snapshot, the snapshot ids are mapped through songs (ids that
// disappeared are dropped) and neither filter nor sort is applied. Otherwise songs are
// filtered by query and stably sorted by the primary level, ties broken by the history
// level; the resulting ids become the new snapshot.
func ComputeRenderSequence(songs []models.Song, query string, sort SortState, lock *LockState) []*models.Song {
	if lock != nil && lock.Locked && len(lock.Snapshot) > 0 {
		return replay(songs, lock.Snapshot)
	}

	seq := Filter(songs, query)
	primary := ComparatorFor(sort.Key, sort.Reverse)
	var secondary Comparator
	if sort.History != nil {
		secondary = ComparatorFor(sort.History.Key, sort.History.Reverse)
	}

	slices.SortStableFunc(seq, func(a, b *models.Song) int {
		if c := primary(a, b); c != 0 || secondary == nil {
			return c
		}
		return secondary(a, b)
	})

	if lock != nil {
		lock.Record(IDs(seq))
	}
	return seq
}

// Render computes the sequence for the store under s.
func (s *State) Render(store *Store) []*models.Song {
	return ComputeRenderSequence(store.Songs(), s.Query, s.Sort, &s.Lock)
}

func replay(songs []models.Song, snapshot []int) []*models.Song {
	byID := make(map[int]*models.Song, len(songs))
	for i := range songs {
		byID[songs[i].ID] = &songs[i]
	}

	seq := make([]*models.Song, 0, len(snapshot))
	for _, id := range snapshot {
		if s, ok := byID[id]; ok {
			seq = append(seq, s)
		}
	}
	return seq
}

// IDs returns the ids of seq in order.
func IDs(seq []*models.Song) []int {
	ids := make([]int, len(seq))
	for i, s := range seq {
		ids[i] = s.ID
	}
	return ids
}
