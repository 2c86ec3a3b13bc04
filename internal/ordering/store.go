package ordering

import "github.com/desertthunder/rehearse/internal/models"

// Store is the in-memory song list of the active repertoire.
//
// Songs are never patched in place; every reload replaces the list.
type Store struct {
	repertoireID *int
	songs        []models.Song
	index        map[int]int
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{index: map[int]int{}}
}

// Replace swaps in a freshly fetched list for the given repertoire (nil for all songs).
func (s *Store) Replace(repertoireID *int, songs []models.Song) {
	s.repertoireID = repertoireID
	s.songs = songs
	s.index = make(map[int]int, len(songs))
	for i, song := range songs {
		s.index[song.ID] = i
	}
}

// Songs returns the songs in backend order.
func (s *Store) Songs() []models.Song { return s.songs }

// Len returns the number of songs.
func (s *Store) Len() int { return len(s.songs) }

// RepertoireID returns the repertoire the store was loaded for.
func (s *Store) RepertoireID() *int { return s.repertoireID }

// Lookup returns the song with id.
func (s *Store) Lookup(id int) (*models.Song, bool) {
	i, ok := s.index[id]
	if !ok {
		return nil, false
	}
	return &s.songs[i], true
}
