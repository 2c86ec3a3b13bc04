package ordering

import (
	"strings"

	"github.com/desertthunder/rehearse/internal/models"
)

// Filter keeps songs whose title contains query, ignoring case. An empty query keeps everything.
func Filter(songs []models.Song, query string) []*models.Song {
	out := make([]*models.Song, 0, len(songs))
	q := strings.ToLower(query)
	for i := range songs {
		if q == "" || strings.Contains(strings.ToLower(songs[i].Title), q) {
			out = append(out, &songs[i])
		}
	}
	return out
}
