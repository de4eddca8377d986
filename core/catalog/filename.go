package catalog

import (
	"path"
	"strings"

	"ajnadfm/model"
)

// DefaultArtist is assumed when a filename carries no artist part.
const DefaultArtist = "AJNAD"

// audioExtensions is the allow-list used to classify bucket entries.
var audioExtensions = map[string]bool{
	"mp3":  true,
	"m4a":  true,
	"aac":  true,
	"wav":  true,
	"ogg":  true,
	"flac": true,
	"webm": true,
}

// IsAudioFile reports whether the entry name has an allow-listed audio
// extension.
func IsAudioFile(name string) bool {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
	return ext != "" && audioExtensions[ext]
}

// ParseFilename derives artist and title from an object's base name.
// The name without extension is split on the first literal " - ":
// the left side is the artist, the rest the title. Without a separator
// the artist defaults to DefaultArtist and the title to the bare name.
func ParseFilename(objectPath string) (artist, title string) {
	base := path.Base(objectPath)
	nameNoExt := strings.TrimSuffix(base, path.Ext(base))

	artist = DefaultArtist
	title = nameNoExt

	parts := strings.Split(nameNoExt, " - ")
	if len(parts) >= 2 {
		if a := strings.TrimSpace(parts[0]); a != "" {
			artist = a
		}
		if t := strings.TrimSpace(strings.Join(parts[1:], " - ")); t != "" {
			title = t
		}
	}
	return artist, title
}

// FilterByQuery keeps rows whose "title artist" contains the term,
// case-insensitively. An empty term keeps everything.
func FilterByQuery(rows []model.Nasheed, q string) []model.Nasheed {
	term := strings.ToLower(strings.TrimSpace(q))
	if term == "" {
		return rows
	}

	out := make([]model.Nasheed, 0, len(rows))
	for _, row := range rows {
		haystack := strings.ToLower(row.Title + " " + row.Artist)
		if strings.Contains(haystack, term) {
			out = append(out, row)
		}
	}
	return out
}
