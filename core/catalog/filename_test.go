package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ajnadfm/model"
)

func TestIsAudioFile(t *testing.T) {
	assert.True(t, IsAudioFile("audio/track.mp3"))
	assert.True(t, IsAudioFile("Track.M4A"))
	assert.True(t, IsAudioFile("nested/dir/take.flac"))
	assert.True(t, IsAudioFile("voice.webm"))

	assert.False(t, IsAudioFile("cover.jpg"))
	assert.False(t, IsAudioFile("notes.txt"))
	assert.False(t, IsAudioFile("noext"))
	assert.False(t, IsAudioFile("trailing."))
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		artist string
		title  string
	}{
		{"artist and title", "Sheikh X - My Title.mp3", "Sheikh X", "My Title"},
		{"no separator defaults artist", "notitle.mp3", DefaultArtist, "notitle"},
		{"separator inside title survives", "Abu Ali - Dawn - Live.mp3", "Abu Ali", "Dawn - Live"},
		{"nested object path uses base name", "audio/2024/Fursan - Qadimun.m4a", "Fursan", "Qadimun"},
		{"blank artist part falls back", " - Only Title.mp3", DefaultArtist, "Only Title"},
		{"hyphen without spaces is not a separator", "Abu-Ali.mp3", DefaultArtist, "Abu-Ali"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artist, title := ParseFilename(tt.path)
			assert.Equal(t, tt.artist, artist)
			assert.Equal(t, tt.title, title)
		})
	}
}

func TestFilterByQuery(t *testing.T) {
	rows := []model.Nasheed{
		{ID: "1", Title: "Qadimun", Artist: "Fursan"},
		{ID: "2", Title: "Dawn", Artist: "Abu Ali"},
		{ID: "3", Title: "Morning Dawn", Artist: "Ensemble"},
	}

	assert.Len(t, FilterByQuery(rows, ""), 3)
	assert.Len(t, FilterByQuery(rows, "   "), 3)

	got := FilterByQuery(rows, "dawn")
	assert.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	// Matches across the "title artist" haystack.
	got = FilterByQuery(rows, "FURSAN")
	assert.Len(t, got, 1)
	assert.Equal(t, "1", got[0].ID)

	assert.Empty(t, FilterByQuery(rows, "nothing"))
}
