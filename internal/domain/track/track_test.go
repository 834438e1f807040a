package track

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrack_IsProtected(t *testing.T) {
	tests := []struct {
		name     string
		origin   Origin
		expected bool
	}{
		{name: "built-in track", origin: OriginBuiltIn, expected: true},
		{name: "uploaded track", origin: OriginUploaded, expected: false},
		{name: "zero origin", origin: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trk := &Track{ID: "test-id", Origin: tt.origin}
			assert.Equal(t, tt.expected, trk.IsProtected())
		})
	}
}

func TestTrack_HasSource(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected bool
	}{
		{name: "memory ref", source: "mem:0b6f", expected: true},
		{name: "file path", source: "/music/song.mp3", expected: true},
		{name: "empty", source: "", expected: false},
		{name: "whitespace", source: "   ", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trk := &Track{ID: "test-id", Source: tt.source}
			assert.Equal(t, tt.expected, trk.HasSource())
		})
	}
}

func TestNameFromFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{input: "song.mp3", expected: "song"},
		{input: "my.favourite.song.flac", expected: "my.favourite.song"},
		{input: "no-extension", expected: "no-extension"},
		{input: "/tmp/uploads/track.wav", expected: "track"},
		{input: ".mp3", expected: ".mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NameFromFilename(tt.input))
		})
	}
}
