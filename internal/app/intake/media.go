package intake

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const genericMediaType = "application/octet-stream"

// normalizeMediaType lowercases t and strips parameters.
func normalizeMediaType(t string) string {
	t, _, _ = strings.Cut(t, ";")
	return strings.ToLower(strings.TrimSpace(t))
}

func isAudio(t string) bool {
	return strings.HasPrefix(t, "audio/")
}

// SniffAudioType detects the audio media type of data.
// The detected type and its parents are walked; empty if none is audio.
func SniffAudioType(data []byte) string {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if t := normalizeMediaType(m.String()); isAudio(t) {
			return t
		}
	}
	return ""
}

// MediaType returns the effective media type of f.
// A declared type wins unless it is empty or generic, in which case the content is sniffed.
func MediaType(f File) string {
	declared := normalizeMediaType(f.ContentType)
	if declared != "" && declared != genericMediaType {
		return declared
	}
	if sniffed := SniffAudioType(f.Data); sniffed != "" {
		return sniffed
	}
	return declared
}
