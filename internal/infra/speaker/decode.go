package speaker

import (
	"path"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"

	"github.com/osa030/19player/internal/app/source"
)

// ErrUnsupportedFormat is returned for audio the backend cannot decode.
var ErrUnsupportedFormat = errors.New("unsupported audio format")

// Decodable formats.
const (
	formatMP3    = "mp3"
	formatWAV    = "wav"
	formatFLAC   = "flac"
	formatVorbis = "vorbis"
)

var formatsByType = map[string]string{
	"audio/mpeg":      formatMP3,
	"audio/mp3":       formatMP3,
	"audio/wav":       formatWAV,
	"audio/wave":      formatWAV,
	"audio/x-wav":     formatWAV,
	"audio/vnd.wave":  formatWAV,
	"audio/flac":      formatFLAC,
	"audio/x-flac":    formatFLAC,
	"audio/ogg":       formatVorbis,
	"audio/vorbis":    formatVorbis,
	"application/ogg": formatVorbis,
}

var formatsByExt = map[string]string{
	".mp3":  formatMP3,
	".wav":  formatWAV,
	".flac": formatFLAC,
	".ogg":  formatVorbis,
	".oga":  formatVorbis,
}

// formatOf picks a decoder from the content type, falling back to the reference extension.
func formatOf(contentType, ref string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	if f, ok := formatsByType[strings.ToLower(strings.TrimSpace(mediaType))]; ok {
		return f
	}
	return formatsByExt[strings.ToLower(path.Ext(ref))]
}

// decode opens a decoder over obj. The decoder owns obj from then on.
func decode(obj *source.Object, ref string) (beep.StreamSeekCloser, beep.Format, error) {
	var (
		s      beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch f := formatOf(obj.ContentType, ref); f {
	case formatMP3:
		s, format, err = mp3.Decode(obj)
	case formatWAV:
		s, format, err = wav.Decode(obj)
	case formatFLAC:
		s, format, err = flac.Decode(obj)
	case formatVorbis:
		s, format, err = vorbis.Decode(obj)
	default:
		_ = obj.Close()
		return nil, beep.Format{}, errors.Wrapf(ErrUnsupportedFormat, "content_type=%q ref=%s", obj.ContentType, ref)
	}
	if err != nil {
		_ = obj.Close()
		return nil, beep.Format{}, errors.Wrapf(err, "failed to decode %s", ref)
	}
	return s, format, nil
}
