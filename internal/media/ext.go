package media

import (
	"path/filepath"
	"strings"
)

var mediaExtensions = map[string]bool{
	".wav": true, ".mp3": true, ".m4a": true, ".aac": true, ".flac": true,
	".ogg": true, ".opus": true, ".wma": true, ".webm": true,
	".mp4": true, ".mov": true, ".mkv": true, ".avi": true, ".m4v": true,
	".mpeg": true, ".mpg": true, ".flv": true, ".wmv": true,
}

// IsMedia reports whether path has an audio or video extension ffmpeg is
// expected to read.
func IsMedia(path string) bool {
	return mediaExtensions[strings.ToLower(filepath.Ext(path))]
}
