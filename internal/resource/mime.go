package resource

import (
	"path/filepath"
	"strings"
)

const TypeOctetStream = "application/octet-stream"

// knownTypes are the MIME types the engine understands, keyed by extension.
var knownTypes = map[string]string{
	".wav":  "audio/wav",
	".wave": "audio/wav",
	".mp3":  "audio/mp3",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".json": "application/json",
	".txt":  "text/plain",
}

// TypeForFile maps a file name to one of the engine MIME types, falling
// back to application/octet-stream.
func TypeForFile(name string) string {
	if t, ok := knownTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return t
	}
	return TypeOctetStream
}

// Types lists every MIME type a resource record may carry.
func Types() []string {
	return []string{
		"audio/wav",
		"audio/mp3",
		"image/png",
		"image/jpeg",
		"image/gif",
		"application/json",
		"text/plain",
		TypeOctetStream,
	}
}
