package models

import (
	"strings"
	"time"
)

// MediaRef points at an audio or video blob in the media store. Path is
// metadata only and is never encrypted.
type MediaRef struct {
	Path     string  `json:"path"`
	MimeType string  `json:"mimeType"`
	Duration float64 `json:"duration"`
	Size     int64   `json:"size"`
}

// ImageRef points at a photo in the media store.
type ImageRef struct {
	Path     string `json:"path"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// MediaKind classifies an attachment by MIME type.
type MediaKind string

const (
	MediaImage   MediaKind = "image"
	MediaAudio   MediaKind = "audio"
	MediaVideo   MediaKind = "video"
	MediaUnknown MediaKind = ""
)

// KindOf maps a MIME type to its MediaKind.
func KindOf(mimeType string) MediaKind {
	major, _, _ := strings.Cut(strings.ToLower(mimeType), "/")
	switch major {
	case "image":
		return MediaImage
	case "audio":
		return MediaAudio
	case "video":
		return MediaVideo
	default:
		return MediaUnknown
	}
}

var mimeExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/heic":      ".heic",
	"audio/webm":      ".webm",
	"audio/ogg":       ".ogg",
	"audio/mpeg":      ".mp3",
	"audio/mp4":       ".m4a",
	"audio/wav":       ".wav",
	"video/webm":      ".webm",
	"video/mp4":       ".mp4",
	"video/quicktime": ".mov",
}

// ExtensionFor returns a file extension for mimeType, ignoring parameters
// such as ";codecs=opus". Unknown types get ".bin".
func ExtensionFor(mimeType string) string {
	base, _, _ := strings.Cut(strings.ToLower(strings.TrimSpace(mimeType)), ";")
	if ext, ok := mimeExtensions[strings.TrimSpace(base)]; ok {
		return ext
	}
	return ".bin"
}

// MimeTypeFor is the inverse lookup used when attaching local files.
func MimeTypeFor(ext string) string {
	ext = strings.ToLower(ext)
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webm":
		return "audio/webm"
	}
	for mt, e := range mimeExtensions {
		if e == ext {
			return mt
		}
	}
	return "application/octet-stream"
}

// Sentiment values produced by the insight collaborator.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentMixed    = "mixed"
)

// AIInsight is the opaque annotation attached to an entry after creation.
type AIInsight struct {
	Sentiment     string    `json:"sentiment"`
	Intensity     float64   `json:"intensity"`
	Summary       string    `json:"summary"`
	SuggestedTags []string  `json:"suggestedTags"`
	AnalyzedAt    time.Time `json:"analyzedAt"`
}
