package storage

import (
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const genericContentType = "application/octet-stream"

// DetectContentType sniffs data and falls back to the declared type when the
// bytes are not recognised.
func DetectContentType(data []byte, declared string) string {
	detected := mimetype.Detect(data)
	if detected.Is(genericContentType) && declared != "" {
		return declared
	}
	return detected.String()
}

// ResolveResourceType turns a resource type hint into a concrete one.
// "auto" is resolved from the content type the same way Cloudinary does:
// images are "image", audio and video are "video", anything else is "raw".
func ResolveResourceType(hint, contentType string) string {
	if hint != "" && hint != ResourceTypeAuto {
		return hint
	}
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"), strings.HasPrefix(contentType, "audio/"):
		return "video"
	default:
		return "raw"
	}
}
