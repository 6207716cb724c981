package apitype

import (
	"path/filepath"
	"strings"
)

const DefaultDisplayName = "image.jpg"

var supportedFileEndings = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// IsSupportedImage reports whether the file name has one of the
// recognized image extensions. Comparison is case-insensitive.
func IsSupportedImage(fileName string) bool {
	_, ok := supportedFileEndings[strings.ToLower(filepath.Ext(fileName))]
	return ok
}

// MimeTypeOf falls back to JPEG for unknown extensions.
func MimeTypeOf(fileName string) string {
	if mime, ok := supportedFileEndings[strings.ToLower(filepath.Ext(fileName))]; ok {
		return mime
	}
	return "image/jpeg"
}

// IsIgnoredDirectory tells if a directory never shows up as a folder.
func IsIgnoredDirectory(name string) bool {
	return name == "" || strings.HasPrefix(name, ".") || strings.EqualFold(name, "thumbnails")
}
