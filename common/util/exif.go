package util

import (
	"os"
	"time"

	"github.com/rwcarlsen/goexif/exif"
	"vincit.fi/photo-gallery/common/logger"
)

// LoadCaptureTime reads the capture time of an image from its Exif
// data. Images without Exif data (PNG, WebP, stripped JPEGs) return false.
func LoadCaptureTime(path string) (time.Time, bool) {
	file, err := os.Open(path)
	if err != nil {
		return time.Time{}, false
	}
	defer file.Close()

	decodedExif, err := exif.Decode(file)
	if err != nil {
		logger.Trace.Printf("No Exif data in '%s': %s", path, err)
		return time.Time{}, false
	}

	captured, err := decodedExif.DateTime()
	if err != nil || captured.IsZero() {
		return time.Time{}, false
	}
	return captured, true
}
