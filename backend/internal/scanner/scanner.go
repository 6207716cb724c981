package scanner

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"vincit.fi/photo-gallery/api"
	"vincit.fi/photo-gallery/api/apitype"
	"vincit.fi/photo-gallery/backend/internal/database"
	"vincit.fi/photo-gallery/backend/internal/storage"
	"vincit.fi/photo-gallery/common/logger"
	"vincit.fi/photo-gallery/common/util"
)

// Scanner keeps the media index in sync with the local photos root.
type Scanner struct {
	tree       *storage.DirTree
	mediaStore *database.MediaStore

	api.MediaScanner
}

func NewScanner(tree *storage.DirTree, mediaStore *database.MediaStore) *Scanner {
	return &Scanner{
		tree:       tree,
		mediaStore: mediaStore,
	}
}

// Scan re-indexes each path. A file is added or updated, a directory
// is synced recursively and a missing path is removed from the index.
// Paths outside the photos root are ignored.
func (s *Scanner) Scan(ctx context.Context, owner string, paths ...string) error {
	var errs []error
	for _, osPath := range paths {
		if err := ctx.Err(); err != nil {
			return apitype.WrapError("scan", osPath, err)
		}
		if err := s.scanPath(ctx, owner, osPath); err != nil {
			logger.Error.Printf("Scanning '%s' failed: %s", osPath, err)
			errs = append(errs, apitype.WrapError("scan", osPath, err))
		}
	}
	return errors.Join(errs...)
}

func (s *Scanner) scanPath(ctx context.Context, owner string, osPath string) error {
	rel, ok := s.tree.RelPath(osPath)
	if !ok {
		logger.Debug.Printf("Not scanning '%s', it is outside of '%s'", osPath, s.tree.Root())
		return nil
	}
	osPath = s.tree.OsPath(rel)

	info, err := os.Stat(osPath)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && isIgnored(rel)) {
		return s.forget(osPath)
	} else if err != nil {
		return err
	}

	if !info.IsDir() {
		if !apitype.IsSupportedImage(info.Name()) {
			return s.forget(osPath)
		}
		_, err := s.mediaStore.Add(s.entryOf(rel, info, owner))
		return err
	}

	startTime := time.Now()
	var found []*database.MediaEntry
	err = s.tree.Walk(ctx, rel, func(fileRel string, fileInfo fs.FileInfo) error {
		if fileInfo.Mode().IsRegular() && apitype.IsSupportedImage(fileInfo.Name()) {
			found = append(found, s.entryOf(fileRel, fileInfo, owner))
		}
		return nil
	})
	if err != nil {
		return err
	}

	added, removed, err := s.mediaStore.SyncDirectory(osPath, found)
	if err != nil {
		return err
	}
	logger.Info.Printf("Scanned '%s' in %s: %d images, %d new, %d removed",
		osPath, time.Since(startTime), len(found), added, removed)
	return nil
}

func (s *Scanner) forget(osPath string) error {
	removed, err := s.mediaStore.DeleteUnder(osPath)
	if err == nil && removed > 0 {
		logger.Debug.Printf("Removed %d entries under '%s' from the index", removed, osPath)
	}
	return err
}

func (s *Scanner) entryOf(rel string, info fs.FileInfo, owner string) *database.MediaEntry {
	osPath := s.tree.OsPath(rel)
	entry := &database.MediaEntry{
		Path:      osPath,
		Bucket:    bucketOf(rel),
		FileName:  info.Name(),
		ByteSize:  info.Size(),
		DateAdded: info.ModTime().UnixNano(),
		Owner:     owner,
	}
	if captured, ok := util.LoadCaptureTime(osPath); ok {
		entry.DateTaken = captured.UnixNano()
	}
	return entry
}

// bucketOf is the slash separated directory of rel, empty for the root.
func bucketOf(rel string) string {
	dir := path.Dir(rel)
	if dir == "." {
		return ""
	}
	return dir
}

func isIgnored(rel string) bool {
	if rel == "" {
		return false
	}
	for _, part := range strings.Split(rel, "/") {
		if apitype.IsIgnoredDirectory(part) {
			return true
		}
	}
	return false
}
