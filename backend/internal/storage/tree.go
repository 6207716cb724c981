package storage

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
	"vincit.fi/photo-gallery/api/apitype"
	"vincit.fi/photo-gallery/common/logger"
	"vincit.fi/photo-gallery/common/util"
)

// Tree is a directory subtree addressed with slash separated paths
// relative to its root. The empty path is the root itself.
type Tree interface {
	Id() string
	Kind() apitype.LocationKind
	// Root is the OS path of the tree root.
	Root() string

	Stat(rel string) (fs.FileInfo, error)
	ReadDir(rel string) ([]fs.DirEntry, error)
	Mkdir(rel string) error
	Open(rel string) (io.ReadCloser, error)
	Create(rel string) (io.WriteCloser, error)
	Rename(oldRel string, newRel string) error
	Remove(rel string) error
	RemoveAll(rel string) error

	// Walk visits every file and directory under rel. Ignored
	// directories are not entered. Calls to visit are serialized.
	Walk(ctx context.Context, rel string, visit func(rel string, info fs.FileInfo) error) error

	// Ref returns the image ref of a file inside the tree.
	Ref(rel string) apitype.ImageRef
	// Location returns the location of a directory inside the tree.
	Location(rel string) apitype.Location
}

// DirTree is a Tree on the local file system.
type DirTree struct {
	id   string
	kind apitype.LocationKind
	root string
}

// NewLocalTree returns the tree of the local photos root. Files in it
// are addressed with raw path refs.
func NewLocalTree(root string) *DirTree {
	return &DirTree{
		id:   "local",
		kind: apitype.LocalPath,
		root: filepath.Clean(root),
	}
}

// NewExternalTree returns a granted external tree. Files in it are
// addressed with tree refs carrying the id.
func NewExternalTree(id string, root string) *DirTree {
	return &DirTree{
		id:   id,
		kind: apitype.ExternalTree,
		root: filepath.Clean(root),
	}
}

func (s *DirTree) Id() string {
	return s.id
}

func (s *DirTree) Kind() apitype.LocationKind {
	return s.kind
}

func (s *DirTree) Root() string {
	return s.root
}

// OsPath converts a tree relative path to an OS path. Paths escaping
// the root are mapped to the root.
func (s *DirTree) OsPath(rel string) string {
	cleaned := path.Clean("/" + filepath.ToSlash(rel))
	return filepath.Join(s.root, filepath.FromSlash(strings.TrimPrefix(cleaned, "/")))
}

// RelPath converts an OS path inside the tree to a relative path.
func (s *DirTree) RelPath(osPath string) (string, bool) {
	rel, err := filepath.Rel(s.root, filepath.Clean(osPath))
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	if rel == "." {
		return "", true
	}
	return filepath.ToSlash(rel), true
}

func (s *DirTree) Stat(rel string) (fs.FileInfo, error) {
	return os.Stat(s.OsPath(rel))
}

func (s *DirTree) ReadDir(rel string) ([]fs.DirEntry, error) {
	return os.ReadDir(s.OsPath(rel))
}

func (s *DirTree) Mkdir(rel string) error {
	return os.Mkdir(s.OsPath(rel), util.DirPermission)
}

func (s *DirTree) Open(rel string) (io.ReadCloser, error) {
	return os.Open(s.OsPath(rel))
}

// Create fails if the file already exists.
func (s *DirTree) Create(rel string) (io.WriteCloser, error) {
	return os.OpenFile(s.OsPath(rel), os.O_WRONLY|os.O_CREATE|os.O_EXCL, util.FilePermission)
}

func (s *DirTree) Rename(oldRel string, newRel string) error {
	return os.Rename(s.OsPath(oldRel), s.OsPath(newRel))
}

func (s *DirTree) Remove(rel string) error {
	return os.Remove(s.OsPath(rel))
}

func (s *DirTree) RemoveAll(rel string) error {
	target := s.OsPath(rel)
	if target == s.root {
		return apitype.NewOperationError("remove", apitype.InvalidName, rel, nil)
	}
	return os.RemoveAll(target)
}

func (s *DirTree) Walk(ctx context.Context, rel string, visit func(rel string, info fs.FileInfo) error) error {
	start := s.OsPath(rel)
	conf := &fastwalk.Config{Follow: false}

	var mu sync.Mutex
	return fastwalk.Walk(conf, start, func(fullPath string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			logger.Debug.Printf("Skipping '%s': %s", fullPath, err)
			return nil
		}
		if fullPath == start {
			return nil
		}
		if d.IsDir() && apitype.IsIgnoredDirectory(d.Name()) {
			return fastwalk.SkipDir
		}
		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			logger.Debug.Printf("Skipping '%s': %s", fullPath, err)
			return nil
		}
		relPath, ok := s.RelPath(fullPath)
		if !ok {
			return nil
		}

		mu.Lock()
		defer mu.Unlock()
		return visit(relPath, info)
	})
}

func (s *DirTree) Ref(rel string) apitype.ImageRef {
	if s.kind == apitype.ExternalTree {
		return apitype.NewTreeRef(s.id, rel)
	}
	return apitype.NewFileRef(s.OsPath(rel))
}

func (s *DirTree) Location(rel string) apitype.Location {
	return apitype.Location{
		Kind:   s.kind,
		TreeId: s.id,
		Name:   path.Base(path.Clean("/" + filepath.ToSlash(rel))),
		Path:   s.OsPath(rel),
	}
}
