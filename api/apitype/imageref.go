package apitype

import (
	"net/url"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

type RefKind int

const (
	InvalidRef RefKind = iota
	IndexedRef
	FileRef
	TreeRef
)

const (
	contentScheme = "content"
	fileScheme    = "file"
	treeScheme    = "tree"

	indexedImagesPrefix = "/images/"
	indexedAuthority    = "media"
)

func (s RefKind) String() string {
	switch s {
	case IndexedRef:
		return "indexed"
	case FileRef:
		return "file"
	case TreeRef:
		return "tree"
	}
	return "invalid"
}

// ImageRef is an opaque locator to a single image. Two refs are the
// same image when their locators are equal, so ImageRef can be used as
// a map key.
type ImageRef struct {
	uri string
}

var EmptyImageRef = ImageRef{}

func NewIndexedRef(id int64) ImageRef {
	return ImageRef{uri: contentScheme + "://" + indexedAuthority + indexedImagesPrefix + strconv.FormatInt(id, 10)}
}

func NewFileRef(absolutePath string) ImageRef {
	u := url.URL{Scheme: fileScheme, Path: filepath.ToSlash(absolutePath)}
	return ImageRef{uri: u.String()}
}

func NewTreeRef(treeId string, relPath string) ImageRef {
	u := url.URL{Scheme: treeScheme, Host: treeId, Path: "/" + strings.TrimPrefix(filepath.ToSlash(relPath), "/")}
	return ImageRef{uri: u.String()}
}

// ParseImageRef accepts any locator previously produced by String.
func ParseImageRef(value string) (ImageRef, bool) {
	ref := ImageRef{uri: value}
	if ref.Kind() == InvalidRef {
		return EmptyImageRef, false
	}
	return ref, true
}

func (s ImageRef) String() string {
	return s.uri
}

func (s ImageRef) IsValid() bool {
	return s.Kind() != InvalidRef
}

func (s ImageRef) parsed() *url.URL {
	if s.uri == "" {
		return nil
	}
	u, err := url.Parse(s.uri)
	if err != nil {
		return nil
	}
	return u
}

func (s ImageRef) Kind() RefKind {
	u := s.parsed()
	if u == nil {
		return InvalidRef
	}
	switch u.Scheme {
	case contentScheme:
		if _, ok := s.IndexId(); ok {
			return IndexedRef
		}
	case fileScheme:
		if u.Path != "" {
			return FileRef
		}
	case treeScheme:
		if u.Host != "" && len(u.Path) > 1 {
			return TreeRef
		}
	}
	return InvalidRef
}

// IndexId returns the structured index id of a content ref.
func (s ImageRef) IndexId() (int64, bool) {
	u := s.parsed()
	if u == nil || u.Scheme != contentScheme || u.Host != indexedAuthority {
		return 0, false
	}
	if !strings.HasPrefix(u.Path, indexedImagesPrefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(u.Path, indexedImagesPrefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Path returns the OS path of a file ref.
func (s ImageRef) Path() string {
	u := s.parsed()
	if u == nil || u.Scheme != fileScheme {
		return ""
	}
	return filepath.FromSlash(u.Path)
}

func (s ImageRef) TreeId() string {
	u := s.parsed()
	if u == nil || u.Scheme != treeScheme {
		return ""
	}
	return u.Host
}

// RelPath returns the slash separated path of a tree ref inside its tree.
func (s ImageRef) RelPath() string {
	u := s.parsed()
	if u == nil || u.Scheme != treeScheme {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}

// BaseName is the last path element for file and tree refs. Indexed
// refs carry no name; it has to be looked up from the index.
func (s ImageRef) BaseName() string {
	switch s.Kind() {
	case FileRef:
		return filepath.Base(s.Path())
	case TreeRef:
		return path.Base(s.RelPath())
	}
	return ""
}
