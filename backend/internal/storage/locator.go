package storage

import (
	"context"
	"io"
	"os"
	"path"

	"vincit.fi/photo-gallery/api/apitype"
	"vincit.fi/photo-gallery/backend/internal/database"
	"vincit.fi/photo-gallery/common/logger"
	"vincit.fi/photo-gallery/common/util"
)

// RefInfo describes the file behind an image ref.
type RefInfo struct {
	DisplayName string
	MimeType    string
	// Path is the OS path for raw path and indexed refs. It is empty
	// for tree refs which are only reachable through their tree.
	Path string
	Size int64
}

// Locator maps folder names and image refs to concrete storage. The
// granted external tree is preferred over the local photos root.
type Locator struct {
	local      *DirTree
	grant      *Grant
	mediaStore *database.MediaStore
}

func NewLocator(local *DirTree, grant *Grant, mediaStore *database.MediaStore) *Locator {
	return &Locator{
		local:      local,
		grant:      grant,
		mediaStore: mediaStore,
	}
}

func (s *Locator) LocalTree() *DirTree {
	return s.local
}

// ActiveTree is the granted tree if there is one, otherwise the local
// photos root.
func (s *Locator) ActiveTree() Tree {
	if tree, ok := s.grant.Current(); ok {
		return tree
	}
	return s.local
}

// Resolve returns the location of an existing folder. Blank names,
// path-like names, hidden directories and missing directories are not
// resolvable.
func (s *Locator) Resolve(name string) (apitype.Location, bool) {
	if !util.IsValidFolderName(name) {
		return apitype.Location{}, false
	}
	tree := s.ActiveTree()
	info, err := tree.Stat(name)
	if err != nil || !info.IsDir() {
		return apitype.Location{}, false
	}
	return tree.Location(name), true
}

// Target returns the location a folder with the name would have in
// the active tree whether it exists or not.
func (s *Locator) Target(name string) (apitype.Location, bool) {
	if !util.IsValidFolderName(name) {
		return apitype.Location{}, false
	}
	return s.ActiveTree().Location(name), true
}

// Describe looks up the display name and path of ref without opening it.
func (s *Locator) Describe(ctx context.Context, ref apitype.ImageRef) (*RefInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, apitype.WrapError("describe", ref.String(), err)
	}

	switch ref.Kind() {
	case apitype.IndexedRef:
		id, _ := ref.IndexId()
		entry, err := s.mediaStore.FindById(id)
		if err != nil {
			return nil, apitype.WrapError("describe", ref.String(), err)
		}
		return newRefInfo(entry.FileName, entry.Path, entry.ByteSize), nil
	case apitype.FileRef:
		info, err := os.Stat(ref.Path())
		if err != nil {
			return nil, apitype.WrapError("describe", ref.String(), err)
		}
		return newRefInfo(info.Name(), ref.Path(), info.Size()), nil
	case apitype.TreeRef:
		tree, err := s.treeOf(ref)
		if err != nil {
			return nil, err
		}
		info, err := tree.Stat(ref.RelPath())
		if err != nil {
			return nil, apitype.WrapError("describe", ref.String(), err)
		}
		return newRefInfo(path.Base(ref.RelPath()), "", info.Size()), nil
	}
	return nil, apitype.NewOperationError("describe", apitype.Unsupported, ref.String(), nil)
}

// OpenRef opens a read stream to the image. The caller closes it.
func (s *Locator) OpenRef(ctx context.Context, ref apitype.ImageRef) (io.ReadCloser, *RefInfo, error) {
	info, err := s.Describe(ctx, ref)
	if err != nil {
		return nil, nil, err
	}

	var stream io.ReadCloser
	if ref.Kind() == apitype.TreeRef {
		tree, err := s.treeOf(ref)
		if err != nil {
			return nil, nil, err
		}
		stream, err = tree.Open(ref.RelPath())
		if err != nil {
			return nil, nil, apitype.WrapError("open", ref.String(), err)
		}
	} else if stream, err = os.Open(info.Path); err != nil {
		return nil, nil, apitype.WrapError("open", ref.String(), err)
	}
	return stream, info, nil
}

// Remove deletes the file behind ref. An indexed ref is also removed
// from the index. The returned path is the removed OS path or empty
// for tree refs.
func (s *Locator) Remove(ctx context.Context, ref apitype.ImageRef) (string, error) {
	if ref.Kind() == apitype.TreeRef {
		tree, err := s.treeOf(ref)
		if err != nil {
			return "", err
		}
		logger.Debug.Printf("Deleting '%s' from tree '%s'", ref.RelPath(), tree.Id())
		return "", apitype.WrapError("delete", ref.String(), tree.Remove(ref.RelPath()))
	}

	info, err := s.Describe(ctx, ref)
	if err != nil {
		return "", err
	}
	if err := util.RemoveFile(info.Path); err != nil {
		return "", apitype.WrapError("delete", ref.String(), err)
	}
	if id, ok := ref.IndexId(); ok {
		if err := s.mediaStore.DeleteById(id); err != nil {
			logger.Warn.Printf("Could not remove '%s' from the index: %s", ref, err)
		}
	}
	return info.Path, nil
}

// treeOf returns the granted tree a tree ref points into. Refs of a
// released or replaced grant are no longer accessible.
func (s *Locator) treeOf(ref apitype.ImageRef) (Tree, error) {
	tree, ok := s.grant.Current()
	if !ok || tree.Id() != ref.TreeId() {
		return nil, apitype.NewOperationError("access", apitype.PermissionDenied, ref.String(), os.ErrPermission)
	}
	return tree, nil
}

func newRefInfo(name string, osPath string, size int64) *RefInfo {
	if name == "" || name == "." || name == "/" {
		name = apitype.DefaultDisplayName
	}
	return &RefInfo{
		DisplayName: name,
		MimeType:    apitype.MimeTypeOf(name),
		Path:        osPath,
		Size:        size,
	}
}
