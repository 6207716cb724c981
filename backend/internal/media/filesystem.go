package media

import (
	"context"
	"errors"
	"io/fs"
	"path"
	"sort"
	"time"

	"vincit.fi/photo-gallery/api"
	"vincit.fi/photo-gallery/api/apitype"
	"vincit.fi/photo-gallery/backend/internal/storage"
	"vincit.fi/photo-gallery/common/logger"
)

// FilesystemSource lists images by reading a directory tree directly.
// Images are ordered newest first by modification time.
type FilesystemSource struct {
	tree storage.Tree

	api.Source
}

func NewFilesystemSource(tree storage.Tree) *FilesystemSource {
	return &FilesystemSource{
		tree: tree,
	}
}

type imageFile struct {
	rel     string
	modTime time.Time
}

func (s *FilesystemSource) Name() string {
	return "filesystem:" + s.tree.Id()
}

func (s *FilesystemSource) ListAllImages(ctx context.Context) ([]apitype.ImageRef, error) {
	var files []imageFile
	err := s.tree.Walk(ctx, "", func(rel string, info fs.FileInfo) error {
		if info.Mode().IsRegular() && apitype.IsSupportedImage(info.Name()) {
			files = append(files, imageFile{rel: rel, modTime: info.ModTime()})
		}
		return nil
	})
	if err != nil {
		return nil, apitype.WrapError("list images", apitype.AllImages, err)
	}
	return s.toRefs(files), nil
}

func (s *FilesystemSource) ListImagesInFolder(ctx context.Context, name string) ([]apitype.ImageRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, apitype.WrapError("list images", name, err)
	}
	entries, err := s.tree.ReadDir(name)
	if err != nil {
		return nil, apitype.WrapError("list images", name, err)
	}

	var files []imageFile
	for _, entry := range entries {
		if entry.IsDir() || !apitype.IsSupportedImage(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			logger.Debug.Printf("Skipping '%s': %s", entry.Name(), err)
			continue
		}
		if info.Mode().IsRegular() {
			files = append(files, imageFile{rel: path.Join(name, entry.Name()), modTime: info.ModTime()})
		}
	}
	return s.toRefs(files), nil
}

func (s *FilesystemSource) ListFolders(ctx context.Context) ([]*apitype.Folder, error) {
	names, err := listDirectories(ctx, s.tree)
	if err != nil {
		return nil, err
	}

	folders := make([]*apitype.Folder, 0, len(names))
	for _, name := range names {
		images, err := s.ListImagesInFolder(ctx, name)
		if err != nil {
			return nil, err
		}
		folders = append(folders, apitype.NewFolder(name, s.tree.Location(name), images))
	}
	return folders, nil
}

func (s *FilesystemSource) toRefs(files []imageFile) []apitype.ImageRef {
	sort.Slice(files, func(i, j int) bool {
		if files[i].modTime.Equal(files[j].modTime) {
			return files[i].rel < files[j].rel
		}
		return files[i].modTime.After(files[j].modTime)
	})
	refs := make([]apitype.ImageRef, len(files))
	for i, file := range files {
		refs[i] = s.tree.Ref(file.rel)
	}
	return refs
}

// listDirectories returns the first level directories of the tree
// that can be shown as folders.
func listDirectories(ctx context.Context, tree storage.Tree) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, apitype.WrapError("list folders", tree.Root(), err)
	}
	entries, err := tree.ReadDir("")
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn.Printf("Root '%s' does not exist", tree.Root())
		return nil, nil
	} else if err != nil {
		return nil, apitype.WrapError("list folders", tree.Root(), err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() && !apitype.IsIgnoredDirectory(entry.Name()) {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}
