package media

import (
	"context"

	"vincit.fi/photo-gallery/api"
	"vincit.fi/photo-gallery/api/apitype"
	"vincit.fi/photo-gallery/backend/internal/storage"
	"vincit.fi/photo-gallery/common/logger"
)

// Enumerator picks the source for each call: the granted external
// tree is read directly, otherwise the media index is used.
type Enumerator struct {
	locator *storage.Locator
	indexed api.Source

	api.Source
}

func NewEnumerator(locator *storage.Locator, indexed api.Source) *Enumerator {
	return &Enumerator{
		locator: locator,
		indexed: indexed,
	}
}

func (s *Enumerator) source() (api.Source, storage.Tree) {
	tree := s.locator.ActiveTree()
	if tree.Kind() == apitype.ExternalTree {
		return NewFilesystemSource(tree), tree
	}
	return s.indexed, tree
}

func (s *Enumerator) Name() string {
	source, _ := s.source()
	return source.Name()
}

func (s *Enumerator) ListAllImages(ctx context.Context) ([]apitype.ImageRef, error) {
	source, _ := s.source()
	return source.ListAllImages(ctx)
}

func (s *Enumerator) ListImagesInFolder(ctx context.Context, name string) ([]apitype.ImageRef, error) {
	source, _ := s.source()
	return source.ListImagesInFolder(ctx, name)
}

// ListFolders lists the folders of the active source and adds the
// physical directories the source does not know about.
func (s *Enumerator) ListFolders(ctx context.Context) ([]*apitype.Folder, error) {
	source, tree := s.source()
	folders, err := source.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	logger.Debug.Printf("Source '%s' listed %d folders", source.Name(), len(folders))
	return MergePhysicalFolders(ctx, folders, tree)
}

// MergePhysicalFolders appends every first level directory of the
// tree that is missing from folders as an empty folder.
func MergePhysicalFolders(ctx context.Context, folders []*apitype.Folder, tree storage.Tree) ([]*apitype.Folder, error) {
	names, err := listDirectories(ctx, tree)
	if err != nil {
		return nil, err
	}
	merged := append([]*apitype.Folder{}, folders...)
	for _, name := range names {
		if apitype.FindFolder(merged, name) == nil {
			logger.Trace.Printf("Adding empty folder '%s'", name)
			merged = append(merged, apitype.NewEmptyFolder(name, tree.Location(name)))
		}
	}
	return merged, nil
}
