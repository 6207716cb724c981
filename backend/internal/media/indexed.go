package media

import (
	"context"
	"strings"

	"vincit.fi/photo-gallery/api"
	"vincit.fi/photo-gallery/api/apitype"
	"vincit.fi/photo-gallery/backend/internal/database"
	"vincit.fi/photo-gallery/backend/internal/storage"
	"vincit.fi/photo-gallery/common/logger"
)

// IndexedSource lists images from the media index. Images are ordered
// newest first by capture time, falling back to the time they were
// added.
type IndexedSource struct {
	mediaStore *database.MediaStore
	tree       *storage.DirTree

	api.Source
}

func NewIndexedSource(mediaStore *database.MediaStore, tree *storage.DirTree) *IndexedSource {
	return &IndexedSource{
		mediaStore: mediaStore,
		tree:       tree,
	}
}

func (s *IndexedSource) Name() string {
	return "index"
}

func (s *IndexedSource) ListAllImages(ctx context.Context) ([]apitype.ImageRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, apitype.WrapError("list images", apitype.AllImages, err)
	}
	entries, err := s.mediaStore.ListAll()
	if err != nil {
		return nil, apitype.WrapError("list images", apitype.AllImages, err)
	}
	return toRefs(entries), nil
}

func (s *IndexedSource) ListImagesInFolder(ctx context.Context, name string) ([]apitype.ImageRef, error) {
	if err := ctx.Err(); err != nil {
		return nil, apitype.WrapError("list images", name, err)
	}
	entries, err := s.mediaStore.ListInBucket(name)
	if err != nil {
		return nil, apitype.WrapError("list images", name, err)
	}
	return toRefs(entries), nil
}

// ListFolders groups the index by the first level directory. Only
// images directly in the directory are counted.
func (s *IndexedSource) ListFolders(ctx context.Context) ([]*apitype.Folder, error) {
	if err := ctx.Err(); err != nil {
		return nil, apitype.WrapError("list folders", apitype.AllImages, err)
	}
	entries, err := s.mediaStore.ListAll()
	if err != nil {
		return nil, apitype.WrapError("list folders", apitype.AllImages, err)
	}

	var names []string
	images := map[string][]apitype.ImageRef{}
	for _, entry := range entries {
		if entry.Bucket == "" {
			continue
		}
		name := strings.SplitN(entry.Bucket, "/", 2)[0]
		if _, ok := images[name]; !ok {
			names = append(names, name)
			images[name] = []apitype.ImageRef{}
		}
		if entry.Bucket == name {
			images[name] = append(images[name], apitype.NewIndexedRef(entry.Id))
		}
	}

	folders := make([]*apitype.Folder, 0, len(names))
	for _, name := range names {
		folders = append(folders, apitype.NewFolder(name, s.tree.Location(name), images[name]))
	}
	logger.Debug.Printf("Found %d folders from %d indexed images", len(folders), len(entries))
	return folders, nil
}

func toRefs(entries []*database.MediaEntry) []apitype.ImageRef {
	refs := make([]apitype.ImageRef, len(entries))
	for i, entry := range entries {
		refs[i] = apitype.NewIndexedRef(entry.Id)
	}
	return refs
}
