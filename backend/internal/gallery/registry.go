package gallery

import (
	"context"

	"vincit.fi/photo-gallery/api"
	"vincit.fi/photo-gallery/api/apitype"
	"vincit.fi/photo-gallery/backend/internal/relocation"
	"vincit.fi/photo-gallery/common"
	"vincit.fi/photo-gallery/common/logger"
)

// Registry keeps the published folder and image views in sync with
// storage. Every mutation is followed by a reload of the views.
type Registry struct {
	source     api.Source
	engine     *relocation.Engine
	state      *State
	folderSort apitype.FolderSort
}

func NewRegistry(params *common.Params, source api.Source, engine *relocation.Engine, state *State) *Registry {
	return &Registry{
		source:     source,
		engine:     engine,
		state:      state,
		folderSort: params.FolderSort(),
	}
}

// Refresh lists the folders and replaces the published folder snapshot.
// The returned snapshot is the published one, which may be newer than
// the one this call produced.
func (s *Registry) Refresh(ctx context.Context) (*apitype.FoldersSnapshot, error) {
	ticket := s.state.NextTicket()
	folders, err := s.source.ListFolders(ctx)
	if err != nil {
		return nil, err
	}
	apitype.SortFolders(folders, s.folderSort)
	s.state.PublishFolders(&apitype.FoldersSnapshot{Seq: ticket, Folders: folders})
	return s.state.Folders(), nil
}

// LoadImages lists the images of the folder, or all images with
// AllImages, and replaces the published image snapshot.
func (s *Registry) LoadImages(ctx context.Context, folder string) (*apitype.ImagesSnapshot, error) {
	ticket := s.state.NextTicket()
	var images []apitype.ImageRef
	var err error
	if folder == apitype.AllImages {
		images, err = s.source.ListAllImages(ctx)
	} else {
		images, err = s.source.ListImagesInFolder(ctx, folder)
	}
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []apitype.ImageRef{}
	}
	s.state.PublishImages(&apitype.ImagesSnapshot{Seq: ticket, Folder: folder, Images: images})
	return s.state.Images(), nil
}

func (s *Registry) CreateFolder(ctx context.Context, name string) error {
	if _, err := s.engine.CreateFolder(ctx, name); err != nil {
		return err
	}
	_, err := s.Refresh(ctx)
	return err
}

func (s *Registry) DeleteFolder(ctx context.Context, name string) error {
	if err := s.engine.DeleteFolder(ctx, name); err != nil {
		return err
	}
	return s.reload(ctx, name, apitype.AllImages)
}

func (s *Registry) RenameFolder(ctx context.Context, oldName string, newName string) error {
	if _, err := s.engine.RenameFolder(ctx, oldName, newName); err != nil {
		return err
	}
	return s.reload(ctx, oldName, newName)
}

// MoveImages reloads the views even when the batch was cut short, as
// part of it may have been moved.
func (s *Registry) MoveImages(ctx context.Context, selection []apitype.ImageRef, folder string, reporter api.ProgressReporter) (*apitype.MoveReport, error) {
	report, err := s.engine.MoveImages(ctx, selection, folder, reporter)
	if report == nil {
		return nil, err
	}
	if reloadErr := s.reload(context.WithoutCancel(ctx), "", ""); reloadErr != nil {
		logger.Warn.Printf("Reloading after move failed: %s", reloadErr)
	}
	return report, err
}

// Reload refreshes the folders and reloads the currently shown images.
func (s *Registry) Reload(ctx context.Context) error {
	return s.reload(ctx, "", "")
}

// reload refreshes both views. If the shown folder is named replaced
// the image view switches to replacement.
func (s *Registry) reload(ctx context.Context, replaced string, replacement string) error {
	if _, err := s.Refresh(ctx); err != nil {
		return err
	}
	folder := s.state.Images().Folder
	if replaced != "" && folder == replaced {
		logger.Debug.Printf("Shown folder '%s' changed, showing '%s'", replaced, replacement)
		folder = replacement
	}
	_, err := s.LoadImages(ctx, folder)
	return err
}
