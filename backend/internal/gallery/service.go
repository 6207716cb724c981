package gallery

import (
	"context"

	"vincit.fi/photo-gallery/api"
	"vincit.fi/photo-gallery/api/apitype"
	"vincit.fi/photo-gallery/backend/internal/gate"
	"vincit.fi/photo-gallery/backend/internal/storage"
	"vincit.fi/photo-gallery/common/logger"
	"vincit.fi/photo-gallery/common/util"
)

type Service struct {
	sender   api.Sender
	registry *Registry
	gate     *gate.Gate
	grant    *storage.Grant
	state    *State
	reporter api.ProgressReporter

	api.GalleryService
}

func NewGalleryService(sender api.Sender, registry *Registry, deletionGate *gate.Gate, grant *storage.Grant, state *State) api.GalleryService {
	return newService(sender, registry, deletionGate, grant, state)
}

// For tests where some private methods are tested
func newService(sender api.Sender, registry *Registry, deletionGate *gate.Gate, grant *storage.Grant, state *State) *Service {
	return &Service{
		sender:   sender,
		registry: registry,
		gate:     deletionGate,
		grant:    grant,
		state:    state,
		reporter: api.NewSenderProgressReporter(sender),
	}
}

func (s *Service) LoadImages(ctx context.Context) *apitype.ImagesSnapshot {
	return s.loadImages(ctx, apitype.AllImages)
}

func (s *Service) LoadImagesFromFolder(ctx context.Context, query *api.FolderQuery) *apitype.ImagesSnapshot {
	return s.loadImages(ctx, query.Name)
}

func (s *Service) loadImages(ctx context.Context, folder string) *apitype.ImagesSnapshot {
	if snapshot, err := s.registry.LoadImages(ctx, folder); err != nil {
		s.sender.SendError("Could not load images", err)
		return s.state.Images()
	} else {
		return snapshot
	}
}

func (s *Service) LoadFolders(ctx context.Context) *apitype.FoldersSnapshot {
	if snapshot, err := s.registry.Refresh(ctx); err != nil {
		s.sender.SendError("Could not load folders", err)
		return s.state.Folders()
	} else {
		return snapshot
	}
}

func (s *Service) CreateFolder(ctx context.Context, command *api.CreateFolderCommand) bool {
	return s.report("Could not create folder '"+command.Name+"'",
		s.registry.CreateFolder(ctx, command.Name))
}

func (s *Service) DeleteFolder(ctx context.Context, command *api.DeleteFolderCommand) bool {
	return s.report("Could not delete folder '"+command.Name+"'",
		s.registry.DeleteFolder(ctx, command.Name))
}

func (s *Service) RenameFolder(ctx context.Context, command *api.RenameFolderCommand) bool {
	return s.report("Could not rename folder '"+command.OldName+"' to '"+command.NewName+"'",
		s.registry.RenameFolder(ctx, command.OldName, command.NewName))
}

// MoveImagesToFolder succeeds when the batch ran to the end. Items
// that failed individually are only visible in the report.
func (s *Service) MoveImagesToFolder(ctx context.Context, command *api.MoveImagesCommand) (bool, *apitype.MoveReport) {
	report, err := s.registry.MoveImages(ctx, command.Selection, command.Folder, s.reporter)
	if report != nil && report.Outcome() != apitype.FullyMoved {
		logger.Warn.Printf("%s: %d/%d images moved to '%s'",
			report.Outcome(), report.MovedCount(), len(report.Results), command.Folder)
	}
	return s.report("Could not move images to '"+command.Folder+"'", err), report
}

func (s *Service) DeleteImage(ctx context.Context, command *api.DeleteImageCommand) apitype.DeleteOutcome {
	outcome := s.gate.DeleteImage(ctx, command.Ref)
	s.handleDeleteOutcome(ctx, outcome)
	return outcome
}

func (s *Service) ResolveConsent(ctx context.Context, command *api.ResolveConsentCommand) apitype.DeleteOutcome {
	outcome := s.gate.ResolveConsent(ctx, command.Token, command.Approved)
	s.handleDeleteOutcome(ctx, outcome)
	return outcome
}

func (s *Service) handleDeleteOutcome(ctx context.Context, outcome apitype.DeleteOutcome) {
	switch outcome.Status {
	case apitype.Deleted:
		if err := s.registry.Reload(ctx); err != nil {
			s.sender.SendError("Could not reload after delete", err)
		}
	case apitype.NeedsUserConsent:
		s.sender.SendCommandToTopic(api.ImageDeleteNeedsConsent, &api.DeleteImageResultCommand{Outcome: outcome})
	case apitype.Failed:
		s.sender.SendError("Could not delete image", outcome.Err)
	}
}

// SetExternalGrant makes the directory the active storage for all
// folder and image operations.
func (s *Service) SetExternalGrant(ctx context.Context, root string) bool {
	if !util.IsDirectory(root) {
		s.sender.SendError("Could not use '"+root+"'",
			apitype.NewOperationError("grant", apitype.NotFound, root, nil))
		return false
	}
	s.grant.Set(storage.NewGrantedTree(root))
	return s.report("Could not load granted storage", s.reloadAll(ctx))
}

func (s *Service) ClearExternalGrant(ctx context.Context) {
	s.grant.Clear()
	if err := s.reloadAll(ctx); err != nil {
		s.sender.SendError("Could not reload local storage", err)
	}
}

// reloadAll reloads both views showing all images. The shown folder
// may not exist in the newly active storage.
func (s *Service) reloadAll(ctx context.Context) error {
	return s.registry.reload(ctx, s.state.Images().Folder, apitype.AllImages)
}

func (s *Service) Images() *apitype.ImagesSnapshot {
	return s.state.Images()
}

func (s *Service) Folders() *apitype.FoldersSnapshot {
	return s.state.Folders()
}

func (s *Service) Close() {
	logger.Info.Print("Shutting down gallery service")
}

func (s *Service) report(message string, err error) bool {
	if err != nil {
		logger.Warn.Printf("%s: %s", message, err)
		s.sender.SendError(message, err)
		return false
	}
	return true
}
