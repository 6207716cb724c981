package api

import (
	"context"

	"vincit.fi/photo-gallery/api/apitype"
)

// GalleryService is the boundary towards the presentation layer. None
// of the methods panic or return errors; failures are reported through
// the boolean/outcome values and the ShowError topic.
type GalleryService interface {
	LoadImages(ctx context.Context) *apitype.ImagesSnapshot
	LoadImagesFromFolder(ctx context.Context, query *FolderQuery) *apitype.ImagesSnapshot
	LoadFolders(ctx context.Context) *apitype.FoldersSnapshot

	CreateFolder(ctx context.Context, command *CreateFolderCommand) bool
	DeleteFolder(ctx context.Context, command *DeleteFolderCommand) bool
	RenameFolder(ctx context.Context, command *RenameFolderCommand) bool
	MoveImagesToFolder(ctx context.Context, command *MoveImagesCommand) (bool, *apitype.MoveReport)

	DeleteImage(ctx context.Context, command *DeleteImageCommand) apitype.DeleteOutcome
	ResolveConsent(ctx context.Context, command *ResolveConsentCommand) apitype.DeleteOutcome

	SetExternalGrant(ctx context.Context, root string) bool
	ClearExternalGrant(ctx context.Context)

	Images() *apitype.ImagesSnapshot
	Folders() *apitype.FoldersSnapshot

	Close()
}

// Source lists images and folders from one backing view.
type Source interface {
	Name() string
	ListAllImages(ctx context.Context) ([]apitype.ImageRef, error)
	ListImagesInFolder(ctx context.Context, name string) ([]apitype.ImageRef, error)
	ListFolders(ctx context.Context) ([]*apitype.Folder, error)
}

// MediaScanner keeps the structured index in sync with the disk. The
// owner is recorded for entries created by the scan.
type MediaScanner interface {
	Scan(ctx context.Context, owner string, paths ...string) error
}

// DeletionGuard tells if removing an image needs the user's consent.
// Moves consult it before removing the source of a copied image.
type DeletionGuard interface {
	NeedsConsent(ref apitype.ImageRef) (bool, error)
}
