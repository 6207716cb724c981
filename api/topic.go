package api

type Topic string

const (
	// Published by the core
	ImagesUpdated           Topic = "event-images-updated"
	FoldersUpdated          Topic = "event-folders-updated"
	ProcessStatusUpdated    Topic = "event-process-status-updated"
	ShowError               Topic = "event-show-error"
	ImageDeleteNeedsConsent Topic = "event-image-delete-needs-consent"

	// Requests handled by the core
	LoadImages           Topic = "request-load-images"
	LoadImagesFromFolder Topic = "request-load-images-from-folder"
	LoadFolders          Topic = "request-load-folders"
	CreateFolder         Topic = "request-create-folder"
	DeleteFolder         Topic = "request-delete-folder"
	RenameFolder         Topic = "request-rename-folder"
	MoveImagesToFolder   Topic = "request-move-images-to-folder"
	DeleteImage          Topic = "request-delete-image"
	ResolveConsent       Topic = "request-resolve-consent"

	// Results of requests
	FolderOperationDone Topic = "event-folder-operation-done"
	MoveDone            Topic = "event-move-done"
	DeleteImageDone     Topic = "event-delete-image-done"
)
