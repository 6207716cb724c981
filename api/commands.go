package api

import "vincit.fi/photo-gallery/api/apitype"

type ErrorCommand struct {
	Message string
}

type UpdateProgressCommand struct {
	Name       string
	Current    int
	Total      int
	MovedBytes int64
	CanCancel  bool
}

type SetImagesCommand struct {
	Snapshot *apitype.ImagesSnapshot
}

type SetFoldersCommand struct {
	Snapshot *apitype.FoldersSnapshot
}

type FolderQuery struct {
	Name string
}

type CreateFolderCommand struct {
	Name string
}

type DeleteFolderCommand struct {
	Name string
}

type RenameFolderCommand struct {
	OldName string
	NewName string
}

type MoveImagesCommand struct {
	Selection []apitype.ImageRef
	Folder    string
}

type DeleteImageCommand struct {
	Ref apitype.ImageRef
}

type ResolveConsentCommand struct {
	Token    apitype.ConsentToken
	Approved bool
}

type FolderOperationResultCommand struct {
	Operation string
	Name      string
	Success   bool
}

type MoveResultCommand struct {
	Folder  string
	Success bool
	Report  *apitype.MoveReport
}

type DeleteImageResultCommand struct {
	Outcome apitype.DeleteOutcome
}
