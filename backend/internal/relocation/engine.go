package relocation

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"vincit.fi/photo-gallery/api"
	"vincit.fi/photo-gallery/api/apitype"
	"vincit.fi/photo-gallery/backend/internal/storage"
	"vincit.fi/photo-gallery/common"
	"vincit.fi/photo-gallery/common/logger"
	"vincit.fi/photo-gallery/common/util"
)

// Engine performs folder mutations and image moves on the active
// storage and asks the scanner to re-index what changed.
type Engine struct {
	locator  *storage.Locator
	scanner  api.MediaScanner
	guard    api.DeletionGuard
	onExists apitype.OnExistsPolicy
	owner    string
}

func NewEngine(params *common.Params, locator *storage.Locator, scanner api.MediaScanner, guard api.DeletionGuard) *Engine {
	return &Engine{
		locator:  locator,
		scanner:  scanner,
		guard:    guard,
		onExists: params.OnExists(),
		owner:    params.Owner(),
	}
}

// CreateFolder creates an empty folder in the active storage. An
// existing folder is accepted only with the OnExistsSucceed policy.
func (s *Engine) CreateFolder(ctx context.Context, name string) (apitype.Location, error) {
	if !util.IsValidFolderName(name) {
		return apitype.Location{}, apitype.NewOperationError("create folder", apitype.InvalidName, name, nil)
	}
	if err := ctx.Err(); err != nil {
		return apitype.Location{}, apitype.WrapError("create folder", name, err)
	}

	tree := s.locator.ActiveTree()
	location := tree.Location(name)
	if info, err := tree.Stat(name); err == nil {
		if info.IsDir() && s.onExists == apitype.OnExistsSucceed {
			logger.Debug.Printf("Folder '%s' already exists", name)
			return location, nil
		}
		return apitype.Location{}, apitype.NewOperationError("create folder", apitype.AlreadyExists, name, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return apitype.Location{}, apitype.WrapError("create folder", name, err)
	}

	if err := tree.Mkdir(name); err != nil {
		return apitype.Location{}, apitype.WrapError("create folder", name, err)
	}
	logger.Info.Printf("Created folder '%s' in '%s'", name, tree.Root())
	return location, nil
}

// DeleteFolder removes the folder and everything in it.
func (s *Engine) DeleteFolder(ctx context.Context, name string) error {
	if !util.IsValidFolderName(name) {
		return apitype.NewOperationError("delete folder", apitype.InvalidName, name, nil)
	}
	location, ok := s.locator.Resolve(name)
	if !ok {
		return apitype.NewOperationError("delete folder", apitype.NotFound, name, fs.ErrNotExist)
	}
	if err := ctx.Err(); err != nil {
		return apitype.WrapError("delete folder", name, err)
	}

	if err := s.locator.ActiveTree().RemoveAll(name); err != nil {
		return apitype.WrapError("delete folder", name, err)
	}
	logger.Info.Printf("Deleted folder '%s'", location.Path)
	s.rescan(ctx, location)
	return nil
}

// RenameFolder renames a folder in place. Renaming onto an existing
// folder fails without touching either of them.
func (s *Engine) RenameFolder(ctx context.Context, oldName string, newName string) (apitype.Location, error) {
	if !util.IsValidFolderName(newName) {
		return apitype.Location{}, apitype.NewOperationError("rename folder", apitype.InvalidName, newName, nil)
	}
	oldLocation, ok := s.locator.Resolve(oldName)
	if !ok {
		return apitype.Location{}, apitype.NewOperationError("rename folder", apitype.NotFound, oldName, fs.ErrNotExist)
	}
	if err := ctx.Err(); err != nil {
		return apitype.Location{}, apitype.WrapError("rename folder", oldName, err)
	}

	tree := s.locator.ActiveTree()
	if _, err := tree.Stat(newName); err == nil {
		return apitype.Location{}, apitype.NewOperationError("rename folder", apitype.AlreadyExists, newName, fs.ErrExist)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return apitype.Location{}, apitype.WrapError("rename folder", newName, err)
	}

	if err := tree.Rename(oldName, newName); err != nil {
		return apitype.Location{}, apitype.WrapError("rename folder", oldName, err)
	}
	newLocation := tree.Location(newName)
	logger.Info.Printf("Renamed folder '%s' to '%s'", oldLocation.Path, newLocation.Path)
	s.rescan(ctx, oldLocation, newLocation)
	return newLocation, nil
}

// MoveImages moves the selection into the folder, creating the folder
// if needed. Failing items do not stop the batch; the report tells the
// state of each item. Cancellation is checked before each item and
// the remaining items are reported as cancelled.
func (s *Engine) MoveImages(ctx context.Context, selection []apitype.ImageRef, folder string, reporter api.ProgressReporter) (*apitype.MoveReport, error) {
	tree := s.locator.ActiveTree()
	destination, ok := s.locator.Resolve(folder)
	if !ok {
		var err error
		if destination, err = s.CreateFolder(ctx, folder); err != nil {
			return nil, err
		}
	}

	report := &apitype.MoveReport{
		Destination: destination,
		Results:     make([]*apitype.MoveResult, len(selection)),
	}
	for i, ref := range selection {
		report.Results[i] = &apitype.MoveResult{Source: ref, State: apitype.MovePending}
	}

	startTime := time.Now()
	total := len(selection)
	logger.Info.Printf("Moving %d images to '%s'", total, destination.Path)
	sourceDirs := util.NewSet[string]()
	progress := api.MoveProgress{Folder: destination.Name, Total: total}
	var batchErr error
	for i, result := range report.Results {
		if err := ctx.Err(); err != nil {
			for _, rest := range report.Results[i:] {
				rest.State = apitype.MoveCancelled
				rest.Err = apitype.WrapError("move", rest.Source.String(), err)
			}
			batchErr = apitype.WrapError("move", folder, err)
			logger.Warn.Printf("Move to '%s' cancelled after %d/%d images", folder, i, total)
			break
		}
		progress.Current = i
		reporter.Update(progress)

		if sourcePath := s.moveImage(context.WithoutCancel(ctx), tree, destination, result); sourcePath != "" {
			sourceDirs.Add(filepath.Dir(sourcePath))
		}
		if result.State.Moved() {
			progress.MovedBytes += result.Bytes
		}
		if result.Err != nil {
			logger.Warn.Printf("Moving '%s' ended in state %s: %s", result.Source, result.State, result.Err)
		}
	}
	progress.Current = total
	reporter.Update(progress)

	logger.Info.Printf("Moved %d/%d images (%s) to '%s' in %s",
		report.MovedCount(), total, humanize.Bytes(uint64(progress.MovedBytes)), destination.Path, time.Since(startTime))

	var changed []apitype.Location
	for _, dir := range sourceDirs.Values() {
		changed = append(changed, apitype.Location{Kind: apitype.LocalPath, Path: dir})
	}
	changed = append(changed, destination)
	s.rescan(ctx, changed...)

	return report, batchErr
}

// moveImage runs the state machine of a single item. It returns the
// OS path of the source if the source was removed from its directory.
func (s *Engine) moveImage(ctx context.Context, tree storage.Tree, destination apitype.Location, result *apitype.MoveResult) string {
	info, err := s.locator.Describe(ctx, result.Source)
	if err != nil {
		result.State = apitype.MoveReadFailed
		result.Err = err
		return ""
	}
	result.DisplayName = info.DisplayName
	result.MimeType = info.MimeType

	if s.isInFolder(tree, destination, result.Source, info) {
		logger.Debug.Printf("'%s' is already in '%s'", result.Source, destination.Name)
		result.Destination = result.Source
		result.State = apitype.MoveWritten
		return ""
	}

	fileName := util.UniqueFileName(info.DisplayName, func(name string) bool {
		_, err := tree.Stat(path.Join(destination.Name, name))
		return err == nil
	})
	destinationRel := path.Join(destination.Name, fileName)
	result.Destination = tree.Ref(destinationRel)

	if result.Source.Kind() != apitype.IndexedRef && s.tryRename(tree, destination, destinationRel, fileName, result, info) {
		result.Renamed = true
		result.Bytes = info.Size
		result.State = apitype.MoveSourceDeleted
		return info.Path
	}

	stream, _, err := s.locator.OpenRef(ctx, result.Source)
	if err != nil {
		result.State = apitype.MoveReadFailed
		result.Err = err
		return ""
	}
	result.State = apitype.MoveRead

	writer, err := tree.Create(destinationRel)
	if err != nil {
		_ = stream.Close()
		result.State = apitype.MoveWriteFailed
		result.Err = apitype.WrapError("write", destinationRel, err)
		return ""
	}
	written, err := util.CopyAndClose(writer, stream)
	_ = stream.Close()
	if err != nil {
		if removeErr := tree.Remove(destinationRel); removeErr != nil {
			logger.Warn.Printf("Could not remove partial file '%s': %s", destinationRel, removeErr)
		}
		result.State = apitype.MoveWriteFailed
		result.Err = apitype.WrapError("write", destinationRel, err)
		return ""
	}
	result.Bytes = written
	result.State = apitype.MoveWritten

	if err := s.checkRemovable(result.Source); err != nil {
		result.State = apitype.MoveSourceDeleteFailed
		result.Err = err
		return ""
	}
	removedPath, err := s.locator.Remove(ctx, result.Source)
	if err != nil {
		result.State = apitype.MoveSourceDeleteFailed
		result.Err = err
		return ""
	}
	result.State = apitype.MoveSourceDeleted
	return removedPath
}

// checkRemovable keeps sources the deletion policy protects. A
// protected source stays where it was; the copy is kept.
func (s *Engine) checkRemovable(ref apitype.ImageRef) error {
	needsConsent, err := s.guard.NeedsConsent(ref)
	if err != nil {
		return apitype.WrapError("delete source", ref.String(), err)
	}
	if needsConsent {
		logger.Debug.Printf("Keeping protected source '%s'", ref)
		return apitype.NewOperationError("delete source", apitype.PermissionDenied, ref.String(), nil)
	}
	return nil
}

// tryRename moves the file with a single rename when source and
// destination are on the same storage. Indexed images are always
// copied. A failed rename falls back to copying.
func (s *Engine) tryRename(tree storage.Tree, destination apitype.Location, destinationRel string, fileName string, result *apitype.MoveResult, info *storage.RefInfo) bool {
	var err error
	switch {
	case info.Path != "" && destination.Kind == apitype.LocalPath:
		err = os.Rename(info.Path, filepath.Join(destination.Path, fileName))
	case result.Source.Kind() == apitype.TreeRef && result.Source.TreeId() == tree.Id():
		err = tree.Rename(result.Source.RelPath(), destinationRel)
	default:
		return false
	}
	if err != nil {
		logger.Debug.Printf("Could not rename '%s' (%s), copying instead: %s",
			result.Source, apitype.KindOf(err), err)
		return false
	}
	return true
}

func (s *Engine) isInFolder(tree storage.Tree, destination apitype.Location, ref apitype.ImageRef, info *storage.RefInfo) bool {
	if info.Path != "" && destination.Kind == apitype.LocalPath {
		return filepath.Dir(info.Path) == filepath.Clean(destination.Path)
	}
	return ref.Kind() == apitype.TreeRef && ref.TreeId() == tree.Id() && path.Dir(ref.RelPath()) == destination.Name
}

// rescan re-indexes the local locations. External trees are not
// indexed. Scans run to completion even if ctx is cancelled.
func (s *Engine) rescan(ctx context.Context, locations ...apitype.Location) {
	var paths []string
	for _, location := range locations {
		if location.Kind == apitype.LocalPath {
			paths = append(paths, location.Path)
		}
	}
	if len(paths) == 0 {
		return
	}
	if err := s.scanner.Scan(context.WithoutCancel(ctx), s.owner, paths...); err != nil {
		logger.Warn.Printf("Re-scanning after change failed: %s", err)
	}
}
