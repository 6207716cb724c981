package gallery

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"vincit.fi/photo-gallery/api"
	"vincit.fi/photo-gallery/api/apitype"
	"vincit.fi/photo-gallery/backend/internal/database"
	"vincit.fi/photo-gallery/backend/internal/gate"
	"vincit.fi/photo-gallery/backend/internal/media"
	"vincit.fi/photo-gallery/backend/internal/relocation"
	"vincit.fi/photo-gallery/backend/internal/scanner"
	"vincit.fi/photo-gallery/backend/internal/storage"
	"vincit.fi/photo-gallery/common"
)

var baseTime = time.Now().Truncate(time.Second)

type fixture struct {
	root    string
	sender  *MockSender
	scanner *scanner.Scanner
	grant   *storage.Grant
	sut     *Service
}

func newFixture(t *testing.T, configure func(params *common.Params) *common.Params) *fixture {
	t.Helper()
	db := database.NewDatabase()
	require.Nil(t, db.Open(filepath.Join(t.TempDir(), "index.db")))
	t.Cleanup(db.Close)

	root := t.TempDir()
	params := common.NewEmptyParams().WithRootPath(root)
	if configure != nil {
		params = configure(params)
	}
	sender := newMockSender()
	local := storage.NewLocalTree(root)
	grant := storage.NewGrant()
	mediaStore := database.NewMediaStore(db)
	locator := storage.NewLocator(local, grant, mediaStore)
	mediaScanner := scanner.NewScanner(local, mediaStore)
	enumerator := media.NewEnumerator(locator, media.NewIndexedSource(mediaStore, local))
	deletionGate := gate.NewGate(params, locator, mediaStore, mediaScanner)
	engine := relocation.NewEngine(params, locator, mediaScanner, deletionGate)
	state := NewState(sender, params.StalePolicy())
	registry := NewRegistry(params, enumerator, engine, state)

	return &fixture{
		root:    root,
		sender:  sender,
		scanner: mediaScanner,
		grant:   grant,
		sut:     newService(sender, registry, deletionGate, grant, state),
	}
}

// writeImages writes the files so that the first one is the newest.
func (s *fixture) writeImages(t *testing.T, folder string, names ...string) {
	t.Helper()
	require.Nil(t, os.MkdirAll(filepath.Join(s.root, folder), 0o755))
	for i, name := range names {
		path := filepath.Join(s.root, folder, name)
		require.Nil(t, os.WriteFile(path, []byte(name), 0o644))
		modTime := baseTime.Add(-time.Duration(i) * time.Minute)
		require.Nil(t, os.Chtimes(path, modTime, modTime))
	}
}

func (s *fixture) scan(t *testing.T) {
	require.Nil(t, s.scanner.Scan(context.Background(), "", s.root))
}

func TestService_TripAndMiscScenario(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t, nil)
	f.writeImages(t, "Trip", "a.jpg", "b.jpg", "c.jpg")
	f.writeImages(t, "Misc")
	f.scan(t)
	ctx := context.Background()

	folders := f.sut.LoadFolders(ctx)
	a.Equal([]string{"Misc", "Trip"}, folders.Names())
	a.Equal(3, folders.Find("Trip").ImageCount)
	a.Equal(0, folders.Find("Misc").ImageCount)
	a.False(folders.Find("Misc").HasThumbnail())

	trip := f.sut.LoadImagesFromFolder(ctx, &api.FolderQuery{Name: "Trip"})
	require.Len(t, trip.Images, 3)
	a.Equal(trip.Images[0], *folders.Find("Trip").Thumbnail)

	success, report := f.sut.MoveImagesToFolder(ctx, &api.MoveImagesCommand{
		Selection: trip.Images[:2],
		Folder:    "Misc",
	})

	a.True(success)
	a.Equal(apitype.FullyMoved, report.Outcome())
	folders = f.sut.Folders()
	a.Equal(1, folders.Find("Trip").ImageCount)
	a.Equal(2, folders.Find("Misc").ImageCount)
	a.True(folders.Find("Trip").HasThumbnail())
	a.True(folders.Find("Misc").HasThumbnail())
	a.NotEqual(trip.Images[0], *folders.Find("Trip").Thumbnail)

	images := f.sut.Images()
	a.Equal("Trip", images.Folder)
	a.Len(images.Images, 1)
	for _, moved := range trip.Images[:2] {
		a.False(images.Contains(moved))
	}
	misc := f.sut.LoadImagesFromFolder(ctx, &api.FolderQuery{Name: "Misc"})
	a.Len(misc.Images, 2)

	f.sender.AssertCalled(t, "SendCommandToTopic", api.ProcessStatusUpdated, mock.Anything)
	f.sender.AssertNotCalled(t, "SendError", mock.Anything, mock.Anything)
}

func TestService_CreateFolder(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t, nil)
	ctx := context.Background()

	a.True(f.sut.CreateFolder(ctx, &api.CreateFolderCommand{Name: "Holiday"}))

	folder := f.sut.Folders().Find("Holiday")
	if a.NotNil(folder) {
		a.Equal(0, folder.ImageCount)
	}
	f.sender.AssertCalled(t, "SendCommandToTopic", api.FoldersUpdated, mock.Anything)
}

func TestService_CreateFolderBlankName(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t, nil)

	a.False(f.sut.CreateFolder(context.Background(), &api.CreateFolderCommand{Name: ""}))

	entries, err := os.ReadDir(f.root)
	require.Nil(t, err)
	a.Empty(entries)
	f.sender.AssertCalled(t, "SendError", mock.Anything, mock.Anything)
}

func TestService_CreateExistingFolderFollowsPolicy(t *testing.T) {
	failing := newFixture(t, nil)
	failing.writeImages(t, "Trip", "a.jpg")
	assert.False(t, failing.sut.CreateFolder(context.Background(), &api.CreateFolderCommand{Name: "Trip"}))

	succeeding := newFixture(t, func(params *common.Params) *common.Params {
		return params.WithOnExists(apitype.OnExistsSucceed)
	})
	succeeding.writeImages(t, "Trip", "a.jpg")
	succeeding.scan(t)
	assert.True(t, succeeding.sut.CreateFolder(context.Background(), &api.CreateFolderCommand{Name: "Trip"}))
	assert.Equal(t, 1, succeeding.sut.Folders().Find("Trip").ImageCount, "existing folder keeps its images")
}

func TestService_DeleteFolder(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t, nil)
	f.writeImages(t, "Trip", "a.jpg", "b.jpg")
	f.writeImages(t, "Misc", "c.jpg")
	f.scan(t)
	ctx := context.Background()
	f.sut.LoadImagesFromFolder(ctx, &api.FolderQuery{Name: "Trip"})

	a.True(f.sut.DeleteFolder(ctx, &api.DeleteFolderCommand{Name: "Trip"}))

	a.Equal([]string{"Misc"}, f.sut.Folders().Names())
	a.Equal(apitype.AllImages, f.sut.Images().Folder, "deleted folder is no longer shown")
	a.Len(f.sut.Images().Images, 1)
}

func TestService_DeleteMissingFolder(t *testing.T) {
	f := newFixture(t, nil)

	assert.False(t, f.sut.DeleteFolder(context.Background(), &api.DeleteFolderCommand{Name: "DoesNotExist"}))
	f.sender.AssertCalled(t, "SendError", mock.Anything, mock.Anything)
}

func TestService_RenameFolder(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t, nil)
	f.writeImages(t, "Trip", "a.jpg", "b.jpg")
	f.scan(t)
	ctx := context.Background()
	f.sut.LoadImagesFromFolder(ctx, &api.FolderQuery{Name: "Trip"})

	a.True(f.sut.RenameFolder(ctx, &api.RenameFolderCommand{OldName: "Trip", NewName: "Holiday"}))

	a.Equal([]string{"Holiday"}, f.sut.Folders().Names())
	a.Equal("Holiday", f.sut.Images().Folder)
	a.Len(f.sut.Images().Images, 2)
}

func TestService_RenameOntoExistingFolder(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t, nil)
	f.writeImages(t, "Trip", "a.jpg")
	f.writeImages(t, "Misc", "b.jpg")
	f.scan(t)
	ctx := context.Background()
	before := f.sut.LoadFolders(ctx)

	a.False(f.sut.RenameFolder(ctx, &api.RenameFolderCommand{OldName: "Trip", NewName: "Misc"}))

	a.Same(before, f.sut.Folders())
	a.Equal(before.Folders, f.sut.LoadFolders(ctx).Folders)
}

func TestService_MoveCancelled(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t, nil)
	f.writeImages(t, "Trip", "a.jpg")
	f.writeImages(t, "Misc")
	f.scan(t)
	images := f.sut.LoadImages(context.Background())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	success, report := f.sut.MoveImagesToFolder(ctx, &api.MoveImagesCommand{Selection: images.Images, Folder: "Misc"})

	a.False(success)
	a.Equal(apitype.NoneMoved, report.Outcome())
	a.Equal(apitype.MoveCancelled, report.Results[0].State)
}

func TestService_DeleteImageWithConsent(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t, func(params *common.Params) *common.Params {
		return params.WithDeletionPolicy(apitype.DeleteAlwaysConsent)
	})
	f.writeImages(t, "Trip", "a.jpg", "b.jpg")
	f.scan(t)
	ctx := context.Background()
	images := f.sut.LoadImages(ctx)
	target := images.Images[0]

	outcome := f.sut.DeleteImage(ctx, &api.DeleteImageCommand{Ref: target})
	require.True(t, outcome.NeedsConsent())
	f.sender.AssertCalled(t, "SendCommandToTopic", api.ImageDeleteNeedsConsent, &api.DeleteImageResultCommand{Outcome: outcome})
	a.True(f.sut.Images().Contains(target))

	resolved := f.sut.ResolveConsent(ctx, &api.ResolveConsentCommand{Token: outcome.Token, Approved: true})
	a.True(resolved.IsDeleted())
	a.False(f.sut.Images().Contains(target))
	a.Equal(1, f.sut.Folders().Find("Trip").ImageCount)
}

func TestService_DeleteImageFailure(t *testing.T) {
	f := newFixture(t, nil)

	outcome := f.sut.DeleteImage(context.Background(), &api.DeleteImageCommand{Ref: apitype.NewIndexedRef(5)})

	assert.Equal(t, apitype.Failed, outcome.Status)
	f.sender.AssertCalled(t, "SendError", "Could not delete image", mock.Anything)
}

func TestService_ExternalGrant(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t, nil)
	f.writeImages(t, "Local", "a.jpg")
	f.scan(t)
	external := t.TempDir()
	require.Nil(t, os.MkdirAll(filepath.Join(external, "Card"), 0o755))
	require.Nil(t, os.WriteFile(filepath.Join(external, "Card", "b.jpg"), []byte("b"), 0o644))
	ctx := context.Background()
	f.sut.LoadImagesFromFolder(ctx, &api.FolderQuery{Name: "Local"})

	a.True(f.sut.SetExternalGrant(ctx, external))
	a.Equal([]string{"Card"}, f.sut.Folders().Names())
	a.Equal(apitype.AllImages, f.sut.Images().Folder)
	if a.Len(f.sut.Images().Images, 1) {
		a.Equal(apitype.TreeRef, f.sut.Images().Images[0].Kind())
	}

	a.True(f.sut.CreateFolder(ctx, &api.CreateFolderCommand{Name: "New"}))
	a.DirExists(filepath.Join(external, "New"))

	f.sut.ClearExternalGrant(ctx)
	a.Equal([]string{"Local"}, f.sut.Folders().Names())

	a.False(f.sut.SetExternalGrant(ctx, filepath.Join(external, "missing")))
	_, granted := f.grant.Current()
	a.False(granted)
}

func TestService_HiddenFolderNamesAreRejected(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t, nil)
	f.writeImages(t, "Trip", "a.jpg")
	f.scan(t)
	ctx := context.Background()
	trip := f.sut.LoadImagesFromFolder(ctx, &api.FolderQuery{Name: "Trip"})
	before := f.sut.LoadFolders(ctx).Folders

	for _, name := range []string{".trip", "thumbnails"} {
		a.False(f.sut.CreateFolder(ctx, &api.CreateFolderCommand{Name: name}), name)
		a.False(f.sut.RenameFolder(ctx, &api.RenameFolderCommand{OldName: "Trip", NewName: name}), name)
		success, _ := f.sut.MoveImagesToFolder(ctx, &api.MoveImagesCommand{Selection: trip.Images, Folder: name})
		a.False(success, name)
		a.NoDirExists(filepath.Join(f.root, name))
	}

	a.Equal(before, f.sut.LoadFolders(ctx).Folders)
	a.Len(f.sut.LoadImagesFromFolder(ctx, &api.FolderQuery{Name: "Trip"}).Images, 1)
}

func TestService_MoveKeepsProtectedImages(t *testing.T) {
	a := assert.New(t)
	f := newFixture(t, func(params *common.Params) *common.Params {
		return params.WithDeletionPolicy(apitype.DeleteOwnerScoped)
	})
	f.writeImages(t, "Trip", "a.jpg", "b.jpg")
	f.writeImages(t, "Misc")
	f.scan(t)
	ctx := context.Background()
	trip := f.sut.LoadImagesFromFolder(ctx, &api.FolderQuery{Name: "Trip"})

	success, report := f.sut.MoveImagesToFolder(ctx, &api.MoveImagesCommand{Selection: trip.Images, Folder: "Misc"})

	a.True(success)
	for _, result := range report.Results {
		a.Equal(apitype.MoveSourceDeleteFailed, result.State)
		a.ErrorIs(result.Err, apitype.ErrPermissionDenied)
	}
	a.FileExists(filepath.Join(f.root, "Trip", "a.jpg"))
	a.FileExists(filepath.Join(f.root, "Trip", "b.jpg"))
	folders := f.sut.Folders()
	a.Equal(2, folders.Find("Trip").ImageCount)
	a.Equal(2, folders.Find("Misc").ImageCount)
}
