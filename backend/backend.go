package backend

import (
	"context"
	"path/filepath"

	"vincit.fi/photo-gallery/api"
	"vincit.fi/photo-gallery/backend/internal/database"
	"vincit.fi/photo-gallery/backend/internal/gallery"
	"vincit.fi/photo-gallery/backend/internal/gate"
	"vincit.fi/photo-gallery/backend/internal/media"
	"vincit.fi/photo-gallery/backend/internal/relocation"
	"vincit.fi/photo-gallery/backend/internal/scanner"
	"vincit.fi/photo-gallery/backend/internal/storage"
	"vincit.fi/photo-gallery/backend/internal/watcher"
	"vincit.fi/photo-gallery/common"
	"vincit.fi/photo-gallery/common/event"
	"vincit.fi/photo-gallery/common/logger"
	"vincit.fi/photo-gallery/common/util"
)

type Stores struct {
	MediaStore *database.MediaStore
	database   *database.Database
}

func (s *Stores) Close() {
	s.database.Close()
}

type Services struct {
	GalleryService api.GalleryService
	MediaScanner   api.MediaScanner
	Grant          *storage.Grant
	Locator        *storage.Locator
	Registry       *gallery.Registry

	localTree  *storage.DirTree
	mediaStore *database.MediaStore
	watcher    *watcher.Watcher
}

func (s *Services) Close() {
	if s.watcher != nil {
		if err := s.watcher.Close(); err != nil {
			logger.Warn.Printf("Could not close watcher: %s", err)
		}
	}
	s.GalleryService.Close()
}

type Brokers struct {
	Broker *event.Broker
}

func InitializeEventBrokers(eventBusQueueSize int) *Brokers {
	logger.Debug.Printf("Initialize event brokers...")
	brokers := &Brokers{
		Broker: event.InitBus(eventBusQueueSize),
	}
	logger.Debug.Printf("Event brokers initialized")
	return brokers
}

// InitializeDevNullBrokers is used when nobody listens to the events.
// Errors are still logged.
func InitializeDevNullBrokers() *Brokers {
	return &Brokers{
		Broker: event.InitDevNullBus(),
	}
}

// InitializeStores opens the media index of the photos root.
func InitializeStores(params *common.Params) (*Stores, error) {
	logger.Debug.Printf("Initialize databases...")
	db := database.NewDatabase()
	if err := db.Open(params.IndexPath()); err != nil {
		return nil, err
	}

	stores := &Stores{
		MediaStore: database.NewMediaStore(db),
		database:   db,
	}
	logger.Debug.Printf("Stores and databases initialized")
	return stores, nil
}

func InitializeServices(params *common.Params, stores *Stores, brokers *Brokers) *Services {
	logger.Debug.Printf("Initialize services...")
	localTree := storage.NewLocalTree(params.RootPath())
	grant := storage.NewGrant()
	if treePath := params.TreePath(); treePath != "" {
		if util.IsDirectory(treePath) {
			grant.Set(storage.NewGrantedTree(treePath))
		} else {
			logger.Warn.Printf("Granted tree '%s' is not available, using local storage", treePath)
		}
	}

	locator := storage.NewLocator(localTree, grant, stores.MediaStore)
	mediaScanner := scanner.NewScanner(localTree, stores.MediaStore)
	enumerator := media.NewEnumerator(locator, media.NewIndexedSource(stores.MediaStore, localTree))
	deletionGate := gate.NewGate(params, locator, stores.MediaStore, mediaScanner)
	engine := relocation.NewEngine(params, locator, mediaScanner, deletionGate)
	state := gallery.NewState(brokers.Broker, params.StalePolicy())
	registry := gallery.NewRegistry(params, enumerator, engine, state)

	services := &Services{
		GalleryService: gallery.NewGalleryService(brokers.Broker, registry, deletionGate, grant, state),
		MediaScanner:   mediaScanner,
		Grant:          grant,
		Locator:        locator,
		Registry:       registry,
		localTree:      localTree,
		mediaStore:     stores.MediaStore,
	}
	logger.Debug.Printf("Services initialized")
	return services
}

// Start indexes the photos root and, if configured, starts watching it.
// Images found at start up are not owned by this application.
func (s *Services) Start(ctx context.Context, params *common.Params) error {
	root := s.localTree.Root()
	if err := util.MakeDirectoriesIfNotExist(filepath.Dir(root), root); err != nil {
		return err
	}
	if err := s.MediaScanner.Scan(ctx, "", root); err != nil {
		return err
	}
	if count, err := s.mediaStore.Count(); err != nil {
		logger.Warn.Printf("Could not count indexed images: %s", err)
	} else {
		logger.Info.Printf("%d images indexed under '%s'", count, root)
	}
	if !params.Watch() {
		return nil
	}

	w, err := watcher.NewWatcher(s.localTree, s.MediaScanner, "", watcher.DefaultDebounce, func(ctx context.Context) {
		if err := s.Registry.Reload(ctx); err != nil {
			logger.Warn.Printf("Reload after change on disk failed: %s", err)
		}
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Close()
		return err
	}
	s.watcher = w
	logger.Info.Printf("Watching '%s' for changes", root)
	return nil
}

// ConnectCommands lets a presentation layer drive the gallery through
// the broker. Requests run on the broker's goroutines and their results
// are published to the result topics.
func ConnectCommands(ctx context.Context, services *Services, brokers *Brokers) {
	service := services.GalleryService
	broker := brokers.Broker

	broker.Subscribe(api.LoadImages, func() {
		service.LoadImages(ctx)
	})
	broker.Subscribe(api.LoadImagesFromFolder, func(query *api.FolderQuery) {
		service.LoadImagesFromFolder(ctx, query)
	})
	broker.Subscribe(api.LoadFolders, func() {
		service.LoadFolders(ctx)
	})
	broker.Subscribe(api.CreateFolder, func(command *api.CreateFolderCommand) {
		broker.SendCommandToTopic(api.FolderOperationDone, &api.FolderOperationResultCommand{
			Operation: "create",
			Name:      command.Name,
			Success:   service.CreateFolder(ctx, command),
		})
	})
	broker.Subscribe(api.DeleteFolder, func(command *api.DeleteFolderCommand) {
		broker.SendCommandToTopic(api.FolderOperationDone, &api.FolderOperationResultCommand{
			Operation: "delete",
			Name:      command.Name,
			Success:   service.DeleteFolder(ctx, command),
		})
	})
	broker.Subscribe(api.RenameFolder, func(command *api.RenameFolderCommand) {
		broker.SendCommandToTopic(api.FolderOperationDone, &api.FolderOperationResultCommand{
			Operation: "rename",
			Name:      command.NewName,
			Success:   service.RenameFolder(ctx, command),
		})
	})
	broker.Subscribe(api.MoveImagesToFolder, func(command *api.MoveImagesCommand) {
		success, report := service.MoveImagesToFolder(ctx, command)
		broker.SendCommandToTopic(api.MoveDone, &api.MoveResultCommand{
			Folder:  command.Folder,
			Success: success,
			Report:  report,
		})
	})
	broker.Subscribe(api.DeleteImage, func(command *api.DeleteImageCommand) {
		broker.SendCommandToTopic(api.DeleteImageDone, &api.DeleteImageResultCommand{
			Outcome: service.DeleteImage(ctx, command),
		})
	})
	broker.Subscribe(api.ResolveConsent, func(command *api.ResolveConsentCommand) {
		broker.SendCommandToTopic(api.DeleteImageDone, &api.DeleteImageResultCommand{
			Outcome: service.ResolveConsent(ctx, command),
		})
	})
	logger.Debug.Printf("Commands connected")
}
