package gallery

import (
	"sync"
	"sync/atomic"

	"vincit.fi/photo-gallery/api"
	"vincit.fi/photo-gallery/api/apitype"
	"vincit.fi/photo-gallery/common/logger"
)

// State owns the published image and folder snapshots. Snapshots are
// only ever replaced, never modified. Every load takes a ticket before
// it starts enumerating and publishes its snapshot with that ticket.
// With StaleDrop a snapshot whose ticket is older than the published
// one is discarded.
type State struct {
	sender      api.Sender
	stalePolicy apitype.StalePolicy
	tickets     atomic.Uint64

	publishMu sync.Mutex
	mu        sync.RWMutex
	images    *apitype.ImagesSnapshot
	folders   *apitype.FoldersSnapshot
}

func NewState(sender api.Sender, stalePolicy apitype.StalePolicy) *State {
	return &State{
		sender:      sender,
		stalePolicy: stalePolicy,
		images:      &apitype.ImagesSnapshot{Folder: apitype.AllImages, Images: []apitype.ImageRef{}},
		folders:     &apitype.FoldersSnapshot{Folders: []*apitype.Folder{}},
	}
}

// NextTicket returns a sequence number greater than any returned before.
func (s *State) NextTicket() uint64 {
	return s.tickets.Add(1)
}

// PublishImages replaces the image snapshot and broadcasts it. Returns
// false if the snapshot was dropped as stale.
func (s *State) PublishImages(snapshot *apitype.ImagesSnapshot) bool {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	if s.isStale(snapshot.Seq, s.images.Seq) {
		s.mu.Unlock()
		logger.Debug.Printf("Dropping stale images snapshot %d, %d already published", snapshot.Seq, s.images.Seq)
		return false
	}
	s.images = snapshot
	s.mu.Unlock()

	logger.Trace.Printf("Publishing images snapshot %d with %d images", snapshot.Seq, len(snapshot.Images))
	s.sender.SendCommandToTopic(api.ImagesUpdated, &api.SetImagesCommand{Snapshot: snapshot})
	return true
}

// PublishFolders replaces the folder snapshot and broadcasts it.
// Returns false if the snapshot was dropped as stale.
func (s *State) PublishFolders(snapshot *apitype.FoldersSnapshot) bool {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	s.mu.Lock()
	if s.isStale(snapshot.Seq, s.folders.Seq) {
		s.mu.Unlock()
		logger.Debug.Printf("Dropping stale folders snapshot %d, %d already published", snapshot.Seq, s.folders.Seq)
		return false
	}
	s.folders = snapshot
	s.mu.Unlock()

	logger.Trace.Printf("Publishing folders snapshot %d with %d folders", snapshot.Seq, len(snapshot.Folders))
	s.sender.SendCommandToTopic(api.FoldersUpdated, &api.SetFoldersCommand{Snapshot: snapshot})
	return true
}

func (s *State) Images() *apitype.ImagesSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.images
}

func (s *State) Folders() *apitype.FoldersSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.folders
}

func (s *State) isStale(seq uint64, published uint64) bool {
	return s.stalePolicy == apitype.StaleDrop && seq < published
}
