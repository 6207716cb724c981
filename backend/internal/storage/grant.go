package storage

import (
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"vincit.fi/photo-gallery/common/logger"
)

// Grant holds the process wide external tree the user has granted
// access to. At most one grant is active at a time.
type Grant struct {
	mu      sync.RWMutex
	current Tree
}

func NewGrant() *Grant {
	return &Grant{}
}

func (s *Grant) Set(tree Tree) {
	s.mu.Lock()
	defer s.mu.Unlock()
	logger.Info.Printf("External tree '%s' granted at '%s'", tree.Id(), tree.Root())
	s.current = tree
}

func (s *Grant) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current != nil {
		logger.Info.Printf("External tree '%s' released", s.current.Id())
	}
	s.current = nil
}

// Current returns the granted tree or false if there is none.
func (s *Grant) Current() (Tree, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != nil
}

// NewGrantedTree returns the external tree of a granted directory. The
// id is derived from the path so refs stay valid when the same
// directory is granted again after a restart.
func NewGrantedTree(root string) *DirTree {
	cleaned := filepath.Clean(root)
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(cleaned))).String()
	return NewExternalTree(id, cleaned)
}
