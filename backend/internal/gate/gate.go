package gate

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"vincit.fi/photo-gallery/api"
	"vincit.fi/photo-gallery/api/apitype"
	"vincit.fi/photo-gallery/backend/internal/database"
	"vincit.fi/photo-gallery/backend/internal/storage"
	"vincit.fi/photo-gallery/common"
	"vincit.fi/photo-gallery/common/logger"
)

// Gate deletes single images. Depending on the deletion policy an
// indexed image may need the user's consent before it is deleted; the
// pending deletion is then identified by a consent token.
type Gate struct {
	locator    *storage.Locator
	mediaStore *database.MediaStore
	scanner    api.MediaScanner
	policy     apitype.DeletionPolicy
	owner      string

	mu      sync.Mutex
	pending map[apitype.ConsentToken]apitype.ImageRef
}

func NewGate(params *common.Params, locator *storage.Locator, mediaStore *database.MediaStore, scanner api.MediaScanner) *Gate {
	return &Gate{
		locator:    locator,
		mediaStore: mediaStore,
		scanner:    scanner,
		policy:     params.DeletionPolicy(),
		owner:      params.Owner(),
		pending:    map[apitype.ConsentToken]apitype.ImageRef{},
	}
}

// DeleteImage never panics. Any failure is returned as a Failed outcome.
func (s *Gate) DeleteImage(ctx context.Context, ref apitype.ImageRef) (outcome apitype.DeleteOutcome) {
	defer s.recoverTo(ref, &outcome)

	switch ref.Kind() {
	case apitype.IndexedRef:
		needsConsent, err := s.NeedsConsent(ref)
		if err != nil {
			return apitype.FailedOutcome(ref, err)
		}
		if needsConsent {
			return apitype.ConsentOutcome(ref, s.addPending(ref))
		}
	case apitype.FileRef, apitype.TreeRef:
	default:
		return apitype.FailedOutcome(ref, apitype.NewOperationError("delete", apitype.Unsupported, ref.String(), nil))
	}
	return s.delete(ctx, ref)
}

// ResolveConsent finishes a pending deletion. A denied or unknown
// token fails and the image is kept.
func (s *Gate) ResolveConsent(ctx context.Context, token apitype.ConsentToken, approved bool) (outcome apitype.DeleteOutcome) {
	ref, ok := s.takePending(token)
	defer s.recoverTo(ref, &outcome)

	if !ok {
		return apitype.FailedOutcome(ref, apitype.NewOperationError("resolve consent", apitype.NotFound, string(token), nil))
	}
	if !approved {
		logger.Info.Printf("Deletion of '%s' was not approved", ref)
		return apitype.FailedOutcome(ref, apitype.NewOperationError("delete", apitype.PermissionDenied, ref.String(), nil))
	}
	return s.delete(ctx, ref)
}

// NeedsConsent applies the deletion policy. Only indexed images are
// guarded; file and tree refs are always deleted directly.
func (s *Gate) NeedsConsent(ref apitype.ImageRef) (bool, error) {
	if ref.Kind() != apitype.IndexedRef {
		return false, nil
	}
	switch s.policy {
	case apitype.DeleteAlwaysConsent:
		return true, nil
	case apitype.DeleteOwnerScoped:
		id, _ := ref.IndexId()
		entry, err := s.mediaStore.FindById(id)
		if err != nil {
			return false, apitype.WrapError("delete", ref.String(), err)
		}
		return entry.Owner != s.owner, nil
	}
	return false, nil
}

func (s *Gate) delete(ctx context.Context, ref apitype.ImageRef) apitype.DeleteOutcome {
	removedPath, err := s.locator.Remove(ctx, ref)
	if err != nil {
		logger.Warn.Printf("Could not delete '%s': %s", ref, err)
		return apitype.FailedOutcome(ref, err)
	}
	logger.Info.Printf("Deleted '%s'", ref)
	if removedPath != "" && ref.Kind() == apitype.FileRef {
		if err := s.scanner.Scan(context.WithoutCancel(ctx), s.owner, filepath.Dir(removedPath)); err != nil {
			logger.Warn.Printf("Re-scanning after delete failed: %s", err)
		}
	}
	return apitype.DeletedOutcome(ref)
}

func (s *Gate) addPending(ref apitype.ImageRef) apitype.ConsentToken {
	s.mu.Lock()
	defer s.mu.Unlock()
	token := apitype.ConsentToken(uuid.NewString())
	s.pending[token] = ref
	logger.Debug.Printf("Deletion of '%s' needs consent, token %s", ref, token)
	return token
}

func (s *Gate) takePending(token apitype.ConsentToken) (apitype.ImageRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.pending[token]
	delete(s.pending, token)
	return ref, ok
}

func (s *Gate) recoverTo(ref apitype.ImageRef, outcome *apitype.DeleteOutcome) {
	if r := recover(); r != nil {
		logger.Error.Printf("Deleting '%s' panicked: %v", ref, r)
		*outcome = apitype.FailedOutcome(ref, fmt.Errorf("delete '%s': %v", ref, r))
	}
}
