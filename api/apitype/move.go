package apitype

import "fmt"

// MoveState is the state of a single item of a move batch.
type MoveState int

const (
	MovePending MoveState = iota
	MoveRead
	MoveWritten
	MoveReadFailed
	MoveWriteFailed
	MoveSourceDeleted
	MoveSourceDeleteFailed
	MoveCancelled
)

func (s MoveState) String() string {
	switch s {
	case MovePending:
		return "pending"
	case MoveRead:
		return "read"
	case MoveWritten:
		return "written"
	case MoveReadFailed:
		return "read-failed"
	case MoveWriteFailed:
		return "write-failed"
	case MoveSourceDeleted:
		return "source-deleted"
	case MoveSourceDeleteFailed:
		return "source-delete-failed"
	case MoveCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Moved is true for every state where the destination copy exists.
// A failed source cleanup still counts as moved.
func (s MoveState) Moved() bool {
	return s == MoveWritten || s == MoveSourceDeleted || s == MoveSourceDeleteFailed
}

type MoveResult struct {
	Source      ImageRef
	Destination ImageRef
	DisplayName string
	MimeType    string
	Bytes       int64
	// Renamed is true when the atomic fast path was used.
	Renamed bool
	State   MoveState
	Err     error
}

func (s *MoveResult) String() string {
	return fmt.Sprintf("MoveResult{%s -> %s: %s}", s.Source, s.Destination, s.State)
}

type MoveOutcome int

const (
	NoneMoved MoveOutcome = iota
	PartiallyMoved
	FullyMoved
)

func (s MoveOutcome) String() string {
	switch s {
	case FullyMoved:
		return "fully moved"
	case PartiallyMoved:
		return "partially moved"
	}
	return "none moved"
}

type MoveReport struct {
	Destination Location
	Results     []*MoveResult
}

func (s *MoveReport) MovedCount() int {
	if s == nil {
		return 0
	}
	count := 0
	for _, result := range s.Results {
		if result.State.Moved() {
			count++
		}
	}
	return count
}

func (s *MoveReport) Outcome() MoveOutcome {
	moved := s.MovedCount()
	switch {
	case moved == 0:
		return NoneMoved
	case moved == len(s.Results):
		return FullyMoved
	}
	return PartiallyMoved
}

// Destinations lists the new refs of the moved items in selection order.
func (s *MoveReport) Destinations() []ImageRef {
	if s == nil {
		return nil
	}
	var refs []ImageRef
	for _, result := range s.Results {
		if result.State.Moved() {
			refs = append(refs, result.Destination)
		}
	}
	return refs
}
