package apitype

import "fmt"

// ConsentToken is an opaque handle of a pending deletion that the user
// has to approve through the platform consent flow.
type ConsentToken string

type DeleteStatus int

const (
	Deleted DeleteStatus = iota
	NeedsUserConsent
	Failed
)

func (s DeleteStatus) String() string {
	switch s {
	case Deleted:
		return "deleted"
	case NeedsUserConsent:
		return "needs user consent"
	}
	return "failed"
}

// DeleteOutcome is a sum type: Token is set only for NeedsUserConsent
// and Err only for Failed.
type DeleteOutcome struct {
	Status DeleteStatus
	Ref    ImageRef
	Token  ConsentToken
	Err    error
}

func DeletedOutcome(ref ImageRef) DeleteOutcome {
	return DeleteOutcome{Status: Deleted, Ref: ref}
}

func ConsentOutcome(ref ImageRef, token ConsentToken) DeleteOutcome {
	return DeleteOutcome{Status: NeedsUserConsent, Ref: ref, Token: token}
}

func FailedOutcome(ref ImageRef, err error) DeleteOutcome {
	return DeleteOutcome{Status: Failed, Ref: ref, Err: err}
}

func (s DeleteOutcome) IsDeleted() bool {
	return s.Status == Deleted
}

func (s DeleteOutcome) NeedsConsent() bool {
	return s.Status == NeedsUserConsent
}

func (s DeleteOutcome) String() string {
	switch s.Status {
	case NeedsUserConsent:
		return fmt.Sprintf("DeleteOutcome{%s: %s}", s.Status, s.Token)
	case Failed:
		return fmt.Sprintf("DeleteOutcome{%s: %v}", s.Status, s.Err)
	}
	return fmt.Sprintf("DeleteOutcome{%s}", s.Status)
}
