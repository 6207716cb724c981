package apitype

import "strings"

// OnExistsPolicy decides what creating an already existing folder means.
type OnExistsPolicy int

const (
	OnExistsFail OnExistsPolicy = iota
	OnExistsSucceed
)

func OnExistsPolicyFromString(value string) OnExistsPolicy {
	if strings.EqualFold(strings.TrimSpace(value), "succeed") {
		return OnExistsSucceed
	}
	return OnExistsFail
}

func (s OnExistsPolicy) String() string {
	if s == OnExistsSucceed {
		return "succeed"
	}
	return "fail"
}

// DeletionPolicy models how strictly the platform guards deletion of
// indexed items.
type DeletionPolicy int

const (
	// DeleteDirect deletes every indexed item right away.
	DeleteDirect DeletionPolicy = iota
	// DeleteOwnerScoped needs consent for items owned by someone else.
	DeleteOwnerScoped
	// DeleteAlwaysConsent needs consent for every indexed item.
	DeleteAlwaysConsent
)

func DeletionPolicyFromString(value string) DeletionPolicy {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "owner", "owner-scoped":
		return DeleteOwnerScoped
	case "consent", "always-consent":
		return DeleteAlwaysConsent
	}
	return DeleteDirect
}

func (s DeletionPolicy) String() string {
	switch s {
	case DeleteOwnerScoped:
		return "owner-scoped"
	case DeleteAlwaysConsent:
		return "always-consent"
	}
	return "direct"
}

// StalePolicy decides what happens to a snapshot that finishes after a
// newer one has already been published.
type StalePolicy int

const (
	StaleDrop StalePolicy = iota
	StaleLastWriteWins
)

func StalePolicyFromString(value string) StalePolicy {
	if strings.EqualFold(strings.TrimSpace(value), "last-write-wins") {
		return StaleLastWriteWins
	}
	return StaleDrop
}

func (s StalePolicy) String() string {
	if s == StaleLastWriteWins {
		return "last-write-wins"
	}
	return "drop"
}
