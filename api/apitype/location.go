package apitype

import "fmt"

type LocationKind int

const (
	LocalPath LocationKind = iota
	ExternalTree
)

func (s LocationKind) String() string {
	if s == ExternalTree {
		return "external-tree"
	}
	return "local"
}

// Location is the concrete backing place of a folder: a directory
// either under the local photos root or inside a granted external tree.
type Location struct {
	Kind   LocationKind
	TreeId string
	Name   string
	// Path is the OS path of the directory.
	Path string
}

func (s Location) IsExternal() bool {
	return s.Kind == ExternalTree
}

func (s Location) String() string {
	return fmt.Sprintf("Location{%s:%s:%s}", s.Kind, s.TreeId, s.Name)
}
