package apitype

import (
	"fmt"
	"sort"
	"strings"
)

type Folder struct {
	Name       string
	Location   Location
	ImageCount int
	Thumbnail  *ImageRef
}

func NewFolder(name string, location Location, images []ImageRef) *Folder {
	folder := &Folder{
		Name:       name,
		Location:   location,
		ImageCount: len(images),
	}
	if len(images) > 0 {
		thumbnail := images[0]
		folder.Thumbnail = &thumbnail
	}
	return folder
}

func NewEmptyFolder(name string, location Location) *Folder {
	return &Folder{Name: name, Location: location}
}

func (s *Folder) HasThumbnail() bool {
	return s != nil && s.Thumbnail != nil
}

func (s *Folder) String() string {
	if s == nil {
		return "Folder<nil>"
	}
	return fmt.Sprintf("Folder{%s:%d}", s.Name, s.ImageCount)
}

type FolderSort int

const (
	SortByName FolderSort = iota
	SortByCount
)

func FolderSortFromString(value string) FolderSort {
	if strings.EqualFold(strings.TrimSpace(value), "count") {
		return SortByCount
	}
	return SortByName
}

func (s FolderSort) String() string {
	if s == SortByCount {
		return "count"
	}
	return "name"
}

// SortFolders sorts in place. Name comparison is case-insensitive and
// is also the tie breaker when sorting by count.
func SortFolders(folders []*Folder, order FolderSort) {
	byName := func(i, j int) bool {
		left := strings.ToLower(folders[i].Name)
		right := strings.ToLower(folders[j].Name)
		if left == right {
			return folders[i].Name < folders[j].Name
		}
		return left < right
	}
	sort.SliceStable(folders, func(i, j int) bool {
		if order == SortByCount && folders[i].ImageCount != folders[j].ImageCount {
			return folders[i].ImageCount > folders[j].ImageCount
		}
		return byName(i, j)
	})
}

// FindFolder returns nil when no folder has the given name.
func FindFolder(folders []*Folder, name string) *Folder {
	for _, folder := range folders {
		if folder.Name == name {
			return folder
		}
	}
	return nil
}
