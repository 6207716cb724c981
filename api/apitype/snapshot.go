package apitype

// AllImages is the folder name of an image view not limited to a folder.
const AllImages = ""

// ImagesSnapshot is a published image view. It is never modified after
// it has been published; a newer snapshot replaces it.
type ImagesSnapshot struct {
	Seq    uint64
	Folder string
	Images []ImageRef
}

type FoldersSnapshot struct {
	Seq     uint64
	Folders []*Folder
}

func (s *ImagesSnapshot) Contains(ref ImageRef) bool {
	if s == nil {
		return false
	}
	for _, image := range s.Images {
		if image == ref {
			return true
		}
	}
	return false
}

func (s *FoldersSnapshot) Find(name string) *Folder {
	if s == nil {
		return nil
	}
	return FindFolder(s.Folders, name)
}

func (s *FoldersSnapshot) Names() []string {
	if s == nil {
		return nil
	}
	names := make([]string, len(s.Folders))
	for i, folder := range s.Folders {
		names[i] = folder.Name
	}
	return names
}
