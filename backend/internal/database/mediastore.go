package database

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/upper/db/v4"
	"vincit.fi/photo-gallery/api/apitype"
	"vincit.fi/photo-gallery/common/logger"
)

const mediaTable = "media"

// MediaStore is the structured media index: a catalog of image files
// queryable by id, bucket and time without touching the file system.
type MediaStore struct {
	database *Database
}

func NewMediaStore(database *Database) *MediaStore {
	return &MediaStore{
		database: database,
	}
}

func (s *MediaStore) getCollection() db.Collection {
	return s.database.Session().Collection(mediaTable)
}

func (s *MediaStore) getCollectionForSession(session db.Session) db.Collection {
	return session.Collection(mediaTable)
}

// Add inserts the entry or updates the existing entry with the same
// path. An existing entry keeps its id, add time and owner.
func (s *MediaStore) Add(entry *MediaEntry) (*MediaEntry, error) {
	return s.add(s.getCollection(), entry)
}

func (s *MediaStore) add(collection db.Collection, entry *MediaEntry) (*MediaEntry, error) {
	var existing MediaEntry
	err := collection.Find(db.Cond{"path": entry.Path}).One(&existing)
	if errors.Is(err, db.ErrNoMoreRows) {
		logger.Trace.Printf("Adding '%s' to media index", entry.Path)
		inserted := *entry
		inserted.Id = 0
		inserted.SortTime = sortTime(&inserted)
		if result, err := collection.Insert(&inserted); err != nil {
			return nil, err
		} else {
			inserted.Id = result.ID().(int64)
			return &inserted, nil
		}
	} else if err != nil {
		return nil, err
	}

	existing.Bucket = entry.Bucket
	existing.FileName = entry.FileName
	existing.ByteSize = entry.ByteSize
	existing.DateTaken = entry.DateTaken
	existing.SortTime = sortTime(&existing)
	if err := collection.Find(db.Cond{"id": existing.Id}).Update(&existing); err != nil {
		return nil, err
	}
	return &existing, nil
}

// SyncDirectory makes the index under dirPath match found: found
// entries are added or updated and every other entry under dirPath is
// removed. Runs in a single transaction.
func (s *MediaStore) SyncDirectory(dirPath string, found []*MediaEntry) (added int, removed int, err error) {
	err = s.database.Session().Tx(func(session db.Session) error {
		collection := s.getCollectionForSession(session)

		existing, err := s.listUnder(session, dirPath)
		if err != nil {
			return err
		}
		foundPaths := map[string]bool{}
		for _, entry := range found {
			foundPaths[entry.Path] = true
		}
		known := map[string]bool{}
		for _, entry := range existing {
			known[entry.Path] = true
			if !foundPaths[entry.Path] {
				if err := collection.Find(db.Cond{"id": entry.Id}).Delete(); err != nil {
					return err
				}
				removed++
			}
		}

		for _, entry := range found {
			if _, err := s.add(collection, entry); err != nil {
				return err
			}
			if !known[entry.Path] {
				added++
			}
		}
		return nil
	})
	return
}

func (s *MediaStore) FindById(id int64) (*MediaEntry, error) {
	var entry MediaEntry
	err := s.getCollection().Find(db.Cond{"id": id}).One(&entry)
	if errors.Is(err, db.ErrNoMoreRows) {
		return nil, apitype.NewOperationError("find", apitype.NotFound, apitype.NewIndexedRef(id).String(), os.ErrNotExist)
	} else if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ListAll returns every entry newest first by capture or add time.
func (s *MediaStore) ListAll() ([]*MediaEntry, error) {
	var entries []MediaEntry
	if err := s.getCollection().Find().OrderBy("-sort_time", "-id").All(&entries); err != nil {
		return nil, err
	}
	return toPointers(entries), nil
}

func (s *MediaStore) ListInBucket(bucket string) ([]*MediaEntry, error) {
	var entries []MediaEntry
	if err := s.getCollection().Find(db.Cond{"bucket": bucket}).OrderBy("-sort_time", "-id").All(&entries); err != nil {
		return nil, err
	}
	return toPointers(entries), nil
}

// listUnder returns the entry at path and every entry inside it.
func (s *MediaStore) listUnder(session db.Session, path string) ([]*MediaEntry, error) {
	var entries []MediaEntry
	prefix := withSeparator(path)
	err := session.SQL().
		SelectFrom(mediaTable).
		Where("path = ? OR instr(path, ?) = 1", path, prefix).
		OrderBy("id").
		All(&entries)
	if err != nil {
		return nil, err
	}
	return toPointers(entries), nil
}

func (s *MediaStore) DeleteById(id int64) error {
	return s.getCollection().Find(db.Cond{"id": id}).Delete()
}

// DeleteUnder removes the entry at path and every entry inside it.
func (s *MediaStore) DeleteUnder(path string) (int64, error) {
	result, err := s.database.Session().SQL().Exec(
		`DELETE FROM media WHERE path = ? OR instr(path, ?) = 1`, path, withSeparator(path))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Count is the number of indexed images.
func (s *MediaStore) Count() (int, error) {
	count, err := s.getCollection().Find().Count()
	return int(count), err
}

func sortTime(entry *MediaEntry) int64 {
	if entry.DateTaken != 0 {
		return entry.DateTaken
	}
	return entry.DateAdded
}

func withSeparator(path string) string {
	return filepath.Clean(path) + string(filepath.Separator)
}

func toPointers(entries []MediaEntry) []*MediaEntry {
	result := make([]*MediaEntry, len(entries))
	for i := range entries {
		result[i] = &entries[i]
	}
	return result
}
