package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/upper/db/v4"
	"vincit.fi/photo-gallery/api/apitype"
)

func openTestDatabase(t *testing.T) *Database {
	t.Helper()
	database := NewDatabase()
	require.Nil(t, database.Open(filepath.Join(t.TempDir(), "index.db")))
	t.Cleanup(database.Close)
	return database
}

func entry(root string, bucket string, fileName string, added time.Time) *MediaEntry {
	return &MediaEntry{
		Path:      filepath.Join(root, bucket, fileName),
		Bucket:    bucket,
		FileName:  fileName,
		ByteSize:  10,
		DateAdded: added.UnixNano(),
	}
}

func (s *MediaStore) findByPath(path string) (*MediaEntry, error) {
	var entry MediaEntry
	err := s.getCollection().Find(db.Cond{"path": path}).One(&entry)
	if errors.Is(err, db.ErrNoMoreRows) {
		return nil, apitype.NewOperationError("find", apitype.NotFound, path, os.ErrNotExist)
	} else if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (s *MediaStore) listUnderPath(path string) ([]*MediaEntry, error) {
	return s.listUnder(s.database.Session(), path)
}
