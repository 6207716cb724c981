package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDatabase_Open(t *testing.T) {
	a := require.New(t)

	sut := NewDatabase()
	err := sut.Open(filepath.Join(t.TempDir(), "nested", "test.db"))
	a.Nil(err)
	defer sut.Close()

	a.Nil(sut.session.Ping())
}

func TestDatabase_MigrateIsIdempotent(t *testing.T) {
	a := require.New(t)

	sut := NewDatabase()
	a.Nil(sut.Open(filepath.Join(t.TempDir(), "test.db")))
	defer sut.Close()

	a.Equal(TableExists, sut.Migrate())
	a.Equal(TableExists, sut.Migrate())
}
