package storage

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vincit.fi/photo-gallery/api/apitype"
)

func writeFile(t *testing.T, path string, content string) {
	t.Helper()
	require.Nil(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.Nil(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDirTree_PathsStayInsideRoot(t *testing.T) {
	a := assert.New(t)
	sut := NewLocalTree("/photos")

	a.Equal(filepath.Join("/photos", "Trip", "a.jpg"), sut.OsPath("Trip/a.jpg"))
	a.Equal(filepath.Join("/photos", "a.jpg"), sut.OsPath("../../a.jpg"))
	a.Equal("/photos", sut.OsPath(""))

	rel, ok := sut.RelPath(filepath.Join("/photos", "Trip", "a.jpg"))
	a.True(ok)
	a.Equal("Trip/a.jpg", rel)
	_, ok = sut.RelPath("/elsewhere/a.jpg")
	a.False(ok)
}

func TestDirTree_Refs(t *testing.T) {
	a := assert.New(t)

	local := NewLocalTree("/photos")
	a.Equal(apitype.NewFileRef(filepath.Join("/photos", "Trip", "a.jpg")), local.Ref("Trip/a.jpg"))
	a.Equal(apitype.LocalPath, local.Location("Trip").Kind)
	a.Equal("Trip", local.Location("Trip").Name)

	external := NewExternalTree("card", "/media/card")
	ref := external.Ref("Trip/a.jpg")
	a.Equal(apitype.TreeRef, ref.Kind())
	a.Equal("card", ref.TreeId())
	a.Equal("Trip/a.jpg", ref.RelPath())
	a.True(external.Location("Trip").IsExternal())
}

func TestDirTree_CreateDoesNotOverwrite(t *testing.T) {
	a := assert.New(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jpg"), "original")
	sut := NewLocalTree(root)

	_, err := sut.Create("a.jpg")
	a.ErrorIs(err, fs.ErrExist)

	writer, err := sut.Create("b.jpg")
	require.Nil(t, err)
	_, _ = io.WriteString(writer, "new")
	a.Nil(writer.Close())

	content, _ := os.ReadFile(filepath.Join(root, "b.jpg"))
	a.Equal("new", string(content))
}

func TestDirTree_RemoveAllRefusesRoot(t *testing.T) {
	root := t.TempDir()
	sut := NewLocalTree(root)

	assert.ErrorIs(t, sut.RemoveAll(""), apitype.ErrInvalidName)
	assert.DirExists(t, root)
}

func TestDirTree_WalkSkipsIgnoredDirectories(t *testing.T) {
	a := assert.New(t)
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Trip", "a.jpg"), "a")
	writeFile(t, filepath.Join(root, "Trip", "nested", "b.png"), "b")
	writeFile(t, filepath.Join(root, ".hidden", "c.jpg"), "c")
	writeFile(t, filepath.Join(root, "thumbnails", "d.jpg"), "d")
	sut := NewLocalTree(root)

	var files []string
	err := sut.Walk(context.Background(), "", func(rel string, info fs.FileInfo) error {
		if !info.IsDir() {
			files = append(files, rel)
		}
		return nil
	})
	require.Nil(t, err)

	sort.Strings(files)
	a.Equal([]string{"Trip/a.jpg", "Trip/nested/b.png"}, files)
}

func TestDirTree_WalkCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "Trip", "a.jpg"), "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewLocalTree(root).Walk(ctx, "", func(string, fs.FileInfo) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGrant(t *testing.T) {
	a := assert.New(t)
	sut := NewGrant()

	_, ok := sut.Current()
	a.False(ok)

	sut.Set(NewExternalTree("card", "/media/card"))
	tree, ok := sut.Current()
	a.True(ok)
	a.Equal("card", tree.Id())

	sut.Clear()
	_, ok = sut.Current()
	a.False(ok)
}

func TestNewGrantedTree_StableId(t *testing.T) {
	a := assert.New(t)

	first := NewGrantedTree("/media/card")
	second := NewGrantedTree("/media/card/")
	other := NewGrantedTree("/media/other")

	a.Equal(first.Id(), second.Id())
	a.NotEqual(first.Id(), other.Id())
	a.Equal(apitype.ExternalTree, first.Kind())
	a.Equal(apitype.TreeRef, first.Ref("Card/a.jpg").Kind())
}
