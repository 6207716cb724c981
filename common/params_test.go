package common

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"vincit.fi/photo-gallery/api/apitype"
)

func TestParseParams_Defaults(t *testing.T) {
	a := assert.New(t)

	params, err := ParseParams([]string{"-root", "/photos", "folders"})
	require.Nil(t, err)

	a.Equal("/photos", params.RootPath())
	a.Equal(filepath.Join("/photos", DefaultIndexFile), params.IndexPath())
	a.Equal("", params.TreePath())
	a.Equal(apitype.OnExistsFail, params.OnExists())
	a.Equal(apitype.DeleteDirect, params.DeletionPolicy())
	a.Equal(apitype.SortByName, params.FolderSort())
	a.Equal(apitype.StaleDrop, params.StalePolicy())
	a.Equal(DefaultOwner, params.Owner())
	a.False(params.Watch())
	a.Equal([]string{"folders"}, params.Args())
}

func TestParseParams_Flags(t *testing.T) {
	a := assert.New(t)

	params, err := ParseParams([]string{
		"-root", "/photos",
		"-index", "/var/index.db",
		"-tree", "/media/sdcard",
		"-onExists", "succeed",
		"-deletePolicy", "always-consent",
		"-sort", "count",
		"-stale", "last-write-wins",
		"-watch",
	})
	require.Nil(t, err)

	a.Equal("/var/index.db", params.IndexPath())
	a.Equal("/media/sdcard", params.TreePath())
	a.Equal(apitype.OnExistsSucceed, params.OnExists())
	a.Equal(apitype.DeleteAlwaysConsent, params.DeletionPolicy())
	a.Equal(apitype.SortByCount, params.FolderSort())
	a.Equal(apitype.StaleLastWriteWins, params.StalePolicy())
	a.True(params.Watch())
}

func TestParseParams_ConfigFile(t *testing.T) {
	a := assert.New(t)
	r := require.New(t)

	configFile := filepath.Join(t.TempDir(), "gallery.toml")
	r.Nil(os.WriteFile(configFile, []byte(`
root = "/from/config"
tree = "/media/card"
on_exists = "succeed"
delete_policy = "owner-scoped"
sort = "count"
watch = true
event_queue_size = 7
`), 0o644))

	params, err := ParseParams([]string{"-config", configFile, "-sort", "name"})
	r.Nil(err)

	a.Equal("/from/config", params.RootPath())
	a.Equal("/media/card", params.TreePath())
	a.Equal(apitype.OnExistsSucceed, params.OnExists())
	a.Equal(apitype.DeleteOwnerScoped, params.DeletionPolicy())
	a.Equal(apitype.SortByName, params.FolderSort(), "flag overrides config")
	a.True(params.Watch())
	a.Equal(7, params.EventQueueSize())
}

func TestParseParams_InvalidConfigFile(t *testing.T) {
	_, err := ParseParams([]string{"-config", filepath.Join(t.TempDir(), "missing.toml")})
	assert.NotNil(t, err)
}
