package common

import (
	"flag"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"vincit.fi/photo-gallery/api/apitype"
)

const (
	DefaultIndexFile      = ".gallery-index.db"
	DefaultOwner          = "vincit.fi/photo-gallery"
	DefaultEventQueueSize = 100
)

type Params struct {
	rootPath       string
	indexFile      string
	treePath       string
	onExists       apitype.OnExistsPolicy
	deletionPolicy apitype.DeletionPolicy
	folderSort     apitype.FolderSort
	stalePolicy    apitype.StalePolicy
	logLevel       string
	watch          bool
	owner          string
	eventQueueSize int
	args           []string
}

// fileConfig is the layout of the optional TOML configuration file.
// Command line flags override values read from the file.
type fileConfig struct {
	Root           string `toml:"root"`
	Index          string `toml:"index"`
	Tree           string `toml:"tree"`
	OnExists       string `toml:"on_exists"`
	DeletePolicy   string `toml:"delete_policy"`
	Sort           string `toml:"sort"`
	Stale          string `toml:"stale"`
	LogLevel       string `toml:"log_level"`
	Watch          bool   `toml:"watch"`
	Owner          string `toml:"owner"`
	EventQueueSize int    `toml:"event_queue_size"`
}

func NewEmptyParams() *Params {
	return &Params{
		indexFile:      DefaultIndexFile,
		onExists:       apitype.OnExistsFail,
		deletionPolicy: apitype.DeleteDirect,
		folderSort:     apitype.SortByName,
		stalePolicy:    apitype.StaleDrop,
		logLevel:       "INFO",
		owner:          DefaultOwner,
		eventQueueSize: DefaultEventQueueSize,
	}
}

func ParseParams(arguments []string) (*Params, error) {
	flags := flag.NewFlagSet("gallery", flag.ContinueOnError)
	configFile := flags.String("config", "", "TOML configuration file")
	root := flags.String("root", "", "Local photos root directory")
	index := flags.String("index", DefaultIndexFile, "Media index database file. Relative paths are resolved against the root")
	tree := flags.String("tree", "", "Directory of a granted external storage tree")
	onExists := flags.String("onExists", "fail", "Creating an existing folder: fail or succeed")
	deletePolicy := flags.String("deletePolicy", "direct", "Deleting indexed images: direct, owner-scoped or always-consent")
	sortOrder := flags.String("sort", "name", "Folder sort order: name or count")
	stale := flags.String("stale", "drop", "Snapshots finishing after a newer one: drop or last-write-wins")
	logLevel := flags.String("logLevel", "INFO", "Log level: ERROR, WARN, INFO, DEBUG, TRACE")
	watch := flags.Bool("watch", false, "Watch the photos root and re-index changes")
	owner := flags.String("owner", DefaultOwner, "Owner recorded for index entries created by this application")
	eventQueueSize := flags.Int("eventQueueSize", DefaultEventQueueSize, "Event bus queue size")

	if err := flags.Parse(arguments); err != nil {
		return nil, err
	}

	if *configFile != "" {
		explicit := map[string]bool{}
		flags.Visit(func(f *flag.Flag) {
			explicit[f.Name] = true
		})

		var config fileConfig
		if _, err := toml.DecodeFile(*configFile, &config); err != nil {
			return nil, err
		}
		useString := func(name string, target *string, value string) {
			if !explicit[name] && value != "" {
				*target = value
			}
		}
		useString("root", root, config.Root)
		useString("index", index, config.Index)
		useString("tree", tree, config.Tree)
		useString("onExists", onExists, config.OnExists)
		useString("deletePolicy", deletePolicy, config.DeletePolicy)
		useString("sort", sortOrder, config.Sort)
		useString("stale", stale, config.Stale)
		useString("logLevel", logLevel, config.LogLevel)
		useString("owner", owner, config.Owner)
		if !explicit["watch"] && config.Watch {
			*watch = true
		}
		if !explicit["eventQueueSize"] && config.EventQueueSize > 0 {
			*eventQueueSize = config.EventQueueSize
		}
	}

	return &Params{
		rootPath:       *root,
		indexFile:      *index,
		treePath:       *tree,
		onExists:       apitype.OnExistsPolicyFromString(*onExists),
		deletionPolicy: apitype.DeletionPolicyFromString(*deletePolicy),
		folderSort:     apitype.FolderSortFromString(*sortOrder),
		stalePolicy:    apitype.StalePolicyFromString(*stale),
		logLevel:       *logLevel,
		watch:          *watch,
		owner:          *owner,
		eventQueueSize: *eventQueueSize,
		args:           flags.Args(),
	}, nil
}

func (s *Params) RootPath() string {
	return s.rootPath
}

// IndexPath resolves the index file against the root.
func (s *Params) IndexPath() string {
	if filepath.IsAbs(s.indexFile) || s.rootPath == "" {
		return s.indexFile
	}
	return filepath.Join(s.rootPath, s.indexFile)
}

func (s *Params) TreePath() string {
	return s.treePath
}

func (s *Params) OnExists() apitype.OnExistsPolicy {
	return s.onExists
}

func (s *Params) DeletionPolicy() apitype.DeletionPolicy {
	return s.deletionPolicy
}

func (s *Params) FolderSort() apitype.FolderSort {
	return s.folderSort
}

func (s *Params) StalePolicy() apitype.StalePolicy {
	return s.stalePolicy
}

func (s *Params) LogLevel() string {
	return s.logLevel
}

func (s *Params) Watch() bool {
	return s.watch
}

func (s *Params) Owner() string {
	return s.owner
}

func (s *Params) EventQueueSize() int {
	return s.eventQueueSize
}

// Args returns the positional arguments left after the flags.
func (s *Params) Args() []string {
	return s.args
}

func (s *Params) WithRootPath(rootPath string) *Params {
	s.rootPath = rootPath
	return s
}

func (s *Params) WithOnExists(policy apitype.OnExistsPolicy) *Params {
	s.onExists = policy
	return s
}

func (s *Params) WithDeletionPolicy(policy apitype.DeletionPolicy) *Params {
	s.deletionPolicy = policy
	return s
}

func (s *Params) WithFolderSort(order apitype.FolderSort) *Params {
	s.folderSort = order
	return s
}

func (s *Params) WithStalePolicy(policy apitype.StalePolicy) *Params {
	s.stalePolicy = policy
	return s
}

func (s *Params) WithTreePath(treePath string) *Params {
	s.treePath = treePath
	return s
}
