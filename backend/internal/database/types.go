package database

type TableExist bool

const (
	TableNotExist TableExist = false
	TableExists   TableExist = true
)

type MigrationId int64

type Migration struct {
	Id MigrationId `db:"id"`
}

// MediaEntry is one row of the structured media index.
type MediaEntry struct {
	Id       int64  `db:"id,omitempty"`
	Path     string `db:"path"`
	Bucket   string `db:"bucket"`
	FileName string `db:"file_name"`
	ByteSize int64  `db:"byte_size"`
	// Times are unix nanoseconds; DateTaken is zero without Exif data.
	DateAdded int64  `db:"date_added"`
	DateTaken int64  `db:"date_taken"`
	SortTime  int64  `db:"sort_time"`
	Owner     string `db:"owner"`
}
