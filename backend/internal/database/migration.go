package database

type migration struct {
	id          MigrationId
	description string
	query       string
}

var migrations = []migration{
	{
		id:          0,
		description: "Media index",
		query: `
			CREATE TABLE media (
			    id INTEGER PRIMARY KEY,
			    path TEXT NOT NULL,
			    bucket TEXT NOT NULL,
			    file_name TEXT NOT NULL,
			    byte_size INT,
			    date_added INT,
			    date_taken INT,
			    sort_time INT,
			    owner TEXT,

			    UNIQUE (path)
			);

			CREATE INDEX media_bucket_idx ON media (bucket);
			CREATE INDEX media_sort_time_idx ON media (sort_time);
		`,
	},
}
