package sqlite

type migration struct {
	version int
	sql     string
}

// done хранится как INTEGER 0/1, created_at - TEXT в todo.TimestampLayout,
// поэтому сортировка по строке совпадает с хронологической
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS todos (
	todo_id        TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL,
	name           TEXT NOT NULL,
	due_date       TEXT NOT NULL,
	done           INTEGER NOT NULL DEFAULT 0 CHECK (done IN (0, 1)),
	created_at     TEXT NOT NULL,
	attachment_url TEXT
);`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_todos_user_created ON todos(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_todos_user_done ON todos(user_id, done);`,
	},
}
