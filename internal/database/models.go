package database

import "time"

// entry is a row of the kv_entries table.
type entry struct {
	Key       string    `db:"key"`
	Value     []byte    `db:"value"`
	Version   int64     `db:"version"`
	UpdatedAt time.Time `db:"updated_at"`
}
