package migrate

import (
	"database/sql"
	"embed"
	"io/fs"
)

//go:embed migrations/*.sql
var embedded embed.FS

// Embedded returns the migrations compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// NewEmbeddedRunner applies the compiled-in migrations.
func NewEmbeddedRunner(db *sql.DB) (*Runner, error) {
	return NewRunner(db, Embedded())
}
