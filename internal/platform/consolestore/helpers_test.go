package consolestore_test

import (
	"database/sql"
)

func bumpSchema(path string) error {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Exec("UPDATE schema_version SET version = version + 1")
	return err
}
