package common

import (
	"database/sql"
	"fmt"

	"github.com/apex/log"
)

func LogResult(msgPrefix string, r sql.Result, e error, e1 bool) {
	if e != nil {
		log.Errorf("Query failed: %v", e)
		return
	}
	rows, err := r.RowsAffected()
	if err != nil {
		log.Errorf("Failed to get status of db op: %v", err)
		return
	}
	if e1 && rows != 1 {
		log.Warnf("%s: Expected to affect 1 row, affected %d", msgPrefix, rows)
	}
}

// ValidateResult returns an error when the statement failed or, with
// checkRowsAffected, when it did not touch exactly one row.
func ValidateResult(r sql.Result, e error, checkRowsAffected bool) error {
	if e != nil {
		log.Errorf("Query failed: %v", e)
		return e
	}
	rows, err := r.RowsAffected()
	if err != nil {
		log.Errorf("Failed to get status of db op: %v", err)
		return err
	}
	if checkRowsAffected && rows != 1 {
		err := fmt.Errorf("expected to affect 1 row, affected %d", rows)
		log.Errorf("%v", err)
		return err
	}
	return nil
}
