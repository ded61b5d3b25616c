// Package repository holds the MySQL-backed stores.  These sentinel values
// let higher layers distinguish failure scenarios without inspecting driver
// errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update would duplicate an
// account email.
var ErrEmailExists = errors.New("email already exists")

// isDuplicateKey reports whether err is MySQL error 1062 (ER_DUP_ENTRY).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
