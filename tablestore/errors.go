package tablestore

import (
	"errors"
	"fmt"
)

var (
	// ErrTableNotFound matches every *TableNotFoundError with errors.Is.
	ErrTableNotFound = errors.New("table not found")

	// ErrEmptyInput is returned by the insert operations when there are no
	// rows to insert.
	ErrEmptyInput = errors.New("add data is empty")
)

// TableNotFoundError is returned by operations that target a table which is
// not present in the database catalog.
type TableNotFoundError struct {
	Name string // table name
}

func (e *TableNotFoundError) Error() string {
	return fmt.Sprintf("table '%s' does not exist yet", e.Name)
}

func (e *TableNotFoundError) Is(target error) bool {
	return target == ErrTableNotFound
}
