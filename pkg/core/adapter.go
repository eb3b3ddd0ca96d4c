package core

import "database/sql"

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}
