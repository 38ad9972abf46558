// Package all registers every storage backend. Import for side effects from
// binaries that select the backend at runtime via config.
package all

import (
	_ "flattab/internal/storage/mssql"
	_ "flattab/internal/storage/postgres"
	_ "flattab/internal/storage/sqlite"
)
