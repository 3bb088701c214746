// Package store executes compiled entity queries over database/sql.
//
// A Store wraps a *sql.DB together with the dialect context detected from
// its driver and the metadata requests are compiled against. Fetch runs
// the full pipeline:
//
//	request → querysql.Compile → QueryContext → SetOffset → Next loop → rows
//
// Rows are decoded per table alias, so an expanded navigation comes back
// next to its root entity:
//
//	row["T0"]["Total"], row["T1"]["Name"]
//
// # Paging
//
// When the dialect cannot skip rows in SQL (SQL Server TOP, unknown
// products) the skipped rows are consumed on the *sql.Rows cursor by
// querysql.Query.SetOffset and the Top cap is enforced by Query.Next. For
// LIMIT/OFFSET products both are no-ops beyond the statement itself.
//
// # Database Configuration
//
// SQLite connections get the same pragmas as any embedded store:
//
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//
// and are limited to one open connection so in-memory databases survive
// across calls.
package store
