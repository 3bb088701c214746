package dialect

import (
	"database/sql/driver"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"modernc.org/sqlite"
)

// FromDriver identifies the product behind a database/sql driver.
// Drivers not linked into this binary report Unknown.
func FromDriver(d driver.Driver) Product {
	switch d.(type) {
	case *pq.Driver, *stdlib.Driver:
		return PostgreSQL
	case *mysql.MySQLDriver:
		return MySQL
	case *sqlite3.SQLiteDriver, *sqlite.Driver:
		return SQLite
	default:
		return Unknown
	}
}

// FromDriverName maps a database/sql registration name to a product.
func FromDriverName(name string) Product {
	switch name {
	case "postgres", "pgx", "pgx/v5":
		return PostgreSQL
	case "mysql":
		return MySQL
	case "sqlite3", "sqlite":
		return SQLite
	default:
		return ParseProduct(name)
	}
}
