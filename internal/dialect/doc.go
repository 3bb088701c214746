// Package dialect describes the relational backends the SQL compiler
// targets.
//
// A Product is a closed tag set derived from driver metadata; everything
// dialect specific that the compiler needs (row limiting, placeholder
// style, identifier quoting) hangs off it. The compiler's clause order never
// changes per dialect: row limiting is expressed only through the prefix
// and suffix slots a Context returns.
//
// PAGING STYLES:
//
//	LimitOffset   SELECT ... LIMIT n OFFSET m      PostgreSQL, MySQL, SQLite, HANA, H2
//	TopPrefix     SELECT TOP (m+n) ...             SQL Server, Sybase (skip on the client)
//	OffsetFetch   ... OFFSET m ROWS FETCH NEXT n   Derby
//	ClientPaging  nothing in SQL                   Unknown (cursor does both)
package dialect
