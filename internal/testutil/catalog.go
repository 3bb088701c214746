package testutil

import (
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/edmsql/internal/binding"
	"github.com/roach88/edmsql/internal/ir"
)

// ShopDocument describes the shop model used across tests: customers,
// their orders and order lines, plus an Address complex type.
func ShopDocument() *binding.Document {
	return &binding.Document{
		Namespace: "Shop",
		ComplexTypes: []binding.ComplexDoc{{
			Name:       "Address",
			Properties: []binding.PropertyDoc{{Name: "Street"}, {Name: "City"}},
		}},
		Entities: []binding.EntityDoc{
			{
				Name:  "Customer",
				Set:   "Customers",
				Table: "CUSTOMERS",
				Key:   []string{"Id"},
				Properties: []binding.PropertyDoc{
					{Name: "Id", Type: "Edm.String"},
					{Name: "Name", Type: "Edm.String"},
					{Name: "City", Type: "Edm.String"},
				},
				Navigations: []binding.NavigationDoc{{Name: "Orders", Target: "Order"}},
			},
			{
				Name:  "Order",
				Set:   "Orders",
				Table: "ORDERS",
				Key:   []string{"Id"},
				Properties: []binding.PropertyDoc{
					{Name: "Id", Type: "Edm.Int64"},
					{Name: "CustomerId", Type: "Edm.String", Column: "CUSTOMER_ID"},
					{Name: "Date", Type: "Edm.Date", Column: "ORDER_DATE"},
					{Name: "Total", Type: "Edm.Decimal", SQLType: "NUMERIC"},
					{Name: "Qty", Type: "Edm.Int32"},
					{Name: "Weight", Type: "Edm.Double"},
					{Name: "Note", Type: "Edm.String"},
					{Name: "PlacedAt", Type: "Edm.DateTimeOffset", Column: "PLACED_AT"},
					{Name: "ShipTo", Complex: "Address"},
				},
				Navigations: []binding.NavigationDoc{
					{Name: "Customer", Target: "Customer", JoinColumn: "CUSTOMER_ID"},
					{Name: "Lines", Target: "OrderLine"},
				},
			},
			{
				Name:  "OrderLine",
				Set:   "OrderLines",
				Table: "ORDER_LINES",
				Key:   []string{"Id"},
				Properties: []binding.PropertyDoc{
					{Name: "Id", Type: "Edm.Int64"},
					{Name: "OrderId", Type: "Edm.Int64", Column: "ORDER_ID"},
					{Name: "Product", Type: "Edm.String"},
					{Name: "Qty", Type: "Edm.Int32"},
				},
				Navigations: []binding.NavigationDoc{
					{Name: "Order", Target: "Order", JoinColumn: "ORDER_ID"},
				},
			},
		},
	}
}

// ShopCatalog builds the shop catalog, failing the test on error.
func ShopCatalog(t testing.TB) *binding.Catalog {
	t.Helper()
	c, err := binding.NewCatalog(ShopDocument())
	require.NoError(t, err)
	return c
}

// MustSet looks up an entity set, failing the test when it is missing.
func MustSet(t testing.TB, c *binding.Catalog, name string) *ir.EntitySet {
	t.Helper()
	s, err := c.EntitySet(name)
	require.NoError(t, err)
	return s
}

// ShopDDL creates the shop tables.
const ShopDDL = `
CREATE TABLE CUSTOMERS (
	ID   TEXT PRIMARY KEY,
	NAME TEXT NOT NULL,
	CITY TEXT
);

CREATE TABLE ORDERS (
	ID          INTEGER PRIMARY KEY,
	CUSTOMER_ID TEXT REFERENCES CUSTOMERS(ID),
	ORDER_DATE  TEXT,
	TOTAL       NUMERIC,
	QTY         INTEGER,
	WEIGHT      REAL,
	NOTE        TEXT,
	PLACED_AT   TEXT
);

CREATE TABLE ORDER_LINES (
	ID       INTEGER PRIMARY KEY,
	ORDER_ID INTEGER REFERENCES ORDERS(ID),
	PRODUCT  TEXT,
	QTY      INTEGER
);
`

// SeedShop creates the shop tables and inserts three customers, orders
// orders and two lines for each of the first three orders.
//
// Order i (1-based) belongs to C1, C2, C3 in rotation starting with C1,
// totals 10*i, has quantity i%5+1, and has no note when i is a multiple
// of 10.
func SeedShop(db *sql.DB, orders int) error {
	if _, err := db.Exec(ShopDDL); err != nil {
		return fmt.Errorf("create shop schema: %w", err)
	}
	customers := [][3]string{{"C1", "Alice", "Berlin"}, {"C2", "Bob", "Paris"}, {"C3", "Carol", "Berlin"}}
	for _, c := range customers {
		if _, err := db.Exec(`INSERT INTO CUSTOMERS (ID, NAME, CITY) VALUES (?, ?, ?)`, c[0], c[1], c[2]); err != nil {
			return fmt.Errorf("insert customer: %w", err)
		}
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= orders; i++ {
		var note any = fmt.Sprintf("note %d", i)
		if i%10 == 0 {
			note = nil
		}
		_, err := db.Exec(
			`INSERT INTO ORDERS (ID, CUSTOMER_ID, ORDER_DATE, TOTAL, QTY, WEIGHT, NOTE, PLACED_AT) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			i, customers[(i-1)%3][0], start.AddDate(0, 0, i-1).Format(time.DateOnly), i*10, i%5+1, float64(i)/2, note,
			start.AddDate(0, 0, i-1).Add(9*time.Hour).Format(time.RFC3339))
		if err != nil {
			return fmt.Errorf("insert order %d: %w", i, err)
		}
	}

	for i := 1; i <= min(orders, 3); i++ {
		for j := 1; j <= 2; j++ {
			id := (i-1)*2 + j
			if _, err := db.Exec(`INSERT INTO ORDER_LINES (ID, ORDER_ID, PRODUCT, QTY) VALUES (?, ?, ?, ?)`,
				id, i, fmt.Sprintf("P%d", j), j); err != nil {
				return fmt.Errorf("insert order line %d: %w", id, err)
			}
		}
	}
	return nil
}
