// Package harness runs compile scenarios against the SQL compiler.
//
// A scenario compiles one request for several dialects, checks the bound
// arguments or the expected error, and optionally runs the request
// against a seeded in-memory SQLite shop database.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: paged_orders
//	description: "Orders of one customer, newest first, third page"
//	catalog: ../catalogs/shop.yaml
//	dialects: [postgresql, sqlserver, derby]
//	case_sensitive: false
//	request:
//	  entity_set: Orders
//	  select: [Date, Total]
//	  filter: {eq: [{member: CustomerId}, C1]}
//	  orderby: ["Date desc"]
//	  skip: 20
//	  top: 10
//	expect:
//	  args: [C1]
//	execute:
//	  seed: 100
//	  keys: [40, 37, 34, 31, 28, 25, 22, 19, 16, 13]
//
// The catalog path is relative to the scenario file. expect.error names
// the error every dialect must fail with, as CODE(feature), for example
// UNIMPLEMENTED(star_select).
//
// # Golden Files
//
// RunWithGolden renders the SQL of every dialect and compares it with
// testdata/golden/<name>.golden. To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Execution uses a fixed query id and a fresh database per scenario, so
// results do not depend on test order.
package harness
