package testutil

// FakeCursor is an in-memory result cursor over Rows rows.
//
// It records how it was driven so tests can assert the exact call pattern
// of pagination code. Relative is only offered through ScrollCursor.
type FakeCursor struct {
	Rows int

	// Position is the 1-based current row; 0 is before the first row and
	// Rows+1 is after the last.
	Position int

	NextCalls int
	Calls     []string

	err error
}

// NewFakeCursor returns a cursor positioned before the first of rows rows.
func NewFakeCursor(rows int) *FakeCursor {
	return &FakeCursor{Rows: rows}
}

// Next moves one row forward.
func (c *FakeCursor) Next() bool {
	c.NextCalls++
	c.Calls = append(c.Calls, "next")
	return c.advance(1)
}

// Err returns the error set with FailWith.
func (c *FakeCursor) Err() error { return c.err }

// FailWith makes Err return err.
func (c *FakeCursor) FailWith(err error) { c.err = err }

func (c *FakeCursor) advance(n int) bool {
	c.Position += n
	if c.Position > c.Rows {
		c.Position = c.Rows + 1
		return false
	}
	return true
}

// ScrollCursor is a FakeCursor that can also jump several rows.
type ScrollCursor struct {
	*FakeCursor
	RelativeCalls []int
}

// NewScrollCursor returns a scrollable cursor over rows rows.
func NewScrollCursor(rows int) *ScrollCursor {
	return &ScrollCursor{FakeCursor: NewFakeCursor(rows)}
}

// Relative moves n rows forward. It returns the rows moved past and
// whether it is still on a row.
func (c *ScrollCursor) Relative(n int) (int, bool) {
	c.RelativeCalls = append(c.RelativeCalls, n)
	c.Calls = append(c.Calls, "relative")
	moved := min(n, max(c.Rows-c.Position, 0))
	return moved, c.advance(n)
}
