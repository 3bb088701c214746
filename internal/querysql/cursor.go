package querysql

// FetchSize bounds how many rows SetOffset skips with one relative jump.
const FetchSize = 100

// Cursor is a forward-only result cursor. *sql.Rows satisfies it.
type Cursor interface {
	Next() bool
	Err() error
}

// Scroller is implemented by cursors that can move several rows at once.
// Relative moves up to n rows forward and returns the number of rows it
// moved past and whether the cursor is on a row afterwards.
type Scroller interface {
	Relative(n int) (moved int, ok bool)
}

// relative moves c forward n rows, natively when c is a Scroller.
func relative(c Cursor, n int) (int, bool) {
	if s, ok := c.(Scroller); ok {
		return s.Relative(n)
	}
	for i := 0; i < n; i++ {
		if !c.Next() {
			return i, false
		}
	}
	return n, true
}

// Next advances c and enforces the row cap of the query: once more than
// Top rows past the skipped ones have been requested it returns false
// without touching the cursor.
func (q *Query) Next(c Cursor) bool {
	q.rowCounter++
	if q.sel != nil && q.sel.top > 0 && q.rowCounter > q.skipped+q.sel.top {
		return false
	}
	return c.Next()
}

// SetOffset skips the first Skip rows of c when the statement could not
// skip them itself. It alternates single-row advances, used for the first
// row and at every fetch-size boundary, with relative jumps that stay
// within one fetch block, and stops early when c is exhausted. The skipped
// rows count towards the row counter so Next keeps capping at Top.
//
// SetOffset starts a new cursor run: the row counter is reset even when
// no rows need skipping, so one compiled Query can be executed repeatedly.
// Skipping is a no-op when the dialect passed to BuildSelect skips rows
// natively or Skip is zero.
func (q *Query) SetOffset(c Cursor) error {
	q.ResetCursor()
	if q.sel == nil || q.sel.count || q.sel.skip < 1 || q.nativeSkip {
		return nil
	}

	skip := q.sel.skip
	skipped := 0
	for skipped < skip {
		if skipped%q.fetchSize == 0 {
			if !c.Next() {
				break
			}
			skipped++
			continue
		}
		moved, ok := relative(c, min(skip-skipped, q.fetchSize-skipped%q.fetchSize))
		skipped += moved
		if !ok {
			break
		}
	}

	q.rowCounter = skipped
	q.skipped = skipped
	q.log.Debug("rows skipped on cursor", "requested", skip, "skipped", skipped)
	return c.Err()
}

// ResetCursor clears the row counter and the skipped rows of the previous
// cursor run.
func (q *Query) ResetCursor() {
	q.rowCounter = 0
	q.skipped = 0
}

// RowCounter returns the number of rows requested through Next plus the
// rows skipped by SetOffset.
func (q *Query) RowCounter() int { return q.rowCounter }
