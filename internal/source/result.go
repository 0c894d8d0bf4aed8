package source

import (
	"time"
)

// Status is the terminal state of one extracted table.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

// Table is an ordered set of rows with named columns. Cells are kept as
// strings: snapshots are raw and no column is coerced.
type Table struct {
	Columns []string
	Rows    [][]string
}

// NewTable returns an empty table with the given columns.
func NewTable(columns ...string) Table {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return Table{Columns: cols}
}

// Append adds a row, padding or truncating it to the column count.
func (t *Table) Append(row []string) {
	out := make([]string, len(t.Columns))
	copy(out, row)
	t.Rows = append(t.Rows, out)
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Empty reports whether the table has no rows.
func (t Table) Empty() bool { return len(t.Rows) == 0 }

// Result is the outcome for a single table of a source. Build it with
// Succeeded, Partial or Failed so that Rows always matches the table and a
// failed result never carries data.
type Result struct {
	Tag    string
	Table  Table
	Status Status
	Rows   int
	Err    error
	Detail string
}

// Succeeded wraps a fully extracted table.
func Succeeded(tag string, t Table) Result {
	return Result{Tag: tag, Table: t, Status: StatusSucceeded, Rows: t.Len()}
}

// Partial wraps a table where some units of work (rows, pages) were skipped.
// err describes the last skipped unit. A partial result with no rows is
// reported as failed.
func Partial(tag string, t Table, err error) Result {
	if t.Empty() {
		return Failed(tag, err)
	}
	return Result{Tag: tag, Table: t, Status: StatusPartial, Rows: t.Len(), Err: err}
}

// Failed returns an empty-but-valid result carrying err.
func Failed(tag string, err error) Result {
	if err == nil {
		err = ErrUnexpected
	}
	return Result{Tag: tag, Table: Table{}, Status: StatusFailed, Err: err}
}

// WithDetail returns a copy of r with Detail set.
func (r Result) WithDetail(detail string) Result {
	r.Detail = detail
	return r
}

// State is the lifecycle of one extractor within a run.
type State string

const (
	StateNotStarted State = "NOT_STARTED"
	StateRunning    State = "RUNNING"
	StateSucceeded  State = "SUCCEEDED"
	StatePartial    State = "PARTIAL"
	StateFailed     State = "FAILED"
)

// Terminal reports whether s is one of the end states.
func (s State) Terminal() bool {
	return s == StateSucceeded || s == StatePartial || s == StateFailed
}

// Outcome groups the results of one extractor invocation.
type Outcome struct {
	Source   string
	State    State
	Results  []Result
	Started  time.Time
	Duration time.Duration
}

// Rows returns the total row count across all tables.
func (o Outcome) Rows() int {
	n := 0
	for _, r := range o.Results {
		n += r.Rows
	}
	return n
}

// StateFor derives the extractor state from its table results.
func StateFor(results []Result) State {
	if len(results) == 0 {
		return StateFailed
	}
	failed, succeeded := 0, 0
	for _, r := range results {
		switch r.Status {
		case StatusFailed:
			failed++
		case StatusSucceeded:
			succeeded++
		}
	}
	switch {
	case failed == len(results):
		return StateFailed
	case succeeded == len(results):
		return StateSucceeded
	default:
		return StatePartial
	}
}
