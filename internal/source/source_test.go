package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/rs/zerolog"
)

func TestFailed_AlwaysEmpty(t *testing.T) {
	r := Failed("cosing", fmt.Errorf("%w: gone", ErrMissingResource))
	if r.Status != StatusFailed {
		t.Fatalf("status=%s, want failed", r.Status)
	}
	if r.Rows != 0 || !r.Table.Empty() {
		t.Fatalf("failed result must be empty, rows=%d table=%d", r.Rows, r.Table.Len())
	}
	if r.Err == nil {
		t.Fatalf("expected error on failed result")
	}
	if got := Failed("x", nil); !errors.Is(got.Err, ErrUnexpected) {
		t.Fatalf("nil error should default to ErrUnexpected, got %v", got.Err)
	}
}

func TestPartial_WithoutRowsIsFailed(t *testing.T) {
	r := Partial("api", NewTable("a"), ErrTransientNetwork)
	if r.Status != StatusFailed {
		t.Fatalf("status=%s, want failed", r.Status)
	}
	tb := NewTable("a", "b")
	tb.Append([]string{"1", "2"})
	r = Partial("api", tb, ErrTransientNetwork)
	if r.Status != StatusPartial || r.Rows != 1 {
		t.Fatalf("unexpected partial result: %+v", r)
	}
}

func TestTable_AppendPadsToColumns(t *testing.T) {
	tb := NewTable("a", "b", "c")
	tb.Append([]string{"1"})
	tb.Append([]string{"1", "2", "3", "4"})
	for i, row := range tb.Rows {
		if len(row) != 3 {
			t.Fatalf("row %d has %d cells, want 3", i, len(row))
		}
	}
}

func TestStateFor(t *testing.T) {
	ok := Succeeded("a", Table{Columns: []string{"x"}, Rows: [][]string{{"1"}}})
	bad := Failed("b", ErrMissingResource)
	cases := []struct {
		name    string
		results []Result
		want    State
	}{
		{"none", nil, StateFailed},
		{"all ok", []Result{ok, ok}, StateSucceeded},
		{"all failed", []Result{bad, bad}, StateFailed},
		{"mixed", []Result{ok, bad}, StatePartial},
	}
	for _, tc := range cases {
		if got := StateFor(tc.results); got != tc.want {
			t.Fatalf("%s: got %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestClassify(t *testing.T) {
	_, statErr := os.Stat("/definitely/not/here")
	jsonErr := json.Unmarshal([]byte("{"), &struct{}{})
	cases := []struct {
		err  error
		want Kind
	}{
		{nil, KindNone},
		{statErr, KindMissing},
		{context.DeadlineExceeded, KindTransient},
		{fmt.Errorf("page 2: %w", ErrTransientNetwork), KindTransient},
		{fmt.Errorf("%w: bad", ErrAuthentication), KindAuthentication},
		{jsonErr, KindMalformed},
		{errors.New("boom"), KindUnexpected},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v)=%q, want %q", tc.err, got, tc.want)
		}
	}
	if KindTransient.Level() != zerolog.WarnLevel {
		t.Fatalf("transient failures log at warn")
	}
	if KindAuthentication.Level() != zerolog.ErrorLevel {
		t.Fatalf("authentication failures log at error")
	}
}

func TestNormalizeName(t *testing.T) {
	if got := NormalizeName("  Formaldehyde \t solution\u00a0 "); got != "Formaldehyde solution" {
		t.Fatalf("got %q", got)
	}
	// Decomposed e + combining acute composes to the same name as é.
	if NormalizeName("cre\u0301me") != NormalizeName("cr\u00e9me") {
		t.Fatalf("expected NFC normalization")
	}
}
