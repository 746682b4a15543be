package initfile

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/corvidb/corvid/pkg/catalog/bootstrap"
	"github.com/corvidb/corvid/pkg/catalog/oids"
	"github.com/corvidb/corvid/pkg/fn"
)

func newBootstrap(t *testing.T) (*bootstrap.Catalog, *fn.Registry) {
	t.Helper()
	reg := fn.NewRegistry()
	cat, err := bootstrap.New(reg)
	if err != nil {
		t.Fatalf("bootstrap.New: %v", err)
	}
	return cat, reg
}

func TestReadsOneTableAndRow(t *testing.T) {
	cat, reg := newBootstrap(t)
	src := fmt.Sprintf("table 50000 %d 0 %d 16\ndata 7 hello\n", oids.TypInt4, oids.TypVarchar)
	rd := NewReader(strings.NewReader(src), cat, reg)

	rec, err := rd.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if rec.TabID != 50000 {
		t.Fatalf("TabID = %d, want 50000", rec.TabID)
	}
	if len(rec.Bytes) == 0 {
		t.Fatalf("expected non-empty encoded record")
	}

	if _, err := rd.Next(); err != io.EOF {
		t.Fatalf("second Next err = %v, want io.EOF", err)
	}
}

func TestRejectsUnparsableField(t *testing.T) {
	cat, reg := newBootstrap(t)
	src := fmt.Sprintf("table 50001 %d 0\ndata not-a-number\n", oids.TypInt4)
	rd := NewReader(strings.NewReader(src), cat, reg)

	if _, err := rd.Next(); err == nil {
		t.Fatalf("expected a parse error")
	}
	if _, err := rd.Next(); err == nil {
		t.Fatalf("expected the sticky error to persist")
	}
}

func TestQuotedTokenWithEscapes(t *testing.T) {
	cat, reg := newBootstrap(t)
	src := fmt.Sprintf("table 50002 %d 0\n", oids.TypVarchar) +
		`data "a \"quoted\" value"` + "\n"
	rd := NewReader(strings.NewReader(src), cat, reg)

	rec, err := rd.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if len(rec.Bytes) == 0 {
		t.Fatalf("expected a non-empty record")
	}
}
