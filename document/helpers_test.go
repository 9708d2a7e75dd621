package document

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsawler/pdfobj/core"
)

// buildPDF assembles a classic file holding one object per body, numbered
// from 1, with trailer entries appended verbatim.
func buildPDF(t testing.TB, trailer string, bodies ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.6\n")
	entries := []core.XRefEntry{{Generation: 65535}}
	for i, body := range bodies {
		entries = append(entries, core.XRefEntry{Offset: int64(buf.Len()), InUse: true})
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	require.NoError(t, core.WriteXRef(&buf, entries))
	fmt.Fprintf(&buf, "trailer\n<</Size %d %s>>\nstartxref\n%d\n%%%%EOF\n", len(entries), trailer, xref)
	return buf.Bytes()
}

func loadPDF(t testing.TB, data []byte, opts ...Option) *Document {
	t.Helper()
	doc, err := Load(bytes.NewReader(data), int64(len(data)), opts...)
	require.NoError(t, err)
	return doc
}

// describe renders a handle as its canonical syntax, prefixed by its
// reference when it is indirect.
func describe(h *Handle) string {
	obj, err := h.Value()
	if err != nil {
		return "error: " + err.Error()
	}
	var buf bytes.Buffer
	if err := core.WriteObject(&buf, obj); err != nil {
		return "error: " + err.Error()
	}
	if h.IsIndirect() {
		return h.Ref().String() + " -> " + buf.String()
	}
	return buf.String()
}

func syntax(t testing.TB, obj core.Object) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, core.WriteObject(&buf, obj))
	return buf.String()
}
