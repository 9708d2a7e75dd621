package engine

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/pdfobj/core"
)

// samplePDF builds a small file: a catalog, a page tree, a string, and a
// stream whose length is stored indirectly in object 5.
func samplePDF(t *testing.T) []byte {
	t.Helper()
	bodies := []string{
		"<</Type /Catalog /Pages 2 0 R>>",
		"<</Type /Pages /Kids [] /Count 0 /Parent 1 0 R>>",
		"(hello)",
		"<</Length 5 0 R>>\nstream\nBT ET\nendstream",
		"5",
	}
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	entries := []core.XRefEntry{{Generation: 65535}}
	for i, body := range bodies {
		entries = append(entries, core.XRefEntry{Offset: int64(buf.Len()), InUse: true})
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}
	xref := buf.Len()
	require.NoError(t, core.WriteXRef(&buf, entries))
	fmt.Fprintf(&buf, "trailer\n<</Size %d /Root 1 0 R>>\nstartxref\n%d\n%%%%EOF\n", len(entries), xref)
	return buf.Bytes()
}

func loadSample(t *testing.T) *Store {
	t.Helper()
	data := samplePDF(t)
	s, err := Load(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	return s
}

func TestLoad(t *testing.T) {
	s := loadSample(t)
	require.Equal(t, Version{Major: 1, Minor: 4}, s.Version())
	require.Equal(t, "1.4", s.Version().String())
	require.False(t, s.Encrypted())

	root, ok := s.Trailer().GetRef("Root")
	require.True(t, ok)
	require.Equal(t, core.Ref{Number: 1}, root)

	require.Equal(t, []core.Ref{{Number: 1}, {Number: 2}, {Number: 3}, {Number: 4}, {Number: 5}}, s.Objects())
}

func TestMaterializeObject(t *testing.T) {
	s := loadSample(t)

	obj, err := s.MaterializeObject(3, 0)
	require.NoError(t, err)
	require.Equal(t, core.String("hello"), obj)

	obj, err = s.MaterializeObject(4, 0)
	require.NoError(t, err)
	stream, ok := obj.(*core.Stream)
	require.True(t, ok)
	require.Equal(t, "BT ET", string(stream.Data))

	_, err = s.MaterializeObject(9, 0)
	require.True(t, errors.Is(err, core.ErrObjectNotFound))
	require.False(t, errors.Is(err, core.ErrGenerationMismatch))

	_, err = s.MaterializeObject(0, 65535)
	require.True(t, errors.Is(err, core.ErrObjectNotFound))

	_, err = s.MaterializeObject(3, 1)
	require.True(t, errors.Is(err, core.ErrObjectNotFound))
	require.True(t, errors.Is(err, core.ErrGenerationMismatch))
}

func TestCyclicStreamLength(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	off := buf.Len()
	buf.WriteString("1 0 obj\n<</Length 1 0 R>>\nstream\nxx\nendstream\nendobj\n")
	xref := buf.Len()
	require.NoError(t, core.WriteXRef(&buf, []core.XRefEntry{{Generation: 65535}, {Offset: int64(off), InUse: true}}))
	fmt.Fprintf(&buf, "trailer\n<</Size 2>>\nstartxref\n%d\n%%%%EOF\n", xref)

	s, err := Load(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	_, err = s.MaterializeObject(1, 0)
	require.Error(t, err)
}

func TestLoadErrors(t *testing.T) {
	for _, input := range []string{"", "not a pdf", "%PDF-1.4\nno xref here\n"} {
		_, err := Load(bytes.NewReader([]byte(input)), int64(len(input)))
		require.Error(t, err, "%q", input)
	}
}

func TestAllocateAndCommit(t *testing.T) {
	s := loadSample(t)
	ref := s.AllocateObjectNumber()
	require.Equal(t, core.Ref{Number: 6}, ref)
	require.Equal(t, core.Ref{Number: 7}, s.AllocateObjectNumber())

	// Reserved but not committed.
	require.NotContains(t, s.Objects(), ref)
	gen, ok := s.Generation(6)
	require.True(t, ok)
	require.Equal(t, 0, gen)

	s.Commit(ref, core.Int(42))
	require.Contains(t, s.Objects(), ref)
	obj, err := s.MaterializeObject(6, 0)
	require.NoError(t, err)
	require.Equal(t, core.Int(42), obj)

	// Commit overrides file contents.
	s.Commit(core.Ref{Number: 3}, core.String("changed"))
	obj, err = s.MaterializeObject(3, 0)
	require.NoError(t, err)
	require.Equal(t, core.String("changed"), obj)
}

func TestSerializeObject(t *testing.T) {
	s := New()
	var buf bytes.Buffer
	require.NoError(t, s.SerializeObject(&buf, core.Ref{Number: 2}, core.Name("X")))
	require.Equal(t, "2 0 obj\n/X\nendobj\n", buf.String())

	buf.Reset()
	require.NoError(t, s.SerializeObject(&buf, core.Ref{}, core.NewArray(core.Int(1))))
	require.Equal(t, "[1]", buf.String())
}

func TestSaveRoundTrip(t *testing.T) {
	s := loadSample(t)
	s.Commit(core.Ref{Number: 3}, core.String("changed"))
	ref := s.AllocateObjectNumber()
	d := core.NewDict()
	d.Set("Count", core.Int(5))
	s.Commit(ref, d)
	s.AllocateObjectNumber() // never committed

	var out bytes.Buffer
	require.NoError(t, s.Save(&out, nil))

	s2, err := Load(bytes.NewReader(out.Bytes()), int64(out.Len()))
	require.NoError(t, err)
	require.Equal(t, DefaultVersion.Major, s2.Version().Major)
	require.Equal(t, []core.Ref{{Number: 1}, {Number: 2}, {Number: 3}, {Number: 4}, {Number: 5}, {Number: 6}}, s2.Objects())

	obj, err := s2.MaterializeObject(3, 0)
	require.NoError(t, err)
	require.Equal(t, core.String("changed"), obj)

	obj, err = s2.MaterializeObject(6, 0)
	require.NoError(t, err)
	count, ok := obj.(*core.Dict).GetInt("Count")
	require.True(t, ok)
	require.Equal(t, core.Int(5), count)

	obj, err = s2.MaterializeObject(4, 0)
	require.NoError(t, err)
	require.Equal(t, "BT ET", string(obj.(*core.Stream).Data))

	size, ok := s2.Trailer().GetInt("Size")
	require.True(t, ok)
	require.Equal(t, core.Int(8), size)
	root, _ := s2.Trailer().GetRef("Root")
	require.Equal(t, core.Ref{Number: 1}, root)
}

func TestSaveEmpty(t *testing.T) {
	s := New()
	var out bytes.Buffer
	require.NoError(t, s.Save(&out, nil))
	require.True(t, bytes.HasPrefix(out.Bytes(), []byte("%PDF-1.7\n")))

	s2, err := Load(bytes.NewReader(out.Bytes()), int64(out.Len()))
	require.NoError(t, err)
	require.Empty(t, s2.Objects())
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.pdf")
	require.NoError(t, os.WriteFile(path, samplePDF(t), 0o644))

	s, err := Open(path)
	require.NoError(t, err)
	obj, err := s.MaterializeObject(3, 0)
	require.NoError(t, err)
	require.Equal(t, core.String("hello"), obj)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = Open(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)
}
