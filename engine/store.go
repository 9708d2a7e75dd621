package engine

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/tsawler/pdfobj/core"
)

// Version represents a PDF version
type Version struct {
	Major int
	Minor int
}

// String returns the version as a string (e.g., "1.7")
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// DefaultVersion is written by stores created with New.
var DefaultVersion = Version{Major: 1, Minor: 7}

var headerRE = regexp.MustCompile(`^%PDF-(\d+)\.(\d+)`)

// record is a committed object. A nil obj marks a reserved number that has
// not been committed yet.
type record struct {
	gen int
	obj core.Object
}

// Store is an Engine backed by an optional source file and an in-memory
// overlay of committed objects.
type Store struct {
	src     io.ReaderAt
	size    int64
	closer  io.Closer
	version Version
	xref    *core.XRefTable
	trailer *core.Dict

	committed map[int]record
	next      int
	// loading guards against stream lengths that refer back to the object
	// being parsed.
	loading map[int]bool
}

// New returns an empty store.
func New() *Store {
	return &Store{
		version:   DefaultVersion,
		xref:      core.NewXRefTable(),
		trailer:   core.NewDict(),
		committed: make(map[int]record),
		next:      1,
		loading:   make(map[int]bool),
	}
}

// Load reads the header and cross-reference chain of the size bytes of r.
// Objects are parsed later, on demand.
func Load(r io.ReaderAt, size int64) (*Store, error) {
	s := New()
	s.src = r
	s.size = size

	version, err := parseHeader(r)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse header")
	}
	s.version = version

	xp := core.NewXRefParser(r, size)
	tables, err := xp.ParseAllXRefs()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load xref")
	}
	s.xref = core.MergeXRefTables(tables...)
	s.trailer = s.xref.Trailer
	s.trailer.Delete("Prev")

	for num := range s.xref.Entries {
		if num >= s.next {
			s.next = num + 1
		}
	}
	if n, ok := s.trailer.GetInt("Size"); ok && int(n) > s.next {
		s.next = int(n)
	}
	return s, nil
}

// Open opens a PDF file. The file stays open until Close.
func Open(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open file")
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to get file info")
	}
	s, err := Load(f, info.Size())
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "%s", path)
	}
	s.closer = f
	return s, nil
}

// parseHeader parses the PDF header (%PDF-x.y)
func parseHeader(r io.ReaderAt) (Version, error) {
	header := make([]byte, 16)
	n, err := r.ReadAt(header, 0)
	if err != nil && err != io.EOF {
		return Version{}, err
	}
	m := headerRE.FindSubmatch(header[:n])
	if m == nil {
		return Version{}, errors.Newf("invalid PDF header %q", header[:n])
	}
	major, _ := strconv.Atoi(string(m[1]))
	minor, _ := strconv.Atoi(string(m[2]))
	return Version{Major: major, Minor: minor}, nil
}

// Version returns the PDF version
func (s *Store) Version() Version {
	return s.version
}

// Trailer returns the trailer dictionary. /Prev is never present: the
// merged cross-reference chain is exposed as a single revision.
func (s *Store) Trailer() *core.Dict {
	return s.trailer
}

// Encrypted reports whether the trailer names an encryption dictionary.
func (s *Store) Encrypted() bool {
	return s.trailer.Has("Encrypt")
}

// Generation returns the current generation of an in-use object.
func (s *Store) Generation(num int) (int, bool) {
	if rec, ok := s.committed[num]; ok {
		return rec.gen, true
	}
	entry, ok := s.xref.Get(num)
	if !ok || !entry.InUse || num == 0 {
		return 0, false
	}
	return entry.Generation, true
}

// MaterializeObject parses the object stored under num. Each call returns
// a freshly parsed value unless the object has been committed.
func (s *Store) MaterializeObject(num, gen int) (core.Object, error) {
	if rec, ok := s.committed[num]; ok {
		if rec.gen != gen {
			return nil, generationMismatch(num, gen, rec.gen)
		}
		if rec.obj == nil {
			return core.Null{}, nil
		}
		return rec.obj, nil
	}
	entry, ok := s.xref.Get(num)
	if !ok || !entry.InUse || num == 0 {
		return nil, errors.Wrapf(core.ErrObjectNotFound, "object %d", errors.Safe(num))
	}
	if entry.Generation != gen {
		return nil, generationMismatch(num, gen, entry.Generation)
	}
	return s.parseAt(num, entry.Offset)
}

func generationMismatch(num, want, have int) error {
	err := errors.Wrapf(core.ErrObjectNotFound, "object %d has generation %d, not %d",
		errors.Safe(num), errors.Safe(have), errors.Safe(want))
	return errors.Mark(err, core.ErrGenerationMismatch)
}

func (s *Store) parseAt(num int, offset int64) (core.Object, error) {
	if s.loading[num] {
		return nil, errors.Newf("object %d: cyclic stream length", errors.Safe(num))
	}
	s.loading[num] = true
	defer delete(s.loading, num)

	if offset < 0 || offset >= s.size {
		return nil, errors.Newf("object %d: offset %d outside file", errors.Safe(num), errors.Safe(offset))
	}
	p := core.NewParser(io.NewSectionReader(s.src, offset, s.size-offset))
	p.SetReferenceResolver(s)
	ind, err := p.ParseIndirectObject()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse object %d", errors.Safe(num))
	}
	if ind.Ref.Number != num {
		return nil, errors.Newf("object number mismatch: expected %d, got %d",
			errors.Safe(num), errors.Safe(ind.Ref.Number))
	}
	return ind.Object, nil
}

// ResolveReference implements core.ReferenceResolver for indirect stream
// lengths.
func (s *Store) ResolveReference(ref core.Ref) (core.Object, error) {
	return s.MaterializeObject(ref.Number, ref.Generation)
}

// SerializeObject writes obj as indirect object ref, or as a bare value
// when ref is not indirect.
func (s *Store) SerializeObject(w io.Writer, ref core.Ref, obj core.Object) error {
	if !ref.IsIndirect() {
		return core.WriteObject(w, obj)
	}
	return core.WriteIndirect(w, ref, obj)
}

// AllocateObjectNumber reserves the next unused object number.
func (s *Store) AllocateObjectNumber() core.Ref {
	ref := core.Ref{Number: s.next}
	s.committed[ref.Number] = record{gen: ref.Generation}
	s.next++
	return ref
}

// Commit replaces the stored value of ref.
func (s *Store) Commit(ref core.Ref, obj core.Object) {
	s.committed[ref.Number] = record{gen: ref.Generation, obj: obj}
	if ref.Number >= s.next {
		s.next = ref.Number + 1
	}
}

// Objects lists the in-use objects in ascending number order. Reserved
// numbers that were never committed are not listed.
func (s *Store) Objects() []core.Ref {
	var refs []core.Ref
	for num := 1; num < s.next; num++ {
		if rec, ok := s.committed[num]; ok {
			if rec.obj != nil {
				refs = append(refs, core.Ref{Number: num, Generation: rec.gen})
			}
			continue
		}
		if entry, ok := s.xref.Get(num); ok && entry.InUse {
			refs = append(refs, core.Ref{Number: num, Generation: entry.Generation})
		}
	}
	return refs
}

// Save writes a complete file: header, every in-use object, a single
// cross-reference table and the trailer. A nil trailer means the store's
// own. /Size is always recomputed and /Prev dropped.
func (s *Store) Save(w io.Writer, trailer *core.Dict) error {
	if trailer == nil {
		trailer = s.trailer
	}
	cw := &countingWriter{w: w}
	fmt.Fprintf(cw, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", s.version)

	entries := make([]core.XRefEntry, s.next)
	entries[0] = core.XRefEntry{Generation: 65535}
	for _, ref := range s.Objects() {
		obj, err := s.MaterializeObject(ref.Number, ref.Generation)
		if err != nil {
			return errors.Wrapf(err, "saving object %s", ref)
		}
		entries[ref.Number] = core.XRefEntry{Offset: cw.n, Generation: ref.Generation, InUse: true}
		if err := s.SerializeObject(cw, ref, obj); err != nil {
			return err
		}
	}
	if cw.err != nil {
		return cw.err
	}

	xrefOffset := cw.n
	if err := core.WriteXRef(cw, entries); err != nil {
		return err
	}
	out := core.NewDict()
	for _, key := range trailer.Keys() {
		switch key {
		case "Prev", "XRefStm", "Size":
			continue
		}
		out.Set(key, trailer.Get(key))
	}
	out.Set("Size", core.Int(s.next))

	var buf bytes.Buffer
	buf.WriteString("trailer\n")
	if err := core.WriteObject(&buf, out); err != nil {
		return err
	}
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	if _, err := buf.WriteTo(cw); err != nil {
		return err
	}
	return cw.err
}

// Close releases the source file, if any.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	err := s.closer.Close()
	s.closer = nil
	return err
}

// countingWriter tracks the offset of the next byte written.
type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}
