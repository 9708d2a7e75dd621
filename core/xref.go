package core

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// XRefEntry represents a single cross-reference table entry
type XRefEntry struct {
	Offset     int64 // byte offset for in-use objects, next free object for free ones
	Generation int
	InUse      bool
}

// XRefTable represents a PDF cross-reference table
type XRefTable struct {
	Entries map[int]XRefEntry
	Trailer *Dict
}

// NewXRefTable creates a new empty XRef table
func NewXRefTable() *XRefTable {
	return &XRefTable{
		Entries: make(map[int]XRefEntry),
		Trailer: NewDict(),
	}
}

// Get retrieves an XRef entry by object number
func (x *XRefTable) Get(objNum int) (XRefEntry, bool) {
	entry, ok := x.Entries[objNum]
	return entry, ok
}

// Set adds or updates an XRef entry
func (x *XRefTable) Set(objNum int, entry XRefEntry) {
	x.Entries[objNum] = entry
}

// Size returns the number of entries in the table
func (x *XRefTable) Size() int {
	return len(x.Entries)
}

// MergeXRefTables merges tables ordered oldest first; later entries and the
// last trailer win.
func MergeXRefTables(tables ...*XRefTable) *XRefTable {
	merged := NewXRefTable()
	for _, table := range tables {
		for objNum, entry := range table.Entries {
			merged.Set(objNum, entry)
		}
		merged.Trailer = table.Trailer
	}
	return merged
}

// XRefParser parses classic cross-reference tables. Cross-reference
// streams are not supported.
type XRefParser struct {
	r    io.ReaderAt
	size int64
}

// NewXRefParser creates a parser over size bytes of r.
func NewXRefParser(r io.ReaderAt, size int64) *XRefParser {
	return &XRefParser{r: r, size: size}
}

// FindXRef returns the offset named by the last startxref keyword.
func (x *XRefParser) FindXRef() (int64, error) {
	tail := int64(1024)
	if x.size < tail {
		tail = x.size
	}
	buf := make([]byte, tail)
	n, err := x.r.ReadAt(buf, x.size-tail)
	if err != nil && err != io.EOF {
		return 0, errors.Wrap(err, "reading startxref area")
	}
	content := string(buf[:n])
	idx := strings.LastIndex(content, "startxref")
	if idx == -1 {
		return 0, errors.New("startxref not found")
	}
	fields := strings.Fields(content[idx+len("startxref"):])
	if len(fields) == 0 {
		return 0, errors.New("startxref without offset")
	}
	offset, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "invalid startxref offset")
	}
	if offset < 0 || offset >= x.size {
		return 0, errors.Newf("startxref offset %d outside file of %d bytes", offset, x.size)
	}
	return offset, nil
}

// ParseXRef parses the table and trailer at offset.
func (x *XRefParser) ParseXRef(offset int64) (*XRefTable, error) {
	p := NewParser(io.NewSectionReader(x.r, offset, x.size-offset))
	if err := p.skipComments(); err != nil {
		return nil, err
	}
	if !p.cur.is(TokenKeyword, "xref") {
		return nil, errors.Newf("expected xref keyword at offset %d (cross-reference streams are not supported)", offset)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}

	table := NewXRefTable()
	for !p.cur.is(TokenKeyword, "trailer") {
		first, err := p.expectInt("first object number")
		if err != nil {
			return nil, errors.Wrapf(err, "xref subsection at offset %d", offset)
		}
		count, err := p.expectInt("subsection count")
		if err != nil {
			return nil, errors.Wrapf(err, "xref subsection at offset %d", offset)
		}
		for i := 0; i < count; i++ {
			entry, err := p.parseXRefEntry()
			if err != nil {
				return nil, errors.Wrapf(err, "xref entry %d", first+i)
			}
			table.Set(first+i, entry)
		}
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	obj, err := p.ParseObject()
	if err != nil {
		return nil, errors.Wrap(err, "parsing trailer")
	}
	trailer, ok := obj.(*Dict)
	if !ok {
		return nil, errors.Newf("trailer is %s, not a dictionary", obj.Type())
	}
	table.Trailer = trailer
	return table, nil
}

// parseXRefEntry parses "nnnnnnnnnn ggggg n".
func (p *Parser) parseXRefEntry() (XRefEntry, error) {
	offset, err := p.expectInt("offset")
	if err != nil {
		return XRefEntry{}, err
	}
	gen, err := p.expectInt("generation")
	if err != nil {
		return XRefEntry{}, err
	}
	entry := XRefEntry{Offset: int64(offset), Generation: gen}
	switch {
	case p.cur.is(TokenKeyword, "n"):
		entry.InUse = true
	case p.cur.is(TokenKeyword, "f"):
	default:
		return XRefEntry{}, errors.New("invalid in-use flag")
	}
	return entry, p.advance()
}

// ParseXRefFromEOF finds and parses the newest XRef table.
func (x *XRefParser) ParseXRefFromEOF() (*XRefTable, error) {
	offset, err := x.FindXRef()
	if err != nil {
		return nil, err
	}
	return x.ParseXRef(offset)
}

// ParseAllXRefs parses the newest table and every table reachable through
// /Prev, returned oldest first.
func (x *XRefParser) ParseAllXRefs() ([]*XRefTable, error) {
	offset, err := x.FindXRef()
	if err != nil {
		return nil, err
	}
	var tables []*XRefTable
	seen := make(map[int64]bool)
	for {
		if seen[offset] {
			return nil, errors.Newf("cyclic /Prev chain at offset %d", offset)
		}
		seen[offset] = true
		table, err := x.ParseXRef(offset)
		if err != nil {
			return nil, err
		}
		tables = append([]*XRefTable{table}, tables...)
		prev, ok := table.Trailer.GetInt("Prev")
		if !ok {
			return tables, nil
		}
		offset = int64(prev)
	}
}

// WriteXRef writes a single-subsection table covering entries 0..len-1.
func WriteXRef(w io.Writer, entries []XRefEntry) error {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(entries))
	for _, e := range entries {
		flag := 'f'
		if e.InUse {
			flag = 'n'
		}
		fmt.Fprintf(&buf, "%010d %05d %c\r\n", e.Offset, e.Generation, flag)
	}
	_, err := buf.WriteTo(w)
	return err
}
