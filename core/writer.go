package core

import (
	"bytes"
	"io"
	"math"
	"strconv"
	"strings"
)

// WriteObject writes the canonical serialization of obj to w. Dictionary
// keys are written in insertion order and stream /Length entries are
// recomputed from the data.
func WriteObject(w io.Writer, obj Object) error {
	var buf bytes.Buffer
	appendObject(&buf, obj)
	_, err := buf.WriteTo(w)
	return err
}

// WriteIndirect writes obj as the body of the indirect object ref:
//
//	12 0 obj
//	<</Type /Page>>
//	endobj
func WriteIndirect(w io.Writer, ref Ref, obj Object) error {
	var buf bytes.Buffer
	buf.WriteString(strconv.Itoa(ref.Number))
	buf.WriteByte(' ')
	buf.WriteString(strconv.Itoa(ref.Generation))
	buf.WriteString(" obj\n")
	appendObject(&buf, obj)
	buf.WriteString("\nendobj\n")
	_, err := buf.WriteTo(w)
	return err
}

func appendObject(buf *bytes.Buffer, obj Object) {
	switch v := obj.(type) {
	case nil, Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(v.String())
	case Int:
		buf.WriteString(strconv.FormatInt(int64(v), 10))
	case Real:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			f = 0
		}
		s := strconv.FormatFloat(f, 'f', -1, 64)
		buf.WriteString(s)
		// Keep a decimal point so the value reads back as a real.
		if !strings.ContainsRune(s, '.') {
			buf.WriteString(".0")
		}
	case String:
		appendString(buf, string(v))
	case Name:
		appendName(buf, string(v))
	case *Array:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(' ')
			}
			appendObject(buf, item)
		}
		buf.WriteByte(']')
	case *Dict:
		appendDict(buf, v, nil)
	case *Stream:
		length := Int(len(v.Data))
		appendDict(buf, v.Dict, &length)
		buf.WriteString("\nstream\n")
		buf.Write(v.Data)
		buf.WriteString("\nendstream")
	case Ref:
		buf.WriteString(strconv.Itoa(v.Number))
		buf.WriteByte(' ')
		buf.WriteString(strconv.Itoa(v.Generation))
		buf.WriteString(" R")
	default:
		buf.WriteString("null")
	}
}

// appendDict writes d; a non-nil length overrides or adds /Length.
func appendDict(buf *bytes.Buffer, d *Dict, length *Int) {
	buf.WriteString("<<")
	first := true
	sep := func() {
		if !first {
			buf.WriteByte(' ')
		}
		first = false
	}
	wroteLength := false
	for _, key := range d.Keys() {
		sep()
		appendName(buf, key)
		buf.WriteByte(' ')
		if key == "Length" && length != nil {
			appendObject(buf, *length)
			wroteLength = true
			continue
		}
		appendObject(buf, d.Get(key))
	}
	if length != nil && !wroteLength {
		sep()
		buf.WriteString("/Length ")
		appendObject(buf, *length)
	}
	buf.WriteString(">>")
}

// appendString writes a literal string, escaping delimiters and octal
// escaping bytes outside the printable ASCII range.
func appendString(buf *bytes.Buffer, s string) {
	buf.WriteByte('(')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '(', ')', '\\':
			buf.WriteByte('\\')
			buf.WriteByte(c)
		case '\n':
			buf.WriteString(`\n`)
		case '\r':
			buf.WriteString(`\r`)
		case '\t':
			buf.WriteString(`\t`)
		case '\b':
			buf.WriteString(`\b`)
		case '\f':
			buf.WriteString(`\f`)
		default:
			if c < 0x20 || c > 0x7e {
				buf.WriteByte('\\')
				buf.WriteByte('0' + c>>6)
				buf.WriteByte('0' + (c>>3)&7)
				buf.WriteByte('0' + c&7)
				continue
			}
			buf.WriteByte(c)
		}
	}
	buf.WriteByte(')')
}

func appendName(buf *bytes.Buffer, name string) {
	const hex = "0123456789ABCDEF"
	buf.WriteByte('/')
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < 0x21 || c > 0x7e || c == '#' || isDelimiter(c) {
			buf.WriteByte('#')
			buf.WriteByte(hex[c>>4])
			buf.WriteByte(hex[c&0x0f])
			continue
		}
		buf.WriteByte(c)
	}
}
