package core

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func parseOne(t *testing.T, input string) Object {
	t.Helper()
	obj, err := NewParser(strings.NewReader(input)).ParseObject()
	require.NoError(t, err)
	return obj
}

func TestParseObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Object
	}{
		{"null", "null", Null{}},
		{"true", "true", Bool(true)},
		{"false", "false", Bool(false)},
		{"int", "42", Int(42)},
		{"real", "-1.25", Real(-1.25)},
		{"string", "(abc)", String("abc")},
		{"hex", "<414>", String("A@")},
		{"name", "/Font", Name("Font")},
		{"ref", "12 0 R", Ref{Number: 12}},
		{"array", "[1 2 0 R /N]", NewArray(Int(1), Ref{Number: 2}, Name("N"))},
		{"comment skipped", "% note\n7", Int(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, parseOne(t, tt.input))
		})
	}
}

func TestParseDict(t *testing.T) {
	obj := parseOne(t, "<</Type /Page /Parent 3 0 R /MediaBox [0 0 612 792] /Count 1>>")
	d, ok := obj.(*Dict)
	require.True(t, ok)
	require.Equal(t, []string{"Type", "Parent", "MediaBox", "Count"}, d.Keys())
	ref, _ := d.GetRef("Parent")
	require.Equal(t, Ref{Number: 3}, ref)
	box, _ := d.GetArray("MediaBox")
	require.Equal(t, 4, box.Len())
}

func TestParseSequence(t *testing.T) {
	p := NewParser(strings.NewReader("1 2 [3] 4 0 R"))
	var got []Object
	for {
		obj, err := p.ParseObject()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, obj)
	}
	require.Equal(t, []Object{Int(1), Int(2), NewArray(Int(3)), Ref{Number: 4}}, got)
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{"[1 2", "<</A 1", "<<1 2>>", "endobj", "]"} {
		t.Run(input, func(t *testing.T) {
			_, err := NewParser(strings.NewReader(input)).ParseObject()
			require.Error(t, err)
		})
	}
}

type lengthResolver map[Ref]Object

func (r lengthResolver) ResolveReference(ref Ref) (Object, error) {
	obj, ok := r[ref]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return obj, nil
}

func TestParseIndirectObject(t *testing.T) {
	t.Run("dict", func(t *testing.T) {
		p := NewParser(strings.NewReader("4 1 obj\n<</A 1>>\nendobj\n"))
		ind, err := p.ParseIndirectObject()
		require.NoError(t, err)
		require.Equal(t, Ref{Number: 4, Generation: 1}, ind.Ref)
		require.Equal(t, 1, ind.Object.(*Dict).Len())
	})

	t.Run("stream", func(t *testing.T) {
		p := NewParser(strings.NewReader("5 0 obj\n<</Length 3>>\nstream\nabc\nendstream\nendobj\n"))
		ind, err := p.ParseIndirectObject()
		require.NoError(t, err)
		s, ok := ind.Object.(*Stream)
		require.True(t, ok)
		require.Equal(t, "abc", string(s.Data))
	})

	t.Run("indirect length", func(t *testing.T) {
		input := "5 0 obj\n<</Length 6 0 R>>\nstream\r\nabcd\nendstream\nendobj\n"
		p := NewParser(strings.NewReader(input))
		_, err := p.ParseIndirectObject()
		require.Error(t, err)

		p = NewParser(strings.NewReader(input))
		p.SetReferenceResolver(lengthResolver{{Number: 6}: Int(4)})
		ind, err := p.ParseIndirectObject()
		require.NoError(t, err)
		require.Equal(t, "abcd", string(ind.Object.(*Stream).Data))
	})

	t.Run("missing endobj", func(t *testing.T) {
		_, err := NewParser(strings.NewReader("1 0 obj 5 2 0 obj")).ParseIndirectObject()
		require.Error(t, err)
	})
}

func TestWriteObject(t *testing.T) {
	d := NewDict()
	d.Set("Type", Name("Catalog"))
	d.Set("Pages", Ref{Number: 2})
	d.Set("Odd Name", Bool(false))
	d.Set("Arr", NewArray(Int(1), Real(2.5), Real(3), Null{}))
	d.Set("S", String("a(b)\\"))

	var buf bytes.Buffer
	require.NoError(t, WriteObject(&buf, d))
	require.Equal(t,
		`<</Type /Catalog /Pages 2 0 R /Odd#20Name false /Arr [1 2.5 3.0 null] /S (a\(b\)\\)>>`,
		buf.String())
}

func TestWriteStreamLength(t *testing.T) {
	s := NewStream([]byte("hello"))
	s.Dict.Set("Length", Int(99))
	s.Dict.Set("Filter", Name("None"))

	var buf bytes.Buffer
	require.NoError(t, WriteIndirect(&buf, Ref{Number: 3}, s))
	require.Equal(t,
		"3 0 obj\n<</Length 5 /Filter /None>>\nstream\nhello\nendstream\nendobj\n",
		buf.String())
}

func TestWriteParseRoundTrip(t *testing.T) {
	inner := NewDict()
	inner.Set("Bin", String("\x00\xff\r\n\t"))
	inner.Set("Name", Name("a#b/c"))
	stream := NewStream([]byte("BT /F1 12 Tf ET"))
	stream.Dict.Set("Length", Int(15))

	objs := []Object{
		NewArray(Int(-3), Real(0.125), Real(1), String(""), Bool(true), Null{}),
		inner,
		stream,
	}
	for i, obj := range objs {
		ref := Ref{Number: i + 1}
		var buf bytes.Buffer
		require.NoError(t, WriteIndirect(&buf, ref, obj))
		ind, err := NewParser(&buf).ParseIndirectObject()
		require.NoError(t, err)
		require.Equal(t, ref, ind.Ref)
		require.Equal(t, obj, ind.Object)
	}
}
