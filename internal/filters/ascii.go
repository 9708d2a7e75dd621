package filters

import (
	"bytes"

	"github.com/cockroachdb/errors"
)

// ASCIIHexDecode decodes hexadecimal data up to the > marker. Whitespace is
// ignored and an odd final digit is padded with 0.
func ASCIIHexDecode(data []byte) ([]byte, error) {
	out := make([]byte, 0, len(data)/2)
	var hi byte
	half := false
	for _, c := range data {
		if c == '>' {
			break
		}
		if isWhitespace(c) {
			continue
		}
		v, ok := hexNibble(c)
		if !ok {
			return nil, errors.Newf("asciihex: invalid digit %q", c)
		}
		if half {
			out = append(out, hi<<4|v)
		} else {
			hi = v
		}
		half = !half
	}
	if half {
		out = append(out, hi<<4)
	}
	return out, nil
}

// ASCII85Decode decodes base-85 data up to the ~> marker, including the z
// shorthand for four zero bytes.
func ASCII85Decode(data []byte) ([]byte, error) {
	var out bytes.Buffer
	var group [5]byte
	n := 0
	flush := func(count int) {
		for i := count; i < 5; i++ {
			group[i] = 'u' - '!'
		}
		var v uint32
		for _, d := range group {
			v = v*85 + uint32(d)
		}
		for i := 0; i < count-1; i++ {
			out.WriteByte(byte(v >> (24 - 8*i)))
		}
	}
	for i := 0; i < len(data); i++ {
		c := data[i]
		switch {
		case isWhitespace(c):
			continue
		case c == '~':
			if n > 0 {
				flush(n)
			}
			return out.Bytes(), nil
		case c == 'z' && n == 0:
			out.Write([]byte{0, 0, 0, 0})
			continue
		case c < '!' || c > 'u':
			return nil, errors.Newf("ascii85: invalid character %q", c)
		}
		group[n] = c - '!'
		n++
		if n == 5 {
			flush(5)
			n = 0
		}
	}
	if n > 0 {
		flush(n)
	}
	return out.Bytes(), nil
}

func hexNibble(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func isWhitespace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n' || c == '\f' || c == 0
}
