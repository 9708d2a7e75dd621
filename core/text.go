package core

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

var utf16BOM = []byte{0xfe, 0xff}

// DecodeText interprets a PDF text string. Strings starting with the
// UTF-16BE byte order mark are decoded as UTF-16; strings starting with the
// UTF-8 BOM (PDF 2.0) are returned without it; everything else is treated
// as PDFDocEncoding, approximated by ISO 8859-1.
func DecodeText(s String) (string, error) {
	raw := []byte(s)
	switch {
	case bytes.HasPrefix(raw, utf16BOM):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		out, err := dec.Bytes(raw)
		if err != nil {
			return "", err
		}
		return string(out), nil
	case bytes.HasPrefix(raw, []byte{0xef, 0xbb, 0xbf}):
		return string(raw[3:]), nil
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// EncodeText builds a text string for s. ASCII text is stored as is;
// anything else is stored as UTF-16BE with a byte order mark.
func EncodeText(s string) (String, error) {
	ascii := true
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return String(s), nil
	}
	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	out, err := enc.Bytes([]byte(s))
	if err != nil {
		return "", err
	}
	return String(out), nil
}
