package filters

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/zlib"
)

// Params represents decode parameters from PDF stream dictionaries.
type Params map[string]interface{}

// Int returns the integer parameter key, or def when absent or not numeric.
func (p Params) Int(key string, def int) int {
	switch v := p[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

// FlateDecode decompresses zlib data and undoes any predictor.
func FlateDecode(data []byte, params Params) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(err, "flate: opening zlib stream")
	}
	defer r.Close()
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return nil, errors.Wrap(err, "flate: decompressing")
	}

	switch predictor := params.Int("Predictor", 1); {
	case predictor == 1:
		return buf.Bytes(), nil
	case predictor >= 10 && predictor <= 15:
		return unpredictPNG(buf.Bytes(), params)
	default:
		return nil, errors.Newf("flate: unsupported predictor %d", predictor)
	}
}

// FlateEncode compresses data with the default compression level.
func FlateEncode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, errors.Wrap(err, "flate: compressing")
	}
	if err := w.Close(); err != nil {
		return nil, errors.Wrap(err, "flate: compressing")
	}
	return buf.Bytes(), nil
}

// unpredictPNG reverses PNG row filtering. Each row carries a leading
// filter-type byte that selects None, Sub, Up, Average or Paeth.
func unpredictPNG(data []byte, params Params) ([]byte, error) {
	colors := params.Int("Colors", 1)
	bpc := params.Int("BitsPerComponent", 8)
	columns := params.Int("Columns", 1)
	if colors < 1 || columns < 1 || bpc < 1 {
		return nil, errors.New("flate: invalid predictor parameters")
	}
	bpp := (colors*bpc + 7) / 8
	rowLen := (columns*colors*bpc + 7) / 8
	if len(data)%(rowLen+1) != 0 {
		return nil, errors.Newf("flate: data size %d is not a multiple of row size %d", len(data), rowLen+1)
	}

	out := make([]byte, 0, len(data)/(rowLen+1)*rowLen)
	prev := make([]byte, rowLen)
	for off := 0; off < len(data); off += rowLen + 1 {
		kind := data[off]
		row := make([]byte, rowLen)
		copy(row, data[off+1:off+1+rowLen])
		for i := range row {
			var left, upLeft byte
			if i >= bpp {
				left = row[i-bpp]
				upLeft = prev[i-bpp]
			}
			up := prev[i]
			switch kind {
			case 0:
			case 1:
				row[i] += left
			case 2:
				row[i] += up
			case 3:
				row[i] += byte((int(left) + int(up)) / 2)
			case 4:
				row[i] += paeth(left, up, upLeft)
			default:
				return nil, errors.Newf("flate: unknown PNG filter type %d", kind)
			}
		}
		out = append(out, row...)
		prev = row
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := abs(p-int(a)), abs(p-int(b)), abs(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
