package core

import (
	"github.com/cockroachdb/errors"

	"github.com/tsawler/pdfobj/internal/filters"
)

// Len returns the length of the raw stream data.
func (s *Stream) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Data)
}

// Decode decodes the stream data according to the /Filter entry, which may
// be a single name or an array applied in order.
func (s *Stream) Decode() ([]byte, error) {
	switch f := s.Dict.Get("Filter").(type) {
	case nil, Null:
		return s.Data, nil
	case Name:
		return decodeWithFilter(s.Data, string(f), paramsOf(s.Dict.Get("DecodeParms")))
	case *Array:
		data := s.Data
		parms, _ := s.Dict.Get("DecodeParms").(*Array)
		for i := 0; i < f.Len(); i++ {
			name, ok := f.GetName(i)
			if !ok {
				return nil, errors.Newf("filter %d is %s, not a name", i, f.Get(i).Type())
			}
			var err error
			data, err = decodeWithFilter(data, string(name), paramsOf(parms.Get(i)))
			if err != nil {
				return nil, errors.Wrapf(err, "filter %d (%s)", i, errors.Safe(name))
			}
		}
		return data, nil
	default:
		return nil, errors.Newf("invalid /Filter type %s", f.Type())
	}
}

// SetFlateData compresses data into the stream and records the filter.
func (s *Stream) SetFlateData(data []byte) error {
	encoded, err := filters.FlateEncode(data)
	if err != nil {
		return err
	}
	if s.Dict == nil {
		s.Dict = NewDict()
	}
	s.Data = encoded
	s.Dict.Set("Filter", Name("FlateDecode"))
	s.Dict.Delete("DecodeParms")
	s.Dict.Set("Length", Int(len(encoded)))
	return nil
}

func decodeWithFilter(data []byte, name string, params filters.Params) ([]byte, error) {
	switch name {
	case "FlateDecode", "Fl":
		return filters.FlateDecode(data, params)
	case "ASCIIHexDecode", "AHx":
		return filters.ASCIIHexDecode(data)
	case "ASCII85Decode", "A85":
		return filters.ASCII85Decode(data)
	}
	return nil, errors.Newf("unsupported filter %s", errors.Safe(name))
}

// paramsOf converts a /DecodeParms dictionary into filter parameters.
func paramsOf(obj Object) filters.Params {
	dict, ok := obj.(*Dict)
	if !ok {
		return nil
	}
	params := make(filters.Params, dict.Len())
	for _, k := range dict.Keys() {
		switch v := dict.Get(k).(type) {
		case Int:
			params[k] = int(v)
		case Real:
			params[k] = float64(v)
		case Bool:
			params[k] = bool(v)
		case Name:
			params[k] = string(v)
		}
	}
	return params
}
