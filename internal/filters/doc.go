// Package filters implements the stream filters the engine needs to read
// and write object data.
//
// FlateDecode and FlateEncode use github.com/klauspost/compress/zlib.
// FlateDecode understands the PNG predictors (10-15) that appear in
// cross-reference and image streams:
//
//	decoded, err := filters.FlateDecode(data, filters.Params{"Predictor": 12, "Columns": 4})
//
// ASCIIHexDecode and ASCII85Decode handle the two ASCII armour filters.
// Every other codec is left to the caller.
package filters
