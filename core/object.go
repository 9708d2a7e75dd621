package core

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/redact"
)

// Object represents a PDF object
type Object interface {
	Type() ObjectType
	String() string
}

// ObjectType represents the type of PDF object. It is the discriminant of
// the Object variants and never changes for a given value.
type ObjectType int

const (
	ObjNull ObjectType = iota
	ObjBool
	ObjInt
	ObjReal
	ObjString
	ObjName
	ObjArray
	ObjDict
	ObjStream
	ObjRef
)

// String returns the string representation of the object type
func (t ObjectType) String() string {
	switch t {
	case ObjNull:
		return "Null"
	case ObjBool:
		return "Bool"
	case ObjInt:
		return "Int"
	case ObjReal:
		return "Real"
	case ObjString:
		return "String"
	case ObjName:
		return "Name"
	case ObjArray:
		return "Array"
	case ObjDict:
		return "Dict"
	case ObjStream:
		return "Stream"
	case ObjRef:
		return "Ref"
	default:
		return "Unknown"
	}
}

// SafeFormat implements redact.SafeFormatter.
func (t ObjectType) SafeFormat(w redact.SafePrinter, _ rune) {
	w.SafeString(redact.SafeString(t.String()))
}

// Null represents a PDF null object
type Null struct{}

func (n Null) Type() ObjectType { return ObjNull }
func (n Null) String() string   { return "null" }

// Bool represents a PDF boolean
type Bool bool

func (b Bool) Type() ObjectType { return ObjBool }
func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}

// Int represents a PDF integer
type Int int64

func (i Int) Type() ObjectType { return ObjInt }
func (i Int) String() string   { return strconv.FormatInt(int64(i), 10) }

// Real represents a PDF real number
type Real float64

func (r Real) Type() ObjectType { return ObjReal }
func (r Real) String() string   { return strconv.FormatFloat(float64(r), 'f', -1, 64) }

// Number reports the numeric value of an Int or a Real.
func Number(obj Object) (float64, bool) {
	switch v := obj.(type) {
	case Int:
		return float64(v), true
	case Real:
		return float64(v), true
	}
	return 0, false
}

// String represents a PDF string. The value holds the raw bytes of the
// string; use DecodeText for text strings.
type String string

func (s String) Type() ObjectType { return ObjString }
func (s String) String() string   { return string(s) }

// Name represents a PDF name
type Name string

func (n Name) Type() ObjectType { return ObjName }
func (n Name) String() string   { return "/" + string(n) }

// Array represents a PDF array. Arrays are always handled by pointer so that
// every holder observes the same elements.
type Array struct {
	items []Object
}

// NewArray returns an array holding items.
func NewArray(items ...Object) *Array {
	return &Array{items: items}
}

func (a *Array) Type() ObjectType { return ObjArray }
func (a *Array) String() string {
	parts := make([]string, 0, a.Len())
	for _, obj := range a.items {
		parts = append(parts, obj.String())
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Len returns the length of the array
func (a *Array) Len() int {
	if a == nil {
		return 0
	}
	return len(a.items)
}

// Get retrieves an element at the given index, or nil if index is out of
// range.
func (a *Array) Get(index int) Object {
	if index < 0 || index >= a.Len() {
		return nil
	}
	return a.items[index]
}

// Set replaces the element at index. It reports false if index is out of
// range.
func (a *Array) Set(index int, obj Object) bool {
	if index < 0 || index >= a.Len() {
		return false
	}
	a.items[index] = obj
	return true
}

// Append adds objs at the tail.
func (a *Array) Append(objs ...Object) {
	a.items = append(a.items, objs...)
}

// Prepend adds obj at the head.
func (a *Array) Prepend(obj Object) {
	a.items = append(a.items, nil)
	copy(a.items[1:], a.items)
	a.items[0] = obj
}

// RemoveFirst removes and returns the head element, or nil if the array is
// empty.
func (a *Array) RemoveFirst() Object {
	if a.Len() == 0 {
		return nil
	}
	obj := a.items[0]
	a.items[0] = nil
	a.items = a.items[1:]
	return obj
}

// RemoveLast removes and returns the tail element, or nil if the array is
// empty.
func (a *Array) RemoveLast() Object {
	n := a.Len()
	if n == 0 {
		return nil
	}
	obj := a.items[n-1]
	a.items[n-1] = nil
	a.items = a.items[:n-1]
	return obj
}

// Clear removes every element.
func (a *Array) Clear() {
	a.items = nil
}

// Items returns a copy of the elements.
func (a *Array) Items() []Object {
	out := make([]Object, a.Len())
	if a != nil {
		copy(out, a.items)
	}
	return out
}

// GetInt retrieves an integer at the given index
func (a *Array) GetInt(index int) (Int, bool) {
	i, ok := a.Get(index).(Int)
	return i, ok
}

// GetName retrieves a name at the given index
func (a *Array) GetName(index int) (Name, bool) {
	n, ok := a.Get(index).(Name)
	return n, ok
}

// Dict represents a PDF dictionary. Keys keep their insertion order, which
// is also the order in which they are serialized.
type Dict struct {
	keys []string
	vals map[string]Object
}

// NewDict returns an empty dictionary.
func NewDict() *Dict {
	return &Dict{vals: make(map[string]Object)}
}

func (d *Dict) Type() ObjectType { return ObjDict }
func (d *Dict) String() string {
	parts := make([]string, 0, d.Len())
	for _, key := range d.keys {
		parts = append(parts, "/"+key+" "+d.vals[key].String())
	}
	return "<<" + strings.Join(parts, " ") + ">>"
}

// Len returns the number of keys.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Get retrieves a value from the dictionary, or nil if key is absent.
func (d *Dict) Get(key string) Object {
	if d == nil {
		return nil
	}
	return d.vals[key]
}

// Has checks if a key exists in the dictionary
func (d *Dict) Has(key string) bool {
	if d == nil {
		return false
	}
	_, ok := d.vals[key]
	return ok
}

// Set binds key to value. An existing key keeps its position.
func (d *Dict) Set(key string, value Object) {
	if d.vals == nil {
		d.vals = make(map[string]Object)
	}
	if _, ok := d.vals[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.vals[key] = value
}

// Delete removes key and reports whether it was present.
func (d *Dict) Delete(key string) bool {
	if !d.Has(key) {
		return false
	}
	delete(d.vals, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return true
}

// Clear removes every key.
func (d *Dict) Clear() {
	d.keys = nil
	d.vals = make(map[string]Object)
}

// Keys returns a copy of the keys in insertion order.
func (d *Dict) Keys() []string {
	keys := make([]string, d.Len())
	if d != nil {
		copy(keys, d.keys)
	}
	return keys
}

// GetName retrieves a name value
func (d *Dict) GetName(key string) (Name, bool) {
	name, ok := d.Get(key).(Name)
	return name, ok
}

// GetInt retrieves an integer value
func (d *Dict) GetInt(key string) (Int, bool) {
	i, ok := d.Get(key).(Int)
	return i, ok
}

// GetDict retrieves a dictionary value
func (d *Dict) GetDict(key string) (*Dict, bool) {
	dict, ok := d.Get(key).(*Dict)
	return dict, ok
}

// GetArray retrieves an array value
func (d *Dict) GetArray(key string) (*Array, bool) {
	arr, ok := d.Get(key).(*Array)
	return arr, ok
}

// GetRef retrieves an indirect reference
func (d *Dict) GetRef(key string) (Ref, bool) {
	ref, ok := d.Get(key).(Ref)
	return ref, ok
}

// Stream represents a PDF stream object: a dictionary plus the raw,
// still-encoded bytes.
type Stream struct {
	Dict *Dict
	Data []byte
}

// NewStream returns a stream with an empty dictionary.
func NewStream(data []byte) *Stream {
	return &Stream{Dict: NewDict(), Data: data}
}

func (s *Stream) Type() ObjectType { return ObjStream }
func (s *Stream) String() string {
	return "stream " + s.Dict.String() + " (" + strconv.Itoa(len(s.Data)) + " bytes)"
}

// Ref identifies an indirect object. Two refs are equal iff both numbers
// match, so Ref can be used directly as a map key.
type Ref struct {
	Number     int
	Generation int
}

func (r Ref) Type() ObjectType { return ObjRef }

// String implements fmt.Stringer.
func (r Ref) String() string {
	return redact.StringWithoutMarkers(r)
}

// SafeFormat implements redact.SafeFormatter.
func (r Ref) SafeFormat(w redact.SafePrinter, _ rune) {
	w.Printf("%d %d R", redact.SafeInt(r.Number), redact.SafeInt(r.Generation))
}

// IsIndirect reports whether r can be dereferenced. Object number 0 is the
// head of the free list and never names an object.
func (r Ref) IsIndirect() bool {
	return r.Number > 0 && r.Generation >= 0
}

// IndirectObject represents an indirect object with its reference
type IndirectObject struct {
	Ref    Ref
	Object Object
}
