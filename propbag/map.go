package propbag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"math"
	"reflect"
	"slices"
	"strconv"

	"github.com/bodrovis/chimpex/utils"
)

// Map is an insertion-ordered Bag. A nil *Map reads as empty and rejects writes.
// Not safe for concurrent writes.
type Map struct {
	keys []string
	vals map[string]any
}

var _ Bag = (*Map)(nil)

func New() *Map {
	return &Map{vals: make(map[string]any)}
}

// FromMap copies m into a new Map. Keys are added in sorted order.
func FromMap(m map[string]any) *Map {
	b := &Map{
		keys: slices.Sorted(maps.Keys(m)),
		vals: make(map[string]any, len(m)),
	}
	maps.Copy(b.vals, m)
	return b
}

// FromJSON decodes a JSON object, keeping key order. Numbers are kept as json.Number.
// Repeated keys keep the last value at the position of the first.
func FromJSON(data []byte) (*Map, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("propbag: read json: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("propbag: json top level must be an object, got %v", tok)
	}

	b := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("propbag: read key: %w", err)
		}
		key, _ := tok.(string)

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("propbag: read value for %q: %w", key, err)
		}
		if _, exists := b.vals[key]; !exists {
			b.keys = append(b.keys, key)
		}
		b.vals[key] = v
	}

	if _, err := dec.Token(); err != nil {
		return nil, fmt.Errorf("propbag: read json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("propbag: trailing data after json object")
	}
	return b, nil
}

func (b *Map) Len() int {
	if b == nil {
		return 0
	}
	return len(b.keys)
}

// Keys returns the keys in insertion order.
func (b *Map) Keys() []string {
	if b == nil {
		return nil
	}
	return slices.Clone(b.keys)
}

// Get returns the raw stored value.
func (b *Map) Get(key string) (any, bool) {
	if b == nil {
		return nil, false
	}
	v, ok := b.vals[key]
	return v, ok
}

func (b *Map) GetString(key string) (string, error) {
	v, ok := b.Get(key)
	if !ok {
		return "", notFound(key)
	}
	s, ok := v.(string)
	if !ok {
		return "", mismatch(key, "string", v)
	}
	return s, nil
}

func (b *Map) GetInt(key string) (int, error) {
	v, ok := b.Get(key)
	if !ok {
		return 0, notFound(key)
	}
	i, ok := toInt(v)
	if !ok {
		return 0, mismatch(key, "int", v)
	}
	return i, nil
}

// GetValue copies the stored value into dst when its type fits (slices are
// cloned), otherwise converts it by re-encoding as JSON. A stored nil reads as absent.
func (b *Map) GetValue(key string, dst any) error {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &KeyError{Key: key, Err: ErrInvalidTarget}
	}

	v, ok := b.Get(key)
	if !ok || v == nil {
		return notFound(key)
	}

	// same type: copy directly, JSON would mangle invalid UTF-8 in strings
	if sv := reflect.ValueOf(v); sv.Type().AssignableTo(rv.Elem().Type()) {
		rv.Elem().Set(cloneSlice(sv))
		return nil
	}

	buf, err := utils.EncodeJSONBody(v)
	if err != nil {
		return &KeyError{Key: key, Err: fmt.Errorf("%w: %v", ErrTypeMismatch, err)}
	}

	// decode into a scratch value so a failed conversion leaves dst untouched
	tmp := reflect.New(rv.Elem().Type())
	if err := json.NewDecoder(buf).Decode(tmp.Interface()); err != nil {
		return &KeyError{Key: key, Err: fmt.Errorf("%w: %v", ErrTypeMismatch, err)}
	}
	rv.Elem().Set(tmp.Elem())
	return nil
}

// SetValue adds a new key. Writing an existing key fails with ErrDuplicateKey,
// writing to a nil *Map with ErrNilBag.
func (b *Map) SetValue(key string, value any) error {
	if b == nil {
		return &KeyError{Key: key, Err: ErrNilBag}
	}
	if _, exists := b.vals[key]; exists {
		return &KeyError{Key: key, Err: ErrDuplicateKey}
	}
	if !serializable(value) {
		return &KeyError{Key: key, Err: fmt.Errorf("%w: %T", ErrUnsupportedValue, value)}
	}
	if b.vals == nil {
		b.vals = make(map[string]any)
	}
	b.keys = append(b.keys, key)
	b.vals[key] = value
	return nil
}

// MarshalJSON writes the keys in insertion order.
func (b *Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range b.Keys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(b.vals[k])
		if err != nil {
			return nil, fmt.Errorf("propbag: marshal %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// cloneSlice returns a shallow copy of v when it is a non-nil slice, v otherwise.
func cloneSlice(v reflect.Value) reflect.Value {
	if v.Kind() != reflect.Slice || v.IsNil() {
		return v
	}
	c := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
	reflect.Copy(c, v)
	return c
}

func serializable(v any) bool {
	if v == nil {
		return true
	}
	switch reflect.TypeOf(v).Kind() {
	case reflect.Func, reflect.Chan, reflect.Complex64, reflect.Complex128, reflect.UnsafePointer:
		return false
	}
	return true
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case uint:
		if uint64(n) > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case json.Number:
		if i, err := strconv.Atoi(n.String()); err == nil {
			return i, true
		}
		// "400.0" is still an integer
		if f, err := n.Float64(); err == nil {
			return floatToInt(f)
		}
	case float64:
		return floatToInt(n)
	case float32:
		return floatToInt(float64(n))
	}
	return 0, false
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}
