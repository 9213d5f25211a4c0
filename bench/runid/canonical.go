package runid

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"unicode/utf16"
)

// ErrSerialization is the sentinel wrapped by every SerializationError.
var ErrSerialization = errors.New("value is not serializable")

// SerializationError reports the first value Canonical could not encode.
type SerializationError struct {
	Path   string // JSON-path-like location, "$" for the root
	Reason string
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("runid: cannot serialize %s: %s", e.Path, e.Reason)
}

func (e *SerializationError) Unwrap() error { return ErrSerialization }

// Canonical renders v as compact JSON with recursively sorted keys, ","/":"
// separators and ASCII-only output (non-ASCII escaped as \uXXXX). Floats with
// an integral value render as integers so 1 and 1.0 serialize identically.
func Canonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encode(&buf, reflect.ValueOf(v), "$"); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encode(b *bytes.Buffer, v reflect.Value, path string) error {
	if !v.IsValid() {
		b.WriteString("null")
		return nil
	}
	if v.CanInterface() {
		if n, ok := v.Interface().(json.Number); ok {
			return encodeNumber(b, n, path)
		}
	}

	switch v.Kind() {
	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			b.WriteString("null")
			return nil
		}
		return encode(b, v.Elem(), path)
	case reflect.Bool:
		b.WriteString(strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		b.WriteString(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		b.WriteString(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32, reflect.Float64:
		return encodeFloat(b, v.Float(), path)
	case reflect.String:
		writeASCIIString(b, v.String())
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.IsNil() {
			b.WriteString("null")
			return nil
		}
		b.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				b.WriteByte(',')
			}
			if err := encode(b, v.Index(i), fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		b.WriteByte(']')
	case reflect.Map:
		if v.IsNil() {
			b.WriteString("null")
			return nil
		}
		return encodeMap(b, v, path)
	case reflect.Struct:
		// Structs go through encoding/json so their tags decide field names.
		raw, err := json.Marshal(v.Interface())
		if err != nil {
			return &SerializationError{Path: path, Reason: err.Error()}
		}
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		var generic any
		if err := dec.Decode(&generic); err != nil {
			return &SerializationError{Path: path, Reason: err.Error()}
		}
		return encode(b, reflect.ValueOf(generic), path)
	default:
		return &SerializationError{Path: path, Reason: "unsupported type " + v.Type().String()}
	}
	return nil
}

func encodeMap(b *bytes.Buffer, v reflect.Value, path string) error {
	type entry struct {
		key string
		val reflect.Value
	}
	entries := make([]entry, 0, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		k, err := mapKey(iter.Key(), path)
		if err != nil {
			return err
		}
		entries = append(entries, entry{key: k, val: iter.Value()})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].key < entries[j].key })
	for i := 1; i < len(entries); i++ {
		if entries[i].key == entries[i-1].key {
			return &SerializationError{Path: path, Reason: fmt.Sprintf("duplicate key %q after stringification", entries[i].key)}
		}
	}

	b.WriteByte('{')
	for i, e := range entries {
		if i > 0 {
			b.WriteByte(',')
		}
		writeASCIIString(b, e.key)
		b.WriteByte(':')
		if err := encode(b, e.val, path+"."+e.key); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}

// mapKey stringifies a map key the way JSON encoders do for scalar keys.
func mapKey(k reflect.Value, path string) (string, error) {
	for k.Kind() == reflect.Interface && !k.IsNil() {
		k = k.Elem()
	}
	switch k.Kind() {
	case reflect.String:
		return k.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(k.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(k.Uint(), 10), nil
	case reflect.Bool:
		return strconv.FormatBool(k.Bool()), nil
	case reflect.Float32, reflect.Float64:
		var buf bytes.Buffer
		if err := encodeFloat(&buf, k.Float(), path); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return "", &SerializationError{Path: path, Reason: "unsupported map key type " + k.Type().String()}
	}
}

func encodeFloat(b *bytes.Buffer, f float64, path string) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return &SerializationError{Path: path, Reason: fmt.Sprintf("non-finite number %v", f)}
	}
	if f == 0 {
		b.WriteByte('0') // folds -0
		return nil
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		b.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
		return nil
	}
	b.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	return nil
}

func encodeNumber(b *bytes.Buffer, n json.Number, path string) error {
	if i, err := n.Int64(); err == nil {
		b.WriteString(strconv.FormatInt(i, 10))
		return nil
	}
	f, err := n.Float64()
	if err != nil {
		return &SerializationError{Path: path, Reason: err.Error()}
	}
	return encodeFloat(b, f, path)
}

const hexDigits = "0123456789abcdef"

func writeASCIIString(b *bytes.Buffer, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		default:
			switch {
			case r < 0x20 || (r >= 0x7f && r <= 0xffff):
				writeUnicodeEscape(b, r)
			case r > 0xffff:
				r1, r2 := utf16.EncodeRune(r)
				writeUnicodeEscape(b, r1)
				writeUnicodeEscape(b, r2)
			default:
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

func writeUnicodeEscape(b *bytes.Buffer, r rune) {
	b.WriteString(`\u`)
	b.WriteByte(hexDigits[(r>>12)&0xf])
	b.WriteByte(hexDigits[(r>>8)&0xf])
	b.WriteByte(hexDigits[(r>>4)&0xf])
	b.WriteByte(hexDigits[r&0xf])
}
