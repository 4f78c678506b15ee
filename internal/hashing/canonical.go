package hashing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Canonicalize returns the canonical byte encoding of v: objects with keys
// sorted, ", " and ": " separators, ASCII-only strings, and floats that keep
// a fractional part (2.0, not 2). Structs are converted through their JSON
// form first. NaN and infinities are rejected.
func Canonicalize(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func encodeCanonical(buf *bytes.Buffer, v any) error {
	switch value := v.(type) {
	case nil:
		buf.WriteString("null")
		return nil
	case bool:
		if value {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case string:
		writeString(buf, value)
		return nil
	case json.Number:
		return writeNumber(buf, value)
	case float64:
		return writeFloat(buf, value)
	case float32:
		return writeFloat(buf, float64(value))
	case int:
		buf.WriteString(strconv.Itoa(value))
		return nil
	case int64:
		buf.WriteString(strconv.FormatInt(value, 10))
		return nil
	case []any:
		return writeList(buf, len(value), func(i int) any { return value[i] })
	case map[string]any:
		return writeObject(buf, value)
	case json.RawMessage:
		decoded, err := decodeJSON(value)
		if err != nil {
			return err
		}
		return encodeCanonical(buf, decoded)
	}
	return encodeReflect(buf, reflect.ValueOf(v))
}

func encodeReflect(buf *bytes.Buffer, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		return encodeCanonical(buf, rv.Elem().Interface())
	case reflect.Bool:
		return encodeCanonical(buf, rv.Bool())
	case reflect.String:
		writeString(buf, rv.String())
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		buf.WriteString(strconv.FormatInt(rv.Int(), 10))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		buf.WriteString(strconv.FormatUint(rv.Uint(), 10))
		return nil
	case reflect.Float32, reflect.Float64:
		return writeFloat(buf, rv.Float())
	case reflect.Slice:
		if rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		fallthrough
	case reflect.Array:
		return writeList(buf, rv.Len(), func(i int) any { return rv.Index(i).Interface() })
	case reflect.Map:
		if rv.IsNil() {
			buf.WriteString("null")
			return nil
		}
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Errorf("canonicalize: map key type %s is not a string", rv.Type().Key())
		}
		object := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			object[iter.Key().String()] = iter.Value().Interface()
		}
		return writeObject(buf, object)
	case reflect.Struct:
		raw, err := json.Marshal(rv.Interface())
		if err != nil {
			return fmt.Errorf("canonicalize: %w", err)
		}
		decoded, err := decodeJSON(raw)
		if err != nil {
			return err
		}
		return encodeCanonical(buf, decoded)
	case reflect.Invalid:
		buf.WriteString("null")
		return nil
	default:
		return fmt.Errorf("canonicalize: unsupported type %s", rv.Type())
	}
}

func decodeJSON(raw []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var decoded any
	if err := decoder.Decode(&decoded); err != nil {
		return nil, fmt.Errorf("canonicalize: decode: %w", err)
	}
	return decoded, nil
}

func writeList(buf *bytes.Buffer, n int, at func(int) any) error {
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteString(", ")
		}
		if err := encodeCanonical(buf, at(i)); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func writeObject(buf *bytes.Buffer, object map[string]any) error {
	keys := make([]string, 0, len(object))
	for key := range object {
		keys = append(keys, key)
	}
	// Byte order of UTF-8 strings equals code point order.
	sort.Strings(keys)
	buf.WriteByte('{')
	for i, key := range keys {
		if i > 0 {
			buf.WriteString(", ")
		}
		writeString(buf, key)
		buf.WriteString(": ")
		if err := encodeCanonical(buf, object[key]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// writeNumber keeps integers verbatim and re-renders anything with a
// fraction or exponent as a float.
func writeNumber(buf *bytes.Buffer, number json.Number) error {
	text := number.String()
	if !strings.ContainsAny(text, ".eE") {
		if _, ok := new(big.Int).SetString(text, 10); !ok {
			return fmt.Errorf("canonicalize: invalid number %q", text)
		}
		buf.WriteString(text)
		return nil
	}
	f, err := number.Float64()
	if err != nil {
		return fmt.Errorf("canonicalize: invalid number %q: %w", text, err)
	}
	return writeFloat(buf, f)
}

// writeFloat renders f the way Python's float repr does: shortest
// round-trip digits, positional notation for decimal exponents in
// [-4, 16), scientific otherwise.
func writeFloat(buf *bytes.Buffer, f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("canonicalize: non-finite float %v", f)
	}
	if f == 0 {
		if math.Signbit(f) {
			buf.WriteString("-0.0")
		} else {
			buf.WriteString("0.0")
		}
		return nil
	}
	scientific := strconv.FormatFloat(f, 'e', -1, 64)
	exponent, err := strconv.Atoi(scientific[strings.IndexByte(scientific, 'e')+1:])
	if err != nil {
		return fmt.Errorf("canonicalize: format float %v: %w", f, err)
	}
	if exponent < -4 || exponent >= 16 {
		buf.WriteString(scientific)
		return nil
	}
	positional := strconv.FormatFloat(f, 'f', -1, 64)
	buf.WriteString(positional)
	if !strings.ContainsRune(positional, '.') {
		buf.WriteString(".0")
	}
	return nil
}

const hexDigits = "0123456789abcdef"

func writeString(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		i += size
		switch r {
		case '"':
			buf.WriteString(`\"`)
		case '\\':
			buf.WriteString(`\\`)
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
			switch {
			case r < 0x20 || (r >= 0x7f && r <= 0xffff):
				writeUnicodeEscape(buf, r)
			case r > 0xffff:
				r -= 0x10000
				writeUnicodeEscape(buf, 0xd800+(r>>10))
				writeUnicodeEscape(buf, 0xdc00+(r&0x3ff))
			default:
				buf.WriteByte(byte(r))
			}
		}
	}
	buf.WriteByte('"')
}

func writeUnicodeEscape(buf *bytes.Buffer, r rune) {
	buf.WriteString(`\u`)
	buf.WriteByte(hexDigits[(r>>12)&0xf])
	buf.WriteByte(hexDigits[(r>>8)&0xf])
	buf.WriteByte(hexDigits[(r>>4)&0xf])
	buf.WriteByte(hexDigits[r&0xf])
}
