package common

import (
	"encoding"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// HexBytes is binary data that travels inside JSON as a lowercase hex string.
type HexBytes []byte

func (h HexBytes) String() string {
	return hex.EncodeToString(h)
}

func (h HexBytes) MarshalJSON() ([]byte, error) {
	out := make([]byte, 0, len(h)*2+2)
	out = append(out, '"')
	out = append(out, hex.EncodeToString(h)...)
	out = append(out, '"')
	return out, nil
}

func (h *HexBytes) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("hex bytes must be a json string")
	}
	b, err := hex.DecodeString(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*h = b
	return nil
}

// HexifyParams returns a copy of v in which every byte slice or byte array is replaced by
// HexBytes, so the JSON body never carries base64 or arrays of numbers. Structs are turned
// into maps keyed by their json names, slices and string keyed maps are walked, and values
// that marshal themselves are passed through untouched.
func HexifyParams(v interface{}) interface{} {
	if v == nil {
		return nil
	}
	return hexifyValue(reflect.ValueOf(v), 0)
}

// Deeper values are passed through as they are; json would refuse a cycle anyway.
const maxHexifyDepth = 64

var (
	jsonMarshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
)

func marshalsItself(t reflect.Type) bool {
	return t.Implements(jsonMarshalerType) || t.Implements(textMarshalerType)
}

func hexifyValue(rv reflect.Value, depth int) interface{} {
	if !rv.IsValid() {
		return nil
	}
	if depth > maxHexifyDepth {
		return rv.Interface()
	}
	t := rv.Type()
	if marshalsItself(t) {
		return rv.Interface()
	}
	if t.Kind() != reflect.Pointer && t.Kind() != reflect.Interface && marshalsItself(reflect.PointerTo(t)) {
		// pointer receiver marshalers only apply to addressable values
		ptr := reflect.New(t)
		ptr.Elem().Set(rv)
		return ptr.Interface()
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
		return hexifyValue(rv.Elem(), depth+1)
	case reflect.Slice:
		if rv.IsNil() {
			return rv.Interface()
		}
		if t.Elem().Kind() == reflect.Uint8 {
			return HexBytes(append([]byte(nil), rv.Bytes()...))
		}
		return hexifyList(rv, depth)
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			out := make(HexBytes, rv.Len())
			for i := range out {
				out[i] = byte(rv.Index(i).Uint())
			}
			return out
		}
		return hexifyList(rv, depth)
	case reflect.Map:
		if rv.IsNil() || t.Key().Kind() != reflect.String {
			return rv.Interface()
		}
		out := make(map[string]interface{}, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = hexifyValue(iter.Value(), depth+1)
		}
		return out
	case reflect.Struct:
		out := make(map[string]interface{}, t.NumField())
		hexifyStruct(rv, out, depth)
		return out
	default:
		return rv.Interface()
	}
}

func hexifyList(rv reflect.Value, depth int) []interface{} {
	out := make([]interface{}, rv.Len())
	for i := range out {
		out[i] = hexifyValue(rv.Index(i), depth+1)
	}
	return out
}

// hexifyStruct follows encoding/json field rules: exported fields only, json tag names,
// "-" and omitempty honored, untagged embedded structs promoted unless shadowed.
func hexifyStruct(rv reflect.Value, out map[string]interface{}, depth int) {
	t := rv.Type()
	var embedded []reflect.Value
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("json")
		if tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		fv := rv.Field(i)

		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				if fv.Kind() == reflect.Pointer {
					if fv.IsNil() {
						continue
					}
					fv = fv.Elem()
				}
				embedded = append(embedded, fv)
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if hasTagOption(opts, "omitempty") && isEmptyValue(fv) {
			continue
		}
		out[name] = hexifyValue(fv, depth+1)
	}

	for _, ev := range embedded {
		inner := make(map[string]interface{}, ev.NumField())
		hexifyStruct(ev, inner, depth+1)
		for k, v := range inner {
			if _, ok := out[k]; !ok {
				out[k] = v
			}
		}
	}
}

func hasTagOption(opts, want string) bool {
	for opts != "" {
		var opt string
		opt, opts, _ = strings.Cut(opts, ",")
		if opt == want {
			return true
		}
	}
	return false
}

func isEmptyValue(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Array, reflect.Map, reflect.Slice, reflect.String:
		return v.Len() == 0
	case reflect.Bool:
		return !v.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return v.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return v.Float() == 0
	case reflect.Interface, reflect.Pointer:
		return v.IsNil()
	}
	return false
}
