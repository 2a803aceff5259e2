package objects

import (
	"fmt"
	"reflect"
	"strconv"
)

// Render returns the canonical string form of a property value, used
// for filter matching. String-kinded types (object paths, handles)
// render as themselves and integers in base 10.
func Render(v any) string {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return rv.String()
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	}
	return fmt.Sprint(v)
}

// String returns the named property as a string, or "" if absent.
func (p Properties) String(name string) string {
	v, ok := p[name]
	if !ok {
		return ""
	}
	return Render(v)
}

// Bool returns the named property as a bool, or false if absent or not
// a bool.
func (p Properties) Bool(name string) bool {
	b, _ := p[name].(bool)
	return b
}

// Uint64 returns the named property as an unsigned integer. Numeric
// strings are accepted since stratisd publishes sizes as decimal strings.
func (p Properties) Uint64(name string) (uint64, bool) {
	return toUint64(p[name])
}

// Handle returns the named property as a Handle.
func (p Properties) Handle(name string) Handle {
	return Handle(p.String(name))
}

// Optional decodes a (valid, value) pair, the shape stratisd uses for
// properties that may have no value.
func (p Properties) Optional(name string) (any, bool) {
	v, ok := p[name]
	if !ok {
		return nil, false
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	if rv.Len() != 2 {
		return nil, false
	}
	valid, ok := rv.Index(0).Interface().(bool)
	if !ok || !valid {
		return nil, false
	}
	return rv.Index(1).Interface(), true
}

// OptionalUint64 decodes an optional size or count.
func (p Properties) OptionalUint64(name string) (uint64, bool) {
	v, ok := p.Optional(name)
	if !ok {
		return 0, false
	}
	return toUint64(v)
}

// OptionalString decodes an optional string.
func (p Properties) OptionalString(name string) (string, bool) {
	v, ok := p.Optional(name)
	if !ok {
		return "", false
	}
	return Render(v), true
}

func toUint64(v any) (uint64, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if rv.Int() < 0 {
			return 0, false
		}
		return uint64(rv.Int()), true
	case reflect.String:
		n, err := strconv.ParseUint(rv.String(), 10, 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
