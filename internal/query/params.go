package query

import (
	"encoding"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// Param is one wire key/value pair.
type Param struct {
	Key   string
	Value string
}

// Params keeps wire parameters in emission order so results compare stably.
type Params []Param

func (p Params) Get(key string) (string, bool) {
	for _, kv := range p {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return "", false
}

func (p Params) Has(key string) bool {
	_, ok := p.Get(key)
	return ok
}

func (p Params) Values() url.Values {
	v := make(url.Values, len(p))
	for _, kv := range p {
		v.Set(kv.Key, kv.Value)
	}
	return v
}

func (p Params) Encode() string { return p.Values().Encode() }

// FilterKey is the wire key of a filter field.
func FilterKey(field string) string { return "filter[" + field + "]" }

// Encode serializes options into wire parameters. It never mutates o and equal inputs
// give equal outputs.
//
// Filter values that are nil, nil pointers, "", empty slices or zero times are
// omitted entirely: absence, not an empty string, means "no filter".
func Encode[R ~string](o Options[R]) Params {
	var out Params

	for _, f := range Fields(nil).Merge(o.Fields()) {
		v, ok := FormatValue(f.Value)
		if !ok {
			continue
		}
		out = append(out, Param{Key: FilterKey(f.Key), Value: v})
	}
	if len(o.Include) > 0 {
		out = append(out, Param{Key: "include", Value: strings.Join(o.Relations(), ",")})
	}
	if o.Page > 0 {
		out = append(out, Param{Key: "page", Value: strconv.Itoa(o.Page)})
	}
	if o.PerPage > 0 {
		out = append(out, Param{Key: "per_page", Value: strconv.Itoa(o.PerPage)})
	}
	if !o.Sort.IsZero() {
		out = append(out, Param{Key: "sort", Value: string(o.Sort)})
	}
	out = append(out, Param{Key: "has_pagination", Value: strconv.FormatBool(!o.NoPagination)})
	return out
}

// FormatValue renders one filter value in wire form. ok is false when the value
// means "no filter".
func FormatValue(v any) (string, bool) {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		return FormatValue(rv.Elem().Interface())
	}

	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case time.Time:
		if x.IsZero() {
			return "", false
		}
		return x.Format(time.RFC3339), true
	case encoding.TextMarshaler:
		b, err := x.MarshalText()
		if err != nil || len(b) == 0 {
			return "", false
		}
		return string(b), true
	case fmt.Stringer:
		s := x.String()
		return s, s != ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Len() == 0 {
			return "", false
		}
		parts := make([]string, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			if s, ok := FormatValue(rv.Index(i).Interface()); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, ","), true
	case reflect.String:
		s := rv.String()
		return s, s != ""
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true
	case reflect.Float32:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 32), true
	case reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64), true
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true
	case reflect.Map:
		if rv.Len() == 0 {
			return "", false
		}
	}
	return fmt.Sprint(v), true
}
