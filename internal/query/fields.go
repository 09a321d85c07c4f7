package query

// Field is one filter constraint. Value may be a scalar, a pointer to one, a slice of
// scalars, a time.Time or anything implementing fmt.Stringer / encoding.TextMarshaler.
type Field struct {
	Key   string
	Value any
}

// Fields is an ordered filter set. Order is insertion order and only matters for
// stable output.
type Fields []Field

// Filterer is implemented by every entity-specific filter shape.
type Filterer interface {
	FilterFields() Fields
}

func (f Fields) FilterFields() Fields { return f }

// Set replaces the value of an existing key in place or appends a new one.
func (f Fields) Set(key string, value any) Fields {
	for i := range f {
		if f[i].Key == key {
			out := f.Clone()
			out[i].Value = value
			return out
		}
	}
	return append(f.Clone(), Field{Key: key, Value: value})
}

func (f Fields) Get(key string) (any, bool) {
	for _, fld := range f {
		if fld.Key == key {
			return fld.Value, true
		}
	}
	return nil, false
}

// Merge overlays other on f: on key collision other wins and the key keeps the
// position it had in f.
func (f Fields) Merge(other Fields) Fields {
	out := f.Clone()
	for _, fld := range other {
		out = out.Set(fld.Key, fld.Value)
	}
	return out
}

func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	copy(out, f)
	return out
}
