package domain

import "time"

// Value is a decoded field value. Type selects which member is meaningful.
type Value struct {
	Type ValueType
	Time time.Time // TypeTime: calendar value as parsed
	Unix int64     // TypeTime: absolute epoch seconds
	Int  int64
	Uint uint64
	Str  string // owned copy, safe to keep after the next line is decoded
}

// Field pairs a compiled descriptor with its decoded value.
type Field struct {
	Descriptor
	Value Value
}

// Record is one decoded line.
type Record struct {
	Num    uint64 // ordinal among successfully decoded lines, 0 for a template
	Mask   FieldMask
	Fields []Field
}

// NewTemplate returns a record carrying only field metadata. Renderers use it for headers.
func NewTemplate(descs []Descriptor, mask FieldMask) *Record {
	rec := &Record{Mask: mask, Fields: make([]Field, len(descs))}
	for i, d := range descs {
		rec.Fields[i] = Field{Descriptor: d, Value: Value{Type: d.Info.Type}}
	}
	return rec
}

// Has reports whether the record layout contains a non-dropped field of kind k.
func (r *Record) Has(k FieldKind) bool { return r.Mask.Has(k) }

// Visible returns the fields renderers should emit, in layout order.
func (r *Record) Visible() []Field {
	out := make([]Field, 0, len(r.Fields))
	for _, f := range r.Fields {
		if !f.Dropped() {
			out = append(out, f)
		}
	}
	return out
}

// Lookup returns the first field of kind k, dropped or not.
func (r *Record) Lookup(k FieldKind) (Field, bool) {
	for _, f := range r.Fields {
		if f.Info.Kind == k {
			return f, true
		}
	}
	return Field{}, false
}
