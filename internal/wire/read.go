package wire

import "strconv"

// Reader walks a decoded field vector positionally, the way the
// parsers in internal/ibproto consume an inbound message. A failed
// numeric parse leaves the field "absent" rather than raising, per
// spec.md §4.3; Reader surfaces that as ok=false without an error.
type Reader struct {
	fields []string
	pos    int
}

func NewReader(fields []string) *Reader {
	return &Reader{fields: fields}
}

// Len reports how many fields remain unread.
func (r *Reader) Len() int { return len(r.fields) - r.pos }

func (r *Reader) next() (string, bool) {
	if r.pos >= len(r.fields) {
		return "", false
	}
	s := r.fields[r.pos]
	r.pos++
	return s, true
}

// Str reads a string field, defaulting to "" past the end of the
// vector or for a missing value (matches the original decoder's
// read_str).
func (r *Reader) Str() string {
	s, _ := r.next()
	return s
}

// Int reads an integer field. ok is false if the field is absent
// (past the end) or empty; a non-numeric value also yields ok=false
// without error, matching spec.md §4.3.
func (r *Reader) Int() (v int64, ok bool) {
	s, present := r.next()
	if !present || s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Float reads a floating point field with the same absent semantics
// as Int.
func (r *Reader) Float() (v float64, ok bool) {
	s, present := r.next()
	if !present || s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Bool reads a boolean field. Per spec.md §6, "1" is true and
// anything else (including absent) is false.
func (r *Reader) Bool() bool {
	s, _ := r.next()
	return s == "1"
}
