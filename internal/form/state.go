// internal/form/state.go
//
// shortly – Forms subsystem: mutable field state.
//
// Context
//   A State holds the current value of every field in one form, the values
//   the form started with, and which fields the visitor has touched.  The
//   flow controller owns exactly one State per form and is the only writer.
//   Validation never reads State directly; it receives a Values copy.
//
//------------------------------------------------------------------------------

package form

import (
	"bytes"
	"strings"
)

// File is an uploaded file field.
type File struct {
	Name        string // client-side file name
	Size        int64  // bytes
	ContentType string // declared by the client; may be empty
	Data        []byte // raw bytes; may be nil when only metadata is known
}

// Value is one field value.  Exactly one of Text or File is meaningful: File
// fields keep Text empty, text fields keep File nil.
type Value struct {
	Text string
	File *File
}

// Text is shorthand for a text Value.
func Text(s string) Value { return Value{Text: s} }

// Equal reports whether two values are indistinguishable for dirty checks.
func (v Value) Equal(o Value) bool {
	if v.Text != o.Text {
		return false
	}
	switch {
	case v.File == nil && o.File == nil:
		return true
	case v.File == nil || o.File == nil:
		return false
	}
	return v.File.Name == o.File.Name &&
		v.File.Size == o.File.Size &&
		v.File.ContentType == o.File.ContentType &&
		bytes.Equal(v.File.Data, o.File.Data)
}

// Values maps field name to value.
type Values map[string]Value

// Text returns the trimmed text of field name.
func (vs Values) Text(name string) string { return strings.TrimSpace(vs[name].Text) }

// File returns the file of field name or nil.
func (vs Values) File(name string) *File { return vs[name].File }

// Clone returns a shallow copy.  File pointers are shared; files are never
// mutated after upload.
func (vs Values) Clone() Values {
	out := make(Values, len(vs))
	for k, v := range vs {
		out[k] = v
	}
	return out
}

// State is the per-form field store.  It is not safe for concurrent use; the
// owning controller serialises access.
type State struct {
	initial Values
	current Values
	touched map[string]bool
}

// NewState returns a State seeded with initial.
func NewState(initial Values) *State {
	return &State{
		initial: initial.Clone(),
		current: initial.Clone(),
		touched: make(map[string]bool),
	}
}

// Set records an edit of field name.
func (s *State) Set(name string, v Value) {
	s.current[name] = v
	s.touched[name] = true
}

// Values returns a copy of the current values.
func (s *State) Values() Values { return s.current.Clone() }

// Touched reports whether field name has been edited since the last reset.
func (s *State) Touched(name string) bool { return s.touched[name] }

// Dirty reports whether any field differs from its initial value.
func (s *State) Dirty() bool {
	for k, v := range s.current {
		if !v.Equal(s.initial[k]) {
			return true
		}
	}
	for k, v := range s.initial {
		if _, ok := s.current[k]; !ok && !v.Equal(Value{}) {
			return true
		}
	}
	return false
}

// ResetSubmitted resets only the fields still holding the value that was
// submitted.  Fields edited since then keep their new value and stay
// touched.
func (s *State) ResetSubmitted(submitted Values) {
	for name, v := range submitted {
		if !s.current[name].Equal(v) {
			continue
		}
		if init, ok := s.initial[name]; ok {
			s.current[name] = init
		} else {
			delete(s.current, name)
		}
		delete(s.touched, name)
	}
}
