// internal/form/state_test.go
//
// Unit-tests for State dirty tracking.

package form

import "testing"

func TestStateDirtyTracking(t *testing.T) {
	s := NewState(Shorten.Initial)
	if s.Dirty() {
		t.Fatalf("new state is dirty")
	}

	s.Set(FieldURL, Text("https://a.co"))
	if !s.Dirty() || !s.Touched(FieldURL) {
		t.Fatalf("edit not tracked: dirty=%v touched=%v", s.Dirty(), s.Touched(FieldURL))
	}

	// Typing the original value back makes the form clean again, but the
	// field stays touched.
	s.Set(FieldURL, Text(""))
	if s.Dirty() {
		t.Fatalf("state dirty after restoring initial value")
	}
	if !s.Touched(FieldURL) {
		t.Fatalf("touched flag lost")
	}

	s.Set(FieldCustomAlias, Text("abc"))
	s.ResetSubmitted(s.Values())
	if s.Dirty() || s.Touched(FieldCustomAlias) {
		t.Fatalf("reset did not restore initial state")
	}
	if got := s.Values().Text(FieldCustomAlias); got != "" {
		t.Fatalf("alias after reset = %q", got)
	}
}

func TestStateValuesIsACopy(t *testing.T) {
	s := NewState(QR.Initial)
	v := s.Values()
	v[FieldSize] = Text("300")
	if s.Values().Text(FieldSize) != "200" {
		t.Fatalf("caller mutation leaked into State")
	}
	// The schema's initial map must be untouched too.
	if QR.Initial.Text(FieldSize) != "200" {
		t.Fatalf("schema initial values mutated")
	}
}

func TestStateFileDirty(t *testing.T) {
	s := NewState(QR.Initial)
	s.Set(FieldLogo, Value{File: &File{Name: "a.png", Size: 3, Data: []byte{1, 2, 3}}})
	if !s.Dirty() {
		t.Fatalf("file upload did not mark state dirty")
	}
	s.Set(FieldLogo, Value{})
	if s.Dirty() {
		t.Fatalf("clearing the file should restore clean state")
	}
}

func TestStateResetSubmitted(t *testing.T) {
	s := NewState(Shorten.Initial)
	s.Set(FieldURL, Text("https://a.co"))
	s.Set(FieldCustomAlias, Text("abc"))
	submitted := s.Values()

	s.Set(FieldURL, Text("https://b.co"))
	s.ResetSubmitted(submitted)

	v := s.Values()
	if v.Text(FieldURL) != "https://b.co" || !s.Touched(FieldURL) {
		t.Fatalf("edited field was reset: %q", v.Text(FieldURL))
	}
	if v.Text(FieldCustomAlias) != "" || s.Touched(FieldCustomAlias) {
		t.Fatalf("submitted field kept: %q", v.Text(FieldCustomAlias))
	}
	if !s.Dirty() {
		t.Fatalf("state with a pending edit reported clean")
	}

	s.ResetSubmitted(s.Values())
	if s.Dirty() {
		t.Fatalf("state dirty after resetting every submitted value")
	}
}
