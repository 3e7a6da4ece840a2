package tierkv

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestRecoverable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("io timeout"), true},
		{fmt.Errorf("wrapped: %w", errors.New("x")), true},
		{context.Canceled, false},
		{fmt.Errorf("get: %w", context.DeadlineExceeded), false},
		{Fatal(errors.New("bad")), false},
		{fmt.Errorf("outer: %w", Fatal(errors.New("bad"))), false},
	}
	for i, tc := range cases {
		if got := Recoverable(tc.err); got != tc.want {
			t.Fatalf("case %d (%v): got %v want %v", i, tc.err, got, tc.want)
		}
	}
}

func TestFatal(t *testing.T) {
	if Fatal(nil) != nil {
		t.Fatalf("Fatal(nil) should be nil")
	}
	inner := errors.New("inner")
	err := Fatal(inner)
	if !errors.Is(err, inner) || !IsFatal(err) {
		t.Fatalf("Fatal wrapper lost its cause: %v", err)
	}
	if IsFatal(inner) {
		t.Fatalf("plain error reported fatal")
	}
}

func TestRescueSet(t *testing.T) {
	errA := errors.New("a")
	errB := errors.New("b")

	s := NewRescueSet()
	if s.Match(errA) {
		t.Fatalf("empty set matched")
	}

	s.Add(errA)
	if !s.Match(fmt.Errorf("wrap: %w", errA)) || s.Match(errB) {
		t.Fatalf("Add should match errA (wrapped) only")
	}

	s.AddFunc(func(err error) bool { return err.Error() == "b" })
	s.AddFunc(nil)
	if !s.Match(errB) || s.Len() != 2 {
		t.Fatalf("AddFunc: match=%v len=%d", s.Match(errB), s.Len())
	}
	if s.Match(nil) {
		t.Fatalf("nil matched")
	}

	s.Reset()
	if s.Len() != 0 || s.Match(errA) {
		t.Fatalf("Reset left categories behind")
	}
}
