package id

import (
	"errors"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{name: "uuid", in: "3f2b8c1e-7a4d-4e2b-9c11-0d5e6f7a8b9c", ok: true},
		{name: "underscore", in: "flight_01", ok: true},
		{name: "empty", in: "", ok: false},
		{name: "slash", in: "../etc/passwd", ok: false},
		{name: "backslash", in: `a\b`, ok: false},
		{name: "dot", in: "a.ulg", ok: false},
		{name: "space", in: "a b", ok: false},
		{name: "too long", in: strings.Repeat("a", MaxLen+1), ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if tt.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.ok {
				var verr *ValidationError
				if !errors.As(err, &verr) {
					t.Fatalf("want *ValidationError, got %v", err)
				}
			}
		})
	}
}

func TestPathSeparatorRejectedByCustomPattern(t *testing.T) {
	v, err := NewValidator(`^.+$`)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if err := v.Validate("a/b"); err == nil {
		t.Fatalf("path separator must be rejected regardless of pattern")
	}
}

func TestNewIsValid(t *testing.T) {
	a, b := New(), New()
	if a == b {
		t.Fatalf("expected distinct ids")
	}
	if err := Validate(a); err != nil {
		t.Fatalf("generated id rejected: %v", err)
	}
}
