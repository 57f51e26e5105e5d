package token

import (
	"strings"
	"testing"
)

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "identical", a: "hunter2", b: "hunter2", want: true},
		{name: "both empty", a: "", b: "", want: true},
		{name: "differ first char", a: "xunter2", b: "hunter2", want: false},
		{name: "differ last char", a: "hunter3", b: "hunter2", want: false},
		{name: "prefix", a: "hunter", b: "hunter2", want: false},
		{name: "empty vs value", a: "", b: "hunter2", want: false},
		{name: "case", a: "Hunter2", b: "hunter2", want: false},
		{name: "long", a: strings.Repeat("a", 4096), b: strings.Repeat("a", 4096), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Fatalf("Equal(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if got := Equal(tt.b, tt.a); got != tt.want {
				t.Fatalf("Equal is not symmetric for %q, %q", tt.a, tt.b)
			}
		})
	}
}

func TestCheckPassword(t *testing.T) {
	hashed, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !IsBcryptHash(hashed) {
		t.Fatalf("expected bcrypt hash, got %q", hashed)
	}

	tests := []struct {
		name       string
		submitted  string
		configured string
		want       bool
	}{
		{name: "plain match", submitted: "s3cret", configured: "s3cret", want: true},
		{name: "plain mismatch", submitted: "wrong", configured: "s3cret", want: false},
		{name: "bcrypt match", submitted: "s3cret", configured: hashed, want: true},
		{name: "bcrypt mismatch", submitted: "wrong", configured: hashed, want: false},
		{name: "hash submitted verbatim", submitted: hashed, configured: hashed, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CheckPassword(tt.submitted, tt.configured); got != tt.want {
				t.Fatalf("CheckPassword = %v, want %v", got, tt.want)
			}
		})
	}
}
