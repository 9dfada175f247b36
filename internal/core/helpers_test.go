package core

import (
	"testing"
)

// ============================================================================
// CleanCell Tests
// ============================================================================

func TestCleanCell(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain value unchanged",
			input: "Email Address",
			want:  "Email Address",
		},
		{
			name:  "surrounding whitespace trimmed",
			input: "  Email Address  ",
			want:  "Email Address",
		},
		{
			name:  "wrapping quotes removed",
			input: `"Email Address"`,
			want:  "Email Address",
		},
		{
			name:  "whitespace inside quotes trimmed",
			input: `" Email Address "`,
			want:  "Email Address",
		},
		{
			name:  "interior quotes kept",
			input: `Email "Address"`,
			want:  `Email "Address`,
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
		{
			name:  "only whitespace",
			input: "   ",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCell(tt.input); got != tt.want {
				t.Errorf("CleanCell(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// ============================================================================
// CleanHeader Tests
// ============================================================================

func TestCleanHeader(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Email Address", "email address"},
		{"EMAIL ADDRESS", "email address"},
		{`" Email Address "`, "email address"},
		{"E-mail", "e-mail"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := CleanHeader(tt.input); got != tt.want {
			t.Errorf("CleanHeader(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

// ============================================================================
// MakeHeaderIndex Tests
// ============================================================================

func TestMakeHeaderIndex(t *testing.T) {
	header := []string{"Email Address", "First Name", "Last Name"}
	idx := MakeHeaderIndex(header)

	if len(idx) != 3 {
		t.Fatalf("index size = %d, want 3", len(idx))
	}
	if idx["email address"] != 0 {
		t.Errorf("email address index = %d, want 0", idx["email address"])
	}
	if idx["first name"] != 1 {
		t.Errorf("first name index = %d, want 1", idx["first name"])
	}
	if idx["last name"] != 2 {
		t.Errorf("last name index = %d, want 2", idx["last name"])
	}
}

func TestMakeHeaderIndex_NormalizesCells(t *testing.T) {
	idx := MakeHeaderIndex([]string{`" EMAIL ADDRESS "`, "  First Name"})

	if got, ok := idx["email address"]; !ok || got != 0 {
		t.Errorf("email address index = %d (found %v), want 0", got, ok)
	}
	if got, ok := idx["first name"]; !ok || got != 1 {
		t.Errorf("first name index = %d (found %v), want 1", got, ok)
	}
}

func TestMakeHeaderIndex_DuplicateLastWins(t *testing.T) {
	idx := MakeHeaderIndex([]string{"Email", "Name", "email"})

	if got := idx["email"]; got != 2 {
		t.Errorf("duplicate header index = %d, want 2 (rightmost wins)", got)
	}
}

func TestMakeHeaderIndex_Empty(t *testing.T) {
	idx := MakeHeaderIndex(nil)
	if len(idx) != 0 {
		t.Errorf("index size = %d, want 0", len(idx))
	}
}
