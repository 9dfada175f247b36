package formats

import (
	"testing"

	"github.com/JonMunkholm/ContactPort/internal/core"
)

func TestMailchimpRegistered(t *testing.T) {
	format, err := core.ResolveFormat("mailchimp")
	if err != nil {
		t.Fatalf("ResolveFormat() error = %v", err)
	}
	if format.Name == "" || format.Group != "Mailchimp" {
		t.Errorf("format = %+v, want named format in Mailchimp group", format)
	}
	if format.Key != core.DefaultFormatKey {
		t.Errorf("Key = %q, want the default format key", format.Key)
	}
}

func TestGenericRegistered(t *testing.T) {
	format, err := core.ResolveFormat("generic")
	if err != nil {
		t.Fatalf("ResolveFormat() error = %v", err)
	}
	if format.Group != "Generic" {
		t.Errorf("Group = %q, want Generic", format.Group)
	}
}

func TestMailchimpEmailColumn(t *testing.T) {
	format, err := core.ResolveFormat("mailchimp")
	if err != nil {
		t.Fatalf("ResolveFormat() error = %v", err)
	}

	tests := []struct {
		name   string
		header []string
		want   int
	}{
		{"exact match", []string{"Email Address", "First Name"}, 0},
		{"case insensitive", []string{"First Name", "EMAIL ADDRESS"}, 1},
		{"padded cell", []string{"  Email Address  "}, 0},
		{"not first column", []string{"First Name", "Last Name", "Email Address"}, 2},
		{"absent", []string{"First Name", "Last Name"}, -1},
		{"bare Email not accepted", []string{"Email"}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := format.EmailColumnIndex(core.MakeHeaderIndex(tt.header))
			if idx != tt.want {
				t.Errorf("EmailColumnIndex(%v) = %d, want %d", tt.header, idx, tt.want)
			}
		})
	}
}

func TestGenericEmailColumnSpellings(t *testing.T) {
	format, err := core.ResolveFormat("generic")
	if err != nil {
		t.Fatalf("ResolveFormat() error = %v", err)
	}

	spellings := []string{"Email Address", "Email", "E-mail", "Email_Address", "EmailAddress"}
	for _, spelling := range spellings {
		t.Run(spelling, func(t *testing.T) {
			header := []string{"Name", spelling}
			if idx := format.EmailColumnIndex(core.MakeHeaderIndex(header)); idx != 1 {
				t.Errorf("EmailColumnIndex with %q = %d, want 1", spelling, idx)
			}
		})
	}
}

func TestGenericPrefersEarlierSpelling(t *testing.T) {
	format, err := core.ResolveFormat("generic")
	if err != nil {
		t.Fatalf("ResolveFormat() error = %v", err)
	}

	// "Email Address" outranks "Email" regardless of column position.
	header := []string{"Email", "Email Address"}
	if idx := format.EmailColumnIndex(core.MakeHeaderIndex(header)); idx != 1 {
		t.Errorf("EmailColumnIndex = %d, want 1", idx)
	}
}
