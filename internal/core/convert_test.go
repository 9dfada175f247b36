package core_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/ContactPort/internal/core"
	_ "github.com/JonMunkholm/ContactPort/internal/core/formats"
)

// ----------------------------------------------------------------------------
// End-to-End Conversion Tests
// ----------------------------------------------------------------------------

func TestConvertStream_RoundTrip(t *testing.T) {
	input := "Email Address\na@b.com\n"
	var out bytes.Buffer

	rows, err := core.ConvertStream(context.Background(), strings.NewReader(input), &out, core.Options{})
	if err != nil {
		t.Fatalf("ConvertStream() error = %v", err)
	}
	if rows != 1 {
		t.Errorf("rows = %d, want 1", rows)
	}

	want := "emailAddress,unsubscribeAll,attributesData\na@b.com,false,\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestConvertStream_TwoTopics(t *testing.T) {
	input := "Email Address,First Name\na@b.com,Ann\nb@c.com,Bob\n"
	opts := core.Options{
		Topics: []core.TopicPreference{
			{Topic: "Weekly Digest", Preference: core.OptIn},
			{Topic: "Promotions", Preference: core.OptOut},
		},
	}
	var out bytes.Buffer

	rows, err := core.ConvertStream(context.Background(), strings.NewReader(input), &out, opts)
	if err != nil {
		t.Fatalf("ConvertStream() error = %v", err)
	}
	if rows != 2 {
		t.Errorf("rows = %d, want 2", rows)
	}

	want := "emailAddress,unsubscribeAll,attributesData,topicPreferences.Weekly Digest,topicPreferences.Promotions\n" +
		"a@b.com,false,,OPT_IN,OPT_OUT\n" +
		"b@c.com,false,,OPT_IN,OPT_OUT\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestConvertStream_PreservesRowOrderAndCount(t *testing.T) {
	const n = 1000

	var in strings.Builder
	in.WriteString("Email Address,First Name\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&in, "user%04d@example.com,User\n", i)
	}

	var out bytes.Buffer
	rows, err := core.ConvertStream(context.Background(), strings.NewReader(in.String()), &out, core.Options{})
	if err != nil {
		t.Fatalf("ConvertStream() error = %v", err)
	}
	if rows != n {
		t.Errorf("rows = %d, want %d", rows, n)
	}

	records, err := csv.NewReader(&out).ReadAll()
	if err != nil {
		t.Fatalf("parse output: %v", err)
	}
	if len(records) != n+1 {
		t.Fatalf("output records = %d, want %d", len(records), n+1)
	}
	for i := 1; i < len(records); i++ {
		want := fmt.Sprintf("user%04d@example.com", i-1)
		if records[i][0] != want {
			t.Fatalf("row %d email = %q, want %q", i, records[i][0], want)
		}
	}
}

func TestConvertStream_EmailValuesVerbatim(t *testing.T) {
	tests := []struct {
		name      string
		inputLine string
		wantLine  string
	}{
		{"quoted comma", `"a,b@c.com"`, `"a,b@c.com",false,`},
		{"leading space", " padded@x.com", `" padded@x.com",false,`},
		{"trailing space", "padded@x.com ", "padded@x.com ,false,"},
		{"uppercase kept", "A@B.COM", "A@B.COM,false,"},
		{"unicode", "ü@exämple.com", "ü@exämple.com,false,"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := "Email Address\n" + tt.inputLine + "\n"
			var out bytes.Buffer

			if _, err := core.ConvertStream(context.Background(), strings.NewReader(input), &out, core.Options{}); err != nil {
				t.Fatalf("ConvertStream() error = %v", err)
			}

			want := "emailAddress,unsubscribeAll,attributesData\n" + tt.wantLine + "\n"
			if out.String() != want {
				t.Errorf("output = %q, want %q", out.String(), want)
			}
		})
	}
}

func TestConvertStream_MissingEmailColumn(t *testing.T) {
	input := "Name,Phone\nAnn,555-0101\nBob,555-0102\n"
	var out bytes.Buffer

	rows, err := core.ConvertStream(context.Background(), strings.NewReader(input), &out, core.Options{})
	if err != nil {
		t.Fatalf("ConvertStream() error = %v", err)
	}
	if rows != 2 {
		t.Errorf("rows = %d, want 2", rows)
	}

	// Every row still comes out, with an empty email address.
	want := "emailAddress,unsubscribeAll,attributesData\n,false,\n,false,\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestConvertStream_HeaderOnly(t *testing.T) {
	var out bytes.Buffer

	rows, err := core.ConvertStream(context.Background(),
		strings.NewReader("Email Address,First Name\n"), &out, core.Options{})
	if err != nil {
		t.Fatalf("ConvertStream() error = %v", err)
	}
	if rows != 0 {
		t.Errorf("rows = %d, want 0", rows)
	}
	if want := "emailAddress,unsubscribeAll,attributesData\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestConvertStream_EmptyInput(t *testing.T) {
	var out bytes.Buffer

	rows, err := core.ConvertStream(context.Background(), strings.NewReader(""), &out, core.Options{})
	if err != nil {
		t.Fatalf("ConvertStream() error = %v", err)
	}
	if rows != 0 {
		t.Errorf("rows = %d, want 0", rows)
	}
	// Zero-byte input still produces a well-formed import file.
	if want := "emailAddress,unsubscribeAll,attributesData\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestConvertStream_BOMInput(t *testing.T) {
	input := "\xEF\xBB\xBFEmail Address\na@b.com\n"
	var out bytes.Buffer

	rows, err := core.ConvertStream(context.Background(), strings.NewReader(input), &out, core.Options{})
	if err != nil {
		t.Fatalf("ConvertStream() error = %v", err)
	}
	if rows != 1 {
		t.Errorf("rows = %d, want 1", rows)
	}

	// The BOM must not leak into the output or break header matching.
	want := "emailAddress,unsubscribeAll,attributesData\na@b.com,false,\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestConvertStream_CRLFInput(t *testing.T) {
	input := "Email Address,First Name\r\na@b.com,Ann\r\n"
	var out bytes.Buffer

	rows, err := core.ConvertStream(context.Background(), strings.NewReader(input), &out, core.Options{})
	if err != nil {
		t.Fatalf("ConvertStream() error = %v", err)
	}
	if rows != 1 {
		t.Errorf("rows = %d, want 1", rows)
	}

	want := "emailAddress,unsubscribeAll,attributesData\na@b.com,false,\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

// ----------------------------------------------------------------------------
// Error Path Tests
// ----------------------------------------------------------------------------

func TestConvertStream_MalformedRow(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{
			name:     "wrong field count",
			input:    "Email Address,First Name\na@b.com,Ann\nb@c.com\n",
			wantLine: 3,
		},
		{
			name:     "unterminated quote",
			input:    "Email Address\n\"broken\n",
			wantLine: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			_, err := core.ConvertStream(context.Background(), strings.NewReader(tt.input), &out, core.Options{})

			var rowErr *core.MalformedRowError
			if !errors.As(err, &rowErr) {
				t.Fatalf("error = %v, want *MalformedRowError", err)
			}
			if rowErr.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", rowErr.Line, tt.wantLine)
			}
		})
	}
}

func TestConvertStream_InvalidUTF8(t *testing.T) {
	input := "Email Address\nab\x80@x.com\n"
	var out bytes.Buffer

	_, err := core.ConvertStream(context.Background(), strings.NewReader(input), &out, core.Options{})

	var decErr *core.DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("error = %v, want *DecodeError", err)
	}
	if decErr.Offset != 16 {
		t.Errorf("Offset = %d, want 16", decErr.Offset)
	}
}

// readRecorder counts Read calls so tests can prove the input was never
// touched.
type readRecorder struct {
	reads int
}

func (r *readRecorder) Read(p []byte) (int, error) {
	r.reads++
	return 0, io.EOF
}

func TestConvertStream_UnknownFormat(t *testing.T) {
	in := &readRecorder{}
	var out bytes.Buffer

	_, err := core.ConvertStream(context.Background(), in, &out, core.Options{Format: "no-such-format"})
	if !errors.Is(err, core.ErrUnknownFormat) {
		t.Fatalf("error = %v, want ErrUnknownFormat", err)
	}
	if in.reads != 0 {
		t.Errorf("input read %d times before format validation failed", in.reads)
	}
	if out.Len() != 0 {
		t.Errorf("output written before format validation failed: %q", out.String())
	}
}

func TestConvertStream_InvalidTopics(t *testing.T) {
	in := &readRecorder{}
	var out bytes.Buffer
	opts := core.Options{
		Topics: []core.TopicPreference{{Topic: "emailAddress", Preference: core.OptIn}},
	}

	_, err := core.ConvertStream(context.Background(), in, &out, opts)

	var schemaErr *core.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("error = %v, want *SchemaError", err)
	}
	if in.reads != 0 {
		t.Errorf("input read %d times before topic validation failed", in.reads)
	}
}

func TestConvertStream_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out bytes.Buffer
	rows, err := core.ConvertStream(ctx, strings.NewReader("Email Address\na@b.com\n"), &out, core.Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
	if rows != 0 {
		t.Errorf("rows = %d, want 0", rows)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want nothing flushed", out.String())
	}
}

// ----------------------------------------------------------------------------
// Format Resolution Tests
// ----------------------------------------------------------------------------

func TestResolveFormat_DefaultIsMailchimp(t *testing.T) {
	format, err := core.ResolveFormat("")
	if err != nil {
		t.Fatalf("ResolveFormat(\"\") error = %v", err)
	}
	if format.Key != "mailchimp" {
		t.Errorf("default format = %q, want mailchimp", format.Key)
	}
}

func TestConvertStream_GenericFormatSpellings(t *testing.T) {
	spellings := []string{
		"Email Address",
		"Email",
		"E-mail",
		"Email_Address",
		"EmailAddress",
	}

	for _, header := range spellings {
		t.Run(header, func(t *testing.T) {
			input := header + "\na@b.com\n"
			var out bytes.Buffer

			_, err := core.ConvertStream(context.Background(), strings.NewReader(input), &out, core.Options{Format: "generic"})
			if err != nil {
				t.Fatalf("ConvertStream() error = %v", err)
			}

			want := "emailAddress,unsubscribeAll,attributesData\na@b.com,false,\n"
			if out.String() != want {
				t.Errorf("header %q not recognized: output = %q", header, out.String())
			}
		})
	}
}

// ----------------------------------------------------------------------------
// File Conversion Tests
// ----------------------------------------------------------------------------

func TestConvertFile(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "audience.csv")
	outputPath := filepath.Join(dir, "contacts.csv")

	input := "Email Address,First Name\na@b.com,Ann\n"
	if err := os.WriteFile(inputPath, []byte(input), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	rows, err := core.ConvertFile(context.Background(), inputPath, outputPath, core.Options{})
	if err != nil {
		t.Fatalf("ConvertFile() error = %v", err)
	}
	if rows != 1 {
		t.Errorf("rows = %d, want 1", rows)
	}

	output, err := os.ReadFile(outputPath)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := "emailAddress,unsubscribeAll,attributesData\na@b.com,false,\n"
	if string(output) != want {
		t.Errorf("output = %q, want %q", string(output), want)
	}
}

func TestConvertFile_InputMissing(t *testing.T) {
	dir := t.TempDir()

	_, err := core.ConvertFile(context.Background(),
		filepath.Join(dir, "nope.csv"), filepath.Join(dir, "out.csv"), core.Options{})
	if !errors.Is(err, core.ErrInputNotFound) {
		t.Errorf("error = %v, want ErrInputNotFound", err)
	}
}

func TestConvertFile_OutputNotWritable(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "audience.csv")
	if err := os.WriteFile(inputPath, []byte("Email Address\na@b.com\n"), 0644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	_, err := core.ConvertFile(context.Background(),
		inputPath, filepath.Join(dir, "missing", "out.csv"), core.Options{})
	if !errors.Is(err, core.ErrOutputWrite) {
		t.Errorf("error = %v, want ErrOutputWrite", err)
	}
}
