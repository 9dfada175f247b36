package core

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParsePreference(t *testing.T) {
	tests := []struct {
		input   string
		want    Preference
		wantErr bool
	}{
		{input: "OPT_IN", want: OptIn},
		{input: "OPT_OUT", want: OptOut},
		{input: "opt_in", want: OptIn},
		{input: "opt-out", want: OptOut},
		{input: "OptIn", want: OptIn},
		{input: "optout", want: OptOut},
		{input: "  opt_in  ", want: OptIn},
		{input: "yes", wantErr: true},
		{input: "", wantErr: true},
		{input: "OPT", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParsePreference(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePreference(%q) expected error, got %q", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePreference(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParsePreference(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseTopicFlag(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    TopicPreference
		wantErr bool
	}{
		{
			name:  "simple",
			input: "News=opt_in",
			want:  TopicPreference{Topic: "News", Preference: OptIn},
		},
		{
			name:  "name with interior spaces",
			input: "Weekly Digest=OPT_IN",
			want:  TopicPreference{Topic: "Weekly Digest", Preference: OptIn},
		},
		{
			name:  "whitespace around name trimmed",
			input: "  Promotions  =opt_out",
			want:  TopicPreference{Topic: "Promotions", Preference: OptOut},
		},
		{
			name:    "missing separator",
			input:   "News",
			wantErr: true,
		},
		{
			name:    "empty name",
			input:   "=opt_in",
			wantErr: true,
		},
		{
			name:    "invalid preference",
			input:   "News=subscribe",
			wantErr: true,
		},
		{
			name:    "second equals lands in preference",
			input:   "News=opt_in=extra",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTopicFlag(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTopicFlag(%q) expected error, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTopicFlag(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseTopicFlag(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLoadTopicsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	content := `topics:
  - name: Weekly Digest
    preference: opt_in
  - name: Promotions
    preference: OPT_OUT
  - name: Product News
    preference: opt-in
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write topics file: %v", err)
	}

	topics, err := LoadTopicsFile(path)
	if err != nil {
		t.Fatalf("LoadTopicsFile() error = %v", err)
	}

	want := []TopicPreference{
		{Topic: "Weekly Digest", Preference: OptIn},
		{Topic: "Promotions", Preference: OptOut},
		{Topic: "Product News", Preference: OptIn},
	}
	if !reflect.DeepEqual(topics, want) {
		t.Errorf("LoadTopicsFile() = %+v, want %+v", topics, want)
	}
}

func TestLoadTopicsFile_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topics.yaml")
	if err := os.WriteFile(path, []byte("topics: []\n"), 0644); err != nil {
		t.Fatalf("write topics file: %v", err)
	}

	topics, err := LoadTopicsFile(path)
	if err != nil {
		t.Fatalf("LoadTopicsFile() error = %v", err)
	}
	if len(topics) != 0 {
		t.Errorf("LoadTopicsFile() = %+v, want empty", topics)
	}
}

func TestLoadTopicsFile_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadTopicsFile(filepath.Join(dir, "nope.yaml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		os.WriteFile(path, []byte("topics: [unclosed"), 0644)
		if _, err := LoadTopicsFile(path); err == nil {
			t.Error("expected error for invalid yaml")
		}
	})

	t.Run("invalid preference", func(t *testing.T) {
		path := filepath.Join(dir, "badpref.yaml")
		os.WriteFile(path, []byte("topics:\n  - name: News\n    preference: maybe\n"), 0644)
		if _, err := LoadTopicsFile(path); err == nil {
			t.Error("expected error for invalid preference")
		}
	})
}
