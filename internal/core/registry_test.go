package core

import (
	"errors"
	"sort"
	"testing"
)

// Registry state is process-global, so these tests register formats under
// keys no real format uses and never clear the registry.

func TestRegisterAndGet(t *testing.T) {
	Register(SourceFormat{
		Key:          "registry-test-basic",
		Name:         "Registry test format",
		Group:        "Test",
		EmailColumns: []string{"Email Address"},
	})

	f, ok := Get("registry-test-basic")
	if !ok {
		t.Fatal("Get() did not find registered format")
	}
	if f.Name != "Registry test format" {
		t.Errorf("Name = %q, want %q", f.Name, "Registry test format")
	}
	if f.Group != "Test" {
		t.Errorf("Group = %q, want %q", f.Group, "Test")
	}

	if _, ok := Get("registry-test-never-registered"); ok {
		t.Error("Get() found a format that was never registered")
	}
}

func TestRegister_DefaultsNameToKey(t *testing.T) {
	Register(SourceFormat{
		Key:          "registry-test-unnamed",
		Group:        "Test",
		EmailColumns: []string{"Email"},
	})

	f, _ := Get("registry-test-unnamed")
	if f.Name != "registry-test-unnamed" {
		t.Errorf("Name = %q, want key as fallback", f.Name)
	}
}

func TestRegister_Panics(t *testing.T) {
	t.Run("empty key", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic for empty key")
			}
		}()
		Register(SourceFormat{Key: ""})
	})

	t.Run("duplicate key", func(t *testing.T) {
		Register(SourceFormat{Key: "registry-test-dup", Group: "Test"})
		defer func() {
			if recover() == nil {
				t.Error("expected panic for duplicate key")
			}
		}()
		Register(SourceFormat{Key: "registry-test-dup", Group: "Test"})
	})
}

func TestResolveFormat(t *testing.T) {
	Register(SourceFormat{
		Key:          "registry-test-resolve",
		Group:        "Test",
		EmailColumns: []string{"Email"},
	})

	f, err := ResolveFormat("registry-test-resolve")
	if err != nil {
		t.Fatalf("ResolveFormat() error = %v", err)
	}
	if f.Key != "registry-test-resolve" {
		t.Errorf("Key = %q, want %q", f.Key, "registry-test-resolve")
	}

	_, err = ResolveFormat("registry-test-missing")
	if err == nil {
		t.Fatal("ResolveFormat() expected error for unknown key")
	}
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("error = %v, want ErrUnknownFormat", err)
	}
}

func TestAll_Sorted(t *testing.T) {
	Register(SourceFormat{Key: "registry-test-sort-b", Group: "Test"})
	Register(SourceFormat{Key: "registry-test-sort-a", Group: "Test"})

	formats := All()
	if len(formats) < 2 {
		t.Fatalf("All() returned %d formats, want at least 2", len(formats))
	}

	sorted := sort.SliceIsSorted(formats, func(i, j int) bool {
		if formats[i].Group != formats[j].Group {
			return formats[i].Group < formats[j].Group
		}
		return formats[i].Key < formats[j].Key
	})
	if !sorted {
		t.Error("All() is not sorted by group then key")
	}
}

func TestByGroupAndGroups(t *testing.T) {
	Register(SourceFormat{Key: "registry-test-group-x", Group: "TestGroupUnique"})
	Register(SourceFormat{Key: "registry-test-group-y", Group: "TestGroupUnique"})

	byGroup := ByGroup("TestGroupUnique")
	if len(byGroup) != 2 {
		t.Fatalf("ByGroup() returned %d formats, want 2", len(byGroup))
	}
	if byGroup[0].Key != "registry-test-group-x" || byGroup[1].Key != "registry-test-group-y" {
		t.Errorf("ByGroup() keys = %q, %q; want sorted by key", byGroup[0].Key, byGroup[1].Key)
	}

	groups := Groups()
	if !sort.StringsAreSorted(groups) {
		t.Error("Groups() is not sorted")
	}
	found := false
	for _, g := range groups {
		if g == "TestGroupUnique" {
			found = true
		}
	}
	if !found {
		t.Error("Groups() missing TestGroupUnique")
	}

	if FormatCount() < 2 {
		t.Errorf("FormatCount() = %d, want at least 2", FormatCount())
	}
}

func TestEmailColumnIndex(t *testing.T) {
	format := &SourceFormat{
		Key:          "registry-test-email-idx",
		EmailColumns: []string{"Email Address", "Email"},
	}

	tests := []struct {
		name   string
		header []string
		want   int
	}{
		{
			name:   "exact match",
			header: []string{"First Name", "Email Address", "Last Name"},
			want:   1,
		},
		{
			name:   "case insensitive",
			header: []string{"EMAIL ADDRESS", "First Name"},
			want:   0,
		},
		{
			name:   "priority order wins over position",
			header: []string{"Email", "Email Address"},
			want:   1,
		},
		{
			name:   "fallback column",
			header: []string{"Name", "Email"},
			want:   1,
		},
		{
			name:   "no email column",
			header: []string{"First Name", "Last Name"},
			want:   -1,
		},
		{
			name:   "empty header",
			header: []string{},
			want:   -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := format.EmailColumnIndex(MakeHeaderIndex(tt.header))
			if got != tt.want {
				t.Errorf("EmailColumnIndex() = %d, want %d", got, tt.want)
			}
		})
	}
}
