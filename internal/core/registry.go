package core

import (
	"fmt"
	"sort"
	"sync"
)

// DefaultFormatKey is the source format assumed when a caller does not
// name one.
const DefaultFormatKey = "mailchimp"

// SourceFormat describes one supported export source: where the file comes
// from and how to find the email address column in its header row.
//
// Formats register themselves in init functions; see the formats package.
type SourceFormat struct {
	// Key is the stable identifier used in URLs, CLI flags, and history
	// records, e.g. "mailchimp".
	Key string

	// Name is the human-readable name shown in listings.
	Name string

	// Group buckets related formats in listings.
	Group string

	// Description explains which exports the format accepts.
	Description string

	// EmailColumns lists header names recognized as the email address
	// column, in priority order. Matching is case-insensitive.
	EmailColumns []string

	// KnownColumns lists the columns this source typically exports.
	// Informational only: extra input columns are ignored and missing
	// ones tolerated.
	KnownColumns []string
}

// EmailColumnIndex returns the input column position of the first
// recognized email column, or -1 when the header has none.
func (f *SourceFormat) EmailColumnIndex(idx HeaderIndex) int {
	for _, name := range f.EmailColumns {
		if i, ok := idx[CleanHeader(name)]; ok {
			return i
		}
	}
	return -1
}

var (
	registry   = make(map[string]*SourceFormat)
	registryMu sync.RWMutex
)

// Register adds a source format to the registry.
// Panics if the key is empty or already registered.
func Register(f SourceFormat) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if f.Key == "" {
		panic("source format registered with empty key")
	}
	if _, exists := registry[f.Key]; exists {
		panic(fmt.Sprintf("source format already registered: %s", f.Key))
	}
	if f.Name == "" {
		f.Name = f.Key
	}

	registry[f.Key] = &f
}

// Get returns a source format by key.
// Returns false if not found.
func Get(key string) (*SourceFormat, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	f, ok := registry[key]
	return f, ok
}

// ResolveFormat returns the format registered under key, falling back to
// DefaultFormatKey when key is empty. Unknown keys report ErrUnknownFormat.
func ResolveFormat(key string) (*SourceFormat, error) {
	if key == "" {
		key = DefaultFormatKey
	}
	f, ok := Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, key)
	}
	return f, nil
}

// All returns all registered source formats.
// Sorted by group then by key for consistent ordering.
func All() []*SourceFormat {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]*SourceFormat, 0, len(registry))
	for _, f := range registry {
		result = append(result, f)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Group != result[j].Group {
			return result[i].Group < result[j].Group
		}
		return result[i].Key < result[j].Key
	})

	return result
}

// ByGroup returns all source formats for a specific group.
// Sorted by key for consistent ordering.
func ByGroup(group string) []*SourceFormat {
	registryMu.RLock()
	defer registryMu.RUnlock()

	var result []*SourceFormat
	for _, f := range registry {
		if f.Group == group {
			result = append(result, f)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})

	return result
}

// Groups returns all unique group names.
// Sorted alphabetically.
func Groups() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	seen := make(map[string]bool)
	for _, f := range registry {
		seen[f.Group] = true
	}

	groups := make([]string, 0, len(seen))
	for g := range seen {
		groups = append(groups, g)
	}

	sort.Strings(groups)
	return groups
}

// FormatCount returns the number of registered source formats.
func FormatCount() int {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return len(registry)
}

// Clear removes all registered source formats.
// Primarily useful for testing.
func Clear() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]*SourceFormat)
}
