// Package lookup builds composite-key tables for releases and resolves
// (artist, title) queries against them.
package lookup

import "strings"

// KeySeparator joins the artist and title halves of a composite key.
const KeySeparator = "|"

// Key holds the exact-case composite key for an (artist, title) pair and its
// lowercase variant.
type Key struct {
	Exact string
	Lower string
}

// BuildKey returns the composite key for artist and title with surrounding
// whitespace trimmed and case preserved.
func BuildKey(artist, title string) Key {
	exact := strings.TrimSpace(artist) + KeySeparator + strings.TrimSpace(title)
	return Key{Exact: exact, Lower: strings.ToLower(exact)}
}

// SplitKey splits a composite key on its first separator. ok is false when
// either half is empty.
func SplitKey(key string) (artist, title string, ok bool) {
	artist, title, found := strings.Cut(key, KeySeparator)
	if !found || artist == "" || title == "" {
		return "", "", false
	}
	return artist, title, true
}

// IsLowercase reports whether key is already entirely lowercase, which marks it
// as a synthesized lookup variant rather than an original key.
func IsLowercase(key string) bool {
	return key == strings.ToLower(key)
}

// Table maps composite keys to opaque values (image URLs or external IDs) and
// remembers insertion order. The first writer of a key wins.
type Table struct {
	keys   []string
	values map[string]string
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{values: make(map[string]string)}
}

// Set stores value under key unless the key is already present or value is
// empty. It reports whether the entry was added.
func (t *Table) Set(key, value string) bool {
	if value == "" {
		return false
	}
	if _, exists := t.values[key]; exists {
		return false
	}
	t.keys = append(t.keys, key)
	t.values[key] = value
	return true
}

// Insert adds value under the exact key for (artist, title) and under its
// lowercase variant when that differs and is not yet present. Pairs with a
// blank artist or title are ignored.
func (t *Table) Insert(artist, title, value string) {
	if strings.TrimSpace(artist) == "" || strings.TrimSpace(title) == "" {
		return
	}
	k := BuildKey(artist, title)
	t.Set(k.Exact, value)
	if k.Lower != k.Exact {
		t.Set(k.Lower, value)
	}
}

// Get returns the value stored under key.
func (t *Table) Get(key string) (string, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Keys returns a snapshot of the keys in insertion order. Mutating the table
// afterwards does not affect the returned slice.
func (t *Table) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.keys)
}

// Entry is a single key/value pair in insertion order.
type Entry struct {
	Key   string
	Value string
}

// Entries returns a snapshot of all entries in insertion order.
func (t *Table) Entries() []Entry {
	out := make([]Entry, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, Entry{Key: k, Value: t.values[k]})
	}
	return out
}
