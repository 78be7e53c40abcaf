package tags

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Tags is the normalized tag set of one resource. Keys keep the order in
// which they first appeared; a repeated key overwrites the earlier value.
type Tags struct {
	keys   []string
	values map[string]Value
}

// NewTags returns an empty tag set.
func NewTags() *Tags {
	return &Tags{values: make(map[string]Value)}
}

// Set stores a value under key.
func (t *Tags) Set(key string, v Value) {
	if _, ok := t.values[key]; !ok {
		t.keys = append(t.keys, key)
	}
	t.values[key] = v
}

// Get returns the value stored under key.
func (t *Tags) Get(key string) (Value, bool) {
	v, ok := t.values[key]
	return v, ok
}

// Keys returns the tag keys in first-seen order.
func (t *Tags) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Len is the number of distinct keys.
func (t *Tags) Len() int {
	return len(t.keys)
}

// Entries renders the tag set back into "key: value" strings.
func (t *Tags) Entries() []string {
	out := make([]string, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, k+": "+t.values[k].String())
	}
	return out
}

// Equal reports whether both sets hold the same keys, order and values.
func (t *Tags) Equal(o *Tags) bool {
	if t == nil || o == nil {
		return t == o
	}
	if len(t.keys) != len(o.keys) {
		return false
	}
	for i, k := range t.keys {
		if o.keys[i] != k || t.values[k] != o.values[k] {
			return false
		}
	}
	return true
}

// ParseEntry splits one raw "{key: value}" string. ok is false when the
// entry has no colon.
func ParseEntry(raw string) (key string, v Value, ok bool) {
	item := strings.Trim(raw, "{} ")
	k, val, found := strings.Cut(item, ":")
	if !found {
		return "", Value{}, false
	}
	key = strings.ReplaceAll(strings.ToLower(strings.TrimSpace(k)), " ", "_")
	return key, Coerce(val), true
}

// ParseTags normalizes an ordered list of raw tag strings. Malformed entries
// are dropped and counted.
func ParseTags(raw []string) (*Tags, int) {
	t := NewTags()
	skipped := 0
	for _, item := range raw {
		key, v, ok := ParseEntry(item)
		if !ok {
			skipped++
			continue
		}
		t.Set(key, v)
	}
	return t, skipped
}

// Catalog maps every accepted spelling of a resource name to its tag set.
type Catalog struct {
	byKey     map[string]*Tags
	resources int
	skipped   int
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{byKey: make(map[string]*Tags)}
}

// LookupKeys are the spellings a resource name is stored under.
func LookupKeys(name string) []string {
	return []string{
		strings.ToLower(name),
		strings.ToLower(strings.ReplaceAll(name, "-", "_")),
		strings.ToLower(strings.ReplaceAll(name, " ", "_")),
	}
}

// Add normalizes one resource's raw tags and registers it under all of its spellings.
func (c *Catalog) Add(name string, raw []string) *Tags {
	t, skipped := ParseTags(raw)
	c.skipped += skipped
	c.resources++
	for _, k := range LookupKeys(name) {
		c.byKey[k] = t
	}
	return t
}

// Normalize builds a catalog from resource name to raw tag strings. Names are
// added in sorted order so colliding spellings resolve the same way every run.
func Normalize(raw map[string][]string) *Catalog {
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	c := NewCatalog()
	for _, name := range names {
		c.Add(name, raw[name])
	}
	return c
}

// Lookup probes the catalog with each candidate in order and returns the first hit.
func (c *Catalog) Lookup(candidates ...string) (*Tags, string, bool) {
	if c == nil {
		return nil, "", false
	}
	for _, cand := range candidates {
		if t, ok := c.byKey[cand]; ok {
			return t, cand, true
		}
	}
	return nil, "", false
}

// Resources is the number of source entries loaded.
func (c *Catalog) Resources() int {
	if c == nil {
		return 0
	}
	return c.resources
}

// Keys is the number of lookup spellings registered.
func (c *Catalog) Keys() int {
	if c == nil {
		return 0
	}
	return len(c.byKey)
}

// Skipped is the number of malformed tag entries dropped while loading.
func (c *Catalog) Skipped() int {
	if c == nil {
		return 0
	}
	return c.skipped
}

// LoadFile reads an inventory tags file: a JSON object of resource name to
// tag strings. On any failure it returns an empty catalog together with the error.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return NewCatalog(), fmt.Errorf("failed to read tags file %q: %w", path, err)
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return NewCatalog(), fmt.Errorf("failed to parse tags file %q: %w", path, err)
	}

	return Normalize(raw), nil
}
