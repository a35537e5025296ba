package thumbmap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Entry is one thumbnail → video association.
type Entry struct {
	ThumbnailID string `json:"thumbnail"`
	VideoPath   string `json:"video"`
}

// Map is an ordered thumbnail map. The zero value is an empty map.
// A Map is never mutated after construction.
type Map struct {
	entries []Entry
	index   map[string]int
}

func newMap(entries []Entry) Map {
	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.ThumbnailID] = i
	}
	return Map{entries: entries, index: index}
}

// Canonicalize returns the entries of m ordered by the collation rules of
// tag. Keys that collate equal fall back to byte order, so the resulting key
// sequence is strictly increasing and independent of map iteration order.
func Canonicalize(m map[string]string, tag language.Tag) Map {
	entries := make([]Entry, 0, len(m))
	for id, video := range m {
		entries = append(entries, Entry{ThumbnailID: id, VideoPath: video})
	}

	// A Collator keeps scratch buffers and must not be shared between goroutines.
	c := collate.New(tag)
	sort.Slice(entries, func(i, j int) bool {
		return Less(c, entries[i].ThumbnailID, entries[j].ThumbnailID)
	})

	return newMap(entries)
}

// Less reports whether a sorts before b under c, breaking collation ties by
// byte order.
func Less(c *collate.Collator, a, b string) bool {
	if cmp := c.CompareString(a, b); cmp != 0 {
		return cmp < 0
	}
	return a < b
}

// IsCanonical reports whether m's keys are strictly increasing under tag.
func IsCanonical(m Map, tag language.Tag) bool {
	c := collate.New(tag)
	for i := 1; i < len(m.entries); i++ {
		if !Less(c, m.entries[i-1].ThumbnailID, m.entries[i].ThumbnailID) {
			return false
		}
	}
	return true
}

// Len returns the number of entries.
func (m Map) Len() int {
	return len(m.entries)
}

// Get returns the video path cached for a thumbnail identifier.
func (m Map) Get(thumbnailID string) (string, bool) {
	i, ok := m.index[thumbnailID]
	if !ok {
		return "", false
	}
	return m.entries[i].VideoPath, true
}

// Keys returns the thumbnail identifiers in map order.
func (m Map) Keys() []string {
	keys := make([]string, len(m.entries))
	for i, e := range m.entries {
		keys[i] = e.ThumbnailID
	}
	return keys
}

// Entries returns a copy of the entries in map order.
func (m Map) Entries() []Entry {
	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// ToMap returns the entries as an unordered Go map.
func (m Map) ToMap() map[string]string {
	out := make(map[string]string, len(m.entries))
	for _, e := range m.entries {
		out[e.ThumbnailID] = e.VideoPath
	}
	return out
}

// Equal reports whether both maps hold the same entries in the same order.
func (m Map) Equal(other Map) bool {
	if len(m.entries) != len(other.entries) {
		return false
	}
	for i := range m.entries {
		if m.entries[i] != other.entries[i] {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the map as a JSON object with keys in map order.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range m.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.ThumbnailID)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(e.VideoPath)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object, keeping keys in document order.
// A repeated key keeps its first position and its last value.
func (m *Map) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*m = Map{}
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("thumbmap: expected object, got %v", tok)
	}

	var entries []Entry
	seen := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("thumbmap: expected string key, got %v", keyTok)
		}

		var value string
		if err := dec.Decode(&value); err != nil {
			return fmt.Errorf("thumbmap: value for %q: %w", key, err)
		}

		if i, dup := seen[key]; dup {
			entries[i].VideoPath = value
			continue
		}
		seen[key] = len(entries)
		entries = append(entries, Entry{ThumbnailID: key, VideoPath: value})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*m = newMap(entries)
	return nil
}
